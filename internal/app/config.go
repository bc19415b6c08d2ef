package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"groupkeys/internal/log"
)

const (
	// ConfigFilename is looked up in the home directory when no explicit
	// config path is given.
	ConfigFilename = "groupkeys.toml"

	defaultLogLevel       = "NOTICE"
	defaultDatabase       = "groupkeys.db"
	defaultRelayTimeout   = 10
	defaultDirPermissions = 0o700
)

// Account names the local user.
type Account struct {
	UserID string
}

// Relay configures the relay client.
type Relay struct {
	URL            string
	TimeoutSeconds int
}

// Storage configures the durable backup store.
type Storage struct {
	// Database is the bbolt file. Relative paths resolve against Home.
	Database string
}

// Logging configures the log backend.
type Logging struct {
	Disable bool
	File    string
	Level   string
}

// Config is the top level groupkeys configuration.
type Config struct {
	Account *Account
	Relay   *Relay
	Storage *Storage
	Logging *Logging

	// Home is the state directory. It is set by the caller, not the file.
	Home string `toml:"-"`
}

// FixupAndValidate fills defaults and checks the configuration.
func (c *Config) FixupAndValidate() error {
	if c.Home == "" {
		return errors.New("config: Home is not set")
	}
	if c.Account == nil {
		c.Account = &Account{}
	}
	if c.Relay == nil {
		c.Relay = &Relay{}
	}
	if c.Storage == nil {
		c.Storage = &Storage{}
	}
	if c.Logging == nil {
		c.Logging = &Logging{}
	}

	if c.Relay.TimeoutSeconds == 0 {
		c.Relay.TimeoutSeconds = defaultRelayTimeout
	}
	if c.Relay.TimeoutSeconds < 0 {
		return fmt.Errorf("config: Relay: TimeoutSeconds %d is negative", c.Relay.TimeoutSeconds)
	}
	if c.Relay.URL != "" {
		u, err := url.Parse(c.Relay.URL)
		if err != nil {
			return fmt.Errorf("config: Relay: URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("config: Relay: URL %q must be http or https", c.Relay.URL)
		}
		c.Relay.URL = strings.TrimRight(c.Relay.URL, "/")
	}

	if c.Storage.Database == "" {
		c.Storage.Database = defaultDatabase
	}
	if !filepath.IsAbs(c.Storage.Database) {
		c.Storage.Database = filepath.Join(c.Home, c.Storage.Database)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Level = strings.ToUpper(c.Logging.Level)
	switch c.Logging.Level {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	default:
		return fmt.Errorf("config: Logging: Level %q is invalid", c.Logging.Level)
	}
	if !c.Logging.Disable && c.Logging.File != "" && !filepath.IsAbs(c.Logging.File) {
		return errors.New("config: Logging: File must be an absolute path")
	}
	return nil
}

// RelayTimeout returns the per-request relay timeout.
func (c *Config) RelayTimeout() time.Duration {
	return time.Duration(c.Relay.TimeoutSeconds) * time.Second
}

// InitLogBackend builds the log backend described by c.
func (c *Config) InitLogBackend() (*log.Backend, error) {
	return log.New(c.Logging.File, c.Logging.Level, c.Logging.Disable)
}

// Load parses the provided buffer b as a config file body and returns the
// Config. Call FixupAndValidate before use.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	return cfg, nil
}

// LoadFile loads and parses the provided file.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

// LoadHome reads path, or home/ConfigFilename when path is empty, sets
// Home and validates. A missing default file yields an all-default Config.
func LoadHome(home, path string) (*Config, error) {
	if err := os.MkdirAll(home, defaultDirPermissions); err != nil {
		return nil, err
	}

	var cfg *Config
	var err error
	switch {
	case path != "":
		cfg, err = LoadFile(path)
	default:
		cfg, err = LoadFile(filepath.Join(home, ConfigFilename))
		if errors.Is(err, os.ErrNotExist) {
			cfg, err = new(Config), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.Home = home
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes c to home/ConfigFilename.
func (c *Config) Save() error {
	f, err := os.OpenFile(filepath.Join(c.Home, ConfigFilename), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
