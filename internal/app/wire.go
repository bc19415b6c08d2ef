package app

import (
	"errors"

	"groupkeys/internal/codec"
	"groupkeys/internal/crypto"
	"groupkeys/internal/domain"
	"groupkeys/internal/log"
	"groupkeys/internal/relay"
	"groupkeys/internal/services/distribution"
	"groupkeys/internal/services/groupmsg"
	"groupkeys/internal/services/identity"
	"groupkeys/internal/services/persistence"
	"groupkeys/internal/session"
	"groupkeys/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Config *Config
	Log    *log.Backend

	Identity    *identity.Service
	Keys        *store.SenderKeyMemStore
	Records     *store.BoltRecordStore
	Relay       domain.RelayClient
	Coordinator *distribution.Service
	Gateway     *persistence.Gateway
	Messages    *groupmsg.Service
	Session     *session.CryptoSessionContext
}

// NewWire constructs the dependency graph from a validated cfg.
func NewWire(cfg *Config) (*Wire, error) {
	backend, err := cfg.InitLogBackend()
	if err != nil {
		return nil, err
	}

	// File-based identity, bbolt-backed sender key backups.
	identityStore := store.NewIdentityFileStore(cfg.Home)
	records, err := store.OpenBoltRecordStore(cfg.Storage.Database)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	var rc domain.RelayClient = relay.Offline{}
	if cfg.Relay.URL != "" {
		rc = relay.NewHTTP(cfg.Relay.URL, cfg.RelayTimeout())
	}

	keys := store.NewSenderKeyMemStore()
	provider := crypto.NewProvider()

	coord := distribution.New(keys, provider, rc, backend.GetLogger("distribution"))
	gateway := persistence.New(records, codec.New(keys), provider, backend.GetLogger("persistence"))

	return &Wire{
		Config:      cfg,
		Log:         backend,
		Identity:    identity.New(identityStore),
		Keys:        keys,
		Records:     records,
		Relay:       rc,
		Coordinator: coord,
		Gateway:     gateway,
		Messages:    groupmsg.New(keys, coord, rc, backend.GetLogger("groupmsg")),
		Session:     session.New(keys, coord, gateway, backend.GetLogger("session")),
	}, nil
}

// Close releases the record store and log backend.
func (w *Wire) Close() error {
	return errors.Join(w.Records.Close(), w.Log.Close())
}
