package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"groupkeys/internal/app"
	"groupkeys/internal/domain"
)

var (
	home       string
	passphrase string
	configPath string
	relayURL   string
	userID     string

	wire *app.Wire
)

// Root builds the groupkeys command tree.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "groupkeys",
		Short:         "Sender key management for end-to-end encrypted group messaging",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".groupkeys")
			}
			cfg, err := app.LoadHome(home, configPath)
			if err != nil {
				return err
			}
			if relayURL != "" {
				cfg.Relay.URL = strings.TrimRight(relayURL, "/")
			}
			if userID != "" {
				cfg.Account.UserID = userID
			}
			wire, err = app.NewWire(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.groupkeys)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default <home>/groupkeys.toml)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVarP(&userID, "user", "u", "", "your user id")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		joinCmd(),
		ensureCmd(),
		invalidateCmd(),
		sendCmd(),
		recvCmd(),
		keysCmd(),
		logoutCmd(),
	)
	return root
}

// Execute runs the CLI under fang and exits non-zero on failure.
func Execute() {
	root := Root()
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(versioninfo.Short()),
		fang.WithErrorHandler(errorHandler(root)),
	); err != nil {
		os.Exit(1)
	}
}

// errorHandler prints the error and, for argument mistakes, the usage.
func errorHandler(root *cobra.Command) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		_, _ = fmt.Fprintln(w, styles.ErrorHeader.String())
		_, _ = fmt.Fprintln(w, styles.ErrorText.Render(err.Error()+"."))
		_, _ = fmt.Fprintln(w)
		if isUsageError(err) {
			root.HelpFunc()(root, []string{})
		}
	}
}

func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"required flag",
		"accepts",
		"arg(s), received",
		"failed to load config file",
	} {
		if strings.Contains(s, prefix) {
			return true
		}
	}
	return false
}

// withSession logs in, runs fn and checkpoints the session afterwards.
func withSession(ctx context.Context, fn func(ctx context.Context, user domain.UserID) error) error {
	user, err := login(ctx)
	if err != nil {
		return err
	}
	runErr := fn(ctx, user)
	if ok, err := wire.Session.Checkpoint(ctx); err != nil {
		return errors.Join(runErr, err)
	} else if !ok {
		fmt.Fprintln(os.Stderr, "warning: sender key backup not written; state is memory-only")
	}
	return runErr
}

func login(ctx context.Context) (domain.UserID, error) {
	if passphrase == "" {
		return "", fmt.Errorf("passphrase required (-p)")
	}
	user := domain.UserID(wire.Config.Account.UserID)
	if user == "" {
		return "", fmt.Errorf("no user id; run init with --user or set [Account] UserID")
	}
	id, err := wire.Identity.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	if _, err := wire.Session.Login(ctx, user, id); err != nil {
		return "", err
	}
	return user, nil
}
