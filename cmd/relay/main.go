package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"gopkg.in/op/go-logging.v1"

	"groupkeys/internal/log"
	"groupkeys/internal/relay"
)

func main() {
	var (
		listen   string
		logFile  string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "In-memory relay for channel membership and sender key distributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := log.New(logFile, logLevel, false)
			if err != nil {
				return err
			}
			defer backend.Close()
			logger := backend.GetLogger("relay")
			return serve(cmd.Context(), listen, logger, relay.NewServer(logger))
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", ":8080", "listen address")
	cmd.Flags().StringVar(&logFile, "log-file", "", "log file (default stderr)")
	cmd.Flags().StringVar(&logLevel, "log-level", "NOTICE", "ERROR, WARNING, NOTICE, INFO or DEBUG")

	if err := fang.Execute(context.Background(), cmd, fang.WithVersion(versioninfo.Short())); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string, logger *logging.Logger, srv *relay.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	logger.Noticef("Relay listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Noticef("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
