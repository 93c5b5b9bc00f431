package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	app "cxc-checkin/internal"
	"cxc-checkin/internal/access"
	"cxc-checkin/internal/broker"
	"cxc-checkin/internal/config"
	"cxc-checkin/internal/events"
	"cxc-checkin/internal/jwt"
	"cxc-checkin/internal/profiles"
	"cxc-checkin/internal/revocation"
	"cxc-checkin/internal/routes"
	"cxc-checkin/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the check-in API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return ServerMain(ctx, cfg, provider)
	},
}

// Initialize logger. CLI commands only log errors unless debugging.
func initLogger(cfg *config.Config, quiet bool) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		fmt.Fprintln(os.Stderr, "Invalid log level in config, defaulting to INFO")
	}

	var handler slog.Handler
	if quiet {
		if level < slog.LevelError && level != slog.LevelDebug {
			level = slog.LevelError
		}
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Debug("Logger initialized", "level", level.String())
	return logger
}

func newEventService(cfg *config.Config, store storage.Provider) *events.Service {
	return events.NewService(store, events.WithDefaultBuffer(cfg.Events.DefaultBuffer))
}

func newCheckInService(cfg *config.Config, store storage.Provider, publisher broker.Publisher) *events.CheckInService {
	return events.NewCheckInService(store, publisher, cfg.CheckIn.EnforceWindow)
}

func ServerMain(ctx context.Context, cfg *config.Config, store storage.Provider) error {
	if store == nil {
		return errors.New("storage provider is not initialized")
	}

	rbac, err := access.New(cfg.RBAC.PolicyFile)
	if err != nil {
		return fmt.Errorf("load RBAC policy: %w", err)
	}

	revocations, err := revocation.NewStore(cfg.RevocationStore, store, revocation.DefaultPruneInterval)
	if err != nil {
		return err
	}
	defer revocations.Close()

	publisher, err := broker.NewPublisher(cfg.NATS)
	if err != nil {
		// Broadcasting is optional. Check-ins keep working without it.
		slog.Error("Check-in broadcast disabled", "error", err)
		publisher = broker.NoopPublisher{}
	}
	defer publisher.Close()

	services := &routes.Services{
		Events:      newEventService(cfg, store),
		CheckIn:     newCheckInService(cfg, store, publisher),
		Profiles:    profiles.NewService(store, cfg.NFC.Secret),
		RBAC:        rbac,
		Sessions:    jwt.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.Audience),
		Revocations: revocations,
		Auth:        cfg.Auth,
		Storage:     store,
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.HTTPServer(cfg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting check-in server", "addr", cfg.ListenAddr, "storage", cfg.Storage.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down check-in server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
