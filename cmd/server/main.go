// Command server runs the dojo management backend.
//
// Configuration is layered: built-in defaults, then a YAML file
// (DOJO_CONFIG, ./config.yaml, or /etc/dojo/config.yaml), then
// environment variables:
//
//	PORT          - Listen port (default: 3000)
//	JWT_SECRET    - Session token signing secret (required in production)
//	DATABASE_URL  - PostgreSQL connection string (required for postgres storage)
//	DOJO_ENV      - "development" or "production" (default: development)
//	DOJO_STORAGE  - Storage type: "memory" or "postgres" (default: postgres)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trabbrunno-ctrl/dojo-backend/pkg/auth"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/auth/session"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/config"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage/memory"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/storage/postgres"
	"github.com/trabbrunno-ctrl/dojo-backend/pkg/transport"
	transporthttp "github.com/trabbrunno-ctrl/dojo-backend/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Environment)
	slog.SetDefault(logger)

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	// Session tokens: HS256 over the configured secret with the configured TTL.
	codec := session.NewCodec([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)
	chain := &auth.AuthChain{
		Authenticators: []auth.Authenticator{session.NewAuthenticator(codec)},
	}
	logins := auth.NewLoginService(store, auth.BcryptVerifier{}, codec)

	adapterCfg := transporthttp.Config{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		MaxBodySize:    1 << 20,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	}
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsHandler = promhttp.Handler()
	}
	adapter := transporthttp.NewAdapter(store, logins, chain, adapterCfg)

	srv := transporthttp.NewServer(adapter, transporthttp.ServerConfig{
		Addr:            fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		RequestTimeout:  cfg.Server.RequestTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})

	logger.Info("dojo backend starting",
		slog.Int("port", cfg.Server.Port),
		slog.String("environment", cfg.Environment),
		slog.String("storage", cfg.Storage.Type),
	)

	return srv.ListenAndServe()
}

// newStore builds the configured store adapter. The memory store is for
// development and tests; postgres is the deployment default.
func newStore(cfg *config.Config) (transport.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		slog.Info("using in-memory storage; data is lost on restart")
		return memory.New(), nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// newLogger builds the process logger: human-readable text in
// development, JSON lines in production.
func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
