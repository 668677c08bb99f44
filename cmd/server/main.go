// Command server runs the simple-translate HTTP service.
//
// Configuration is read from a YAML file (see pkg/config) with
// SIMPLE_TRANSLATE_* environment overrides. Common ones:
//
//	SIMPLE_TRANSLATE_CONFIG    - path to config.yaml
//	SIMPLE_TRANSLATE_PORT      - listen port (default: 8787)
//	SIMPLE_TRANSLATE_BASE_URL  - Chat Completions API root
//	SIMPLE_TRANSLATE_STORAGE   - none, memory, sqlite or postgres (default: memory)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rhuss/simple-translate/pkg/config"
	"github.com/rhuss/simple-translate/pkg/debug"
	"github.com/rhuss/simple-translate/pkg/provider/openai"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/storage"
	"github.com/rhuss/simple-translate/pkg/storage/memory"
	"github.com/rhuss/simple-translate/pkg/storage/postgres"
	"github.com/rhuss/simple-translate/pkg/storage/sqlite"
	"github.com/rhuss/simple-translate/pkg/translate"
	transporthttp "github.com/rhuss/simple-translate/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prov, err := openai.New(openai.Config{
		BaseURL:               cfg.Provider.BaseURL,
		Timeout:               cfg.Provider.Timeout,
		ResponseHeaderTimeout: cfg.Provider.ResponseHeaderTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}
	defer prov.Close()

	history, err := openHistory(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	if history != nil {
		defer history.Close()
	}

	dispatcher, err := translate.New(prov, history)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	settingsPath := cfg.Settings.Path
	if settingsPath == "" {
		settingsPath = settings.DefaultPath()
	}
	store := settings.NewStore(settingsPath)
	slog.Info("settings store", "path", store.Path())

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(cfg.Server.Addr()),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodyBytes),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMetricsPath(metricsPath(cfg.Observability.Metrics)),
	}

	srv := transporthttp.NewServer(transporthttp.Backend{
		Translator: dispatcher,
		Models:     dispatcher,
		Settings:   store,
		History:    history,
	}, opts...)

	slog.Info("provider configured",
		"provider", prov.Name(),
		"base_url", cfg.Provider.BaseURL,
	)

	serveErr := srv.ListenAndServe(ctx)

	// Shutdown has let in-flight handlers finish. Sessions they started keep
	// running until their terminal notification, and must be done before the
	// deferred store and provider Close calls.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, dispatcher.Shutdown(drainCtx))
}

// openHistory builds the configured history store, instrumented for
// metrics. It returns nil for storage type "none".
func openHistory(ctx context.Context, cfg config.StorageConfig) (storage.HistoryStore, error) {
	var (
		store storage.HistoryStore
		err   error
	)

	switch cfg.Type {
	case config.StorageNone:
		slog.Info("history disabled")
		return nil, nil
	case config.StorageMemory:
		store = memory.New(cfg.MaxSize)
		slog.Info("history enabled", "type", cfg.Type, "max_size", cfg.MaxSize)
	case config.StorageSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = defaultHistoryPath()
		}
		store, err = sqlite.New(ctx, sqlite.Config{
			Path:        path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		slog.Info("history enabled", "type", cfg.Type, "path", path)
	case config.StoragePostgres:
		store, err = postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		slog.Info("history enabled", "type", cfg.Type, "max_conns", cfg.Postgres.MaxConns)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return storage.Instrument(store, cfg.Type), nil
}

// metricsPath returns the endpoint path, or "" when metrics are disabled.
func metricsPath(cfg config.MetricsConfig) string {
	if !cfg.Enabled {
		return ""
	}
	return cfg.Path
}

func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "history.db")
	}
	return filepath.Join(dir, "simple-translate", "history.db")
}
