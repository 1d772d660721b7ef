package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/gaitid/internal/config"
	"github.com/kozaktomas/gaitid/internal/database"
	"github.com/kozaktomas/gaitid/internal/database/postgres"
	"github.com/kozaktomas/gaitid/internal/database/sqlite"
	"github.com/kozaktomas/gaitid/internal/gait"
	"github.com/kozaktomas/gaitid/internal/identity"
	"github.com/kozaktomas/gaitid/internal/logging"
)

// app bundles what every store-backed command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  database.SignatureStore
}

// loadConfig loads the configuration and applies the persistent log flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	return cfg, nil
}

// newApp loads config, builds the logger and opens the configured store.
// The caller must close the store.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return nil, err
	}
	store, err := openStore(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.UsePostgres() {
		logger.Debug("using PostgreSQL signature store")
	} else {
		logger.Debug("using SQLite signature store", "path", cfg.Database.Path)
	}
	return &app{cfg: cfg, logger: logger, store: store}, nil
}

// openStore opens PostgreSQL when a URL is configured and SQLite otherwise.
func openStore(cfg *config.DatabaseConfig) (database.SignatureStore, error) {
	if cfg.UsePostgres() {
		repo, err := postgres.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("opening PostgreSQL store: %w", err)
		}
		return repo, nil
	}
	store, err := sqlite.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite store: %w", err)
	}
	return store, nil
}

func (a *app) resolver() *identity.Resolver {
	return identity.NewResolver(a.store, a.cfg.Identity.Threshold, a.logger)
}

func (a *app) engine() *gait.Engine {
	return gait.NewEngine(a.cfg.Encoder, a.resolver(), a.logger)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store failed", "error", err)
	}
}

func outputJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
