package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/brewgator/lightning-channel-assistant/internal/config"
	"github.com/brewgator/lightning-channel-assistant/internal/logging"
	"github.com/brewgator/lightning-channel-assistant/internal/query"
	"github.com/brewgator/lightning-channel-assistant/pkg/db"
	"github.com/brewgator/lightning-channel-assistant/pkg/lnd"
)

// app holds what every subcommand needs
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *lnd.Client
	history *db.Database
	svc     *query.Service
}

// newApp loads configuration and wires the query service. Logs go to stderr
// so stdout stays free for answers and the MCP stdio transport.
func newApp() (*app, error) {
	cfg, err := config.Load(configFile, envFiles...)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		client: lnd.Shared(cfg.LND.Client()),
	}

	opts := []query.Option{
		query.WithCriteria(cfg.Health),
		query.WithEnrichConcurrency(cfg.Enrich.Concurrency),
		query.WithTimeout(cfg.LND.Timeout),
		query.WithLogger(logger),
	}
	if cfg.History.Enabled {
		database, err := db.NewDatabase(cfg.History.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		a.history = database
		opts = append(opts, query.WithRecorder(database))
	}

	a.svc = query.NewService(a.client, opts...)
	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("failed to close history database", "error", err)
		}
	}
}
