package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/nadlan-labs/shuma-cli/internal/fetch"
	"github.com/nadlan-labs/shuma-cli/internal/monitoring"
	"github.com/nadlan-labs/shuma-cli/internal/parse"
	"github.com/nadlan-labs/shuma-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "shuma.db"
		}
		st, err := store.NewSQLite(path)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initRegistry() (fetch.Registry, error) {
	if cfg.Fetch.RegistryPath != "" {
		return fetch.LoadRegistry(cfg.Fetch.RegistryPath)
	}
	return fetch.DefaultRegistry(), nil
}

// buildChain assembles the extraction strategy chain in fallback order:
// structural, path-based, loose, raw text, then last known good from the
// store.
func buildChain(st store.Store) *parse.Chain {
	sink := parse.AlertSink(monitoring.LogSink{})
	if cfg.Monitor.WebhookURL != "" {
		sink = monitoring.MultiSink{
			monitoring.LogSink{},
			monitoring.NewWebhookSink(cfg.Monitor.WebhookURL),
		}
	}
	monitor := parse.NewHealthMonitor(cfg.Monitor.FailureThreshold, sink)

	return parse.NewChain(monitor,
		parse.StructuralStrategy{},
		parse.PathStrategy{},
		parse.LooseStrategy{},
		parse.RawTextStrategy{},
		parse.LastGoodStrategy{Store: st},
	)
}
