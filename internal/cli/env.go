// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Shared runtime wiring for the CLI commands.
package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/avesta-ai/avesta/internal/config"
	"github.com/avesta-ai/avesta/internal/provider"
	"github.com/avesta-ai/avesta/internal/storage"
)

// buildProviderClient constructs a provider client from the effective
// configuration.
func buildProviderClient(cfg *config.Config) *provider.Client {
	return provider.NewClientWithConfig(&provider.ClientConfig{
		BaseURL:           cfg.Provider.BaseURL,
		APIKey:            cfg.Provider.APIKey,
		DefaultModel:      cfg.DefaultModel,
		RequestsPerMinute: cfg.Provider.RequestsPerMinute,
		ConnectTimeout:    time.Duration(cfg.Provider.ConnectTimeoutSecs) * time.Second,
	})
}

// openStore opens the session store on the configured backend.
func openStore(cfg *config.Config, verbose bool) (*storage.Store, func() error, error) {
	var logf storage.Logf
	if verbose {
		logf = log.Printf
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		path, err := cfg.SQLitePath()
		if err != nil {
			return nil, nil, err
		}
		backend, err := storage.NewSQLiteBackend(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session database: %w", err)
		}
		return storage.NewStore(backend, logf), backend.Close, nil

	default:
		dir, err := cfg.DataDir()
		if err != nil {
			return nil, nil, err
		}
		backend, err := storage.NewFileBackendWithDir(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session storage: %w", err)
		}
		noop := func() error { return nil }
		return storage.NewStore(backend, logf), noop, nil
	}
}

// resolveModel picks the model for a command: the --model flag when given,
// otherwise the configured default.
func resolveModel(args Args, cfg *config.Config) string {
	if args.Model != "" {
		return args.Model
	}
	return cfg.DefaultModel
}
