// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for avesta.
//
// Configuration is read from ~/.avesta/config.toml (or config.json as a
// fallback), merged over built-in defaults, and finally overridden from the
// environment. A .env file in the working directory is honored for
// AVESTA_API_KEY / GEMINI_API_KEY so the key never has to live in the
// config file.
//
// The package exposes a thread-safe global instance (Global / ReloadGlobal)
// and an fsnotify-based Watcher that keeps it fresh while the app runs.
//
// Example:
//
//	cfg := config.Global()
//	fmt.Println(cfg.DefaultModel)
//
//	w, err := config.NewWatcher(500*time.Millisecond, func(fresh *config.Config) {
//		log.Printf("config reloaded: model=%s", fresh.DefaultModel)
//	})
//	if err == nil {
//		_ = w.Watch()
//		defer w.Close()
//	}
package config
