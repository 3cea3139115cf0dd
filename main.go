// avesta - streaming Gemini chat for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avesta-ai/avesta/internal/cli"
	"github.com/avesta-ai/avesta/internal/config"
	"github.com/avesta-ai/avesta/internal/orchestrator"
	"github.com/avesta-ai/avesta/internal/provider"
	"github.com/avesta-ai/avesta/internal/storage"
	"github.com/avesta-ai/avesta/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference so the orchestrator's event listener, which
// runs on streaming goroutines, can deliver messages into the TUI loop.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	if args.NoColor {
		os.Setenv("NO_COLOR", "1")
	}

	switch cmd {
	case cli.CmdTUI:
		os.Exit(runTUI(args))
	case cli.CmdAsk:
		os.Exit(cli.HandleAskCommand(args))
	case cli.CmdChat:
		os.Exit(cli.HandleChatCommand(args))
	case cli.CmdSession:
		os.Exit(cli.HandleSessionCommand(args))
	case cli.CmdConfig:
		os.Exit(cli.HandleConfigCommand(args))
	case cli.CmdModels:
		os.Exit(cli.HandleModelsCommand(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		cli.PrintUsage()
		os.Exit(cli.ExitUsage)
	}
}

// sendToProgram forwards a message into the running TUI, if any.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// runTUI wires storage, provider, and orchestrator together and runs the
// full-screen interface.
func runTUI(args cli.Args) int {
	cfg := config.Global()
	if args.Model != "" {
		clone := cfg.Clone()
		clone.DefaultModel = args.Model
		if err := clone.Validate(); err != nil {
			return cli.HandleError(err, false)
		}
		config.SetGlobal(clone)
		cfg = clone
	}

	var logf storage.Logf
	if args.Verbose {
		logf = log.Printf
	}

	store, closeStore, err := openBackend(cfg, logf)
	if err != nil {
		return cli.HandleError(err, false)
	}
	defer closeStore()
	store.LoadAll()

	client := provider.NewClientWithConfig(&provider.ClientConfig{
		BaseURL:           cfg.Provider.BaseURL,
		APIKey:            cfg.Provider.APIKey,
		DefaultModel:      cfg.DefaultModel,
		RequestsPerMinute: cfg.Provider.RequestsPerMinute,
		ConnectTimeout:    time.Duration(cfg.Provider.ConnectTimeoutSecs) * time.Second,
	})

	orch := orchestrator.New(store, orchestrator.NewGeminiClient(client), cfg.DefaultModel, logf)
	orch.SetListener(func(ev orchestrator.Event) {
		switch ev.Kind {
		case orchestrator.EventSessionsChanged:
			sendToProgram(chat.SessionsChangedMsg{SessionID: ev.SessionID})
		case orchestrator.EventTurnStarted:
			sendToProgram(chat.TurnStartedMsg{SessionID: ev.SessionID})
		case orchestrator.EventFragment:
			sendToProgram(chat.FragmentMsg{SessionID: ev.SessionID})
		case orchestrator.EventTurnCompleted:
			sendToProgram(chat.TurnCompletedMsg{SessionID: ev.SessionID, Stats: ev.Stats})
		case orchestrator.EventTurnFailed:
			sendToProgram(chat.TurnFailedMsg{SessionID: ev.SessionID, Err: ev.Err})
		}
	})

	// Trailing words on the command line open the TUI with a message
	// already sent ("avesta explain monads").
	if q := strings.TrimSpace(args.Query); q != "" {
		orch.Handoff().Set(q)
	}

	model := chat.New(orch, cfg)
	model.Version = Version

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Live config reload while the TUI runs
	if watcher, werr := config.NewWatcher(500*time.Millisecond, func(*config.Config) {
		sendToProgram(chat.ConfigReloadedMsg{})
	}); werr == nil {
		if werr := watcher.Watch(); werr == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitError
	}
	return cli.ExitSuccess
}

// openBackend opens the configured storage backend.
func openBackend(cfg *config.Config, logf storage.Logf) (*storage.Store, func() error, error) {
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
		return storage.NewStore(backend, logf), func() error { return nil }, nil
	}
}
