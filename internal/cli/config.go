// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handlers.
//
// Command: config [subcommand]
// Short:   Show and edit configuration
//
// Examples:
//   avesta config show
//   avesta config get ui.theme
//   avesta config set default_model gemini-flash-latest
//   avesta config set provider.api_key YOUR_KEY
//   avesta config path
package cli

import (
	"fmt"

	"github.com/avesta-ai/avesta/internal/config"
)

// HandleConfigCommand executes a config subcommand and returns an exit
// code.
func HandleConfigCommand(args Args) int {
	switch args.Subcommand {
	case "", "show":
		return configShow(args.JSON)

	case "get":
		return configGet(args.ConfigKey, args.JSON)

	case "set":
		return configSet(args.ConfigKey, args.ConfigVal, args.JSON)

	case "path":
		return configPath(args.JSON)

	case "keys":
		for _, key := range config.GetAllKeys() {
			fmt.Println(key)
		}
		return ExitSuccess

	default:
		return HandleError(NewUsageError("unknown config subcommand %q", args.Subcommand), args.JSON)
	}
}

func configShow(asJSON bool) int {
	cfg := config.Global()

	if asJSON {
		// Redact through the same path the TOML rendering uses.
		clone := cfg.Clone()
		if clone.Provider.APIKey != "" {
			clone.Provider.APIKey = "********"
		}
		_ = outputJSON(clone)
		return ExitSuccess
	}

	fmt.Print(cfg.String())
	return ExitSuccess
}

func configGet(key string, asJSON bool) int {
	if key == "" {
		return HandleError(NewUsageError("usage: avesta config get <key>"), asJSON)
	}

	value, err := config.Global().Get(key)
	if err != nil {
		return HandleError(NewUsageError("%v", err), asJSON)
	}

	if key == "provider.api_key" && value != "" {
		value = "********"
	}

	if asJSON {
		_ = outputJSON(map[string]any{"key": key, "value": value})
	} else {
		fmt.Println(value)
	}
	return ExitSuccess
}

func configSet(key, value string, asJSON bool) int {
	if key == "" || value == "" {
		return HandleError(NewUsageError("usage: avesta config set <key> <value>"), asJSON)
	}

	cfg := config.Global().Clone()
	if err := cfg.Set(key, value); err != nil {
		return HandleError(NewUsageError("%v", err), asJSON)
	}
	if err := cfg.Validate(); err != nil {
		return HandleError(NewUsageError("%v", err), asJSON)
	}

	if err := config.Save(cfg); err != nil {
		return HandleError(err, asJSON)
	}
	config.SetGlobal(cfg)

	if !asJSON {
		fmt.Println(RenderStatus(true, fmt.Sprintf("%s = %s", key, redactIfSecret(key, value))))
	}
	return ExitSuccess
}

func configPath(asJSON bool) int {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return HandleError(err, asJSON)
	}

	if asJSON {
		_ = outputJSON(map[string]string{"path": path})
	} else {
		fmt.Println(path)
	}
	return ExitSuccess
}

func redactIfSecret(key, value string) string {
	if key == "provider.api_key" {
		return "********"
	}
	return value
}
