// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for avesta.
//
// USABILITY: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdSession
	CmdConfig
	CmdModels
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	JSON    bool // Output in JSON format
	NoColor bool

	// Command-specific
	Query      string
	Files      []string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --format, --output)
	Options map[string]string
}

const usageText = `avesta - Gemini chat for the terminal

Avesta is a streaming chat client for Google's Gemini models.

It provides:
  - A full-screen TUI with persistent chat sessions
  - Streaming responses rendered as they arrive
  - One-shot questions from the command line
  - Image and file attachments
  - Markdown and JSON transcript export

Usage:
  avesta                     Start TUI (default)
  avesta ask "question"      Ask a single question
  avesta chat                Interactive chat (line mode)
  avesta session [subcommand] Session management
  avesta config [show|get|set|path] Configuration
  avesta models              List available models
  avesta version             Show version information

Ask Command:
  avesta ask "What is a goroutine?"
    -m, --model NAME         Model to use for this question
    -f, --file PATH          Attach a file (repeatable; images sent inline)
    --raw                    Skip markdown rendering

  Reads a piped stdin as additional context:
    cat error.log | avesta ask "What caused this?"

Session Commands:
  avesta session list               List all saved sessions (alias: ls, l)
  avesta session show <id>          Show a session transcript
  avesta session export <id>        Export a session transcript
    --format markdown|json          Export format (default: markdown)
    --output DIR                    Output directory (default: current)
  avesta session rename <id> <title> Rename a session
  avesta session delete <id>        Delete a session
    --confirm                       Required confirmation flag
  avesta session delete-all         Delete all sessions
    --confirm                       Required confirmation flag

  <id> may be a session id prefix or a 1-based list index.

Config Commands:
  avesta config show                Show current configuration
  avesta config get <key>           Get a value (dot notation, e.g. ui.theme)
  avesta config set <key> <value>   Set a value
  avesta config path                Show config file location

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --model NAME    Override default model
  --json          Output in JSON format
  --no-color      Disable colored output

Examples:
  # Basic usage
  avesta                              Start TUI interface
  avesta ask "Explain context.Context" Ask a single question
  avesta chat                         Start interactive chat

  # Ask command with options
  avesta ask "Review this:" --file main.go   Include file with question
  avesta ask "Describe this image" -f chart.png
  avesta ask --model gemini-3-pro-preview "Prove it"

  # Configuration
  avesta config show                  Show current configuration
  avesta config set default_model gemini-flash-latest
  avesta config set ui.theme light

  # Session management (aliases: session, sessions)
  avesta session list                 List all saved sessions
  avesta session show 1               View first session
  avesta session export 1 --format json
  avesta session delete 1 --confirm   Delete first session

Environment:
  AVESTA_API_KEY or GEMINI_API_KEY   API key (required)
  AVESTA_MODEL                       Default model override
  NO_COLOR                           Disable colored output

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("avesta version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses the given argument list. Split from Parse for testing.
func ParseArgs(args []string) (Command, Args) {
	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	// Check first argument for command
	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "session", "sessions":
		// Detailed argument parsing is done in session_cmd.go
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdSession, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "models", "model":
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdModels, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - treat it as a direct prompt and open the TUI
		// with the words as the opening message.
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		parsedArgs.Query = strings.Join(parsedArgs.Raw, " ")
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--no-color":
			parsedArgs.NoColor = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			// Check for --model=value format
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.Files = append(args.Files, remaining[i])
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--raw":
			args.Options["raw"] = "true"
		default:
			// Check for --file=value or --model=value format
			if strings.HasPrefix(arg, "--file=") {
				args.Files = append(args.Files, strings.TrimPrefix(arg, "--file="))
			} else if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseChatArgs parses chat command specific arguments. Bare words become
// the opening message of the chat.
func parseChatArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--resume", "-r":
			args.Options["resume"] = "true"
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}
