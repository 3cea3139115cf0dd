// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified flag/positional parsing for subcommands.
package cli

import (
	"strconv"
	"strings"
)

// ArgParser splits a subcommand argument list into named flags and
// positional arguments. Supports --flag value, --flag=value, and bare
// boolean flags.
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// knownBoolFlags lists flags that never take a value.
var knownBoolFlags = map[string]bool{
	"confirm": true,
	"json":    true,
	"raw":     true,
	"open":    true,
	"quiet":   true,
	"verbose": true,
}

// NewArgParser parses the given arguments.
func NewArgParser(args []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch {
		case strings.HasPrefix(arg, "--"):
			name := strings.TrimPrefix(arg, "--")
			if eq := strings.Index(name, "="); eq >= 0 {
				p.flags[name[:eq]] = name[eq+1:]
			} else if knownBoolFlags[name] {
				p.boolFlags[name] = true
			} else if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				p.flags[name] = args[i]
			} else {
				p.boolFlags[name] = true
			}
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			name := strings.TrimPrefix(arg, "-")
			if knownBoolFlags[name] {
				p.boolFlags[name] = true
			} else if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				p.flags[name] = args[i]
			} else {
				p.boolFlags[name] = true
			}
		default:
			p.positional = append(p.positional, arg)
		}
		i++
	}

	return p
}

// Flag returns a named flag value and whether it was set.
func (p *ArgParser) Flag(name string) (string, bool) {
	v, ok := p.flags[name]
	return v, ok
}

// FlagOrDefault returns a named flag value or a default.
func (p *ArgParser) FlagOrDefault(name, def string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return def
}

// FlagInt returns a named flag parsed as an int.
func (p *ArgParser) FlagInt(name string) (int, bool) {
	v, ok := p.flags[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BoolFlag reports whether a boolean flag was given.
func (p *ArgParser) BoolFlag(name string) bool {
	if p.boolFlags[name] {
		return true
	}
	// --confirm=true also counts
	if v, ok := p.flags[name]; ok {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return false
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments from index onward.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return nil
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}
