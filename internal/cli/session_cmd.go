// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - Session management command handlers.
//
// Command: session [subcommand]
// Short:   Manage saved chat sessions
// Aliases: sessions
//
// Examples:
//   avesta session list
//   avesta session show 1
//   avesta session export 1 --format json
//   avesta session rename 1 "API design notes"
//   avesta session delete 1 --confirm
//   avesta session delete-all --confirm
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/avesta-ai/avesta/internal/config"
	"github.com/avesta-ai/avesta/internal/export"
	"github.com/avesta-ai/avesta/internal/model"
	"github.com/avesta-ai/avesta/internal/storage"
)

// HandleSessionCommand executes a session subcommand and returns an exit
// code.
func HandleSessionCommand(args Args) int {
	cfg := config.Global()

	store, closeStore, err := openStore(cfg, args.Verbose)
	if err != nil {
		return HandleError(err, args.JSON)
	}
	defer closeStore()
	store.LoadAll()

	sub := args.Subcommand
	rest := args.Raw
	if len(rest) > 0 {
		rest = rest[1:]
	}
	parser := NewArgParser(rest)

	switch sub {
	case "", "list", "ls", "l":
		return sessionList(store, args.JSON)

	case "show":
		return sessionShow(store, parser, args.JSON)

	case "export":
		return sessionExport(store, parser, cfg, args.JSON)

	case "rename":
		return sessionRename(store, parser, args.JSON)

	case "delete", "rm":
		return sessionDelete(store, parser, args.JSON)

	case "delete-all":
		return sessionDeleteAll(store, parser, args.JSON)

	case "stats":
		return sessionStats(store, args.JSON)

	default:
		return HandleError(NewUsageError("unknown session subcommand %q", sub), args.JSON)
	}
}

// findSession resolves a session reference: 1-based list index or id
// prefix.
func findSession(store *storage.Store, ref string) (*model.Session, error) {
	if ref == "" {
		return nil, NewUsageError("session id required")
	}
	sessions := store.Sessions()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1], nil
	}
	for _, sess := range sessions {
		if strings.HasPrefix(sess.ID, ref) {
			return sess, nil
		}
	}
	return nil, NewNotFoundError("no session matching %q", ref)
}

func sessionList(store *storage.Store, asJSON bool) int {
	metas := store.List()

	if asJSON {
		_ = outputJSON(metas)
		return ExitSuccess
	}

	if len(metas) == 0 {
		fmt.Println(DimStyle.Render("No saved sessions. Start one with 'avesta chat'."))
		return ExitSuccess
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("Sessions (%d)", len(metas))))
	for i, meta := range metas {
		fmt.Printf("%3d. %-50s %s\n", i+1, meta.Title,
			DimStyle.Render(fmt.Sprintf("%d %s · %s · %s",
				meta.MessageCount, pluralize(meta.MessageCount, "msg", "msgs"),
				meta.Model, formatTime(meta.CreatedAt))))
	}
	return ExitSuccess
}

func sessionShow(store *storage.Store, parser *ArgParser, asJSON bool) int {
	sess, err := findSession(store, parser.Positional(0))
	if err != nil {
		return HandleError(err, asJSON)
	}

	if asJSON {
		_ = outputJSON(sess)
		return ExitSuccess
	}

	fmt.Println(TitleStyle.Render(sess.GetTitle()))
	fmt.Println(DimStyle.Render(fmt.Sprintf("%s · %s · %d messages",
		sess.ID, sess.Model, sess.MessageCount())))
	fmt.Println(RenderSeparator(GetTerminalWidth()))

	for _, msg := range sess.Messages {
		fmt.Println(SectionStyle.Render(msg.Sender.DisplayName() + ":"))
		fmt.Println(msg.DisplayText())
		if len(msg.Attachments) > 0 {
			kinds := make([]string, 0, len(msg.Attachments))
			for _, att := range msg.Attachments {
				kinds = append(kinds, string(att.Kind))
			}
			fmt.Println(DimStyle.Render("[attachments: " + strings.Join(kinds, ", ") + "]"))
		}
		fmt.Println()
	}
	return ExitSuccess
}

func sessionExport(store *storage.Store, parser *ArgParser, cfg *config.Config, asJSON bool) int {
	sess, err := findSession(store, parser.Positional(0))
	if err != nil {
		return HandleError(err, asJSON)
	}

	opts := export.DefaultOptions()
	opts.OutputDir = parser.FlagOrDefault("output", cfg.Export.Dir)
	opts.OpenAfterExport = parser.BoolFlag("open")

	format := parser.FlagOrDefault("format", cfg.Export.Format)
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return HandleError(NewUsageError("%v", err), asJSON)
	}

	path, err := export.ExportToFile(sess, exporter, opts)
	if err != nil {
		return HandleError(err, asJSON)
	}

	if asJSON {
		_ = outputJSON(map[string]string{"path": path, "format": format})
	} else {
		fmt.Println(SuccessStyle.Render("Exported to ") + path)
	}
	return ExitSuccess
}

func sessionRename(store *storage.Store, parser *ArgParser, asJSON bool) int {
	sess, err := findSession(store, parser.Positional(0))
	if err != nil {
		return HandleError(err, asJSON)
	}

	title := strings.Join(parser.PositionalFrom(1), " ")
	if strings.TrimSpace(title) == "" {
		return HandleError(NewUsageError("usage: avesta session rename <id> <new title>"), asJSON)
	}

	store.Rename(sess.ID, title)
	if !asJSON {
		fmt.Println(SuccessStyle.Render("Renamed to ") + strings.TrimSpace(title))
	}
	return ExitSuccess
}

func sessionDelete(store *storage.Store, parser *ArgParser, asJSON bool) int {
	sess, err := findSession(store, parser.Positional(0))
	if err != nil {
		return HandleError(err, asJSON)
	}

	if !parser.BoolFlag("confirm") {
		return HandleError(NewUsageError("deleting %q requires --confirm", sess.GetTitle()), asJSON)
	}

	store.Delete(sess.ID)
	if !asJSON {
		fmt.Println(SuccessStyle.Render("Deleted."))
	}
	return ExitSuccess
}

func sessionDeleteAll(store *storage.Store, parser *ArgParser, asJSON bool) int {
	if !parser.BoolFlag("confirm") {
		return HandleError(NewUsageError("delete-all requires --confirm"), asJSON)
	}

	count := store.Count()
	for _, sess := range store.Sessions() {
		store.Delete(sess.ID)
	}

	if !asJSON {
		fmt.Printf("%s %d %s\n", SuccessStyle.Render("Deleted"), count, pluralize(count, "session", "sessions"))
	}
	return ExitSuccess
}

func sessionStats(store *storage.Store, asJSON bool) int {
	sessions := store.Sessions()

	totalMessages := 0
	byModel := make(map[string]int)
	for _, sess := range sessions {
		totalMessages += sess.MessageCount()
		byModel[sess.Model]++
	}

	if asJSON {
		_ = outputJSON(map[string]any{
			"sessions": len(sessions),
			"messages": totalMessages,
			"by_model": byModel,
		})
		return ExitSuccess
	}

	fmt.Println(RenderLabel("Sessions:", strconv.Itoa(len(sessions))))
	fmt.Println(RenderLabel("Messages:", strconv.Itoa(totalMessages)))
	for modelID, n := range byModel {
		fmt.Println(RenderLabel("  "+modelID+":", strconv.Itoa(n)))
	}
	return ExitSuccess
}
