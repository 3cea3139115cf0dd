// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat for avesta CLI.
//
// Handles the "avesta chat" command: a readline loop over the same session
// store and streaming pipeline the TUI uses. Responses stream to stdout as
// fragments arrive.
//
// Command: chat
// Short:   Interactive chat (line mode)
//
// Examples:
//   avesta chat
//   avesta chat --model gemini-flash-latest
//   avesta chat --resume
//
// Flags:
//   -m, --model NAME    Start the session on a specific model
//   -r, --resume        Resume the most recent session
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/avesta-ai/avesta/internal/config"
	"github.com/avesta-ai/avesta/internal/export"
	"github.com/avesta-ai/avesta/internal/media"
	"github.com/avesta-ai/avesta/internal/model"
	"github.com/avesta-ai/avesta/internal/orchestrator"
)

// chatHistoryFile is the liner history file name under the config dir.
const chatHistoryFile = "chat_history"

// ChatCLI wraps liner with history persistence.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the readline wrapper and loads input history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line}
	if dir, err := config.ConfigDir(); err == nil {
		c.historyFile = filepath.Join(dir, chatHistoryFile)
		if f, err := os.Open(c.historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}
	return c
}

// ReadInput prompts for one line and records it in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history to the config dir.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	_ = c.line.Close()
}

// chatState carries the REPL's mutable state between commands.
type chatState struct {
	orch      *orchestrator.Orchestrator
	events    chan orchestrator.Event
	sessionID string
	staged    []*media.File
	turns     int
	started   time.Time
}

// HandleChatCommand executes the chat command and returns an exit code.
func HandleChatCommand(args Args) int {
	if err := RequiresTTY("chat"); err != nil {
		return HandleError(err, args.JSON)
	}

	cfg := config.Global()

	store, closeStore, err := openStore(cfg, args.Verbose)
	if err != nil {
		return HandleError(err, false)
	}
	defer closeStore()
	store.LoadAll()

	client := buildProviderClient(cfg)
	orch := orchestrator.New(store, orchestrator.NewGeminiClient(client), cfg.DefaultModel, nil)

	st := &chatState{
		orch:    orch,
		events:  make(chan orchestrator.Event, 256),
		started: time.Now(),
	}
	orch.SetListener(func(ev orchestrator.Event) {
		select {
		case st.events <- ev:
		default:
		}
	})

	modelID := resolveModel(args, cfg)
	if !model.IsKnownModel(modelID) {
		return HandleError(NewUsageError("unknown model %q (see 'avesta models')", modelID), false)
	}

	// Resume the newest session or start fresh.
	if args.Options["resume"] == "true" && store.Count() > 0 {
		sess := store.Sessions()[0]
		st.sessionID = sess.ID
		if args.Model != "" && sess.Model != modelID {
			_ = orch.SwitchModel(sess.ID, modelID)
		}
	} else {
		st.sessionID = orch.NewSession(modelID).ID
	}

	cli := NewChatCLI()
	defer cli.Close()

	printWelcome(st, store)

	// An opening message on the command line is sent before the prompt
	// appears ("avesta chat explain monads").
	if q := strings.TrimSpace(args.Query); q != "" {
		orch.Handoff().Set(q)
	}
	if text, ok := orch.Handoff().Consume(); ok {
		fmt.Println(PromptStyle.Render("you> ") + text)
		st.processMessage(text, cfg)
	}

	for {
		input, err := cli.ReadInput(PromptStyle.Render("you> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println(DimStyle.Render("(interrupted, /quit to exit)"))
				continue
			}
			// io.EOF on Ctrl+D
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := st.handleSlashCommand(input, store, cfg); quit {
				break
			}
			continue
		}

		st.processMessage(input, cfg)
	}

	printExitSummary(st)
	return ExitSuccess
}

// processMessage submits one turn and streams the reply to stdout.
func (st *chatState) processMessage(text string, cfg *config.Config) {
	// Ctrl+C cancels the stream without leaving the REPL.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	staged := st.staged
	st.staged = nil

	id, started := st.orch.SendMessage(ctx, st.sessionID, text, staged)
	st.sessionID = id
	if !started {
		fmt.Println(WarningStyle.Render("(still responding, please wait)"))
		st.staged = staged
		return
	}
	st.turns++

	// Fragments carry no payload; the delta is read off the stored message.
	printed := 0
	for ev := range st.events {
		if ev.SessionID != st.sessionID {
			continue
		}
		switch ev.Kind {
		case orchestrator.EventFragment:
			sess := st.orch.Store().Get(st.sessionID)
			if sess == nil {
				return
			}
			if last := sess.LastMessage(); last != nil {
				full := last.DisplayText()
				if len(full) > printed {
					fmt.Print(full[printed:])
					printed = len(full)
				}
			}
		case orchestrator.EventTurnCompleted:
			fmt.Println()
			if cfg.UI.ShowStats && ev.Stats != nil {
				fmt.Println(DimStyle.Render(ev.Stats.Format()))
			}
			return
		case orchestrator.EventTurnFailed:
			if printed > 0 {
				fmt.Println()
			}
			sess := st.orch.Store().Get(st.sessionID)
			if sess != nil {
				if last := sess.LastMessage(); last != nil {
					fmt.Println(ErrorStyle.Render(last.DisplayText()))
				}
			}
			if hint := hintFor(ev.Err); hint != "" {
				fmt.Println(DimStyle.Render(hint))
			}
			return
		}
	}
}

// handleSlashCommand dispatches a /command. Returns true to exit the REPL.
func (st *chatState) handleSlashCommand(input string, store sessionLister, cfg *config.Config) bool {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help", "/?":
		printChatHelp()

	case "/new":
		st.sessionID = st.orch.NewSession(st.currentModel()).ID
		fmt.Println(SuccessStyle.Render("Started a new chat."))

	case "/sessions", "/list":
		st.printSessions()

	case "/switch":
		if rest == "" {
			fmt.Println(WarningStyle.Render("usage: /switch <number|id>"))
			break
		}
		sess := st.resolveSession(rest)
		if sess == nil {
			fmt.Println(ErrorStyle.Render("no such session"))
			break
		}
		st.sessionID = sess.ID
		st.orch.Store().SetActive(sess.ID)
		fmt.Println(SuccessStyle.Render("Switched to: ") + sess.GetTitle())
		st.printRecent(sess)

	case "/rename":
		if rest == "" {
			fmt.Println(WarningStyle.Render("usage: /rename <new title>"))
			break
		}
		st.orch.RenameSession(st.sessionID, rest)
		fmt.Println(SuccessStyle.Render("Renamed."))

	case "/delete":
		st.orch.DeleteSession(st.sessionID)
		fmt.Println(SuccessStyle.Render("Deleted."))
		st.sessionID = st.orch.NewSession(st.currentModel()).ID

	case "/clear":
		st.orch.ClearHistory(st.sessionID)
		fmt.Println(SuccessStyle.Render("History cleared."))

	case "/model":
		if rest == "" {
			fmt.Println(RenderLabel("Current model:", st.currentModel()))
			break
		}
		info, ok := model.GetModelInfo(rest)
		if !ok {
			fmt.Println(ErrorStyle.Render("unknown model ") + rest + DimStyle.Render(" (see /models)"))
			break
		}
		if err := st.orch.SwitchModel(st.sessionID, info.ID); err != nil {
			fmt.Println(ErrorStyle.Render(err.Error()))
			break
		}
		fmt.Println(SuccessStyle.Render("Model set to ") + info.Name)

	case "/models":
		for _, m := range model.Models {
			marker := "  "
			if m.ID == st.currentModel() {
				marker = HighlightStyle.Render("> ")
			}
			fmt.Printf("%s%s %s %s\n", marker, m.TierIcon(), m.Name, DimStyle.Render(m.ID+" · "+m.Description))
		}

	case "/attach":
		if rest == "" {
			fmt.Println(WarningStyle.Render("usage: /attach <path>"))
			break
		}
		file, err := media.LoadFile(rest)
		if err != nil {
			fmt.Println(ErrorStyle.Render(err.Error()))
			break
		}
		st.staged = append(st.staged, file)
		fmt.Printf("%s %s (%s, %d bytes), sent with your next message\n",
			SuccessStyle.Render("Attached:"), file.Name, file.MIMEType, len(file.Data))

	case "/export":
		format := cfg.Export.Format
		if rest != "" {
			format = rest
		}
		sess := st.orch.Store().Get(st.sessionID)
		if sess == nil || sess.MessageCount() == 0 {
			fmt.Println(WarningStyle.Render("nothing to export"))
			break
		}
		opts := export.DefaultOptions()
		opts.OutputDir = cfg.Export.Dir
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			fmt.Println(ErrorStyle.Render(err.Error()))
			break
		}
		path, err := export.ExportToFile(sess, exporter, opts)
		if err != nil {
			fmt.Println(ErrorStyle.Render(err.Error()))
			break
		}
		fmt.Println(SuccessStyle.Render("Exported to ") + path)

	case "/stats":
		st.printStatus()

	default:
		fmt.Println(WarningStyle.Render("unknown command " + cmd + " (try /help)"))
	}

	return false
}

// sessionLister is the slice of the store the slash commands read.
type sessionLister interface {
	List() []model.SessionMeta
	Count() int
}

func (st *chatState) currentModel() string {
	if sess := st.orch.Store().Get(st.sessionID); sess != nil {
		return sess.Model
	}
	return st.orch.DefaultModel()
}

// resolveSession matches a 1-based list index or an id prefix.
func (st *chatState) resolveSession(ref string) *model.Session {
	sessions := st.orch.Store().Sessions()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1]
	}
	for _, sess := range sessions {
		if strings.HasPrefix(sess.ID, ref) {
			return sess
		}
	}
	return nil
}

func (st *chatState) printSessions() {
	metas := st.orch.Store().List()
	if len(metas) == 0 {
		fmt.Println(DimStyle.Render("no saved sessions"))
		return
	}
	for i, meta := range metas {
		marker := "  "
		if meta.ID == st.sessionID {
			marker = HighlightStyle.Render("> ")
		}
		fmt.Printf("%s%2d. %-50s %s\n", marker, i+1, meta.Title,
			DimStyle.Render(fmt.Sprintf("%d msgs · %s · %s", meta.MessageCount, meta.Model, formatTime(meta.CreatedAt))))
	}
}

// printRecent shows the tail of a session after switching into it.
func (st *chatState) printRecent(sess *model.Session) {
	const tail = 4
	msgs := sess.Messages
	if len(msgs) > tail {
		fmt.Println(DimStyle.Render(fmt.Sprintf("… %d earlier messages", len(msgs)-tail)))
		msgs = msgs[len(msgs)-tail:]
	}
	for _, msg := range msgs {
		label := msg.Sender.DisplayName()
		fmt.Printf("%s %s\n", SectionStyle.Render(label+":"), msg.Preview(120))
	}
}

func (st *chatState) printStatus() {
	sess := st.orch.Store().Get(st.sessionID)
	if sess == nil {
		return
	}
	fmt.Println(RenderLabel("Session:", sess.GetTitle()))
	fmt.Println(RenderLabel("Model:", sess.Model))
	fmt.Println(RenderLabel("Messages:", strconv.Itoa(sess.MessageCount())))
	fmt.Println(RenderLabel("Created:", formatTime(sess.CreatedAt)))
}

func printWelcome(st *chatState, store sessionLister) {
	fmt.Println(TitleStyle.Render("avesta chat"))
	fmt.Println(DimStyle.Render(fmt.Sprintf("model %s · %d saved %s · /help for commands",
		st.currentModel(), store.Count(), pluralize(store.Count(), "session", "sessions"))))
	fmt.Println()
}

func printChatHelp() {
	fmt.Println(SectionStyle.Render("Commands:"))
	for _, row := range [][2]string{
		{"/new", "start a new chat"},
		{"/sessions", "list saved sessions"},
		{"/switch <n>", "switch to another session"},
		{"/rename <title>", "rename the current session"},
		{"/delete", "delete the current session"},
		{"/clear", "clear the current session's history"},
		{"/model [id]", "show or switch the model"},
		{"/models", "list available models"},
		{"/attach <path>", "attach a file to the next message"},
		{"/export [format]", "export the transcript (markdown, json)"},
		{"/stats", "show session details"},
		{"/quit", "exit"},
	} {
		fmt.Printf("  %-18s %s\n", CommandHelpStyle.Render(row[0]), DimStyle.Render(row[1]))
	}
}

func printExitSummary(st *chatState) {
	if st.turns == 0 {
		return
	}
	fmt.Println(DimStyle.Render(fmt.Sprintf("%d %s in %s",
		st.turns, pluralize(st.turns, "turn", "turns"), formatDuration(time.Since(st.started)))))
}
