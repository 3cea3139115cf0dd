// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and user-facing error display.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/avesta-ai/avesta/internal/provider"
	"github.com/avesta-ai/avesta/internal/storage"
)

// Exit codes follow sysexits conventions where they apply.
const (
	ExitSuccess    = 0
	ExitError      = 1  // Generic error
	ExitUsage      = 2  // Bad arguments
	ExitAuthError  = 77 // Missing or rejected API key (EX_NOPERM)
	ExitQuotaError = 75 // Quota exhausted, retry later (EX_TEMPFAIL)
	ExitNotFound   = 66 // Session or file not found (EX_NOINPUT)
	ExitNetError   = 69 // Provider unreachable (EX_UNAVAILABLE)
)

// CommandError is an error with an associated exit code and an optional
// hint shown to the user below the message.
type CommandError struct {
	Message  string
	Code     int
	Hint     string
	Internal error
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Internal
}

// NewUsageError creates an error for invalid command-line usage.
func NewUsageError(format string, args ...any) *CommandError {
	return &CommandError{
		Message: fmt.Sprintf(format, args...),
		Code:    ExitUsage,
		Hint:    "Run 'avesta help' for usage.",
	}
}

// NewNotFoundError creates an error for a missing session or file.
func NewNotFoundError(format string, args ...any) *CommandError {
	return &CommandError{
		Message: fmt.Sprintf(format, args...),
		Code:    ExitNotFound,
	}
}

// GetExitCode maps an error to its process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code
	}

	switch {
	case provider.IsAuthError(err):
		return ExitAuthError
	case provider.IsQuotaError(err):
		return ExitQuotaError
	case provider.IsTransportError(err):
		return ExitNetError
	case errors.Is(err, storage.ErrSessionNotFound):
		return ExitNotFound
	case errors.Is(err, os.ErrNotExist):
		return ExitNotFound
	}

	return ExitError
}

// hintFor returns a one-line remediation hint for known error classes.
func hintFor(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Hint != "" {
		return cmdErr.Hint
	}

	switch {
	case provider.IsAuthError(err):
		return "Set AVESTA_API_KEY (or GEMINI_API_KEY), or run 'avesta config set provider.api_key YOUR_KEY'."
	case provider.IsQuotaError(err):
		return "Quota exhausted. Wait a moment and retry, or switch to a lighter model with --model."
	case provider.IsTransportError(err):
		return "Check your network connection and provider.base_url."
	}
	return ""
}

// DisplayError prints an error to stderr with color when attached to a
// terminal, plus a hint when one is known.
func DisplayError(err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	if IsStderrTTY() && ColorsEnabled() {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+msg)
	} else {
		fmt.Fprintln(os.Stderr, "Error: "+msg)
	}

	if hint := hintFor(err); hint != "" {
		if IsStderrTTY() && ColorsEnabled() {
			fmt.Fprintln(os.Stderr, DimStyle.Render(hint))
		} else {
			fmt.Fprintln(os.Stderr, hint)
		}
	}
}

// DisplayErrorJSON prints an error as a JSON object for scripted callers.
func DisplayErrorJSON(err error) {
	out := map[string]any{
		"error": err.Error(),
		"code":  GetExitCode(err),
	}
	if hint := hintFor(err); hint != "" {
		out["hint"] = hint
	}
	data, _ := json.Marshal(out)
	fmt.Fprintln(os.Stderr, string(data))
}

// HandleError displays an error in the requested format and returns its
// exit code. A nil error returns ExitSuccess with no output.
func HandleError(err error, asJSON bool) int {
	if err == nil {
		return ExitSuccess
	}
	if asJSON {
		DisplayErrorJSON(err)
	} else {
		DisplayError(err)
	}
	return GetExitCode(err)
}
