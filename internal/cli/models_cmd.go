// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models_cmd.go - Model listing command handler.
//
// Command: models
// Short:   List available models
package cli

import (
	"fmt"

	"github.com/avesta-ai/avesta/internal/config"
	"github.com/avesta-ai/avesta/internal/model"
)

// HandleModelsCommand lists the selectable models and returns an exit code.
func HandleModelsCommand(args Args) int {
	if args.JSON {
		_ = outputJSON(model.Models)
		return ExitSuccess
	}

	current := config.Global().DefaultModel
	if args.Model != "" {
		current = args.Model
	}

	fmt.Println(TitleStyle.Render("Available models"))
	for _, m := range model.Models {
		marker := "  "
		if m.ID == current {
			marker = HighlightStyle.Render("> ")
		}
		fmt.Printf("%s%s %-24s %-10s %s\n", marker, m.TierIcon(), m.Name,
			DimStyle.Render(m.Tier), DimStyle.Render(m.Description))
		fmt.Printf("     %s\n", DimStyle.Render(m.ID))
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Switch with 'avesta config set default_model <id>' or --model."))
	return ExitSuccess
}
