// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import "strings"

// DefaultModel is the model new sessions are bound to unless configured
// otherwise.
const DefaultModel = "gemini-2.5-flash"

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains display metadata about a selectable chat model.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Tier categorizes the model's capability level
	Tier string `json:"tier"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the registry of selectable chat models, in picker order.
var Models = []ModelInfo{
	{
		ID:          "gemini-flash-lite-latest",
		Name:        "Gemini Flash Lite",
		Tier:        "Fast",
		Description: "Lowest latency for quick exchanges",
	},
	{
		ID:          "gemini-flash-latest",
		Name:        "Gemini Flash",
		Tier:        "Fast",
		Description: "Fast general-purpose chat",
	},
	{
		ID:          "gemini-2.5-flash",
		Name:        "Gemini 2.5 Flash",
		Tier:        "Balanced",
		Description: "Best balance of speed and capability",
	},
	{
		ID:          "gemini-3-pro-preview",
		Name:        "Gemini 3 Pro Preview",
		Tier:        "Powerful",
		Description: "Most capable for complex reasoning",
	},
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// GetModelInfo looks up a model by ID or display name.
// Returns the ModelInfo and true if found, otherwise empty ModelInfo and false.
func GetModelInfo(nameOrID string) (ModelInfo, bool) {
	// Try exact ID match first
	for _, info := range Models {
		if info.ID == nameOrID {
			return info, true
		}
	}

	// Try partial match on name or ID
	lower := strings.ToLower(nameOrID)
	for _, info := range Models {
		if strings.Contains(strings.ToLower(info.Name), lower) {
			return info, true
		}
		if strings.Contains(strings.ToLower(info.ID), lower) {
			return info, true
		}
	}

	return ModelInfo{}, false
}

// IsKnownModel reports whether id names a registered model.
func IsKnownModel(id string) bool {
	for _, info := range Models {
		if info.ID == id {
			return true
		}
	}
	return false
}

// ModelIDs returns the ids of all registered models in picker order.
func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for _, info := range Models {
		ids = append(ids, info.ID)
	}
	return ids
}

// TierIcon returns an icon character for the model tier.
func (m ModelInfo) TierIcon() string {
	switch m.Tier {
	case "Fast":
		return "z"
	case "Balanced":
		return "~"
	case "Powerful":
		return "&"
	default:
		return "?"
	}
}
