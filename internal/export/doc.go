// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides chat session export functionality for avesta.
//
// Two formats are supported:
//   - Markdown (.md): human-readable, with YAML frontmatter and a metadata
//     section when IncludeMetadata is set
//   - JSON (.json): complete session data, suitable for re-import or
//     processing
//
// Example:
//
//	path, err := export.ExportMarkdown(sess, &export.Options{
//		OutputDir:       "~/exports",
//		IncludeMetadata: true,
//	})
package export
