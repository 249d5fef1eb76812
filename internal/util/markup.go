// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlPolicy allows the formatting tags expected in editorial content and
// strips scripts, event handlers and other active content.
var htmlPolicy = bluemonday.UGCPolicy()

// SanitizeHTML removes unsafe markup from rich-text content.
func SanitizeHTML(s string) string {
	return htmlPolicy.Sanitize(s)
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}
