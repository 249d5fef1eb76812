// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"

	"github.com/olegiv/leaddesk/internal/util"
)

// Page is one page of a listing plus the unpaginated total.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// Actor identifies the signed-in user performing a change.
type Actor struct {
	UserID string
	Email  string
}

// resolveSlug returns slug, or a slug derived from title when slug is empty.
func resolveSlug(title, slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = util.Slugify(title)
	}
	if !util.IsValidSlug(slug) {
		return "", invalidField("slug", "could not derive a valid slug from the title")
	}
	return slug, nil
}

// ensureUnique fails with a conflict carrying msg when count reports a match.
func ensureUnique(ctx context.Context, count func(context.Context) (int64, error), msg string) error {
	n, err := count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return conflict(msg)
	}
	return nil
}

// cleanList trims entries and drops empty and duplicate ones, keeping order.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// without returns list minus id.
func without(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
