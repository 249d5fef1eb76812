// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// Setting keys of the singleton configuration documents.
const (
	SettingEmail  = "email_config"
	SettingStripe = "stripe_config"
)

// Setting is a keyed JSON document.
type Setting struct {
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetSetting returns sql.ErrNoRows when the key was never written.
func (q *Queries) GetSetting(ctx context.Context, key string) (Setting, error) {
	var s Setting
	var createdAt, updatedAt string
	err := q.db.QueryRowContext(ctx,
		`SELECT key, value, created_at, updated_at FROM settings WHERE key = ?`, key).
		Scan(&s.Key, &s.Value, &createdAt, &updatedAt)
	if err != nil {
		return Setting{}, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

// UpsertSettingParams holds a settings document write.
type UpsertSettingParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// UpsertSetting creates or replaces a settings document, keeping its creation time.
func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	ts := formatTime(arg.UpdatedAt)
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		arg.Key, arg.Value, ts, ts)
	return err
}
