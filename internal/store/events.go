// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
)

// CreateEventParams holds a new system event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    string
	Metadata  string
	IPAddress string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, user_id, metadata, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.IPAddress,
		formatTime(arg.CreatedAt))
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return model.Event{
		ID:        id,
		Level:     arg.Level,
		Category:  arg.Category,
		Message:   arg.Message,
		UserID:    arg.UserID,
		Metadata:  arg.Metadata,
		IPAddress: arg.IPAddress,
		CreatedAt: arg.CreatedAt.UTC(),
	}, nil
}

// EventFilter narrows the event log listing.
type EventFilter struct {
	Level    string
	Category string
	Limit    int
	Offset   int
}

func eventWhere(f EventFilter) *whereClause {
	w := &whereClause{}
	w.eq("level", f.Level)
	w.eq("category", f.Category)
	return w
}

// ListEvents returns events newest first.
func (q *Queries) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error) {
	w := eventWhere(f)
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, metadata, ip_address, created_at FROM events`+
			w.String()+` ORDER BY created_at DESC, id DESC`+limitOffset(f.Limit, f.Offset),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Event{}
	for rows.Next() {
		var e model.Event
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata,
			&e.IPAddress, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(createdAt)
		items = append(items, e)
	}
	return items, rows.Err()
}

// CountEvents counts events matching f.
func (q *Queries) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	w := eventWhere(f)
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+w.String(), w.args...).Scan(&n)
	return n, err
}

// DeleteEventsBefore prunes events older than before.
func (q *Queries) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, formatTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
