// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/olegiv/leaddesk/internal/model"
)

const emailLogColumns = `id, download_id, recipient, subject, provider, status, message_id, error,
	sent_at, created_at`

// DefaultEmailLogLimit is used when a listing asks for no explicit limit.
const DefaultEmailLogLimit = 50

func scanEmailLog(s scanner) (model.EmailLog, error) {
	var l model.EmailLog
	var sentAt sql.NullString
	var createdAt string
	err := s.Scan(&l.ID, &l.DownloadID, &l.To, &l.Subject, &l.Provider, &l.Status, &l.MessageID,
		&l.Error, &sentAt, &createdAt)
	if err != nil {
		return model.EmailLog{}, err
	}
	l.SentAt = parseNullTime(sentAt)
	l.CreatedAt = parseTime(createdAt)
	return l, nil
}

// CreateEmailLog inserts l, assigning a new ID.
func (q *Queries) CreateEmailLog(ctx context.Context, l *model.EmailLog) error {
	l.ID = uuid.NewString()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO email_logs (`+emailLogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.DownloadID, l.To, l.Subject, l.Provider, l.Status, l.MessageID, l.Error,
		formatNullTime(l.SentAt), formatTime(l.CreatedAt))
	return err
}

// EmailLogFilter narrows the email log listing.
type EmailLogFilter struct {
	DownloadID string
	Status     string
	Limit      int
}

// ListEmailLogs returns the newest log entries first.
func (q *Queries) ListEmailLogs(ctx context.Context, f EmailLogFilter) ([]model.EmailLog, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultEmailLogLimit
	}
	w := &whereClause{}
	w.eq("download_id", f.DownloadID)
	w.eq("status", f.Status)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+emailLogColumns+` FROM email_logs`+w.String()+
			` ORDER BY created_at DESC`+limitOffset(f.Limit, 0),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.EmailLog{}
	for rows.Next() {
		l, err := scanEmailLog(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
