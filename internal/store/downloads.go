// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/leaddesk/internal/model"
)

const downloadColumns = `id, resource_type, resource_id, resource_title, resource_url, user_email,
	user_name, user_phone, user_company, user_job_title, form_data, email_sent, email_sent_at,
	email_status, email_provider, email_id, email_error, email_attempts, downloaded_at,
	ip_address, user_agent, referrer, device, location, follow_up_required, follow_up_status,
	follow_up_notes, assigned_to, created_at, updated_at`

func scanDownload(s scanner) (model.Download, error) {
	var d model.Download
	var formData, emailSentAt, location sql.NullString
	var emailSent, followUp int
	var downloadedAt, createdAt, updatedAt string
	err := s.Scan(&d.ID, &d.ResourceType, &d.ResourceID, &d.ResourceTitle, &d.ResourceURL,
		&d.UserEmail, &d.UserName, &d.UserPhone, &d.UserCompany, &d.UserJobTitle, &formData,
		&emailSent, &emailSentAt, &d.EmailStatus, &d.EmailProvider, &d.EmailID, &d.EmailError,
		&d.EmailAttempts, &downloadedAt, &d.IPAddress, &d.UserAgent, &d.Referrer, &d.Device,
		&location, &followUp, &d.FollowUpStatus, &d.FollowUpNotes, &d.AssignedTo,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Download{}, err
	}
	if formData.Valid && formData.String != "" {
		_ = json.Unmarshal([]byte(formData.String), &d.FormData)
	}
	d.EmailSent = emailSent != 0
	d.EmailSentAt = parseNullTime(emailSentAt)
	d.DownloadedAt = parseTime(downloadedAt)
	d.Location = parseNullJSON[model.Location](location)
	d.FollowUpRequired = followUp != 0
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return d, nil
}

func formDataJSON(m map[string]any) sql.NullString {
	if len(m) == 0 {
		return sql.NullString{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// CreateDownload inserts d, assigning a new ID.
func (q *Queries) CreateDownload(ctx context.Context, d *model.Download) error {
	d.ID = uuid.NewString()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO downloads (`+downloadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ResourceType, d.ResourceID, d.ResourceTitle, d.ResourceURL, d.UserEmail, d.UserName,
		d.UserPhone, d.UserCompany, d.UserJobTitle, formDataJSON(d.FormData), boolToInt(d.EmailSent),
		formatNullTime(d.EmailSentAt), d.EmailStatus, d.EmailProvider, d.EmailID, d.EmailError,
		d.EmailAttempts, formatTime(d.DownloadedAt), d.IPAddress, d.UserAgent, d.Referrer, d.Device,
		nullJSON(d.Location), boolToInt(d.FollowUpRequired), d.FollowUpStatus, d.FollowUpNotes,
		d.AssignedTo, formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	return err
}

// GetDownloadByID returns sql.ErrNoRows when missing.
func (q *Queries) GetDownloadByID(ctx context.Context, id string) (model.Download, error) {
	return scanDownload(q.db.QueryRowContext(ctx, `SELECT `+downloadColumns+` FROM downloads WHERE id = ?`, id))
}

// DeleteDownload removes a download record.
func (q *Queries) DeleteDownload(ctx context.Context, id string) error {
	return affected(q.db.ExecContext(ctx, `DELETE FROM downloads WHERE id = ?`, id))
}

// DownloadFilter narrows the downloads listing.
type DownloadFilter struct {
	ResourceType   string
	ResourceID     string
	EmailStatus    string
	FollowUpStatus string
	Search         string
	DateFrom       *time.Time
	DateTo         *time.Time
	Limit          int
	Offset         int
}

func downloadWhere(f DownloadFilter) *whereClause {
	w := &whereClause{}
	w.eq("resource_type", f.ResourceType)
	w.eq("resource_id", f.ResourceID)
	w.eq("email_status", f.EmailStatus)
	w.eq("follow_up_status", f.FollowUpStatus)
	w.search(f.Search, "user_email", "user_name", "user_company", "resource_title")
	w.between("downloaded_at", f.DateFrom, f.DateTo)
	return w
}

// ListDownloads returns downloads matching f, most recent first.
func (q *Queries) ListDownloads(ctx context.Context, f DownloadFilter) ([]model.Download, error) {
	w := downloadWhere(f)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+downloadColumns+` FROM downloads`+w.String()+
			` ORDER BY downloaded_at DESC`+limitOffset(f.Limit, f.Offset),
		w.args...)
	if err != nil {
		return nil, err
	}
	return collectDownloads(rows)
}

func collectDownloads(rows *sql.Rows) ([]model.Download, error) {
	defer func() { _ = rows.Close() }()
	items := []model.Download{}
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// CountDownloads counts downloads matching f.
func (q *Queries) CountDownloads(ctx context.Context, f DownloadFilter) (int64, error) {
	w := downloadWhere(f)
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM downloads`+w.String(), w.args...).Scan(&n)
	return n, err
}

// RecordEmailResultParams is the outcome of one delivery attempt.
type RecordEmailResultParams struct {
	ID          string
	Delivered   bool
	Provider    string
	MessageID   string
	Error       string
	AttemptedAt time.Time
}

// RecordEmailResult writes a delivery outcome and counts the attempt.
func (q *Queries) RecordEmailResult(ctx context.Context, arg RecordEmailResultParams) error {
	status := model.EmailStatusFailed
	var sentAt sql.NullString
	if arg.Delivered {
		status = model.EmailStatusDelivered
		sentAt = sql.NullString{String: formatTime(arg.AttemptedAt), Valid: true}
	}
	return affected(q.db.ExecContext(ctx,
		`UPDATE downloads SET email_sent = ?, email_status = ?,
			email_sent_at = COALESCE(?, email_sent_at),
			email_provider = CASE WHEN ? = '' THEN email_provider ELSE ? END,
			email_id = ?, email_error = ?, email_attempts = email_attempts + 1,
			last_email_attempt_at = ?, updated_at = ?
		WHERE id = ?`,
		boolToInt(arg.Delivered), status, sentAt, arg.Provider, arg.Provider, arg.MessageID, arg.Error,
		formatTime(arg.AttemptedAt), formatTime(arg.AttemptedAt), arg.ID))
}

// UpdateFollowUpParams holds the sales follow-up fields.
type UpdateFollowUpParams struct {
	ID         string
	Status     string
	Notes      string
	AssignedTo string
	UpdatedAt  time.Time
}

// UpdateFollowUp sets the follow-up status, notes and assignee.
func (q *Queries) UpdateFollowUp(ctx context.Context, arg UpdateFollowUpParams) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE downloads SET follow_up_status = ?, follow_up_notes = ?, assigned_to = ?, updated_at = ?
		WHERE id = ?`,
		arg.Status, arg.Notes, arg.AssignedTo, formatTime(arg.UpdatedAt), arg.ID))
}

// ListRetryableDownloadsParams selects deliveries eligible for another attempt.
type ListRetryableDownloadsParams struct {
	MaxAttempts    int
	AttemptedUntil time.Time
	// PendingBefore selects tracked downloads still pending since before
	// this time, left behind when a send never finished.
	PendingBefore time.Time
	Limit         int
}

// ListRetryableDownloads returns downloads with fewer than MaxAttempts
// attempts that either failed no later than AttemptedUntil or are tracked
// leads stuck pending since before PendingBefore. Manually entered
// downloads are never emailed and are not returned while pending.
func (q *Queries) ListRetryableDownloads(ctx context.Context, arg ListRetryableDownloadsParams) ([]model.Download, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+downloadColumns+` FROM downloads
		WHERE email_attempts < ? AND (
			(email_status = ? AND (last_email_attempt_at IS NULL OR last_email_attempt_at <= ?))
			OR (email_status = ? AND follow_up_required = 1 AND downloaded_at <= ?)
		)
		ORDER BY downloaded_at ASC`+limitOffset(arg.Limit, 0),
		arg.MaxAttempts,
		model.EmailStatusFailed, formatTime(arg.AttemptedUntil),
		model.EmailStatusPending, formatTime(arg.PendingBefore))
	if err != nil {
		return nil, err
	}
	return collectDownloads(rows)
}

// CountDownloadsSince counts downloads at or after since.
func (q *Queries) CountDownloadsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM downloads WHERE downloaded_at >= ?`, formatTime(since)).Scan(&n)
	return n, err
}

// CountDownloadsByResourceType groups downloads by resource type.
func (q *Queries) CountDownloadsByResourceType(ctx context.Context) (map[string]int64, error) {
	return q.countByColumn(ctx, "downloads", "resource_type")
}

// CountDownloadsByEmailStatus groups downloads by email status.
func (q *Queries) CountDownloadsByEmailStatus(ctx context.Context) (map[string]int64, error) {
	return q.countByColumn(ctx, "downloads", "email_status")
}

// TopDownloadedResources returns the most downloaded resources.
func (q *Queries) TopDownloadedResources(ctx context.Context, limit int) ([]model.ResourceCount, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT resource_id, MAX(resource_title), MAX(resource_type), COUNT(*) AS n
		FROM downloads GROUP BY resource_id ORDER BY n DESC, MAX(downloaded_at) DESC`+limitOffset(limit, 0))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.ResourceCount{}
	for rows.Next() {
		var rc model.ResourceCount
		if err := rows.Scan(&rc.ResourceID, &rc.ResourceTitle, &rc.ResourceType, &rc.Count); err != nil {
			return nil, err
		}
		items = append(items, rc)
	}
	return items, rows.Err()
}
