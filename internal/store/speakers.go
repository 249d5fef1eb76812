// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/leaddesk/internal/model"
)

const speakerColumns = `id, name, photo_url, expertise, years, industries, bio, created_at, updated_at`

func scanSpeaker(s scanner) (model.Speaker, error) {
	var sp model.Speaker
	var industries, createdAt, updatedAt string
	err := s.Scan(&sp.ID, &sp.Name, &sp.PhotoURL, &sp.Expertise, &sp.Years, &industries, &sp.Bio,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Speaker{}, err
	}
	sp.Industries = parseStrings(industries)
	sp.CreatedAt = parseTime(createdAt)
	sp.UpdatedAt = parseTime(updatedAt)
	return sp, nil
}

// CreateSpeaker inserts sp, assigning a new ID.
func (q *Queries) CreateSpeaker(ctx context.Context, sp *model.Speaker) error {
	sp.ID = uuid.NewString()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO speakers (`+speakerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.Name, sp.PhotoURL, sp.Expertise, sp.Years, stringsJSON(sp.Industries), sp.Bio,
		formatTime(sp.CreatedAt), formatTime(sp.UpdatedAt))
	return err
}

// UpdateSpeaker writes the editable fields of sp.
func (q *Queries) UpdateSpeaker(ctx context.Context, sp *model.Speaker) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE speakers SET name = ?, photo_url = ?, expertise = ?, years = ?, industries = ?, bio = ?,
			updated_at = ?
		WHERE id = ?`,
		sp.Name, sp.PhotoURL, sp.Expertise, sp.Years, stringsJSON(sp.Industries), sp.Bio,
		formatTime(sp.UpdatedAt), sp.ID))
}

// GetSpeakerByID returns sql.ErrNoRows when missing.
func (q *Queries) GetSpeakerByID(ctx context.Context, id string) (model.Speaker, error) {
	return scanSpeaker(q.db.QueryRowContext(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE id = ?`, id))
}

// CountSpeakersByName counts speakers using name, ignoring excludeID.
func (q *Queries) CountSpeakersByName(ctx context.Context, name, excludeID string) (int64, error) {
	return q.countWhere(ctx, "speakers", "name", name, excludeID)
}

// DeleteSpeaker removes a speaker. Callers check assigned trainings first.
func (q *Queries) DeleteSpeaker(ctx context.Context, id string) error {
	return affected(q.db.ExecContext(ctx, `DELETE FROM speakers WHERE id = ?`, id))
}

// SpeakerFilter narrows the speaker listing.
type SpeakerFilter struct {
	Industry string
	Search   string
}

// ListSpeakers returns speakers ordered by name.
func (q *Queries) ListSpeakers(ctx context.Context, f SpeakerFilter) ([]model.Speaker, error) {
	w := &whereClause{}
	if f.Industry != "" {
		w.add("EXISTS (SELECT 1 FROM json_each(speakers.industries) WHERE json_each.value = ?)", f.Industry)
	}
	w.search(f.Search, "name", "expertise")
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+speakerColumns+` FROM speakers`+w.String()+` ORDER BY name ASC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Speaker{}
	for rows.Next() {
		sp, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sp)
	}
	return items, rows.Err()
}

// CountSpeakers returns the number of speakers.
func (q *Queries) CountSpeakers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM speakers`).Scan(&n)
	return n, err
}

// RenameSpeakerInTrainingsParams updates the denormalized speaker name.
type RenameSpeakerInTrainingsParams struct {
	SpeakerID string
	Name      string
	UpdatedAt time.Time
}

// RenameSpeakerInTrainings copies a new speaker name to every training of that speaker.
func (q *Queries) RenameSpeakerInTrainings(ctx context.Context, arg RenameSpeakerInTrainingsParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE trainings SET speaker_name = ?, updated_at = ? WHERE speaker_id = ?`,
		arg.Name, formatTime(arg.UpdatedAt), arg.SpeakerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
