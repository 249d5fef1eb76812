// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/olegiv/leaddesk/internal/model"
)

const trainingColumns = `id, title, slug, description, content, duration, level, type, date, industry,
	sub_industry, tags, speaker_id, speaker_name, cover_image, pricing_options, regular_price,
	discount_price, webinar_id, who_should_attend, overview, status, featured, views, seo,
	related_trainings, created_at, updated_at`

func pricingJSON(opts []model.PricingOption) string {
	if opts == nil {
		return "[]"
	}
	b, _ := json.Marshal(opts)
	return string(b)
}

func scanTraining(s scanner) (model.Training, error) {
	var t model.Training
	var tags, pricing, related, createdAt, updatedAt string
	var featured int
	var date, seo sql.NullString
	var discount sql.NullFloat64
	err := s.Scan(&t.ID, &t.Title, &t.Slug, &t.Description, &t.Content, &t.Duration, &t.Level, &t.Type,
		&date, &t.Industry, &t.SubIndustry, &tags, &t.SpeakerID, &t.SpeakerName, &t.CoverImage,
		&pricing, &t.RegularPrice, &discount, &t.WebinarID, &t.WhoShouldAttend, &t.Overview,
		&t.Status, &featured, &t.Views, &seo, &related, &createdAt, &updatedAt)
	if err != nil {
		return model.Training{}, err
	}
	t.Date = parseNullTime(date)
	t.Tags = parseStrings(tags)
	t.PricingOptions = []model.PricingOption{}
	if pricing != "" {
		_ = json.Unmarshal([]byte(pricing), &t.PricingOptions)
	}
	if discount.Valid {
		d := discount.Float64
		t.DiscountPrice = &d
	}
	t.Featured = featured != 0
	t.SEO = parseNullJSON[model.SEO](seo)
	t.RelatedTrainings = parseStrings(related)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// CreateTraining inserts t, assigning a new ID.
func (q *Queries) CreateTraining(ctx context.Context, t *model.Training) error {
	t.ID = uuid.NewString()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO trainings (`+trainingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Slug, t.Description, t.Content, t.Duration, t.Level, t.Type,
		formatNullTime(t.Date), t.Industry, t.SubIndustry, stringsJSON(t.Tags), t.SpeakerID,
		t.SpeakerName, t.CoverImage, pricingJSON(t.PricingOptions), t.RegularPrice,
		nullFloat(t.DiscountPrice), t.WebinarID, t.WhoShouldAttend, t.Overview, t.Status,
		boolToInt(t.Featured), t.Views, nullJSON(t.SEO), stringsJSON(t.RelatedTrainings),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	return err
}

// UpdateTraining writes the editable fields of t.
func (q *Queries) UpdateTraining(ctx context.Context, t *model.Training) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE trainings SET title = ?, slug = ?, description = ?, content = ?, duration = ?, level = ?,
			type = ?, date = ?, industry = ?, sub_industry = ?, tags = ?, speaker_id = ?,
			speaker_name = ?, cover_image = ?, pricing_options = ?, regular_price = ?,
			discount_price = ?, webinar_id = ?, who_should_attend = ?, overview = ?, status = ?,
			featured = ?, seo = ?, related_trainings = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Slug, t.Description, t.Content, t.Duration, t.Level, t.Type, formatNullTime(t.Date),
		t.Industry, t.SubIndustry, stringsJSON(t.Tags), t.SpeakerID, t.SpeakerName, t.CoverImage,
		pricingJSON(t.PricingOptions), t.RegularPrice, nullFloat(t.DiscountPrice), t.WebinarID,
		t.WhoShouldAttend, t.Overview, t.Status, boolToInt(t.Featured), nullJSON(t.SEO),
		stringsJSON(t.RelatedTrainings), formatTime(t.UpdatedAt), t.ID))
}

// GetTrainingByID returns sql.ErrNoRows when missing.
func (q *Queries) GetTrainingByID(ctx context.Context, id string) (model.Training, error) {
	return scanTraining(q.db.QueryRowContext(ctx, `SELECT `+trainingColumns+` FROM trainings WHERE id = ?`, id))
}

// CountTrainingsBySlug counts trainings using slug, ignoring excludeID.
func (q *Queries) CountTrainingsBySlug(ctx context.Context, slug, excludeID string) (int64, error) {
	return q.countWhere(ctx, "trainings", "slug", slug, excludeID)
}

// CountTrainingsBySpeaker counts trainings assigned to a speaker.
func (q *Queries) CountTrainingsBySpeaker(ctx context.Context, speakerID string) (int64, error) {
	return q.countWhere(ctx, "trainings", "speaker_id", speakerID, "")
}

// DeleteTraining removes a training.
func (q *Queries) DeleteTraining(ctx context.Context, id string) error {
	return affected(q.db.ExecContext(ctx, `DELETE FROM trainings WHERE id = ?`, id))
}

func trainingWhere(f ContentFilter) *whereClause {
	w := &whereClause{}
	w.eq("status", f.Status)
	w.eq("type", f.Type)
	w.eq("level", f.Level)
	w.eq("industry", f.Industry)
	w.eq("speaker_id", f.SpeakerID)
	f.featured(w)
	w.search(f.Search, "title", "description", "speaker_name")
	w.between("date", f.DateFrom, f.DateTo)
	return w
}

// ListTrainings returns trainings matching f, newest first.
func (q *Queries) ListTrainings(ctx context.Context, f ContentFilter) ([]model.Training, error) {
	w := trainingWhere(f)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+trainingColumns+` FROM trainings`+w.String()+
			` ORDER BY created_at DESC`+limitOffset(f.Limit, f.Offset),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Training{}
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// CountTrainings counts trainings matching f.
func (q *Queries) CountTrainings(ctx context.Context, f ContentFilter) (int64, error) {
	w := trainingWhere(f)
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trainings`+w.String(), w.args...).Scan(&n)
	return n, err
}

// SetTrainingFeatured updates the featured flag.
func (q *Queries) SetTrainingFeatured(ctx context.Context, arg SetFeaturedParams) error {
	return affected(q.db.ExecContext(ctx, `UPDATE trainings SET featured = ?, updated_at = ? WHERE id = ?`,
		boolToInt(arg.Featured), formatTime(arg.UpdatedAt), arg.ID))
}

// IncrementTrainingViews bumps the view counter of a training.
func (q *Queries) IncrementTrainingViews(ctx context.Context, id string) error {
	return affected(q.db.ExecContext(ctx, `UPDATE trainings SET views = views + 1 WHERE id = ?`, id))
}

// CountTrainingsByStatus groups trainings by status.
func (q *Queries) CountTrainingsByStatus(ctx context.Context) (map[string]int64, error) {
	return q.countByColumn(ctx, "trainings", "status")
}
