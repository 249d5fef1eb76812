// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/leaddesk/internal/model"
)

const whitepaperColumns = `id, title, slug, description, category, industries, summary, highlights,
	cover_image, pdf_url, file_size, page_count, author, author_title, publish_date, status,
	scheduled_date, featured, seo, views, downloads, created_at, updated_at`

func scanWhitepaper(s scanner) (model.Whitepaper, error) {
	var w model.Whitepaper
	var industries, highlights, publishDate, createdAt, updatedAt string
	var featured int
	var scheduled, seo sql.NullString
	err := s.Scan(&w.ID, &w.Title, &w.Slug, &w.Description, &w.Category, &industries, &w.Summary,
		&highlights, &w.CoverImage, &w.PDFURL, &w.FileSize, &w.PageCount, &w.Author, &w.AuthorTitle,
		&publishDate, &w.Status, &scheduled, &featured, &seo, &w.Views, &w.Downloads,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Whitepaper{}, err
	}
	w.Industries = parseStrings(industries)
	w.Highlights = parseStrings(highlights)
	w.PublishDate = parseTime(publishDate)
	w.ScheduledDate = parseNullTime(scheduled)
	w.Featured = featured != 0
	w.SEO = parseNullJSON[model.SEO](seo)
	w.CreatedAt = parseTime(createdAt)
	w.UpdatedAt = parseTime(updatedAt)
	return w, nil
}

// CreateWhitepaper inserts wp, assigning a new ID.
func (q *Queries) CreateWhitepaper(ctx context.Context, wp *model.Whitepaper) error {
	wp.ID = uuid.NewString()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO whitepapers (`+whitepaperColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wp.ID, wp.Title, wp.Slug, wp.Description, wp.Category, stringsJSON(wp.Industries), wp.Summary,
		stringsJSON(wp.Highlights), wp.CoverImage, wp.PDFURL, wp.FileSize, wp.PageCount, wp.Author,
		wp.AuthorTitle, formatTime(wp.PublishDate), wp.Status, formatNullTime(wp.ScheduledDate),
		boolToInt(wp.Featured), nullJSON(wp.SEO), wp.Views, wp.Downloads,
		formatTime(wp.CreatedAt), formatTime(wp.UpdatedAt))
	return err
}

// UpdateWhitepaper writes the editable fields of wp. Counters are left alone.
func (q *Queries) UpdateWhitepaper(ctx context.Context, wp *model.Whitepaper) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE whitepapers SET title = ?, slug = ?, description = ?, category = ?, industries = ?,
			summary = ?, highlights = ?, cover_image = ?, pdf_url = ?, file_size = ?, page_count = ?,
			author = ?, author_title = ?, publish_date = ?, status = ?, scheduled_date = ?,
			featured = ?, seo = ?, updated_at = ?
		WHERE id = ?`,
		wp.Title, wp.Slug, wp.Description, wp.Category, stringsJSON(wp.Industries), wp.Summary,
		stringsJSON(wp.Highlights), wp.CoverImage, wp.PDFURL, wp.FileSize, wp.PageCount, wp.Author,
		wp.AuthorTitle, formatTime(wp.PublishDate), wp.Status, formatNullTime(wp.ScheduledDate),
		boolToInt(wp.Featured), nullJSON(wp.SEO), formatTime(wp.UpdatedAt), wp.ID))
}

// GetWhitepaperByID returns sql.ErrNoRows when missing.
func (q *Queries) GetWhitepaperByID(ctx context.Context, id string) (model.Whitepaper, error) {
	return scanWhitepaper(q.db.QueryRowContext(ctx,
		`SELECT `+whitepaperColumns+` FROM whitepapers WHERE id = ?`, id))
}

// CountWhitepapersBySlug counts whitepapers using slug, ignoring excludeID.
func (q *Queries) CountWhitepapersBySlug(ctx context.Context, slug, excludeID string) (int64, error) {
	return q.countWhere(ctx, "whitepapers", "slug", slug, excludeID)
}

// DeleteWhitepaper removes a whitepaper. Download records keep their copy of the title.
func (q *Queries) DeleteWhitepaper(ctx context.Context, id string) error {
	return affected(q.db.ExecContext(ctx, `DELETE FROM whitepapers WHERE id = ?`, id))
}

func whitepaperWhere(f ContentFilter) *whereClause {
	w := &whereClause{}
	w.eq("status", f.Status)
	w.eq("category", f.Category)
	f.featured(w)
	if f.Industry != "" {
		w.add("EXISTS (SELECT 1 FROM json_each(whitepapers.industries) WHERE json_each.value = ?)", f.Industry)
	}
	w.search(f.Search, "title", "description", "author")
	w.between("publish_date", f.DateFrom, f.DateTo)
	return w
}

// ListWhitepapers returns whitepapers matching f, latest publish date first.
func (q *Queries) ListWhitepapers(ctx context.Context, f ContentFilter) ([]model.Whitepaper, error) {
	w := whitepaperWhere(f)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+whitepaperColumns+` FROM whitepapers`+w.String()+
			` ORDER BY publish_date DESC, created_at DESC`+limitOffset(f.Limit, f.Offset),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Whitepaper{}
	for rows.Next() {
		wp, err := scanWhitepaper(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, wp)
	}
	return items, rows.Err()
}

// CountWhitepapers counts whitepapers matching f.
func (q *Queries) CountWhitepapers(ctx context.Context, f ContentFilter) (int64, error) {
	w := whitepaperWhere(f)
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM whitepapers`+w.String(), w.args...).Scan(&n)
	return n, err
}

// IncrementWhitepaperDownloads bumps the download counter by one.
func (q *Queries) IncrementWhitepaperDownloads(ctx context.Context, id string) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE whitepapers SET downloads = downloads + 1 WHERE id = ?`, id))
}

// SetWhitepaperFeatured updates the featured flag.
func (q *Queries) SetWhitepaperFeatured(ctx context.Context, arg SetFeaturedParams) error {
	return affected(q.db.ExecContext(ctx, `UPDATE whitepapers SET featured = ?, updated_at = ? WHERE id = ?`,
		boolToInt(arg.Featured), formatTime(arg.UpdatedAt), arg.ID))
}

// CountWhitepapersByStatus groups whitepapers by status.
func (q *Queries) CountWhitepapersByStatus(ctx context.Context) (map[string]int64, error) {
	return q.countByColumn(ctx, "whitepapers", "status")
}

// PublishDueWhitepapers moves scheduled whitepapers whose scheduled date has
// passed to published and returns how many were changed.
func (q *Queries) PublishDueWhitepapers(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE whitepapers SET status = ?, publish_date = scheduled_date, updated_at = ?
		WHERE status = ? AND scheduled_date IS NOT NULL AND scheduled_date <= ?`,
		model.StatusPublished, formatTime(now), model.StatusScheduled, formatTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
