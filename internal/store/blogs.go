// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/leaddesk/internal/model"
)

// ContentFilter narrows content listings. Zero values mean "any".
type ContentFilter struct {
	Status    string
	Featured  *bool
	Category  string
	Type      string
	Level     string
	Industry  string
	SpeakerID string
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

func (f ContentFilter) featured(w *whereClause) {
	if f.Featured != nil {
		w.add("featured = ?", boolToInt(*f.Featured))
	}
}

func limitOffset(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	s := " LIMIT " + strconv.Itoa(limit)
	if offset > 0 {
		s += " OFFSET " + strconv.Itoa(offset)
	}
	return s
}

const blogColumns = `id, title, slug, excerpt, content, author, author_id, cover_image, tags, status,
	featured, published_at, views, seo, related_posts, created_at, updated_at`

func scanBlog(s scanner) (model.Blog, error) {
	var b model.Blog
	var tags, related, createdAt, updatedAt string
	var featured int
	var publishedAt, seo sql.NullString
	err := s.Scan(&b.ID, &b.Title, &b.Slug, &b.Excerpt, &b.Content, &b.Author, &b.AuthorID,
		&b.CoverImage, &tags, &b.Status, &featured, &publishedAt, &b.Views, &seo, &related,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Blog{}, err
	}
	b.Tags = parseStrings(tags)
	b.RelatedPosts = parseStrings(related)
	b.Featured = featured != 0
	b.PublishedAt = parseNullTime(publishedAt)
	b.SEO = parseNullJSON[model.SEO](seo)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return b, nil
}

// CreateBlog inserts b, assigning a new ID.
func (q *Queries) CreateBlog(ctx context.Context, b *model.Blog) error {
	b.ID = uuid.NewString()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Slug, b.Excerpt, b.Content, b.Author, b.AuthorID, b.CoverImage,
		stringsJSON(b.Tags), b.Status, boolToInt(b.Featured), formatNullTime(b.PublishedAt), b.Views,
		nullJSON(b.SEO), stringsJSON(b.RelatedPosts), formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	return err
}

// UpdateBlog writes the editable fields of b.
func (q *Queries) UpdateBlog(ctx context.Context, b *model.Blog) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE blogs SET title = ?, slug = ?, excerpt = ?, content = ?, cover_image = ?, tags = ?,
			status = ?, featured = ?, published_at = ?, seo = ?, related_posts = ?, updated_at = ?
		WHERE id = ?`,
		b.Title, b.Slug, b.Excerpt, b.Content, b.CoverImage, stringsJSON(b.Tags), b.Status,
		boolToInt(b.Featured), formatNullTime(b.PublishedAt), nullJSON(b.SEO),
		stringsJSON(b.RelatedPosts), formatTime(b.UpdatedAt), b.ID))
}

// GetBlogByID returns sql.ErrNoRows when missing.
func (q *Queries) GetBlogByID(ctx context.Context, id string) (model.Blog, error) {
	return scanBlog(q.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id))
}

// CountBlogsBySlug counts blogs using slug, ignoring excludeID.
func (q *Queries) CountBlogsBySlug(ctx context.Context, slug, excludeID string) (int64, error) {
	return q.countWhere(ctx, "blogs", "slug", slug, excludeID)
}

// DeleteBlog removes a blog.
func (q *Queries) DeleteBlog(ctx context.Context, id string) error {
	return affected(q.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id))
}

func blogWhere(f ContentFilter) *whereClause {
	w := &whereClause{}
	w.eq("status", f.Status)
	f.featured(w)
	w.search(f.Search, "title", "excerpt", "author")
	w.between("created_at", f.DateFrom, f.DateTo)
	return w
}

// ListBlogs returns blogs matching f, newest first.
func (q *Queries) ListBlogs(ctx context.Context, f ContentFilter) ([]model.Blog, error) {
	w := blogWhere(f)
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs`+w.String()+` ORDER BY created_at DESC`+limitOffset(f.Limit, f.Offset),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// CountBlogs counts blogs matching f, ignoring limit and offset.
func (q *Queries) CountBlogs(ctx context.Context, f ContentFilter) (int64, error) {
	w := blogWhere(f)
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs`+w.String(), w.args...).Scan(&n)
	return n, err
}

// ListPublishedBlogSummaries returns up to limit published blogs, excluding excludeID.
func (q *Queries) ListPublishedBlogSummaries(ctx context.Context, excludeID string, limit int) ([]model.BlogSummary, error) {
	w := &whereClause{}
	w.add("status = ?", model.StatusPublished)
	if excludeID != "" {
		w.add("id != ?", excludeID)
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title, slug FROM blogs`+w.String()+` ORDER BY published_at DESC`+limitOffset(limit, 0),
		w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.BlogSummary{}
	for rows.Next() {
		var s model.BlogSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// SetFeaturedParams flips the featured flag of a content row.
type SetFeaturedParams struct {
	ID        string
	Featured  bool
	UpdatedAt time.Time
}

// SetBlogFeatured updates the featured flag.
func (q *Queries) SetBlogFeatured(ctx context.Context, arg SetFeaturedParams) error {
	return affected(q.db.ExecContext(ctx, `UPDATE blogs SET featured = ?, updated_at = ? WHERE id = ?`,
		boolToInt(arg.Featured), formatTime(arg.UpdatedAt), arg.ID))
}

// CountBlogsByStatus groups blogs by status.
func (q *Queries) CountBlogsByStatus(ctx context.Context) (map[string]int64, error) {
	return q.countByColumn(ctx, "blogs", "status")
}
