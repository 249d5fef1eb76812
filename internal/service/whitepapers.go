// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
)

const (
	msgWhitepaperNotFound   = "Whitepaper not found"
	msgWhitepaperSlugExists = "A whitepaper with this slug already exists"
)

// WhitepaperInput is the editable part of a whitepaper.
type WhitepaperInput struct {
	Title         string     `json:"title" validate:"required,max=300"`
	Slug          string     `json:"slug" validate:"omitempty,slug,max=300"`
	Description   string     `json:"description" validate:"required"`
	Category      string     `json:"category" validate:"required,max=100"`
	Industries    []string   `json:"industries" validate:"dive,max=100"`
	Summary       string     `json:"summary"`
	Highlights    []string   `json:"highlights"`
	CoverImage    string     `json:"coverImage" validate:"max=2048"`
	PDFURL        string     `json:"pdfUrl" validate:"required,max=2048"`
	FileSize      string     `json:"fileSize" validate:"max=50"`
	PageCount     int        `json:"pageCount" validate:"gte=0"`
	Author        string     `json:"author" validate:"required,max=200"`
	AuthorTitle   string     `json:"authorTitle" validate:"max=200"`
	PublishDate   *time.Time `json:"publishDate"`
	Status        string     `json:"status" validate:"required,oneof=draft published scheduled"`
	ScheduledDate *time.Time `json:"scheduledDate" validate:"required_if=Status scheduled"`
	Featured      bool       `json:"featured"`
	SEO           *model.SEO `json:"seo"`
}

// WhitepaperService manages whitepapers.
type WhitepaperService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewWhitepaperService creates a WhitepaperService.
func NewWhitepaperService(db *sql.DB) *WhitepaperService {
	return &WhitepaperService{queries: store.New(db), now: time.Now}
}

func (s *WhitepaperService) slugTaken(slug, excludeID string) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		return s.queries.CountWhitepapersBySlug(ctx, slug, excludeID)
	}
}

func applyWhitepaperInput(wp *model.Whitepaper, in WhitepaperInput, slug string, now time.Time) {
	wp.Title = in.Title
	wp.Slug = slug
	wp.Description = in.Description
	wp.Category = in.Category
	wp.Industries = cleanList(in.Industries)
	wp.Summary = in.Summary
	wp.Highlights = cleanList(in.Highlights)
	wp.CoverImage = in.CoverImage
	wp.PDFURL = in.PDFURL
	wp.FileSize = in.FileSize
	wp.PageCount = in.PageCount
	wp.Author = in.Author
	wp.AuthorTitle = in.AuthorTitle
	wp.Status = in.Status
	wp.Featured = in.Featured
	wp.SEO = in.SEO

	switch {
	case in.PublishDate != nil:
		wp.PublishDate = in.PublishDate.UTC()
	case wp.PublishDate.IsZero():
		wp.PublishDate = now
	}
	wp.ScheduledDate = nil
	if in.Status == model.StatusScheduled && in.ScheduledDate != nil {
		t := in.ScheduledDate.UTC()
		wp.ScheduledDate = &t
	}
}

// Create stores a new whitepaper.
func (s *WhitepaperService) Create(ctx context.Context, in WhitepaperInput) (model.Whitepaper, error) {
	if err := validateStruct(in); err != nil {
		return model.Whitepaper{}, err
	}
	slug, err := resolveSlug(in.Title, in.Slug)
	if err != nil {
		return model.Whitepaper{}, err
	}
	if err := ensureUnique(ctx, s.slugTaken(slug, ""), msgWhitepaperSlugExists); err != nil {
		return model.Whitepaper{}, err
	}

	now := s.now().UTC()
	wp := model.Whitepaper{CreatedAt: now, UpdatedAt: now}
	applyWhitepaperInput(&wp, in, slug, now)

	if err := s.queries.CreateWhitepaper(ctx, &wp); err != nil {
		return model.Whitepaper{}, err
	}
	return wp, nil
}

// Update replaces the editable fields of a whitepaper. Counters are kept.
func (s *WhitepaperService) Update(ctx context.Context, id string, in WhitepaperInput) (model.Whitepaper, error) {
	if err := validateStruct(in); err != nil {
		return model.Whitepaper{}, err
	}
	wp, err := s.queries.GetWhitepaperByID(ctx, id)
	if err != nil {
		return model.Whitepaper{}, lookupErr(err, msgWhitepaperNotFound)
	}
	slug, err := resolveSlug(in.Title, in.Slug)
	if err != nil {
		return model.Whitepaper{}, err
	}
	if err := ensureUnique(ctx, s.slugTaken(slug, id), msgWhitepaperSlugExists); err != nil {
		return model.Whitepaper{}, err
	}

	now := s.now().UTC()
	applyWhitepaperInput(&wp, in, slug, now)
	wp.UpdatedAt = now

	if err := s.queries.UpdateWhitepaper(ctx, &wp); err != nil {
		return model.Whitepaper{}, lookupErr(err, msgWhitepaperNotFound)
	}
	return wp, nil
}

// Get returns a whitepaper by ID.
func (s *WhitepaperService) Get(ctx context.Context, id string) (model.Whitepaper, error) {
	wp, err := s.queries.GetWhitepaperByID(ctx, id)
	if err != nil {
		return model.Whitepaper{}, lookupErr(err, msgWhitepaperNotFound)
	}
	return wp, nil
}

// Delete removes a whitepaper. Download records keep their copy of the title.
func (s *WhitepaperService) Delete(ctx context.Context, id string) error {
	return lookupErr(s.queries.DeleteWhitepaper(ctx, id), msgWhitepaperNotFound)
}

// List returns whitepapers matching f, newest first.
func (s *WhitepaperService) List(ctx context.Context, f store.ContentFilter) (Page[model.Whitepaper], error) {
	items, err := s.queries.ListWhitepapers(ctx, f)
	if err != nil {
		return Page[model.Whitepaper]{}, err
	}
	total, err := s.queries.CountWhitepapers(ctx, f)
	if err != nil {
		return Page[model.Whitepaper]{}, err
	}
	return Page[model.Whitepaper]{Items: items, Total: total}, nil
}

// ToggleFeatured flips the featured flag and returns the new value.
func (s *WhitepaperService) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	wp, err := s.queries.GetWhitepaperByID(ctx, id)
	if err != nil {
		return false, lookupErr(err, msgWhitepaperNotFound)
	}
	featured := !wp.Featured
	err = s.queries.SetWhitepaperFeatured(ctx, store.SetFeaturedParams{ID: id, Featured: featured, UpdatedAt: s.now()})
	if err != nil {
		return false, lookupErr(err, msgWhitepaperNotFound)
	}
	return featured, nil
}

// CountByStatus groups whitepapers by status.
func (s *WhitepaperService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.queries.CountWhitepapersByStatus(ctx)
}

// PublishDue publishes scheduled whitepapers whose date has passed.
func (s *WhitepaperService) PublishDue(ctx context.Context) (int64, error) {
	return s.queries.PublishDueWhitepapers(ctx, s.now())
}
