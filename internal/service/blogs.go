// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
	"github.com/olegiv/leaddesk/internal/util"
)

// PublishedBlogLimit caps the related-posts selector listing.
const PublishedBlogLimit = 50

const (
	msgBlogNotFound   = "Blog not found"
	msgBlogSlugExists = "A blog with this slug already exists"
)

// BlogInput is the editable part of a blog post.
type BlogInput struct {
	Title        string     `json:"title" validate:"required,max=300"`
	Slug         string     `json:"slug" validate:"omitempty,slug,max=300"`
	Excerpt      string     `json:"excerpt" validate:"required,max=1000"`
	Content      string     `json:"content" validate:"required"`
	CoverImage   string     `json:"coverImage" validate:"max=2048"`
	Tags         []string   `json:"tags" validate:"dive,max=100"`
	Status       string     `json:"status" validate:"required,oneof=draft published archived"`
	Featured     bool       `json:"featured"`
	SEO          *model.SEO `json:"seo"`
	RelatedPosts []string   `json:"relatedPosts" validate:"dive,uuid"`
}

// BlogService manages blog posts.
type BlogService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewBlogService creates a BlogService.
func NewBlogService(db *sql.DB) *BlogService {
	return &BlogService{queries: store.New(db), now: time.Now}
}

func (s *BlogService) slugTaken(slug, excludeID string) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		return s.queries.CountBlogsBySlug(ctx, slug, excludeID)
	}
}

// Create stores a new blog post authored by actor.
func (s *BlogService) Create(ctx context.Context, actor Actor, in BlogInput) (model.Blog, error) {
	if err := validateStruct(in); err != nil {
		return model.Blog{}, err
	}
	slug, err := resolveSlug(in.Title, in.Slug)
	if err != nil {
		return model.Blog{}, err
	}
	if err := ensureUnique(ctx, s.slugTaken(slug, ""), msgBlogSlugExists); err != nil {
		return model.Blog{}, err
	}

	now := s.now().UTC()
	b := model.Blog{
		Author:    actor.Email,
		AuthorID:  actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyBlogInput(&b, in, slug)
	if b.Status == model.StatusPublished {
		b.PublishedAt = &now
	}

	if err := s.queries.CreateBlog(ctx, &b); err != nil {
		return model.Blog{}, err
	}
	return b, nil
}

func applyBlogInput(b *model.Blog, in BlogInput, slug string) {
	b.Title = in.Title
	b.Slug = slug
	b.Excerpt = in.Excerpt
	b.Content = util.SanitizeHTML(in.Content)
	b.CoverImage = in.CoverImage
	b.Tags = cleanList(in.Tags)
	b.Status = in.Status
	b.Featured = in.Featured
	b.SEO = in.SEO
	b.RelatedPosts = without(cleanList(in.RelatedPosts), b.ID)
}

// Update replaces the editable fields of a blog post. publishedAt is reset
// when the post moves into the published status.
func (s *BlogService) Update(ctx context.Context, id string, in BlogInput) (model.Blog, error) {
	if err := validateStruct(in); err != nil {
		return model.Blog{}, err
	}
	b, err := s.queries.GetBlogByID(ctx, id)
	if err != nil {
		return model.Blog{}, lookupErr(err, msgBlogNotFound)
	}
	slug, err := resolveSlug(in.Title, in.Slug)
	if err != nil {
		return model.Blog{}, err
	}
	if err := ensureUnique(ctx, s.slugTaken(slug, id), msgBlogSlugExists); err != nil {
		return model.Blog{}, err
	}

	now := s.now().UTC()
	wasPublished := b.Status == model.StatusPublished
	applyBlogInput(&b, in, slug)
	if !wasPublished && b.Status == model.StatusPublished {
		b.PublishedAt = &now
	}
	b.UpdatedAt = now

	if err := s.queries.UpdateBlog(ctx, &b); err != nil {
		return model.Blog{}, lookupErr(err, msgBlogNotFound)
	}
	return b, nil
}

// Get returns a blog post by ID.
func (s *BlogService) Get(ctx context.Context, id string) (model.Blog, error) {
	b, err := s.queries.GetBlogByID(ctx, id)
	if err != nil {
		return model.Blog{}, lookupErr(err, msgBlogNotFound)
	}
	return b, nil
}

// Delete removes a blog post.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	return lookupErr(s.queries.DeleteBlog(ctx, id), msgBlogNotFound)
}

// List returns blog posts matching f, newest first.
func (s *BlogService) List(ctx context.Context, f store.ContentFilter) (Page[model.Blog], error) {
	items, err := s.queries.ListBlogs(ctx, f)
	if err != nil {
		return Page[model.Blog]{}, err
	}
	total, err := s.queries.CountBlogs(ctx, f)
	if err != nil {
		return Page[model.Blog]{}, err
	}
	return Page[model.Blog]{Items: items, Total: total}, nil
}

// ListPublished returns published posts for the related-posts selector,
// excluding excludeID.
func (s *BlogService) ListPublished(ctx context.Context, excludeID string) ([]model.BlogSummary, error) {
	return s.queries.ListPublishedBlogSummaries(ctx, excludeID, PublishedBlogLimit)
}

// ToggleFeatured flips the featured flag and returns the new value.
func (s *BlogService) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	b, err := s.queries.GetBlogByID(ctx, id)
	if err != nil {
		return false, lookupErr(err, msgBlogNotFound)
	}
	featured := !b.Featured
	err = s.queries.SetBlogFeatured(ctx, store.SetFeaturedParams{ID: id, Featured: featured, UpdatedAt: s.now()})
	if err != nil {
		return false, lookupErr(err, msgBlogNotFound)
	}
	return featured, nil
}

// CountByStatus groups blog posts by status.
func (s *BlogService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.queries.CountBlogsByStatus(ctx)
}
