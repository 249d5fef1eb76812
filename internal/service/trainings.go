// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
	"github.com/olegiv/leaddesk/internal/util"
)

const (
	msgTrainingNotFound   = "Training not found"
	msgTrainingSlugExists = "A training with this slug already exists"
	msgSpeakerNotFound    = "Speaker not found"
)

// TrainingInput is the editable part of a training.
type TrainingInput struct {
	Title            string                `json:"title" validate:"required,max=300"`
	Slug             string                `json:"slug" validate:"omitempty,slug,max=300"`
	Description      string                `json:"description" validate:"required"`
	Content          string                `json:"content"`
	Duration         string                `json:"duration" validate:"required,max=50"`
	Level            string                `json:"level" validate:"required,oneof=basic intermediate advanced basic/intermediate"`
	Type             string                `json:"type" validate:"required,oneof=live recorded on-demand"`
	Date             *time.Time            `json:"date"`
	Industry         string                `json:"industry" validate:"required,max=100"`
	SubIndustry      string                `json:"subIndustry" validate:"max=100"`
	Tags             []string              `json:"tags" validate:"dive,max=100"`
	SpeakerID        string                `json:"speakerId" validate:"required"`
	CoverImage       string                `json:"coverImage" validate:"max=2048"`
	PricingOptions   []model.PricingOption `json:"pricingOptions" validate:"dive"`
	RegularPrice     float64               `json:"regularPrice" validate:"gte=0"`
	DiscountPrice    *float64              `json:"discountPrice" validate:"omitempty,gte=0"`
	WebinarID        string                `json:"webinarId" validate:"max=100"`
	WhoShouldAttend  string                `json:"whoShouldAttend"`
	Overview         string                `json:"overview"`
	Status           string                `json:"status" validate:"required,oneof=draft published archived"`
	Featured         bool                  `json:"featured"`
	SEO              *model.SEO            `json:"seo"`
	RelatedTrainings []string              `json:"relatedTrainings" validate:"dive,uuid"`
}

// PublicTraining is a published training with its content rendered to HTML.
type PublicTraining struct {
	model.Training
	ContentHTML string `json:"contentHtml"`
}

// TrainingService manages trainings.
type TrainingService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewTrainingService creates a TrainingService.
func NewTrainingService(db *sql.DB) *TrainingService {
	return &TrainingService{queries: store.New(db), now: time.Now}
}

func (s *TrainingService) slugTaken(slug, excludeID string) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		return s.queries.CountTrainingsBySlug(ctx, slug, excludeID)
	}
}

// speakerName resolves the denormalized speaker name for a training.
func (s *TrainingService) speakerName(ctx context.Context, speakerID string) (string, error) {
	sp, err := s.queries.GetSpeakerByID(ctx, speakerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &Error{
			Kind:    ErrValidation,
			Message: msgSpeakerNotFound,
			Fields:  map[string]string{"speakerId": msgSpeakerNotFound},
		}
	}
	if err != nil {
		return "", err
	}
	return sp.Name, nil
}

func checkTrainingInput(in TrainingInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.DiscountPrice != nil && *in.DiscountPrice > in.RegularPrice {
		return invalidField("discountPrice", "must not exceed the regular price")
	}
	return nil
}

func applyTrainingInput(t *model.Training, in TrainingInput, slug, speakerName string) {
	t.Title = in.Title
	t.Slug = slug
	t.Description = in.Description
	t.Content = in.Content
	t.Duration = in.Duration
	t.Level = in.Level
	t.Type = in.Type
	t.Date = nil
	if in.Date != nil {
		d := in.Date.UTC()
		t.Date = &d
	}
	t.Industry = in.Industry
	t.SubIndustry = in.SubIndustry
	t.Tags = cleanList(in.Tags)
	t.SpeakerID = in.SpeakerID
	t.SpeakerName = speakerName
	t.CoverImage = in.CoverImage
	t.PricingOptions = in.PricingOptions
	if t.PricingOptions == nil {
		t.PricingOptions = []model.PricingOption{}
	}
	t.RegularPrice = in.RegularPrice
	t.DiscountPrice = in.DiscountPrice
	t.WebinarID = in.WebinarID
	t.WhoShouldAttend = in.WhoShouldAttend
	t.Overview = in.Overview
	t.Status = in.Status
	t.Featured = in.Featured
	t.SEO = in.SEO
	t.RelatedTrainings = without(cleanList(in.RelatedTrainings), t.ID)
}

// Create stores a new training.
func (s *TrainingService) Create(ctx context.Context, in TrainingInput) (model.Training, error) {
	if err := checkTrainingInput(in); err != nil {
		return model.Training{}, err
	}
	slug, err := resolveSlug(in.Title, in.Slug)
	if err != nil {
		return model.Training{}, err
	}
	if err := ensureUnique(ctx, s.slugTaken(slug, ""), msgTrainingSlugExists); err != nil {
		return model.Training{}, err
	}
	name, err := s.speakerName(ctx, in.SpeakerID)
	if err != nil {
		return model.Training{}, err
	}

	now := s.now().UTC()
	t := model.Training{CreatedAt: now, UpdatedAt: now}
	applyTrainingInput(&t, in, slug, name)

	if err := s.queries.CreateTraining(ctx, &t); err != nil {
		return model.Training{}, err
	}
	return t, nil
}

// Update replaces the editable fields of a training.
func (s *TrainingService) Update(ctx context.Context, id string, in TrainingInput) (model.Training, error) {
	if err := checkTrainingInput(in); err != nil {
		return model.Training{}, err
	}
	t, err := s.queries.GetTrainingByID(ctx, id)
	if err != nil {
		return model.Training{}, lookupErr(err, msgTrainingNotFound)
	}
	slug, err := resolveSlug(in.Title, in.Slug)
	if err != nil {
		return model.Training{}, err
	}
	if err := ensureUnique(ctx, s.slugTaken(slug, id), msgTrainingSlugExists); err != nil {
		return model.Training{}, err
	}
	name, err := s.speakerName(ctx, in.SpeakerID)
	if err != nil {
		return model.Training{}, err
	}

	applyTrainingInput(&t, in, slug, name)
	t.UpdatedAt = s.now().UTC()

	if err := s.queries.UpdateTraining(ctx, &t); err != nil {
		return model.Training{}, lookupErr(err, msgTrainingNotFound)
	}
	return t, nil
}

// Get returns a training by ID in any status.
func (s *TrainingService) Get(ctx context.Context, id string) (model.Training, error) {
	t, err := s.queries.GetTrainingByID(ctx, id)
	if err != nil {
		return model.Training{}, lookupErr(err, msgTrainingNotFound)
	}
	return t, nil
}

// GetPublished returns a published training for the public site, counts the
// view and renders its markdown content to sanitized HTML.
func (s *TrainingService) GetPublished(ctx context.Context, id string) (PublicTraining, error) {
	t, err := s.queries.GetTrainingByID(ctx, id)
	if err != nil {
		return PublicTraining{}, lookupErr(err, msgTrainingNotFound)
	}
	if !t.IsPublished() {
		return PublicTraining{}, notFound(msgTrainingNotFound)
	}

	if err := s.queries.IncrementTrainingViews(ctx, id); err != nil {
		slog.Warn("failed to count training view", "training_id", id, "error", err)
	} else {
		t.Views++
	}

	html, err := util.RenderMarkdown(t.Content)
	if err != nil {
		return PublicTraining{}, fmt.Errorf("rendering training content: %w", err)
	}
	return PublicTraining{Training: t, ContentHTML: strings.TrimSpace(html)}, nil
}

// Delete removes a training. Payments keep their copy of the title.
func (s *TrainingService) Delete(ctx context.Context, id string) error {
	return lookupErr(s.queries.DeleteTraining(ctx, id), msgTrainingNotFound)
}

// List returns trainings matching f, newest first.
func (s *TrainingService) List(ctx context.Context, f store.ContentFilter) (Page[model.Training], error) {
	items, err := s.queries.ListTrainings(ctx, f)
	if err != nil {
		return Page[model.Training]{}, err
	}
	total, err := s.queries.CountTrainings(ctx, f)
	if err != nil {
		return Page[model.Training]{}, err
	}
	return Page[model.Training]{Items: items, Total: total}, nil
}

// ToggleFeatured flips the featured flag and returns the new value.
func (s *TrainingService) ToggleFeatured(ctx context.Context, id string) (bool, error) {
	t, err := s.queries.GetTrainingByID(ctx, id)
	if err != nil {
		return false, lookupErr(err, msgTrainingNotFound)
	}
	featured := !t.Featured
	err = s.queries.SetTrainingFeatured(ctx, store.SetFeaturedParams{ID: id, Featured: featured, UpdatedAt: s.now()})
	if err != nil {
		return false, lookupErr(err, msgTrainingNotFound)
	}
	return featured, nil
}

// CountByStatus groups trainings by status.
func (s *TrainingService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.queries.CountTrainingsByStatus(ctx)
}
