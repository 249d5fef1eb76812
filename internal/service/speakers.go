// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
)

const msgSpeakerNameExists = "A speaker with this name already exists"

// SpeakerInput is the editable part of a speaker.
type SpeakerInput struct {
	Name       string   `json:"name" validate:"required,max=200"`
	PhotoURL   string   `json:"photoUrl" validate:"max=2048"`
	Expertise  string   `json:"expertise" validate:"max=300"`
	Years      int      `json:"years" validate:"gte=0,lte=100"`
	Industries []string `json:"industries" validate:"dive,max=100"`
	Bio        string   `json:"bio"`
}

// SpeakerService manages speakers.
type SpeakerService struct {
	db      *sql.DB
	queries *store.Queries
	now     func() time.Time
}

// NewSpeakerService creates a SpeakerService.
func NewSpeakerService(db *sql.DB) *SpeakerService {
	return &SpeakerService{db: db, queries: store.New(db), now: time.Now}
}

func (s *SpeakerService) nameTaken(name, excludeID string) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		return s.queries.CountSpeakersByName(ctx, name, excludeID)
	}
}

func applySpeakerInput(sp *model.Speaker, in SpeakerInput) {
	sp.Name = strings.TrimSpace(in.Name)
	sp.PhotoURL = in.PhotoURL
	sp.Expertise = in.Expertise
	sp.Years = in.Years
	sp.Industries = cleanList(in.Industries)
	sp.Bio = in.Bio
}

// Create stores a new speaker.
func (s *SpeakerService) Create(ctx context.Context, in SpeakerInput) (model.Speaker, error) {
	if err := validateStruct(in); err != nil {
		return model.Speaker{}, err
	}
	now := s.now().UTC()
	sp := model.Speaker{CreatedAt: now, UpdatedAt: now}
	applySpeakerInput(&sp, in)
	if err := ensureUnique(ctx, s.nameTaken(sp.Name, ""), msgSpeakerNameExists); err != nil {
		return model.Speaker{}, err
	}

	if err := s.queries.CreateSpeaker(ctx, &sp); err != nil {
		return model.Speaker{}, err
	}
	return sp, nil
}

// Update replaces the editable fields of a speaker. A new name is copied to
// the speaker's trainings in the same transaction.
func (s *SpeakerService) Update(ctx context.Context, id string, in SpeakerInput) (model.Speaker, error) {
	if err := validateStruct(in); err != nil {
		return model.Speaker{}, err
	}
	sp, err := s.queries.GetSpeakerByID(ctx, id)
	if err != nil {
		return model.Speaker{}, lookupErr(err, msgSpeakerNotFound)
	}
	renamed := strings.TrimSpace(in.Name) != sp.Name
	applySpeakerInput(&sp, in)
	if err := ensureUnique(ctx, s.nameTaken(sp.Name, id), msgSpeakerNameExists); err != nil {
		return model.Speaker{}, err
	}
	sp.UpdatedAt = s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Speaker{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	if err := qtx.UpdateSpeaker(ctx, &sp); err != nil {
		return model.Speaker{}, lookupErr(err, msgSpeakerNotFound)
	}
	if renamed {
		_, err := qtx.RenameSpeakerInTrainings(ctx, store.RenameSpeakerInTrainingsParams{
			SpeakerID: id,
			Name:      sp.Name,
			UpdatedAt: sp.UpdatedAt,
		})
		if err != nil {
			return model.Speaker{}, fmt.Errorf("renaming speaker in trainings: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Speaker{}, fmt.Errorf("committing speaker update: %w", err)
	}
	return sp, nil
}

// Get returns a speaker with the trainings assigned to them.
func (s *SpeakerService) Get(ctx context.Context, id string) (model.SpeakerDetail, error) {
	sp, err := s.queries.GetSpeakerByID(ctx, id)
	if err != nil {
		return model.SpeakerDetail{}, lookupErr(err, msgSpeakerNotFound)
	}
	trainings, err := s.queries.ListTrainings(ctx, store.ContentFilter{SpeakerID: id})
	if err != nil {
		return model.SpeakerDetail{}, err
	}
	return model.SpeakerDetail{Speaker: sp, Trainings: trainings}, nil
}

// Delete removes a speaker that has no trainings.
func (s *SpeakerService) Delete(ctx context.Context, id string) error {
	if _, err := s.queries.GetSpeakerByID(ctx, id); err != nil {
		return lookupErr(err, msgSpeakerNotFound)
	}
	n, err := s.queries.CountTrainingsBySpeaker(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return invalidState(fmt.Sprintf("Cannot delete speaker. %d training(s) are assigned to this speaker.", n))
	}
	return lookupErr(s.queries.DeleteSpeaker(ctx, id), msgSpeakerNotFound)
}

// List returns speakers ordered by name.
func (s *SpeakerService) List(ctx context.Context, f store.SpeakerFilter) ([]model.Speaker, error) {
	return s.queries.ListSpeakers(ctx, f)
}

// Count returns the number of speakers.
func (s *SpeakerService) Count(ctx context.Context) (int64, error) {
	return s.queries.CountSpeakers(ctx)
}
