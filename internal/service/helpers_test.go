// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/leaddesk/internal/model"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

// clock is a settable time source shared by services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: testNow} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func requireKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "error %v is not %v", err, kind)
	if msg != "" {
		require.Equal(t, msg, PublicMessage(err, ""))
	}
}

func createSpeaker(t *testing.T, svc *SpeakerService, name string) model.Speaker {
	t.Helper()
	sp, err := svc.Create(context.Background(), SpeakerInput{Name: name, Expertise: "Quality", Years: 12})
	require.NoError(t, err)
	return sp
}

func trainingInput(speakerID, title string) TrainingInput {
	return TrainingInput{
		Title:        title,
		Description:  "A practical session.",
		Content:      "## Agenda\n\n- Intro\n- Q&A",
		Duration:     "60 Mins",
		Level:        model.LevelIntermediate,
		Type:         model.TrainingTypeLive,
		Industry:     "Pharma",
		SpeakerID:    speakerID,
		RegularPrice: 199,
		Status:       model.StatusPublished,
	}
}

func whitepaperInput(title string) WhitepaperInput {
	return WhitepaperInput{
		Title:       title,
		Description: "Everything about audits.",
		Category:    "Compliance",
		PDFURL:      "https://cdn.example.com/audit.pdf",
		Author:      "Jane Roe",
		Status:      model.StatusPublished,
	}
}
