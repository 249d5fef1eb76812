// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the leaddesk business logic: content repositories,
// download tracking, payments, settings and the system event log.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
)

// DefaultEventLimit caps event listings without an explicit limit.
const DefaultEventLimit = 100

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
		now:     time.Now,
	}
}

// LogEvent creates a new event log entry. Failures are logged and swallowed so
// that auditing never breaks the request being audited.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, userID, ipAddress string, metadata map[string]any) {
	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    userID,
		Metadata:  metadataJSON,
		IPAddress: ipAddress,
		CreatedAt: s.now(),
	})
	if err != nil {
		slog.Error("failed to log event", "error", err, "category", category)
	}
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message, userID, ipAddress string, metadata map[string]any) {
	s.LogEvent(ctx, model.EventLevelInfo, category, message, userID, ipAddress, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message, userID, ipAddress string, metadata map[string]any) {
	s.LogEvent(ctx, model.EventLevelWarning, category, message, userID, ipAddress, metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message, userID, ipAddress string, metadata map[string]any) {
	s.LogEvent(ctx, model.EventLevelError, category, message, userID, ipAddress, metadata)
}

// EventPage is one page of the event log.
type EventPage struct {
	Events []model.Event `json:"events"`
	Total  int64         `json:"total"`
}

// ListEvents returns events newest first.
func (s *EventService) ListEvents(ctx context.Context, f store.EventFilter) (EventPage, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultEventLimit
	}
	events, err := s.queries.ListEvents(ctx, f)
	if err != nil {
		return EventPage{}, err
	}
	total, err := s.queries.CountEvents(ctx, f)
	if err != nil {
		return EventPage{}, err
	}
	return EventPage{Events: events, Total: total}, nil
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, s.now().Add(-olderThan))
}
