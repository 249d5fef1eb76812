// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the system event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
)

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler wraps inner and forwards WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel wraps inner with a custom forwarding threshold.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}
	if r.Level >= h.level {
		h.writeToEventLog(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	clone.group = h.prefix(name)
	return &clone
}

func (h *EventLogHandler) prefix(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: h.prefix(a.Key), Value: a.Value})
	}
	return out
}

// writeToEventLog stores r. The request context may already be cancelled, so
// the insert runs on a short background context.
func (h *EventLogHandler) writeToEventLog(ctx context.Context, r slog.Record) {
	fields := make(map[string]any, r.NumAttrs()+len(h.attrs)+1)
	var category, userID, ip string

	// Well-known keys map to event columns regardless of group.
	collect := func(key string, a slog.Attr) {
		switch key {
		case "category":
			category = a.Value.String()
		case "user_id":
			userID = a.Value.String()
		case "ip", "ip_address":
			ip = a.Value.String()
		default:
			fields[a.Key] = a.Value.Resolve().Any()
		}
	}
	for _, a := range h.attrs {
		collect(a.Key[strings.LastIndex(a.Key, ".")+1:], a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a.Key, slog.Attr{Key: h.prefix(a.Key), Value: a.Value})
		return true
	})

	if path := middleware.GetRequestPath(ctx); path != "" {
		fields["path"] = path
	}
	if category == "" {
		category = inferCategory(r.Message)
	}

	metadata := "{}"
	if len(fields) > 0 {
		if b, err := json.Marshal(stringify(fields)); err == nil {
			metadata = string(b)
		}
	}

	created := r.Time
	if created.IsZero() {
		created = time.Now()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	_, _ = h.queries.CreateEvent(writeCtx, store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		Metadata:  metadata,
		IPAddress: ip,
		CreatedAt: created,
	})
}

// stringify turns values json cannot encode, such as errors, into strings.
func stringify(fields map[string]any) map[string]any {
	for k, v := range fields {
		switch val := v.(type) {
		case error:
			fields[k] = val.Error()
		case time.Duration:
			fields[k] = val.String()
		}
	}
	return fields
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category from the message when none was given.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, "auth", "login", "logout", "session", "access denied"):
		return model.EventCategoryAuth
	case containsAny(msg, "email", "smtp", "mail"):
		return model.EventCategoryEmail
	case containsAny(msg, "payment", "checkout", "refund", "stripe"):
		return model.EventCategoryPayment
	case containsAny(msg, "download", "lead"):
		return model.EventCategoryDownload
	case containsAny(msg, "blog", "whitepaper", "training", "speaker"):
		return model.EventCategoryContent
	case containsAny(msg, "config", "setting"):
		return model.EventCategoryConfig
	default:
		return model.EventCategorySystem
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
