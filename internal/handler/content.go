// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/store"
)

// contentFilter reads the shared list filters from the query string.
func contentFilter(w http.ResponseWriter, r *http.Request, p pageParams) (store.ContentFilter, bool) {
	q := r.URL.Query()
	from, to, err := dateRange(q)
	if err != nil {
		writeBadRequest(w, err.Error())
		return store.ContentFilter{}, false
	}
	return store.ContentFilter{
		Status:    q.Get("status"),
		Featured:  parseBool(q.Get("featured")),
		Category:  q.Get("category"),
		Type:      q.Get("type"),
		Level:     q.Get("level"),
		Industry:  q.Get("industry"),
		SpeakerID: q.Get("speakerId"),
		Search:    q.Get("search"),
		DateFrom:  from,
		DateTo:    to,
		Limit:     p.Limit(),
		Offset:    p.Offset(),
	}, true
}

func listEntities[T any](logger *slog.Logger, list func(context.Context, store.ContentFilter) (service.Page[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := parsePage(r)
		f, ok := contentFilter(w, r, p)
		if !ok {
			return
		}
		page, err := list(r.Context(), f)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeSuccess(w, page.Items, p.Meta(page.Total))
	}
}

func getEntity[T any](logger *slog.Logger, get func(context.Context, string) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := get(r.Context(), idParam(r))
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeSuccess(w, v, nil)
	}
}

func createEntity[T, In any](logger *slog.Logger, create func(r *http.Request, in In) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if !decodeJSON(w, r, &in) {
			return
		}
		v, err := create(r, in)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeCreated(w, v)
	}
}

func updateEntity[T, In any](logger *slog.Logger, update func(context.Context, string, In) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if !decodeJSON(w, r, &in) {
			return
		}
		v, err := update(r.Context(), idParam(r), in)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeSuccess(w, v, nil)
	}
}

func deleteEntity(logger *slog.Logger, del func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := del(r.Context(), idParam(r)); err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeSuccess(w, nil, nil)
	}
}

func toggleFeatured(logger *slog.Logger, toggle func(context.Context, string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		featured, err := toggle(r.Context(), idParam(r))
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeSuccess(w, map[string]bool{"featured": featured}, nil)
	}
}

// BlogHandler serves the blog admin API.
type BlogHandler struct {
	blogs  *service.BlogService
	logger *slog.Logger
}

// NewBlogHandler creates a BlogHandler.
func NewBlogHandler(blogs *service.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{blogs: blogs, logger: logger}
}

// List handles GET /blogs.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	listEntities(h.logger, h.blogs.List)(w, r)
}

// Published handles GET /blogs/published, the related-posts selector.
func (h *BlogHandler) Published(w http.ResponseWriter, r *http.Request) {
	items, err := h.blogs.ListPublished(r.Context(), r.URL.Query().Get("exclude"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, items, nil)
}

// Get handles GET /blogs/{id}.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	getEntity(h.logger, h.blogs.Get)(w, r)
}

// Create handles POST /blogs. The signed-in user becomes the author.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	createEntity(h.logger, func(r *http.Request, in service.BlogInput) (any, error) {
		return h.blogs.Create(r.Context(), actor(r), in)
	})(w, r)
}

// Update handles PUT /blogs/{id}.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	updateEntity(h.logger, h.blogs.Update)(w, r)
}

// Delete handles DELETE /blogs/{id}.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleteEntity(h.logger, h.blogs.Delete)(w, r)
}

// ToggleFeatured handles POST /blogs/{id}/featured.
func (h *BlogHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	toggleFeatured(h.logger, h.blogs.ToggleFeatured)(w, r)
}

// WhitepaperHandler serves the whitepaper admin API.
type WhitepaperHandler struct {
	whitepapers *service.WhitepaperService
	logger      *slog.Logger
}

// NewWhitepaperHandler creates a WhitepaperHandler.
func NewWhitepaperHandler(whitepapers *service.WhitepaperService, logger *slog.Logger) *WhitepaperHandler {
	return &WhitepaperHandler{whitepapers: whitepapers, logger: logger}
}

// List handles GET /whitepapers.
func (h *WhitepaperHandler) List(w http.ResponseWriter, r *http.Request) {
	listEntities(h.logger, h.whitepapers.List)(w, r)
}

// Get handles GET /whitepapers/{id}.
func (h *WhitepaperHandler) Get(w http.ResponseWriter, r *http.Request) {
	getEntity(h.logger, h.whitepapers.Get)(w, r)
}

// Create handles POST /whitepapers.
func (h *WhitepaperHandler) Create(w http.ResponseWriter, r *http.Request) {
	createEntity(h.logger, func(r *http.Request, in service.WhitepaperInput) (any, error) {
		return h.whitepapers.Create(r.Context(), in)
	})(w, r)
}

// Update handles PUT /whitepapers/{id}.
func (h *WhitepaperHandler) Update(w http.ResponseWriter, r *http.Request) {
	updateEntity(h.logger, h.whitepapers.Update)(w, r)
}

// Delete handles DELETE /whitepapers/{id}.
func (h *WhitepaperHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleteEntity(h.logger, h.whitepapers.Delete)(w, r)
}

// ToggleFeatured handles POST /whitepapers/{id}/featured.
func (h *WhitepaperHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	toggleFeatured(h.logger, h.whitepapers.ToggleFeatured)(w, r)
}

// TrainingHandler serves the training admin API.
type TrainingHandler struct {
	trainings *service.TrainingService
	logger    *slog.Logger
}

// NewTrainingHandler creates a TrainingHandler.
func NewTrainingHandler(trainings *service.TrainingService, logger *slog.Logger) *TrainingHandler {
	return &TrainingHandler{trainings: trainings, logger: logger}
}

// List handles GET /trainings.
func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	listEntities(h.logger, h.trainings.List)(w, r)
}

// Get handles GET /trainings/{id}.
func (h *TrainingHandler) Get(w http.ResponseWriter, r *http.Request) {
	getEntity(h.logger, h.trainings.Get)(w, r)
}

// Create handles POST /trainings.
func (h *TrainingHandler) Create(w http.ResponseWriter, r *http.Request) {
	createEntity(h.logger, func(r *http.Request, in service.TrainingInput) (any, error) {
		return h.trainings.Create(r.Context(), in)
	})(w, r)
}

// Update handles PUT /trainings/{id}.
func (h *TrainingHandler) Update(w http.ResponseWriter, r *http.Request) {
	updateEntity(h.logger, h.trainings.Update)(w, r)
}

// Delete handles DELETE /trainings/{id}.
func (h *TrainingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleteEntity(h.logger, h.trainings.Delete)(w, r)
}

// ToggleFeatured handles POST /trainings/{id}/featured.
func (h *TrainingHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	toggleFeatured(h.logger, h.trainings.ToggleFeatured)(w, r)
}

// SpeakerHandler serves the speaker admin API.
type SpeakerHandler struct {
	speakers *service.SpeakerService
	logger   *slog.Logger
}

// NewSpeakerHandler creates a SpeakerHandler.
func NewSpeakerHandler(speakers *service.SpeakerService, logger *slog.Logger) *SpeakerHandler {
	return &SpeakerHandler{speakers: speakers, logger: logger}
}

// List handles GET /speakers. Speakers are few and are not paginated.
func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.speakers.List(r.Context(), store.SpeakerFilter{
		Industry: q.Get("industry"),
		Search:   q.Get("search"),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, items, &Meta{Total: int64(len(items)), Page: 1, PerPage: len(items), Pages: 1})
}

// Get handles GET /speakers/{id}, including the speaker's trainings.
func (h *SpeakerHandler) Get(w http.ResponseWriter, r *http.Request) {
	getEntity(h.logger, h.speakers.Get)(w, r)
}

// Create handles POST /speakers.
func (h *SpeakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	createEntity(h.logger, func(r *http.Request, in service.SpeakerInput) (any, error) {
		return h.speakers.Create(r.Context(), in)
	})(w, r)
}

// Update handles PUT /speakers/{id}. A rename is applied to the speaker's trainings.
func (h *SpeakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	updateEntity(h.logger, h.speakers.Update)(w, r)
}

// Delete handles DELETE /speakers/{id}. Speakers with trainings cannot be deleted.
func (h *SpeakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleteEntity(h.logger, h.speakers.Delete)(w, r)
}
