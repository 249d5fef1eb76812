// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/seo"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/store"
)

// SEOHandler serves sitemap.xml and robots.txt for the public site.
type SEOHandler struct {
	blogs       *service.BlogService
	trainings   *service.TrainingService
	whitepapers *service.WhitepaperService
	siteURL     string
	production  bool
	logger      *slog.Logger
}

// NewSEOHandler creates an SEOHandler. Outside production, robots.txt
// disallows all crawling.
func NewSEOHandler(blogs *service.BlogService, trainings *service.TrainingService,
	whitepapers *service.WhitepaperService, siteURL string, production bool, logger *slog.Logger) *SEOHandler {
	return &SEOHandler{
		blogs:       blogs,
		trainings:   trainings,
		whitepapers: whitepapers,
		siteURL:     siteURL,
		production:  production,
		logger:      logger,
	}
}

// Sitemap handles GET /sitemap.xml with every published blog, training and
// whitepaper.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	published := store.ContentFilter{Status: model.StatusPublished}
	b := seo.NewSitemapBuilder(h.siteURL)
	b.AddHomepage()

	blogs, err := h.blogs.List(ctx, published)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	b.AddBlogs(blogs.Items)

	trainings, err := h.trainings.List(ctx, published)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	b.AddTrainings(trainings.Items)

	whitepapers, err := h.whitepapers.List(ctx, published)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	b.AddWhitepapers(whitepapers.Items)

	out, err := b.Build()
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(out)
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(seo.GenerateRobots(h.siteURL, !h.production)))
}
