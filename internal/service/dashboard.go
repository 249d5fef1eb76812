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

// StatusCounts summarizes one content collection.
type StatusCounts struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// Dashboard is the admin landing page summary.
type Dashboard struct {
	Blogs             StatusCounts `json:"blogs"`
	Whitepapers       StatusCounts `json:"whitepapers"`
	Trainings         StatusCounts `json:"trainings"`
	Speakers          int64        `json:"speakers"`
	Downloads         int64        `json:"downloads"`
	DownloadsThisWeek int64        `json:"downloadsThisWeek"`
	FailedEmails      int64        `json:"failedEmails"`
	CompletedPayments int64        `json:"completedPayments"`
	Revenue           int64        `json:"revenue"`
}

// DashboardService builds the admin summary.
type DashboardService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(db *sql.DB) *DashboardService {
	return &DashboardService{queries: store.New(db), now: time.Now}
}

func statusCounts(ctx context.Context, count func(context.Context) (map[string]int64, error)) (StatusCounts, error) {
	by, err := count(ctx)
	if err != nil {
		return StatusCounts{}, err
	}
	sc := StatusCounts{ByStatus: by}
	for _, n := range by {
		sc.Total += n
	}
	return sc, nil
}

// Summary returns collection counts for the dashboard.
func (s *DashboardService) Summary(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var err error

	if d.Blogs, err = statusCounts(ctx, s.queries.CountBlogsByStatus); err != nil {
		return d, err
	}
	if d.Whitepapers, err = statusCounts(ctx, s.queries.CountWhitepapersByStatus); err != nil {
		return d, err
	}
	if d.Trainings, err = statusCounts(ctx, s.queries.CountTrainingsByStatus); err != nil {
		return d, err
	}
	if d.Speakers, err = s.queries.CountSpeakers(ctx); err != nil {
		return d, err
	}

	emails, err := s.queries.CountDownloadsByEmailStatus(ctx)
	if err != nil {
		return d, err
	}
	for _, n := range emails {
		d.Downloads += n
	}
	d.FailedEmails = emails[model.EmailStatusFailed]
	if d.DownloadsThisWeek, err = s.queries.CountDownloadsSince(ctx, s.now().Add(-statsWeek)); err != nil {
		return d, err
	}

	payments, err := s.queries.CountPaymentsByStatus(ctx)
	if err != nil {
		return d, err
	}
	d.CompletedPayments = payments[model.PaymentStatusCompleted]
	if d.Revenue, err = s.queries.SumCompletedRevenue(ctx); err != nil {
		return d, err
	}
	return d, nil
}
