// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/olegiv/leaddesk/internal/email"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
	"github.com/olegiv/leaddesk/internal/taskqueue"
	"github.com/olegiv/leaddesk/internal/util"
)

const (
	msgDownloadNotFound  = "Download record not found"
	msgAlreadyDelivered  = "Email already delivered"
	msgEmailRetryStarted = "Email retry initiated"
)

// Stats windows and sizes.
const (
	statsWeek          = 7 * 24 * time.Hour
	statsMonth         = 30 * 24 * time.Hour
	statsTopResources  = 5
	statsRecentLimit   = 10
	retrySweepBatch    = 50
	defaultMaxRetries  = 3
	defaultRetryDelay  = 300 * time.Second
	emailJobNamePrefix = "email:download:"
)

// ResourceMailer sends the lead-capture email for a download.
type ResourceMailer interface {
	SendResourceEmail(ctx context.Context, re email.ResourceEmail) (email.Result, error)
}

// JobQueue runs jobs in the background.
type JobQueue interface {
	Enqueue(job taskqueue.Job) error
}

// Locator resolves an IP address to a location. A nil result means unknown.
type Locator interface {
	Locate(ip string) *model.Location
}

// ContactInput is the lead submitted on a gated-download form.
type ContactInput struct {
	Email    string         `json:"email" validate:"required,email,max=320"`
	Name     string         `json:"name" validate:"required,max=200"`
	Phone    string         `json:"phone" validate:"max=50"`
	Company  string         `json:"company" validate:"max=200"`
	JobTitle string         `json:"jobTitle" validate:"max=200"`
	FormData map[string]any `json:"formData"`
}

// RequestMeta describes the HTTP request that produced a lead.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// TrackResult is returned to the visitor after a tracked download.
type TrackResult struct {
	DownloadID string `json:"downloadId"`
	PDFURL     string `json:"pdfUrl"`
}

// DownloadInput is a manually entered download record.
type DownloadInput struct {
	ResourceType  string         `json:"resourceType" validate:"required,oneof=whitepaper case-study newsletter brochure datasheet guide"`
	ResourceID    string         `json:"resourceId" validate:"required"`
	ResourceTitle string         `json:"resourceTitle" validate:"required,max=300"`
	ResourceURL   string         `json:"resourceUrl" validate:"max=2048"`
	UserEmail     string         `json:"userEmail" validate:"required,email,max=320"`
	UserName      string         `json:"userName" validate:"required,max=200"`
	UserPhone     string         `json:"userPhone" validate:"max=50"`
	UserCompany   string         `json:"userCompany" validate:"max=200"`
	UserJobTitle  string         `json:"userJobTitle" validate:"max=200"`
	FormData      map[string]any `json:"formData"`
}

// FollowUpInput updates the sales follow-up of a download.
type FollowUpInput struct {
	Status     string `json:"status" validate:"required,oneof=pending contacted converted not-interested"`
	Notes      string `json:"notes"`
	AssignedTo string `json:"assignedTo" validate:"max=200"`
}

// RetryResult reports a manual email retry.
type RetryResult struct {
	Message  string         `json:"message"`
	Download model.Download `json:"download"`
}

// DownloadService tracks gated downloads and delivers their emails.
type DownloadService struct {
	db      *sql.DB
	queries *store.Queries
	mailer  ResourceMailer
	queue   JobQueue
	geo     Locator
	configs email.ConfigProvider
	now     func() time.Time
	logger  *slog.Logger
}

// NewDownloadService creates a DownloadService. geo may be nil.
func NewDownloadService(db *sql.DB, mailer ResourceMailer, queue JobQueue, geo Locator,
	configs email.ConfigProvider, logger *slog.Logger) *DownloadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadService{
		db:      db,
		queries: store.New(db),
		mailer:  mailer,
		queue:   queue,
		geo:     geo,
		configs: configs,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *DownloadService) locate(ip string) *model.Location {
	if s.geo == nil || ip == "" {
		return nil
	}
	return s.geo.Locate(ip)
}

// TrackWhitepaperDownload counts the download, stores the lead and schedules
// the whitepaper email in the background. It returns without waiting for
// delivery.
func (s *DownloadService) TrackWhitepaperDownload(ctx context.Context, whitepaperID string, in ContactInput, meta RequestMeta) (TrackResult, error) {
	if err := validateStruct(in); err != nil {
		return TrackResult{}, err
	}
	wp, err := s.queries.GetWhitepaperByID(ctx, whitepaperID)
	if err != nil {
		return TrackResult{}, lookupErr(err, msgWhitepaperNotFound)
	}

	now := s.now().UTC()
	d := model.Download{
		ResourceType:     model.ResourceWhitepaper,
		ResourceID:       wp.ID,
		ResourceTitle:    wp.Title,
		ResourceURL:      wp.PDFURL,
		UserEmail:        strings.TrimSpace(in.Email),
		UserName:         strings.TrimSpace(in.Name),
		UserPhone:        in.Phone,
		UserCompany:      in.Company,
		UserJobTitle:     in.JobTitle,
		FormData:         in.FormData,
		EmailStatus:      model.EmailStatusPending,
		DownloadedAt:     now,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		Referrer:         meta.Referrer,
		Device:           util.DeviceType(meta.UserAgent),
		Location:         s.locate(meta.IPAddress),
		FollowUpRequired: true,
		FollowUpStatus:   model.FollowUpPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TrackResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	if err := qtx.IncrementWhitepaperDownloads(ctx, wp.ID); err != nil {
		return TrackResult{}, lookupErr(err, msgWhitepaperNotFound)
	}
	if err := qtx.CreateDownload(ctx, &d); err != nil {
		return TrackResult{}, fmt.Errorf("creating download: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return TrackResult{}, fmt.Errorf("committing download: %w", err)
	}

	s.enqueueEmail(d)
	return TrackResult{DownloadID: d.ID, PDFURL: wp.PDFURL}, nil
}

// enqueueEmail schedules delivery. A full or stopped queue leaves the
// download failed so the retry sweep or an admin can pick it up.
func (s *DownloadService) enqueueEmail(d model.Download) {
	err := s.queue.Enqueue(taskqueue.Job{
		Name: emailJobNamePrefix + d.ID,
		Run: func(ctx context.Context) error {
			_, err := s.deliver(ctx, d)
			return err
		},
	})
	if err == nil {
		return
	}
	s.logger.Warn("email job not queued", "download_id", d.ID, "error", err)
	s.record(context.Background(), d.ID, email.Result{}, fmt.Errorf("email not queued: %w", err))
}

// deliver sends the email for d and writes the outcome back to the download.
// Panics in the mailer are recovered and recorded as failures.
func (s *DownloadService) deliver(ctx context.Context, d model.Download) (res email.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic sending download email",
				"download_id", d.ID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("email delivery panicked: %v", r)
		}
		s.record(ctx, d.ID, res, err)
	}()

	return s.mailer.SendResourceEmail(ctx, email.ResourceEmail{
		DownloadID:    d.ID,
		ResourceType:  d.ResourceType,
		ResourceTitle: d.ResourceTitle,
		DownloadLink:  d.ResourceURL,
		To:            d.UserEmail,
		UserName:      d.UserName,
	})
}

func (s *DownloadService) record(ctx context.Context, id string, res email.Result, sendErr error) {
	params := store.RecordEmailResultParams{
		ID:          id,
		Delivered:   sendErr == nil,
		Provider:    res.Provider,
		MessageID:   res.MessageID,
		AttemptedAt: s.now(),
	}
	if sendErr != nil {
		params.Error = sendErr.Error()
		s.logger.Warn("download email failed", "download_id", id, "error", sendErr)
	}
	// The request context may already be cancelled.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := s.queries.RecordEmailResult(ctx, params); err != nil {
		s.logger.Error("failed to record email result", "download_id", id, "error", err)
	}
}

// RetryEmail resends the email of a download that was not delivered and
// waits for the attempt.
func (s *DownloadService) RetryEmail(ctx context.Context, id string) (RetryResult, error) {
	d, err := s.queries.GetDownloadByID(ctx, id)
	if err != nil {
		return RetryResult{}, lookupErr(err, msgDownloadNotFound)
	}
	if d.EmailStatus == model.EmailStatusDelivered {
		return RetryResult{}, invalidState(msgAlreadyDelivered)
	}

	_, _ = s.deliver(ctx, d)

	d, err = s.queries.GetDownloadByID(ctx, id)
	if err != nil {
		return RetryResult{}, lookupErr(err, msgDownloadNotFound)
	}
	return RetryResult{Message: msgEmailRetryStarted, Download: d}, nil
}

// RetryFailed re-queues failed deliveries, and tracked deliveries stuck
// pending for longer than the retry delay, when automatic retry is enabled in
// the email configuration. It returns how many jobs were queued.
func (s *DownloadService) RetryFailed(ctx context.Context) (int, error) {
	cfg, err := s.configs.EmailConfig(ctx)
	if err != nil {
		return 0, err
	}
	if cfg == nil || !cfg.EnableRetry || !cfg.EnableAutoSend {
		return 0, nil
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delay := time.Duration(cfg.RetryDelay) * time.Second
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	items, err := s.queries.ListRetryableDownloads(ctx, store.ListRetryableDownloadsParams{
		MaxAttempts:    maxRetries,
		AttemptedUntil: s.now().Add(-delay),
		PendingBefore:  s.now().Add(-delay),
		Limit:          retrySweepBatch,
	})
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, d := range items {
		err := s.queue.Enqueue(taskqueue.Job{
			Name: emailJobNamePrefix + d.ID,
			Run: func(ctx context.Context) error {
				_, err := s.deliver(ctx, d)
				return err
			},
		})
		if errors.Is(err, taskqueue.ErrQueueFull) {
			break
		}
		if err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// Create stores a manually entered download without sending email.
func (s *DownloadService) Create(ctx context.Context, in DownloadInput) (model.Download, error) {
	if err := validateStruct(in); err != nil {
		return model.Download{}, err
	}
	now := s.now().UTC()
	d := model.Download{
		ResourceType:   in.ResourceType,
		ResourceID:     in.ResourceID,
		ResourceTitle:  in.ResourceTitle,
		ResourceURL:    in.ResourceURL,
		UserEmail:      strings.TrimSpace(in.UserEmail),
		UserName:       strings.TrimSpace(in.UserName),
		UserPhone:      in.UserPhone,
		UserCompany:    in.UserCompany,
		UserJobTitle:   in.UserJobTitle,
		FormData:       in.FormData,
		EmailStatus:    model.EmailStatusPending,
		DownloadedAt:   now,
		FollowUpStatus: model.FollowUpPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.queries.CreateDownload(ctx, &d); err != nil {
		return model.Download{}, err
	}
	return d, nil
}

// Get returns a download by ID.
func (s *DownloadService) Get(ctx context.Context, id string) (model.Download, error) {
	d, err := s.queries.GetDownloadByID(ctx, id)
	if err != nil {
		return model.Download{}, lookupErr(err, msgDownloadNotFound)
	}
	return d, nil
}

// List returns downloads matching f, newest first.
func (s *DownloadService) List(ctx context.Context, f store.DownloadFilter) (Page[model.Download], error) {
	items, err := s.queries.ListDownloads(ctx, f)
	if err != nil {
		return Page[model.Download]{}, err
	}
	total, err := s.queries.CountDownloads(ctx, f)
	if err != nil {
		return Page[model.Download]{}, err
	}
	return Page[model.Download]{Items: items, Total: total}, nil
}

// UpdateFollowUp sets the sales follow-up of a download.
func (s *DownloadService) UpdateFollowUp(ctx context.Context, id string, in FollowUpInput) (model.Download, error) {
	if err := validateStruct(in); err != nil {
		return model.Download{}, err
	}
	err := s.queries.UpdateFollowUp(ctx, store.UpdateFollowUpParams{
		ID:         id,
		Status:     in.Status,
		Notes:      in.Notes,
		AssignedTo: in.AssignedTo,
		UpdatedAt:  s.now(),
	})
	if err != nil {
		return model.Download{}, lookupErr(err, msgDownloadNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes a download record.
func (s *DownloadService) Delete(ctx context.Context, id string) error {
	return lookupErr(s.queries.DeleteDownload(ctx, id), msgDownloadNotFound)
}

// Stats aggregates downloads for the dashboard.
func (s *DownloadService) Stats(ctx context.Context) (model.DownloadStats, error) {
	var st model.DownloadStats
	var err error
	now := s.now()

	if st.Total, err = s.queries.CountDownloads(ctx, store.DownloadFilter{}); err != nil {
		return st, err
	}
	if st.ThisWeek, err = s.queries.CountDownloadsSince(ctx, now.Add(-statsWeek)); err != nil {
		return st, err
	}
	if st.ThisMonth, err = s.queries.CountDownloadsSince(ctx, now.Add(-statsMonth)); err != nil {
		return st, err
	}
	if st.ByResourceType, err = s.queries.CountDownloadsByResourceType(ctx); err != nil {
		return st, err
	}
	if st.ByStatus, err = s.queries.CountDownloadsByEmailStatus(ctx); err != nil {
		return st, err
	}
	if st.TopResources, err = s.queries.TopDownloadedResources(ctx, statsTopResources); err != nil {
		return st, err
	}
	if st.RecentDownloads, err = s.queries.ListDownloads(ctx, store.DownloadFilter{Limit: statsRecentLimit}); err != nil {
		return st, err
	}
	return st, nil
}

// EmailLogs returns delivery attempts, newest first.
func (s *DownloadService) EmailLogs(ctx context.Context, f store.EmailLogFilter) ([]model.EmailLog, error) {
	return s.queries.ListEmailLogs(ctx, f)
}
