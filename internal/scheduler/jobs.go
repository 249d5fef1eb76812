// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job names.
const (
	JobPublishWhitepapers = "publish-whitepapers"
	JobRetryEmails        = "retry-emails"
	JobPruneEvents        = "prune-events"
	JobReloadGeoIP        = "reload-geoip"
)

// WhitepaperPublisher publishes scheduled whitepapers that are due.
type WhitepaperPublisher interface {
	PublishDue(ctx context.Context) (int64, error)
}

// EmailRetrier re-queues failed download emails.
type EmailRetrier interface {
	RetryFailed(ctx context.Context) (int, error)
}

// EventPruner deletes old system events.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// GeoIPReloader reopens the GeoIP database.
type GeoIPReloader interface {
	Reload() error
}

// PublishWhitepapersJob flips scheduled whitepapers whose date passed to published.
func PublishWhitepapersJob(schedule string, p WhitepaperPublisher, logger *slog.Logger) Job {
	return Job{
		Name:        JobPublishWhitepapers,
		Description: "Publish scheduled whitepapers whose date has passed",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			n, err := p.PublishDue(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("published scheduled whitepapers", "count", n)
			}
			return nil
		},
	}
}

// RetryEmailsJob re-queues failed download emails when retries are enabled.
func RetryEmailsJob(schedule string, r EmailRetrier, logger *slog.Logger) Job {
	return Job{
		Name:        JobRetryEmails,
		Description: "Retry failed download emails",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			n, err := r.RetryFailed(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("queued email retries", "count", n)
			}
			return nil
		},
	}
}

// PruneEventsJob deletes events older than retention.
func PruneEventsJob(schedule string, retention time.Duration, p EventPruner, logger *slog.Logger) Job {
	if retention <= 0 {
		schedule = ""
	}
	return Job{
		Name:        JobPruneEvents,
		Description: "Delete old system events",
		Schedule:    schedule,
		Run: func(ctx context.Context) error {
			n, err := p.DeleteOldEvents(ctx, retention)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned old events", "count", n)
			}
			return nil
		},
	}
}

// ReloadGeoIPJob picks up a refreshed GeoIP database file.
func ReloadGeoIPJob(schedule string, g GeoIPReloader) Job {
	return Job{
		Name:        JobReloadGeoIP,
		Description: "Reload the GeoIP database",
		Schedule:    schedule,
		Run: func(context.Context) error {
			return g.Reload()
		},
	}
}
