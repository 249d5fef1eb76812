// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// Resource types that can be captured as downloads.
const (
	ResourceWhitepaper = "whitepaper"
	ResourceCaseStudy  = "case-study"
	ResourceNewsletter = "newsletter"
	ResourceBrochure   = "brochure"
	ResourceDatasheet  = "datasheet"
	ResourceGuide      = "guide"
)

// ResourceTypes lists every resource type in display order.
var ResourceTypes = []string{
	ResourceWhitepaper,
	ResourceCaseStudy,
	ResourceNewsletter,
	ResourceBrochure,
	ResourceDatasheet,
	ResourceGuide,
}

// Email delivery statuses of a download.
const (
	EmailStatusPending   = "pending"
	EmailStatusDelivered = "delivered"
	EmailStatusFailed    = "failed"
	EmailStatusBounced   = "bounced"
)

// Follow-up statuses of a download (sales pipeline stage).
const (
	FollowUpPending       = "pending"
	FollowUpContacted     = "contacted"
	FollowUpConverted     = "converted"
	FollowUpNotInterested = "not-interested"
)

// Location is the coarse geographic origin of a download.
type Location struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
}

// Download is a lead-capture event: somebody downloaded a resource.
type Download struct {
	ID            string `json:"id"`
	ResourceType  string `json:"resourceType"`
	ResourceID    string `json:"resourceId"`
	ResourceTitle string `json:"resourceTitle"`
	ResourceURL   string `json:"resourceUrl,omitempty"`

	UserEmail    string         `json:"userEmail"`
	UserName     string         `json:"userName"`
	UserPhone    string         `json:"userPhone,omitempty"`
	UserCompany  string         `json:"userCompany,omitempty"`
	UserJobTitle string         `json:"userJobTitle,omitempty"`
	FormData     map[string]any `json:"formData,omitempty"`

	EmailSent     bool       `json:"emailSent"`
	EmailSentAt   *time.Time `json:"emailSentAt,omitempty"`
	EmailStatus   string     `json:"emailStatus"`
	EmailProvider string     `json:"emailProvider,omitempty"`
	EmailID       string     `json:"emailId,omitempty"`
	EmailError    string     `json:"emailError,omitempty"`
	EmailAttempts int        `json:"emailAttempts"`

	DownloadedAt time.Time `json:"downloadedAt"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	Referrer     string    `json:"referrer,omitempty"`
	Device       string    `json:"device,omitempty"`
	Location     *Location `json:"location,omitempty"`

	FollowUpRequired bool   `json:"followUpRequired"`
	FollowUpStatus   string `json:"followUpStatus"`
	FollowUpNotes    string `json:"followUpNotes,omitempty"`
	AssignedTo       string `json:"assignedTo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ResourceCount is one entry of the top-resources aggregate.
type ResourceCount struct {
	ResourceID    string `json:"resourceId"`
	ResourceTitle string `json:"resourceTitle"`
	ResourceType  string `json:"resourceType"`
	Count         int64  `json:"count"`
}

// DownloadStats aggregates the downloads collection for the dashboard.
type DownloadStats struct {
	Total           int64            `json:"total"`
	ThisWeek        int64            `json:"thisWeek"`
	ThisMonth       int64            `json:"thisMonth"`
	ByResourceType  map[string]int64 `json:"byResourceType"`
	ByStatus        map[string]int64 `json:"byStatus"`
	TopResources    []ResourceCount  `json:"topResources"`
	RecentDownloads []Download       `json:"recentDownloads"`
}
