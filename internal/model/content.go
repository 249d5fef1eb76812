// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// Content statuses shared by blogs and trainings.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
	// StatusScheduled is only valid for whitepapers.
	StatusScheduled = "scheduled"
)

// Training levels.
const (
	LevelBasic             = "basic"
	LevelIntermediate      = "intermediate"
	LevelAdvanced          = "advanced"
	LevelBasicIntermediate = "basic/intermediate"
)

// Training delivery types.
const (
	TrainingTypeLive     = "live"
	TrainingTypeRecorded = "recorded"
	TrainingTypeOnDemand = "on-demand"
)

// SEO holds search-engine metadata attached to publishable content.
type SEO struct {
	MetaTitle       string   `json:"metaTitle,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	MetaKeywords    []string `json:"metaKeywords,omitempty"`
	OGImage         string   `json:"ogImage,omitempty"`
	OGTitle         string   `json:"ogTitle,omitempty"`
	OGDescription   string   `json:"ogDescription,omitempty"`
	CanonicalURL    string   `json:"canonicalUrl,omitempty"`
}

// Blog is a blog post.
type Blog struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Excerpt      string     `json:"excerpt"`
	Content      string     `json:"content"`
	Author       string     `json:"author"`
	AuthorID     string     `json:"authorId"`
	CoverImage   string     `json:"coverImage,omitempty"`
	Tags         []string   `json:"tags"`
	Status       string     `json:"status"`
	Featured     bool       `json:"featured"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Views        int64      `json:"views"`
	SEO          *SEO       `json:"seo,omitempty"`
	RelatedPosts []string   `json:"relatedPosts"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// BlogSummary is the short form used by the related-posts selector.
type BlogSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Whitepaper is a downloadable lead-capture document.
type Whitepaper struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Industries    []string   `json:"industries"`
	Summary       string     `json:"summary"`
	Highlights    []string   `json:"highlights"`
	CoverImage    string     `json:"coverImage,omitempty"`
	PDFURL        string     `json:"pdfUrl"`
	FileSize      string     `json:"fileSize,omitempty"`
	PageCount     int        `json:"pageCount,omitempty"`
	Author        string     `json:"author"`
	AuthorTitle   string     `json:"authorTitle,omitempty"`
	PublishDate   time.Time  `json:"publishDate"`
	Status        string     `json:"status"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	Featured      bool       `json:"featured"`
	SEO           *SEO       `json:"seo,omitempty"`
	Views         int64      `json:"views"`
	Downloads     int64      `json:"downloads"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PricingOption is a named price tier of a training.
type PricingOption struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// Training is a live or recorded training session offered for sale.
type Training struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Slug             string          `json:"slug"`
	Description      string          `json:"description"`
	Content          string          `json:"content"`
	Duration         string          `json:"duration"`
	Level            string          `json:"level"`
	Type             string          `json:"type"`
	Date             *time.Time      `json:"date,omitempty"`
	Industry         string          `json:"industry"`
	SubIndustry      string          `json:"subIndustry,omitempty"`
	Tags             []string        `json:"tags"`
	SpeakerID        string          `json:"speakerId"`
	SpeakerName      string          `json:"speakerName"`
	CoverImage       string          `json:"coverImage,omitempty"`
	PricingOptions   []PricingOption `json:"pricingOptions"`
	RegularPrice     float64         `json:"regularPrice"`
	DiscountPrice    *float64        `json:"discountPrice,omitempty"`
	WebinarID        string          `json:"webinarId,omitempty"`
	WhoShouldAttend  string          `json:"whoShouldAttend,omitempty"`
	Overview         string          `json:"overview,omitempty"`
	Status           string          `json:"status"`
	Featured         bool            `json:"featured"`
	Views            int64           `json:"views"`
	SEO              *SEO            `json:"seo,omitempty"`
	RelatedTrainings []string        `json:"relatedTrainings"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// EffectivePrice returns the discount price when one is set, otherwise the regular price.
func (t *Training) EffectivePrice() float64 {
	if t.DiscountPrice != nil && *t.DiscountPrice > 0 {
		return *t.DiscountPrice
	}
	return t.RegularPrice
}

// IsPublished reports whether the training can be purchased.
func (t *Training) IsPublished() bool {
	return t.Status == StatusPublished
}

// Speaker presents trainings.
type Speaker struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PhotoURL   string    `json:"photoUrl,omitempty"`
	Expertise  string    `json:"expertise"`
	Years      int       `json:"years"`
	Industries []string  `json:"industries"`
	Bio        string    `json:"bio"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SpeakerDetail is a speaker together with the trainings assigned to it.
type SpeakerDetail struct {
	Speaker
	Trainings []Training `json:"trainings"`
}
