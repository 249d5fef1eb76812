// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the sitemap and robots.txt of the public site.
package seo

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the builder.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// Public path prefixes of published content.
const (
	PathBlog        = "/blog/"
	PathTrainings   = "/trainings/"
	PathWhitepapers = "/whitepapers/"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapBuilder collects published content into a sitemap.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a builder for the site at siteURL.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{siteURL: strings.TrimRight(siteURL, "/")}
}

// AddHomepage adds the site root.
func (b *SitemapBuilder) AddHomepage() {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/",
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// add appends an entry. A canonical URL from the content's SEO block
// replaces the generated location.
func (b *SitemapBuilder) add(prefix, slug string, seo *model.SEO, updated time.Time, freq ChangeFreq, priority string) {
	u := SitemapURL{
		Loc:        b.siteURL + prefix + slug,
		ChangeFreq: freq,
		Priority:   priority,
	}
	if seo != nil && seo.CanonicalURL != "" {
		u.Loc = seo.CanonicalURL
	}
	if !updated.IsZero() {
		u.LastMod = updated.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// AddBlogs adds blog posts under /blog/{slug}.
func (b *SitemapBuilder) AddBlogs(blogs []model.Blog) {
	for _, p := range blogs {
		b.add(PathBlog, p.Slug, p.SEO, p.UpdatedAt, ChangeFreqWeekly, "0.7")
	}
}

// AddTrainings adds trainings under /trainings/{slug}.
func (b *SitemapBuilder) AddTrainings(trainings []model.Training) {
	for _, t := range trainings {
		b.add(PathTrainings, t.Slug, t.SEO, t.UpdatedAt, ChangeFreqWeekly, "0.8")
	}
}

// AddWhitepapers adds whitepapers under /whitepapers/{slug}.
func (b *SitemapBuilder) AddWhitepapers(whitepapers []model.Whitepaper) {
	for _, w := range whitepapers {
		b.add(PathWhitepapers, w.Slug, w.SEO, w.UpdatedAt, ChangeFreqMonthly, "0.6")
	}
}

// Len returns the number of collected URLs.
func (b *SitemapBuilder) Len() int {
	return len(b.urls)
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(output, xmlBytes...), nil
}
