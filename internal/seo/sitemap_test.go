// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/leaddesk/internal/model"
)

func TestNewSitemapBuilderTrimsSlash(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com/")
	if builder.siteURL != "https://example.com" {
		t.Errorf("siteURL = %q", builder.siteURL)
	}
	if builder.Len() != 0 {
		t.Errorf("Len() = %d, want 0", builder.Len())
	}
}

func TestSitemapBuilderAddHomepage(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.AddHomepage()

	if builder.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", builder.Len())
	}
	u := builder.urls[0]
	if u.Loc != "https://example.com/" || u.Priority != "1.0" || u.ChangeFreq != ChangeFreqDaily {
		t.Errorf("homepage = %+v", u)
	}
}

func TestSitemapBuilderContentPaths(t *testing.T) {
	updated := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	builder := NewSitemapBuilder("https://example.com")
	builder.AddBlogs([]model.Blog{{Slug: "first-post", UpdatedAt: updated}})
	builder.AddTrainings([]model.Training{{Slug: "go-basics", UpdatedAt: updated}})
	builder.AddWhitepapers([]model.Whitepaper{{Slug: "ai-report"}})

	tests := []struct {
		loc     string
		lastMod string
		freq    ChangeFreq
	}{
		{"https://example.com/blog/first-post", "2026-03-14T09:30:00Z", ChangeFreqWeekly},
		{"https://example.com/trainings/go-basics", "2026-03-14T09:30:00Z", ChangeFreqWeekly},
		{"https://example.com/whitepapers/ai-report", "", ChangeFreqMonthly},
	}
	if builder.Len() != len(tests) {
		t.Fatalf("Len() = %d, want %d", builder.Len(), len(tests))
	}
	for i, tt := range tests {
		u := builder.urls[i]
		if u.Loc != tt.loc {
			t.Errorf("[%d] Loc = %q, want %q", i, u.Loc, tt.loc)
		}
		if u.LastMod != tt.lastMod {
			t.Errorf("[%d] LastMod = %q, want %q", i, u.LastMod, tt.lastMod)
		}
		if u.ChangeFreq != tt.freq {
			t.Errorf("[%d] ChangeFreq = %q, want %q", i, u.ChangeFreq, tt.freq)
		}
	}
}

func TestSitemapBuilderCanonicalURL(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.AddBlogs([]model.Blog{
		{Slug: "moved", SEO: &model.SEO{CanonicalURL: "https://partner.example.org/moved"}},
		{Slug: "plain", SEO: &model.SEO{}},
	})

	if got := builder.urls[0].Loc; got != "https://partner.example.org/moved" {
		t.Errorf("canonical Loc = %q", got)
	}
	if got := builder.urls[1].Loc; got != "https://example.com/blog/plain" {
		t.Errorf("plain Loc = %q", got)
	}
}

func TestSitemapBuilderBuild(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.AddHomepage()
	builder.AddTrainings([]model.Training{{Slug: "a&b"}})

	out, err := builder.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, xml.Header) {
		t.Error("Build() should start with the XML header")
	}
	if !strings.Contains(s, `xmlns="`+XMLNamespace+`"`) {
		t.Error("Build() should declare the sitemap namespace")
	}
	if !strings.Contains(s, "/trainings/a&amp;b") {
		t.Errorf("Build() should escape locations: %s", s)
	}

	var parsed Sitemap
	if err := xml.Unmarshal(out[len(xml.Header):], &parsed); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}
	if len(parsed.URLs) != 2 {
		t.Errorf("parsed %d urls, want 2", len(parsed.URLs))
	}
}

func TestSitemapBuilderBuildEmpty(t *testing.T) {
	out, err := NewSitemapBuilder("https://example.com").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if strings.Contains(string(out), "<url>") {
		t.Errorf("empty sitemap should contain no urls: %s", out)
	}
}
