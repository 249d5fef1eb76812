// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"net"
	"path/filepath"
	"testing"
)

func TestLookup_Disabled(t *testing.T) {
	g := NewLookup()
	if err := g.Init(""); err != nil {
		t.Fatalf("Init(\"\") error = %v", err)
	}
	if g.IsEnabled() {
		t.Error("IsEnabled() = true for empty path")
	}
	if loc := g.Locate("8.8.8.8"); loc != nil {
		t.Errorf("Locate() = %+v, want nil when disabled", loc)
	}
	if err := g.Reload(); err != nil {
		t.Errorf("Reload() error = %v", err)
	}
	if err := g.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestLookup_MissingFile(t *testing.T) {
	g := NewLookup()
	err := g.Init(filepath.Join(t.TempDir(), "missing.mmdb"))
	if err == nil {
		t.Fatal("Init() expected error for missing database")
	}
	if g.IsEnabled() {
		t.Error("IsEnabled() = true after failed Init")
	}
}

func TestLookup_SkipsLocalAddresses(t *testing.T) {
	g := NewLookup()
	for _, ip := range []string{"127.0.0.1", "10.0.0.1", "192.168.1.20", "100.64.3.4", "::1", "fe80::1", "garbage", ""} {
		if loc := g.Locate(ip); loc != nil {
			t.Errorf("Locate(%q) = %+v, want nil", ip, loc)
		}
	}
}

func TestCityRecordLocation(t *testing.T) {
	var r cityRecord
	if r.location() != nil {
		t.Error("empty record should produce nil location")
	}

	r.Country.ISOCode = "DE"
	r.City.Names = map[string]string{"en": "Munich", "de": "München"}
	r.Subdivisions = append(r.Subdivisions, struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	}{ISOCode: "BY", Names: map[string]string{"en": "Bavaria"}})

	loc := r.location()
	if loc == nil {
		t.Fatal("location() = nil")
	}
	if loc.Country != "DE" || loc.City != "Munich" || loc.Region != "Bavaria" {
		t.Errorf("location() = %+v", loc)
	}
}

func TestRoutable(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"8.8.8.8", true},
		{"2001:4860:4860::8888", true},
		{"172.16.5.4", false},
		{"169.254.10.1", false},
		{"198.51.100.4", false},
		{"224.0.0.1", false},
		{"fd00::1", false},
		{"::", false},
	}
	for _, tt := range tests {
		if got := routable(net.ParseIP(tt.ip)); got != tt.want {
			t.Errorf("routable(%s) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}
