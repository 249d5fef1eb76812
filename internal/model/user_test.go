// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
)

func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{
			name: "admin role",
			role: RoleAdmin,
			want: true,
		},
		{
			name: "editor role",
			role: RoleEditor,
			want: false,
		},
		{
			name: "empty role",
			role: "",
			want: false,
		},
		{
			name: "Admin uppercase",
			role: "Admin",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleEditor} {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "user", "ADMIN"} {
		if IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = true, want false", role)
		}
	}
}

func TestPaymentCanRefund(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{PaymentStatusPending, false},
		{PaymentStatusCompleted, true},
		{PaymentStatusFailed, false},
		{PaymentStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			p := &Payment{PaymentStatus: tt.status}
			if got := p.CanRefund(); got != tt.want {
				t.Errorf("CanRefund() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmailConfigTemplate(t *testing.T) {
	cfg := &EmailConfig{
		Templates: map[string]EmailTemplate{
			ResourceWhitepaper: {Subject: "Your copy"},
		},
	}

	if tpl, ok := cfg.Template(ResourceWhitepaper); !ok || tpl.Subject != "Your copy" {
		t.Errorf("Template(whitepaper) = %+v, %v", tpl, ok)
	}
	if _, ok := cfg.Template(ResourceGuide); ok {
		t.Error("Template(guide) should not be configured")
	}

	var nilCfg *EmailConfig
	if _, ok := nilCfg.Template(ResourceWhitepaper); ok {
		t.Error("nil config should have no templates")
	}
}
