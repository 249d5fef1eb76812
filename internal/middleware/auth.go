// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for the admin route guard,
// role checks, rate limiting and request hardening.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyClaims      ContextKey = "claims"
	ContextKeyRequestPath ContextKey = "request_path"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/login"

// SessionReader resolves the session claims of a request.
type SessionReader interface {
	Get(r *http.Request) *session.Claims
	Delete(w http.ResponseWriter)
}

// EventLogger records security-relevant events in the system event log.
type EventLogger interface {
	LogEvent(ctx context.Context, level, category, message, userID, ip string, metadata map[string]any)
}

// Guard protects admin routes. Requests without a session cookie are
// redirected to the login page; an invalid or expired cookie is cleared
// first. Valid claims are stored in the request context.
func Guard(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie(session.CookieName); err != nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			claims := sessions.Get(r)
			if claims == nil {
				sessions.Delete(w)
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

// GetClaims returns the session claims placed by Guard, or nil.
func GetClaims(r *http.Request) *session.Claims {
	return ClaimsFromContext(r.Context())
}

// ClaimsFromContext returns the session claims stored in ctx, or nil.
func ClaimsFromContext(ctx context.Context) *session.Claims {
	claims, _ := ctx.Value(ContextKeyClaims).(*session.Claims)
	return claims
}

// GetUserID returns the current user's ID, or "" when there is no session.
func GetUserID(r *http.Request) string {
	if c := GetClaims(r); c != nil {
		return c.UserID
	}
	return ""
}

// GetUserEmail returns the current user's email, or "" when there is no session.
func GetUserEmail(r *http.Request) string {
	if c := GetClaims(r); c != nil {
		return c.Email
	}
	return ""
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}

// roleLevel returns a numeric level for role hierarchy.
// Higher level = more permissions.
func roleLevel(role string) int {
	switch role {
	case model.RoleAdmin:
		return 2
	case model.RoleEditor:
		return 1
	default:
		return 0
	}
}

// RequireRole creates middleware that requires a minimum user role.
// Roles are hierarchical: admin > editor. It must run after Guard.
// Denials are logged to events when it is non-nil.
func RequireRole(minRole string, events EventLogger) func(http.Handler) http.Handler {
	minLevel := roleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			if roleLevel(claims.Role) < minLevel {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", claims.UserID,
					"user_role", claims.Role,
					"required_role", minRole,
				)
				if events != nil {
					events.LogEvent(r.Context(), model.EventLevelWarning, model.EventCategoryAuth,
						"Access denied: insufficient permissions", claims.UserID, clientIP(r),
						map[string]any{
							"method":        r.Method,
							"path":          r.URL.Path,
							"user_role":     claims.Role,
							"required_role": minRole,
						})
				}
				writeError(w, http.StatusForbidden, "forbidden", "Forbidden: insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is shorthand for RequireRole(model.RoleAdmin, events).
func RequireAdmin(events EventLogger) func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin, events)
}
