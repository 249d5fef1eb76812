// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"errors"
	"fmt"
)

// Error kinds. Every *Error wraps exactly one of them so callers can use
// errors.Is to pick a response status.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
	ErrIntegration  = errors.New("integration failure")
)

// Error is a failure with a message safe to show to API clients.
type Error struct {
	Kind    error
	Message string
	// Fields maps input field names to validation messages.
	Fields map[string]string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == ErrIntegration {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func invalidState(msg string) error {
	return &Error{Kind: ErrInvalidState, Message: msg}
}

func unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

func integration(msg string, err error) error {
	return &Error{Kind: ErrIntegration, Message: msg, Err: err}
}

func invalid(fields map[string]string) error {
	return &Error{Kind: ErrValidation, Message: "Validation failed", Fields: fields}
}

func invalidField(field, msg string) error {
	return invalid(map[string]string{field: msg})
}

// lookupErr maps sql.ErrNoRows to a not-found error with msg.
func lookupErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(msg)
	}
	return err
}

// PublicMessage returns the client-facing message of err, or fallback for
// errors that are not *Error.
func PublicMessage(err error, fallback string) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return fallback
}

// FieldErrors returns validation details carried by err.
func FieldErrors(err error) map[string]string {
	var se *Error
	if errors.As(err, &se) {
		return se.Fields
	}
	return nil
}
