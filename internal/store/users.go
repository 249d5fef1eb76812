// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/leaddesk/internal/model"
)

const userColumns = `id, email, password_hash, name, role, created_at, updated_at`

// CreateUserParams holds the fields of a new user.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}

func scanUser(s scanner) (model.User, error) {
	var u model.User
	var createdAt, updatedAt string
	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &createdAt, &updatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// CreateUser inserts a user. Emails are stored lower-cased.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	u := model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(arg.Email)),
		PasswordHash: arg.PasswordHash,
		Name:         arg.Name,
		Role:         arg.Role,
		CreatedAt:    arg.CreatedAt.UTC(),
		UpdatedAt:    arg.CreatedAt.UTC(),
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetUserByID returns sql.ErrNoRows when the user does not exist.
func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail looks a user up by case-insensitive email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
}

// CountUsers returns the number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// UpdateUserPasswordParams holds a new password hash.
type UpdateUserPasswordParams struct {
	ID           string
	PasswordHash string
	UpdatedAt    time.Time
}

// UpdateUserPassword replaces the password hash of a user.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	return affected(q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		arg.PasswordHash, formatTime(arg.UpdatedAt), arg.ID))
}
