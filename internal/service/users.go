// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/leaddesk/internal/auth"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgSetupDone          = "Setup has already been completed"
)

// LoginInput holds submitted credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetupInput creates the first admin account.
type SetupInput struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,max=200"`
}

// UserService authenticates users and bootstraps the first admin.
type UserService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{queries: store.New(db), now: time.Now}
}

// Authenticate checks credentials. Unknown emails and wrong passwords fail
// with the same unauthorized error. Legacy hashes are upgraded on success.
func (s *UserService) Authenticate(ctx context.Context, in LoginInput) (model.User, error) {
	if err := validateStruct(in); err != nil {
		return model.User{}, err
	}
	u, err := s.queries.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return model.User{}, err
	}

	ok, err := auth.CheckPassword(in.Password, u.PasswordHash)
	if err != nil {
		return model.User{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return model.User{}, unauthorized(msgInvalidCredentials)
	}

	if auth.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u.ID, in.Password)
	}
	return u, nil
}

func (s *UserService) rehash(ctx context.Context, userID, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Warn("failed to rehash password", "user_id", userID, "error", err)
		return
	}
	err = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		ID:           userID,
		PasswordHash: hash,
		UpdatedAt:    s.now(),
	})
	if err != nil {
		slog.Warn("failed to store rehashed password", "user_id", userID, "error", err)
	}
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	u, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, lookupErr(err, "User not found")
	}
	return u, nil
}

// SetupRequired reports whether no user exists yet.
func (s *UserService) SetupRequired(ctx context.Context) (bool, error) {
	n, err := s.queries.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Setup creates the first admin user. It is refused once any user exists.
func (s *UserService) Setup(ctx context.Context, in SetupInput) (model.User, error) {
	if err := validateStruct(in); err != nil {
		return model.User{}, err
	}
	required, err := s.SetupRequired(ctx)
	if err != nil {
		return model.User{}, err
	}
	if !required {
		return model.User{}, conflict(msgSetupDone)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}
	return s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         model.RoleAdmin,
		CreatedAt:    s.now(),
	})
}
