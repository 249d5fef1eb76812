// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/olegiv/leaddesk/internal/auth"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
	"github.com/olegiv/leaddesk/internal/testutil"
)

func TestSetup(t *testing.T) {
	svc := NewUserService(testutil.TestMemoryDB(t))
	ctx := context.Background()

	required, err := svc.SetupRequired(ctx)
	require.NoError(t, err)
	assert.True(t, required)

	_, err = svc.Setup(ctx, SetupInput{Email: "owner@example.com", Password: "short", Name: "Owner"})
	requireKind(t, err, ErrValidation, "")
	assert.Contains(t, FieldErrors(err), "password")

	u, err := svc.Setup(ctx, SetupInput{Email: "owner@example.com", Password: "long enough", Name: "Owner"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	required, err = svc.SetupRequired(ctx)
	require.NoError(t, err)
	assert.False(t, required)

	_, err = svc.Setup(ctx, SetupInput{Email: "second@example.com", Password: "long enough", Name: "Second"})
	requireKind(t, err, ErrConflict, "Setup has already been completed")
}

func TestAuthenticate(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	created := testutil.CreateUser(t, db, "admin@example.com", "correct horse", model.RoleAdmin)

	u, err := svc.Authenticate(ctx, LoginInput{Email: "admin@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = svc.Authenticate(ctx, LoginInput{Email: "admin@example.com", Password: "wrong"})
	requireKind(t, err, ErrUnauthorized, "Invalid credentials")

	_, err = svc.Authenticate(ctx, LoginInput{Email: "ghost@example.com", Password: "correct horse"})
	requireKind(t, err, ErrUnauthorized, "Invalid credentials")

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", got.Email)

	_, err = svc.Get(ctx, "missing")
	requireKind(t, err, ErrNotFound, "User not found")
}

func TestAuthenticate_UpgradesLegacyHash(t *testing.T) {
	db := testutil.TestMemoryDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy pass"), bcrypt.MinCost)
	require.NoError(t, err)
	q := store.New(db)
	_, err = q.CreateUser(ctx, store.CreateUserParams{
		Email:        "old@example.com",
		PasswordHash: string(legacy),
		Name:         "Old Admin",
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, LoginInput{Email: "old@example.com", Password: "legacy pass"})
	require.NoError(t, err)

	u, err := q.GetUserByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(u.PasswordHash))

	_, err = svc.Authenticate(ctx, LoginInput{Email: "old@example.com", Password: "legacy pass"})
	require.NoError(t, err)
}
