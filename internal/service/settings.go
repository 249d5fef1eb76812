// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/leaddesk/internal/cache"
	"github.com/olegiv/leaddesk/internal/model"
	"github.com/olegiv/leaddesk/internal/store"
)

// DefaultSettingsTTL is how long configuration documents stay cached.
const DefaultSettingsTTL = 5 * time.Minute

// errSettingAbsent keeps missing documents out of the cache.
var errSettingAbsent = errors.New("setting not saved")

// SettingsService reads and writes the singleton email and payment
// configuration documents through a cache.
type SettingsService struct {
	queries *store.Queries
	email   *cache.TypedCache[model.EmailConfig]
	stripe  *cache.TypedCache[model.StripeConfig]
	logger  *slog.Logger
	now     func() time.Time
}

// NewSettingsService creates a SettingsService. A nil cache gets a private
// in-memory one.
func NewSettingsService(db *sql.DB, c cache.Cache, ttl time.Duration, logger *slog.Logger) *SettingsService {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	if c == nil {
		c = cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: ttl})
	}
	return &SettingsService{
		queries: store.New(db),
		email:   cache.NewTypedCache[model.EmailConfig](c, "settings:", ttl),
		stripe:  cache.NewTypedCache[model.StripeConfig](c, "settings:", ttl),
		logger:  logger,
		now:     time.Now,
	}
}

func loadSetting[T any](ctx context.Context, q *store.Queries, key string) (*T, error) {
	s, err := q.GetSetting(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errSettingAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	var v T
	if err := json.Unmarshal([]byte(s.Value), &v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &v, nil
}

func cachedSetting[T any](ctx context.Context, c *cache.TypedCache[T], q *store.Queries, key string) (*T, error) {
	v, err := c.GetOrSet(ctx, key, func() (*T, error) {
		return loadSetting[T](ctx, q, key)
	})
	if errors.Is(err, errSettingAbsent) {
		return nil, nil
	}
	return v, err
}

func (s *SettingsService) saveSetting(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.queries.UpsertSetting(ctx, store.UpsertSettingParams{
		Key:       key,
		Value:     string(b),
		UpdatedAt: s.now(),
	})
}

// EmailConfig returns the stored email configuration with secrets intact,
// or nil when none was saved.
func (s *SettingsService) EmailConfig(ctx context.Context) (*model.EmailConfig, error) {
	return cachedSetting(ctx, s.email, s.queries, store.SettingEmail)
}

// StripeConfig returns the stored payment configuration with secrets intact,
// or nil when none was saved.
func (s *SettingsService) StripeConfig(ctx context.Context) (*model.StripeConfig, error) {
	return cachedSetting(ctx, s.stripe, s.queries, store.SettingStripe)
}

// EmailConfigInput is the editable email configuration.
type EmailConfigInput struct {
	Provider     string `json:"provider" validate:"required,oneof=sendgrid resend mailgun aws-ses smtp"`
	APIKey       string `json:"apiKey"`
	SMTPHost     string `json:"smtpHost" validate:"required_if=Provider smtp"`
	SMTPPort     int    `json:"smtpPort" validate:"gte=0,lte=65535"`
	SMTPUser     string `json:"smtpUser"`
	SMTPPassword string `json:"smtpPassword"`
	SMTPSecure   bool   `json:"smtpSecure"`

	FromEmail string `json:"fromEmail" validate:"required,email"`
	FromName  string `json:"fromName" validate:"required,max=200"`
	ReplyTo   string `json:"replyTo" validate:"omitempty,email"`

	EnableAutoSend bool `json:"enableAutoSend"`
	EnableRetry    bool `json:"enableRetry"`
	MaxRetries     int  `json:"maxRetries" validate:"gte=0,lte=10"`
	RetryDelay     int  `json:"retryDelay" validate:"gte=0"`

	TestMode  bool   `json:"testMode"`
	TestEmail string `json:"testEmail" validate:"required_if=TestMode true,omitempty,email"`

	Templates map[string]model.EmailTemplate `json:"templates" validate:"dive,keys,oneof=whitepaper case-study newsletter brochure datasheet guide,endkeys"`
}

// keepSecret returns stored when the submitted value is empty or masked.
func keepSecret(submitted, stored string) string {
	if submitted == "" || submitted == model.SecretMask {
		return stored
	}
	return submitted
}

// SaveEmailConfig validates and stores the email configuration and returns it masked.
func (s *SettingsService) SaveEmailConfig(ctx context.Context, in EmailConfigInput) (model.EmailConfig, error) {
	if err := validateStruct(in); err != nil {
		return model.EmailConfig{}, err
	}

	current, err := s.EmailConfig(ctx)
	if err != nil {
		return model.EmailConfig{}, err
	}
	now := s.now().UTC()
	cfg := model.EmailConfig{
		Provider:       in.Provider,
		SMTPHost:       strings.TrimSpace(in.SMTPHost),
		SMTPPort:       in.SMTPPort,
		SMTPUser:       in.SMTPUser,
		SMTPSecure:     in.SMTPSecure,
		FromEmail:      in.FromEmail,
		FromName:       in.FromName,
		ReplyTo:        in.ReplyTo,
		EnableAutoSend: in.EnableAutoSend,
		EnableRetry:    in.EnableRetry,
		MaxRetries:     in.MaxRetries,
		RetryDelay:     in.RetryDelay,
		TestMode:       in.TestMode,
		TestEmail:      in.TestEmail,
		Templates:      in.Templates,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if cfg.Templates == nil {
		cfg.Templates = map[string]model.EmailTemplate{}
	}
	var storedKey, storedPassword string
	if current != nil {
		storedKey, storedPassword = current.APIKey, current.SMTPPassword
		cfg.CreatedAt = current.CreatedAt
	}
	cfg.APIKey = keepSecret(in.APIKey, storedKey)
	cfg.SMTPPassword = keepSecret(in.SMTPPassword, storedPassword)

	if err := s.saveSetting(ctx, store.SettingEmail, cfg); err != nil {
		return model.EmailConfig{}, err
	}
	if err := s.email.Delete(ctx, store.SettingEmail); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate email config cache", "error", err)
	}
	return cfg.Masked(), nil
}

// StripeConfigInput is the editable payment configuration.
type StripeConfigInput struct {
	PublishableKey string `json:"publishableKey"`
	SecretKey      string `json:"secretKey"`
	WebhookSecret  string `json:"webhookSecret"`
	Currency       string `json:"currency" validate:"omitempty,len=3,alpha"`
	Enabled        bool   `json:"enabled"`
	TestMode       bool   `json:"testMode"`
}

// SaveStripeConfig validates and stores the payment configuration and returns it masked.
func (s *SettingsService) SaveStripeConfig(ctx context.Context, in StripeConfigInput) (model.StripeConfig, error) {
	if err := validateStruct(in); err != nil {
		return model.StripeConfig{}, err
	}

	current, err := s.StripeConfig(ctx)
	if err != nil {
		return model.StripeConfig{}, err
	}
	now := s.now().UTC()
	cfg := model.StripeConfig{
		PublishableKey: in.PublishableKey,
		Currency:       strings.ToLower(in.Currency),
		Enabled:        in.Enabled,
		TestMode:       in.TestMode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if cfg.Currency == "" {
		cfg.Currency = model.DefaultCurrency
	}
	var storedSecret, storedWebhook string
	if current != nil {
		storedSecret, storedWebhook = current.SecretKey, current.WebhookSecret
		cfg.CreatedAt = current.CreatedAt
	}
	cfg.SecretKey = keepSecret(in.SecretKey, storedSecret)
	cfg.WebhookSecret = keepSecret(in.WebhookSecret, storedWebhook)

	if cfg.Enabled && cfg.SecretKey == "" {
		return model.StripeConfig{}, invalidField("secretKey", "is required when payments are enabled")
	}

	if err := s.saveSetting(ctx, store.SettingStripe, cfg); err != nil {
		return model.StripeConfig{}, err
	}
	if err := s.stripe.Delete(ctx, store.SettingStripe); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate stripe config cache", "error", err)
	}
	return cfg.Masked(), nil
}
