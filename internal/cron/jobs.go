package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/shopfront/retail-backend/pkg/logger"
)

const (
	defaultCartStaleDays   = 30
	defaultRetentionDays   = 30
	defaultTokenTTL        = 72 * time.Hour
	dlqRetentionMultiplier = 3
)

type tokenStore interface {
	DeleteStaleTokens(ctx context.Context, expiredBefore time.Time) (int64, error)
}

type cartStore interface {
	DeactivateStaleCarts(ctx context.Context, cutoff time.Time) (int64, error)
}

type publishedStore interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type deadLetterStore interface {
	DeleteFailedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

// TokenCleanupJob deletes used confirmation and reset keys along with keys
// older than the token TTL.
type TokenCleanupJob struct {
	logg   *logger.Logger
	tokens tokenStore
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCleanupJob(logg *logger.Logger, tokens tokenStore, ttl time.Duration) (*TokenCleanupJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token store required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenCleanupJob{logg: logg, tokens: tokens, ttl: ttl, now: time.Now}, nil
}

func (j *TokenCleanupJob) Name() string { return "token-cleanup" }

func (j *TokenCleanupJob) Run(ctx context.Context) (Result, error) {
	cutoff := j.now().UTC().Add(-j.ttl)
	deleted, err := j.tokens.DeleteStaleTokens(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete stale tokens: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"tokens_deleted": deleted,
	}), "token cleanup complete")
	return Result{"tokens_deleted": deleted}, nil
}

// StaleCartsJob retires carts nobody touched for the configured number of
// days. The owner gets a fresh cart on the next add.
type StaleCartsJob struct {
	logg      *logger.Logger
	carts     cartStore
	staleDays int
	now       func() time.Time
}

func NewStaleCartsJob(logg *logger.Logger, carts cartStore, staleDays int) (*StaleCartsJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if staleDays <= 0 {
		staleDays = defaultCartStaleDays
	}
	return &StaleCartsJob{logg: logg, carts: carts, staleDays: staleDays, now: time.Now}, nil
}

func (j *StaleCartsJob) Name() string { return "stale-carts" }

func (j *StaleCartsJob) Run(ctx context.Context) (Result, error) {
	cutoff := j.now().UTC().AddDate(0, 0, -j.staleDays)
	retired, err := j.carts.DeactivateStaleCarts(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("deactivate stale carts: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"stale_days":    j.staleDays,
		"carts_retired": retired,
	}), "stale cart sweep complete")
	return Result{"carts_retired": retired}, nil
}

// OutboxRetentionJob deletes published outbox rows past retention and dead
// letters past a longer window. Both steps always run.
type OutboxRetentionJob struct {
	logg      *logger.Logger
	published publishedStore
	dead      deadLetterStore
	retention int
	now       func() time.Time
}

func NewOutboxRetentionJob(logg *logger.Logger, published publishedStore, dead deadLetterStore, retentionDays int) (*OutboxRetentionJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if published == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if dead == nil {
		return nil, fmt.Errorf("dlq repository required")
	}
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &OutboxRetentionJob{logg: logg, published: published, dead: dead, retention: retentionDays, now: time.Now}, nil
}

func (j *OutboxRetentionJob) Name() string { return "outbox-retention" }

func (j *OutboxRetentionJob) Run(ctx context.Context) (Result, error) {
	now := j.now().UTC()
	publishedCutoff := now.AddDate(0, 0, -j.retention)
	deadCutoff := now.AddDate(0, 0, -j.retention*dlqRetentionMultiplier)

	var errs error
	published, err := j.published.DeletePublishedBefore(nil, publishedCutoff)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete published events: %w", err))
	}
	dead, err := j.dead.DeleteFailedBefore(nil, deadCutoff)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete dead letters: %w", err))
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"retention_days":    j.retention,
		"published_deleted": published,
		"dlq_deleted":       dead,
	}), "outbox retention cleanup complete")
	return Result{"published_deleted": published, "dlq_deleted": dead}, errs
}
