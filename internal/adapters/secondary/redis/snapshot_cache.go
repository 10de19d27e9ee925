package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lorrc/service-desk-books/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-books/internal/core/errors"
	"github.com/lorrc/service-desk-books/internal/core/ports"
)

const keyPrefix = "books:snapshot"

// Options configures the redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// SnapshotCache keeps the latest snapshot for each company and period.
type SnapshotCache struct {
	client *goredis.Client
}

var _ ports.SnapshotCache = (*SnapshotCache)(nil)

// NewSnapshotCache connects to redis and verifies the connection.
func NewSnapshotCache(ctx context.Context, opts Options) (*SnapshotCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &SnapshotCache{client: client}, nil
}

// Key returns the cache key of a company's snapshot for period.
func Key(companyID uuid.UUID, period domain.PeriodWindow) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, companyID, period.Key())
}

// Get returns the cached snapshot or ErrSnapshotNotFound on a miss.
func (c *SnapshotCache) Get(ctx context.Context, companyID uuid.UUID, period domain.PeriodWindow) (*domain.BookMetricsSnapshot, error) {
	raw, err := c.client.Get(ctx, Key(companyID, period)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var snapshot domain.BookMetricsSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return &snapshot, nil
}

// Set stores the snapshot unless a newer one is already cached.
func (c *SnapshotCache) Set(ctx context.Context, snapshot *domain.BookMetricsSnapshot, ttl time.Duration) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	key := Key(snapshot.CompanyID, snapshot.Period)
	current, err := c.Get(ctx, snapshot.CompanyID, snapshot.Period)
	switch {
	case err == nil && current.GeneratedAt.After(snapshot.GeneratedAt):
		return nil
	case err != nil && !errors.Is(err, apperrors.ErrSnapshotNotFound):
		return err
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping verifies redis connectivity.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
