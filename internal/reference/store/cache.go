package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"passbuy/internal/reference/models"
)

// Cached wraps a Store with a Redis read-through cache for the hot lookup
// paths. Catalog rows change only at seed time, so a short TTL is plenty.
// Cache failures degrade to the underlying store, never to the caller.
type Cached struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(next Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *Cached) FindProviderByCode(ctx context.Context, code string) (*models.Provider, error) {
	key := "ref:provider:" + code
	var p models.Provider
	if c.get(ctx, key, &p) {
		return &p, nil
	}
	found, err := c.next.FindProviderByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, found)
	return found, nil
}

func (c *Cached) FindEmployerByName(ctx context.Context, name string) (*models.Employer, error) {
	key := "ref:employer:" + name
	var e models.Employer
	if c.get(ctx, key, &e) {
		return &e, nil
	}
	found, err := c.next.FindEmployerByName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, found)
	return found, nil
}

func (c *Cached) get(ctx context.Context, key string, v any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "reference cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false
	}
	return true
}

func (c *Cached) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "reference cache write failed", "key", key, "error", err)
	}
}

// The remaining methods pass through; lists and seed writes are not cached.

func (c *Cached) ListProviders(ctx context.Context) ([]*models.Provider, error) {
	return c.next.ListProviders(ctx)
}

func (c *Cached) ListEmployers(ctx context.Context) ([]*models.Employer, error) {
	return c.next.ListEmployers(ctx)
}

func (c *Cached) CreateProvider(ctx context.Context, p *models.Provider) error {
	return c.next.CreateProvider(ctx, p)
}

func (c *Cached) CreateEmployer(ctx context.Context, e *models.Employer) error {
	return c.next.CreateEmployer(ctx, e)
}

func (c *Cached) CountProviders(ctx context.Context) (int, error) {
	return c.next.CountProviders(ctx)
}

func (c *Cached) CountEmployers(ctx context.Context) (int, error) {
	return c.next.CountEmployers(ctx)
}
