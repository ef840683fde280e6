// Package cache provides a Redis-backed view cache. Read endpoints store
// their rendered responses here; mutations invalidate the affected keys so
// clients always see fresh data after a write.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

// Well-known view keys. Invoice mutations invalidate all of them, since the
// dashboard and customer aggregates are derived from invoices.
const (
	KeyDashboard        = "views:dashboard"
	KeyCustomers        = "views:customers"
	PatternInvoicePages = "views:invoices:*"
)

// ViewCache stores serialized view payloads.
type ViewCache interface {
	// Get unmarshals the cached payload into dst. The bool reports a hit.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	// Invalidate removes every key matching the given keys or patterns.
	Invalidate(ctx context.Context, patterns ...string) error
}

// Redis implements ViewCache on a Redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

var _ ViewCache = (*Redis)(nil)

// NewRedis connects to Redis and verifies the connection.
func NewRedis(addr, password string, db int, ttl time.Duration, log *logger.Logger) (*Redis, error) {
	if log == nil {
		log = logger.NewDefault("cache")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{client: client, ttl: ttl, log: log}, nil
}

func (r *Redis) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		// Stale or incompatible payload; treat as a miss.
		_ = r.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, patterns ...string) error {
	for _, pattern := range patterns {
		iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
				r.log.WithError(err).WithField("key", iter.Val()).Warn("cache invalidation failed")
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Noop is used when Redis is not configured; every read is a miss.
type Noop struct{}

var _ ViewCache = Noop{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, interface{}) error         { return nil }
func (Noop) Invalidate(context.Context, ...string) error            { return nil }
