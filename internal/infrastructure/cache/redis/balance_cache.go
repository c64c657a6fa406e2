// Package redis implements the read-side balance cache on Redis.
//
// Keys are "walletpay:balance:<user id>" holding the two-decimal string
// amount. Entries expire on their own; ledger writes invalidate them early.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

var _ ports.BalanceCache = (*BalanceCache)(nil)

const balanceKeyPrefix = "walletpay:balance:"

// DefaultTTL bounds staleness when an invalidation is lost.
const DefaultTTL = 5 * time.Minute

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DefaultConfig returns settings suitable for local development.
func DefaultConfig() Config {
	return Config{
		Addr: "localhost:6379",
		TTL:  DefaultTTL,
	}
}

// BalanceCache caches store-credit totals per user.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache creates a BalanceCache on an existing client.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BalanceCache{client: client, ttl: ttl}
}

// Connect dials Redis and verifies connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Get returns the cached balance and whether it was present.
func (c *BalanceCache) Get(ctx context.Context, userID uuid.UUID) (valueobjects.Money, bool, error) {
	val, err := c.client.Get(ctx, balanceKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return valueobjects.Money{}, false, nil
		}
		return valueobjects.Money{}, false, fmt.Errorf("failed to read cached balance: %w", err)
	}

	balance, err := valueobjects.NewMoney(val)
	if err != nil {
		// A corrupt value behaves like a miss; the next Set overwrites it.
		return valueobjects.Money{}, false, nil
	}

	return balance, true, nil
}

// Set stores a balance with the configured TTL.
func (c *BalanceCache) Set(ctx context.Context, userID uuid.UUID, balance valueobjects.Money) error {
	if err := c.client.Set(ctx, balanceKey(userID), balance.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	return nil
}

// Invalidate drops a user's cached balance.
func (c *BalanceCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, balanceKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached balance: %w", err)
	}
	return nil
}

func balanceKey(userID uuid.UUID) string {
	return balanceKeyPrefix + userID.String()
}
