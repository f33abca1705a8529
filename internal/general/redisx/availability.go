package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ride-lifecycle/internal/general/config"
	"ride-lifecycle/internal/ports"
)

const availabilityKeyPrefix = "driver:avail:"

// NewClient connects to Redis and verifies connectivity with a bounded ping.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// AvailabilityStore marks drivers schedulable in Redis. A present key means
// the driver may be offered new rides.
type AvailabilityStore struct {
	client *redis.Client
}

// NewAvailabilityStore constructs an AvailabilityStore.
func NewAvailabilityStore(client *redis.Client) ports.AvailabilityStore {
	return &AvailabilityStore{client: client}
}

// Acquire marks the driver busy (removes the availability flag). Idempotent.
func (s *AvailabilityStore) Acquire(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, availabilityKeyPrefix+driverID).Err()
}

// Release marks the driver schedulable again. Idempotent.
func (s *AvailabilityStore) Release(ctx context.Context, driverID string) error {
	return s.client.Set(ctx, availabilityKeyPrefix+driverID, "1", 0).Err()
}
