package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
)

// Slot implements slot.Slot using a single Redis key.
type Slot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSlot creates a Redis-backed slot. A zero ttl keeps the value forever.
func NewSlot(client *redis.Client, key string, ttl time.Duration) *Slot {
	return &Slot{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// Load reads the slot value from Redis.
func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NotFound("cart slot", s.key)
		}
		return nil, fmt.Errorf("redis get cart slot: %w", err)
	}
	return data, nil
}

// Save overwrites the slot value in Redis.
func (s *Slot) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart slot: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *Slot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
