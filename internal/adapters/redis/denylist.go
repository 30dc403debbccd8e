package redis

// Package redis provides Redis-based adapters for the portal API.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records subjects whose identity record was removed by policy
// cleanup. Entries expire with a TTL covering the maximum credential
// lifetime; after that the provider-side delete has long since propagated.
type Denylist struct {
	client redis.UniversalClient
	prefix string
}

// NewDenylist creates a Redis-backed denylist with the default key prefix.
func NewDenylist(client redis.UniversalClient) *Denylist {
	return &Denylist{client: client, prefix: "authdeny:"}
}

// NewDenylistWithPrefix creates a denylist with a custom key prefix.
func NewDenylistWithPrefix(client redis.UniversalClient, prefix string) *Denylist {
	return &Denylist{client: client, prefix: prefix}
}

// Deny records the subject for ttl.
func (d *Denylist) Deny(ctx context.Context, subjectID string, ttl time.Duration) error {
	if subjectID == "" {
		return errors.New("subject id cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}
	if err := d.client.Set(ctx, d.prefix+subjectID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// IsDenied reports whether the subject is currently denied.
func (d *Denylist) IsDenied(ctx context.Context, subjectID string) (bool, error) {
	if subjectID == "" {
		return false, nil
	}
	_, err := d.client.Get(ctx, d.prefix+subjectID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}
	return true, nil
}
