package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const idempotencyPrefix = "idem:"

// Store is the byte-level cache the idempotency layer sits on
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Idempotency remembers the JSON result of a keyed request so a retry
// returns the same answer instead of repeating the side effect.
type Idempotency struct {
	store Store
	ttl   time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

// Lookup decodes the stored result for key into dst. found is false on a miss
// or an expired entry.
func (i *Idempotency) Lookup(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := i.store.Get(ctx, idempotencyPrefix+key)
	if errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrCacheExpired) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("idempotency lookup: %w", err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("idempotency decode: %w", err)
	}
	return true, nil
}

// Remember stores v under key for the configured TTL
func (i *Idempotency) Remember(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	if err := i.store.Set(ctx, idempotencyPrefix+key, raw, i.ttl); err != nil {
		return fmt.Errorf("idempotency store: %w", err)
	}
	return nil
}

// Reserve claims key with v unless a live entry already holds it.
// ok is false when another request got there first.
func (i *Idempotency) Reserve(ctx context.Context, key string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("idempotency encode: %w", err)
	}
	ok, err := i.store.SetNX(ctx, idempotencyPrefix+key, raw, i.ttl)
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

func (i *Idempotency) Forget(ctx context.Context, key string) error {
	return i.store.Delete(ctx, idempotencyPrefix+key)
}
