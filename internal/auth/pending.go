// AngelaMos | 2026
// pending.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civix-app/civix-backend/internal/core"
)

// PendingSignup is an unverified registration (or password reset) attempt.
// It holds the submitted plaintext password only until verification promotes
// it into a hashed credential; the record never reaches a durable store.
type PendingSignup struct {
	Email     string    `json:"email"`
	OTP       string    `json:"otp"`
	Name      string    `json:"name,omitempty"`
	Password  string    `json:"password,omitempty"`
	Role      string    `json:"role,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Attempts  int       `json:"attempts"`
}

// PendingStore keeps pending attempts keyed by a flow-scoped key. Put
// overwrites any prior entry for the key; Remove is idempotent. Entries the
// client abandons are evicted by the store's own TTL, so no sweep goroutine
// is needed, and a send and a verify landing on different instances still
// agree as long as they share the same Redis.
type PendingStore interface {
	Put(ctx context.Context, key string, rec *PendingSignup) error
	Get(ctx context.Context, key string) (*PendingSignup, error)
	Remove(ctx context.Context, key string) error
}

const pendingKeyPrefix = "pending:"

type redisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPendingStore backs the pending cache with Redis. The TTL should be
// the OTP validity window plus a grace period: the verify path still checks
// CreatedAt against the window itself, so a verify attempt inside the grace
// period sees "expired" rather than "not found".
func NewRedisPendingStore(
	client *redis.Client,
	ttl time.Duration,
) PendingStore {
	return &redisPendingStore{client: client, ttl: ttl}
}

func (s *redisPendingStore) Put(
	ctx context.Context,
	key string,
	rec *PendingSignup,
) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal pending record: %w", err)
	}

	if err := s.client.Set(ctx, pendingKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending record: %w", err)
	}

	return nil
}

func (s *redisPendingStore) Get(
	ctx context.Context,
	key string,
) (*PendingSignup, error) {
	data, err := s.client.Get(ctx, pendingKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get pending record: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pending record: %w", err)
	}

	var rec PendingSignup
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal pending record: %w", err)
	}

	return &rec, nil
}

func (s *redisPendingStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, pendingKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("remove pending record: %w", err)
	}

	return nil
}
