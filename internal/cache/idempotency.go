package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyIdemOrderCreate = "idem:order:create:%d:%s"
	pendingMarker      = "pending"
)

var TTLIdempotency = 24 * time.Hour

// ErrInProgress means another request with the same key has not finished.
var ErrInProgress = errors.New("request with this idempotency key is still in progress")

type kv interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Idempotency remembers which order an Idempotency-Key produced, per team.
type Idempotency struct {
	rdb kv
	ttl time.Duration
}

func NewIdempotency(rdb *redis.Client) *Idempotency {
	return &Idempotency{rdb: rdb, ttl: TTLIdempotency}
}

// Begin claims key. It returns (0, true, nil) when the caller owns the key
// and must run the request, or (orderID, false, nil) when a previous request
// already created orderID.
func (s *Idempotency) Begin(ctx context.Context, teamID int64, key string) (int64, bool, error) {
	k := fmt.Sprintf(keyIdemOrderCreate, teamID, key)

	ok, err := s.rdb.SetNX(ctx, k, pendingMarker, s.ttl).Result()
	if err != nil {
		return 0, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return 0, true, nil
	}

	v, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return s.Begin(ctx, teamID, key)
	}
	if err != nil {
		return 0, false, fmt.Errorf("read idempotency key: %w", err)
	}
	if v == pendingMarker {
		return 0, false, ErrInProgress
	}

	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency value %q: %w", v, err)
	}
	return id, false, nil
}

// Complete stores the created order id under key.
func (s *Idempotency) Complete(ctx context.Context, teamID int64, key string, orderID int64) error {
	k := fmt.Sprintf(keyIdemOrderCreate, teamID, key)
	return s.rdb.Set(ctx, k, strconv.FormatInt(orderID, 10), s.ttl).Err()
}

// Release frees key after a failed request so it can be retried.
func (s *Idempotency) Release(ctx context.Context, teamID int64, key string) error {
	k := fmt.Sprintf(keyIdemOrderCreate, teamID, key)
	return s.rdb.Del(ctx, k).Err()
}
