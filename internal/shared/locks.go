package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PeriodCloseLockKey builds redis keys for the period-close critical section.
func PeriodCloseLockKey(tenantID uuid.UUID, periodID int64) string {
	return fmt.Sprintf("ledger:%s:period:%d:close", tenantID, periodID)
}

// YearCloseLockKey builds redis keys for fiscal-year close.
func YearCloseLockKey(tenantID uuid.UUID, year int) string {
	return fmt.Sprintf("ledger:%s:year:%d:close", tenantID, year)
}

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// DistLock is an advisory redis lease used to serialise multi-step close
// operations across processes. Database state is re-validated inside the
// transaction regardless.
type DistLock struct {
	client *redis.Client
}

// NewDistLock constructs a DistLock over the shared redis client.
func NewDistLock(client *redis.Client) *DistLock {
	return &DistLock{client: client}
}

// Acquire takes the lease and returns a release func. Returns
// ErrLockNotAcquired when another holder is active.
func (l *DistLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l == nil || l.client == nil {
		// No redis configured; callers fall back to DB-level guarantees.
		return func(context.Context) error { return nil }, nil
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
