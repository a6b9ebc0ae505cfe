package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sweepLockKey         = "tramita:sweep:lock"
	defaultSweepInterval = 10 * time.Minute
	defaultSweepLockTTL  = 15 * time.Minute
)

// SweepLock is a best-effort single-flight guard for sweeps. Two sweeps must
// never overlap; the lock ensures that across worker replicas. The TTL
// covers a crashed holder: the next sweep interval simply reclaims it.
type SweepLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSweepLock(client *redis.Client, ttl time.Duration) *SweepLock {
	if ttl <= 0 {
		ttl = defaultSweepLockTTL
	}
	return &SweepLock{client: client, ttl: ttl}
}

// Acquire attempts to take the lock. On success it returns true and a
// release function; on contention it returns false.
func (l *SweepLock) Acquire(ctx context.Context) (bool, func(), error) {
	if l == nil || l.client == nil {
		// No redis configured: single-instance deployments run unlocked.
		return true, func() {}, nil
	}

	ok, err := l.client.SetNX(ctx, sweepLockKey, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}

	release := func() {
		_ = l.client.Del(context.WithoutCancel(ctx), sweepLockKey).Err()
	}
	return true, release, nil
}
