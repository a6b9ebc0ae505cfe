package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSweepLockSingleFlight(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lock := NewSweepLock(client, time.Minute)

	acquired, release, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !acquired {
		t.Fatal("first acquire failed")
	}

	again, _, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if again {
		t.Fatal("lock acquired twice concurrently")
	}

	release()

	acquired, release, err = lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if !acquired {
		t.Fatal("lock not reacquirable after release")
	}
	release()
}

func TestSweepLockExpiresAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lock := NewSweepLock(client, time.Minute)
	acquired, _, err := lock.Acquire(context.Background())
	if err != nil || !acquired {
		t.Fatalf("acquire: %v %v", acquired, err)
	}

	// Holder crashed; the TTL reclaims the slot.
	mr.FastForward(2 * time.Minute)

	acquired, release, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if !acquired {
		t.Fatal("lock not reclaimed after TTL expiry")
	}
	release()
}

func TestSweepLockWithoutRedisRunsUnlocked(t *testing.T) {
	lock := NewSweepLock(nil, 0)
	acquired, release, err := lock.Acquire(context.Background())
	if err != nil || !acquired {
		t.Fatalf("nil-client acquire: %v %v", acquired, err)
	}
	release()
}
