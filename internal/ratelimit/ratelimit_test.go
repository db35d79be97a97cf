package ratelimit

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestAttemptLimiterWindowAndReset(t *testing.T) {
	t.Parallel()

	limiter := NewAttemptLimiter(1, time.Hour)
	key := "owner@acme.example"
	now := time.Now().UTC()

	limiter.Record(key, now.Add(-2*time.Hour))
	if limiter.TooManyRecent(key, now) {
		t.Fatal("expected old attempt to be pruned from active window")
	}

	limiter.Record(key, now.Add(-30*time.Minute))
	if !limiter.TooManyRecent(key, now) {
		t.Fatal("expected one recent attempt to hit limit 1")
	}

	limiter.Reset(key)
	if limiter.TooManyRecent(key, now) {
		t.Fatal("expected no attempts after reset")
	}
}

func TestAttemptLimiterAllowRecordsUntilLimit(t *testing.T) {
	t.Parallel()

	limiter := NewAttemptLimiter(3, 15*time.Minute)
	now := time.Now().UTC()

	for attempt := 1; attempt <= 3; attempt++ {
		if !limiter.Allow("key", now) {
			t.Fatalf("expected attempt %d to be allowed", attempt)
		}
	}
	if limiter.Allow("key", now) {
		t.Fatal("expected fourth attempt inside the window to be refused")
	}
	if !limiter.Allow("key", now.Add(16*time.Minute)) {
		t.Fatal("expected attempt after the window to be allowed")
	}
	if !limiter.Allow("other", now) {
		t.Fatal("expected keys to be limited independently")
	}
}

func TestKeyedLimiterSeparatesKeys(t *testing.T) {
	t.Parallel()

	limiter := NewKeyedLimiter(rate.Every(time.Hour), 2)

	if !limiter.Allow("acct-1") || !limiter.Allow("acct-1") {
		t.Fatal("expected burst of two to be allowed")
	}
	if limiter.Allow("acct-1") {
		t.Fatal("expected third request to exceed the bucket")
	}
	if !limiter.Allow("acct-2") {
		t.Fatal("expected a different key to have its own bucket")
	}
}
