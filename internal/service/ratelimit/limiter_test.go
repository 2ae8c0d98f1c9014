package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAllowConsumesAndRefills(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return clock }

	if !l.Allow("av", 2, 1) || !l.Allow("av", 2, 1) {
		t.Fatal("first two calls should pass")
	}
	if l.Allow("av", 2, 1) {
		t.Fatal("third call should be limited")
	}
	if !l.Allow("other", 1, 1) {
		t.Fatal("keys must not share buckets")
	}
	clock = clock.Add(1500 * time.Millisecond)
	if !l.Allow("av", 2, 1) {
		t.Fatal("token should have refilled")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "k", 1, 0.001); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 0.001); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
