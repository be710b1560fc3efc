package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/bookbuddy/gate"
)

func TestCachedResolver_CachesRole(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.RoleUser)

	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)

	r1, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r1 != gate.RoleUser {
		t.Errorf("expected user, got %q", r1)
	}

	inner.Set(1, gate.RoleAdmin)

	r2, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r2 != gate.RoleUser {
		t.Errorf("expected cached user role, got %q", r2)
	}
}

func TestCachedResolver_Invalidate(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, gate.RoleUser)
	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)
	_, _ = cached.Resolve(context.Background(), 1)

	inner.Set(1, gate.RoleManager)
	cached.Invalidate(1)

	r, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != gate.RoleManager {
		t.Errorf("expected manager after invalidate, got %q", r)
	}
}

func TestCachedResolver_Expiry(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(2, gate.RoleUser)
	cached := gate.NewCachedResolver[uint](inner, time.Nanosecond)
	_, _ = cached.Resolve(context.Background(), 2)

	inner.Set(2, gate.RoleAdmin)
	time.Sleep(time.Millisecond)

	r, _ := cached.Resolve(context.Background(), 2)
	if r != gate.RoleAdmin {
		t.Errorf("expected expired entry to be refreshed, got %q", r)
	}
}

func TestCachedResolver_DoesNotCacheErrors(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	if _, err := cached.Resolve(context.Background(), 3); err != gate.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	inner.Set(3, gate.RoleUser)
	if r, err := cached.Resolve(context.Background(), 3); err != nil || r != gate.RoleUser {
		t.Fatalf("expected user after error, got %q %v", r, err)
	}
}
