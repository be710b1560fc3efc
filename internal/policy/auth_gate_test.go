package policy_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/bookbuddy/auth"
	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/dbtest"
	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/diewo77/bookbuddy/internal/policy"
	"github.com/diewo77/bookbuddy/internal/store"
)

func serve(ag *policy.AuthGate, c gate.Capability, uid uint) int {
	h := ag.RequireCapability(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if uid != 0 {
		req = req.WithContext(auth.WithUserID(req.Context(), uid))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireCapability(t *testing.T) {
	roles := gate.NewStaticResolver[uint]()
	roles.Set(1, gate.RoleUser)
	roles.Set(2, gate.RoleManager)
	roles.Set(3, gate.RoleAdmin)
	ag := policy.NewAuthGate(roles, time.Minute)

	tests := []struct {
		name string
		cap  gate.Capability
		uid  uint
		want int
	}{
		{"anonymous route", gate.Anonymous, 0, http.StatusNoContent},
		{"no token", gate.Authenticated, 0, http.StatusUnauthorized},
		{"unknown user", gate.Authenticated, 99, http.StatusUnauthorized},
		{"member", gate.Authenticated, 1, http.StatusNoContent},
		{"member on manager route", gate.Manager, 1, http.StatusForbidden},
		{"manager on manager route", gate.Manager, 2, http.StatusNoContent},
		{"manager on admin route", gate.Admin, 2, http.StatusForbidden},
		{"admin on admin route", gate.Admin, 3, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(ag, tt.cap, tt.uid); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuthGate_InvalidateUser(t *testing.T) {
	roles := gate.NewStaticResolver[uint]()
	roles.Set(1, gate.RoleAdmin)
	ag := policy.NewAuthGate(roles, time.Hour)

	if got := serve(ag, gate.Admin, 1); got != http.StatusNoContent {
		t.Fatalf("status = %d", got)
	}
	roles.Set(1, gate.RoleUser)
	if got := serve(ag, gate.Admin, 1); got != http.StatusNoContent {
		t.Fatalf("expected cached admin role, got %d", got)
	}
	ag.InvalidateUser(1)
	if got := serve(ag, gate.Admin, 1); got != http.StatusForbidden {
		t.Fatalf("expected demotion after invalidation, got %d", got)
	}
}

func TestAuthGate_AuthorizeLoan(t *testing.T) {
	roles := gate.NewStaticResolver[uint]()
	roles.Set(1, gate.RoleUser)
	roles.Set(2, gate.RoleManager)
	ag := policy.NewAuthGate(roles, time.Minute)
	loan := &models.Loan{UserID: 5}
	ctx := context.Background()

	if err := ag.Authorize(ctx, gate.ActionReturn, policy.ResourceLoan, loan); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized without a user, got %v", err)
	}
	if err := ag.Authorize(auth.WithUserID(ctx, 1), gate.ActionReturn, policy.ResourceLoan, loan); !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("expected ErrForbidden for a stranger, got %v", err)
	}
	if err := ag.Authorize(auth.WithUserID(ctx, 2), gate.ActionReturn, policy.ResourceLoan, loan); err != nil {
		t.Errorf("expected manager bypass, got %v", err)
	}
	if err := ag.Authorize(auth.WithUserID(ctx, 2), gate.ActionUpdate, policy.ResourceNotification, &models.Notification{UserID: 5}); !errors.Is(err, gate.ErrForbidden) {
		t.Errorf("notifications are owner-only, got %v", err)
	}
}

func TestDBRoleResolver(t *testing.T) {
	d := dbtest.Open(t)
	u := dbtest.User(t, d, "boss@example.com", gate.RoleManager, 5)
	r := policy.NewDBRoleResolver(store.New(d).Users())
	ctx := context.Background()

	role, err := r.Resolve(ctx, u.ID)
	if err != nil || role != gate.RoleManager {
		t.Fatalf("Resolve() = %q, %v", role, err)
	}
	if _, err := r.Resolve(ctx, 999); !errors.Is(err, gate.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a missing user, got %v", err)
	}
}
