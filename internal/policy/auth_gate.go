package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/diewo77/bookbuddy/auth"
	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/httpx"
)

// Resource type names registered on the gate.
const (
	ResourceLoan         = "loan"
	ResourceNotification = "notification"
)

type subjectCtxKey struct{}

// AuthGate resolves the caller's current role and enforces route capabilities
// and resource policies. Roles come from the database through a TTL cache, so
// a demotion applies at the latest one TTL later, or at once after
// InvalidateUser.
type AuthGate struct {
	Gate  *gate.Gate
	Roles *gate.CachedResolver[uint]
}

// NewAuthGate wires the resolver behind a cache and registers the loan and
// notification policies.
func NewAuthGate(resolver gate.RoleResolver[uint], cacheTTL time.Duration) *AuthGate {
	g := gate.NewGate()
	g.Register(ResourceLoan, NewStaffBypassPolicy(NewOwnershipPolicy()))
	g.Register(ResourceNotification, NewOwnershipPolicy())
	return &AuthGate{
		Gate:  g,
		Roles: gate.NewCachedResolver[uint](resolver, cacheTTL),
	}
}

// Subject returns the authenticated caller with their current role.
func (ag *AuthGate) Subject(ctx context.Context) (gate.Subject, error) {
	if s, ok := ctx.Value(subjectCtxKey{}).(gate.Subject); ok {
		return s, nil
	}
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.Subject{}, gate.ErrUnauthorized
	}
	role, err := ag.Roles.Resolve(ctx, uid)
	if err != nil {
		return gate.Subject{}, err
	}
	return gate.Subject{ID: uid, Role: role}, nil
}

// Authorize checks the policy registered for resourceType.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	s, err := ag.Subject(ctx)
	if err != nil {
		return err
	}
	return ag.Gate.Authorize(ctx, s, action, resourceType, resource)
}

// RequireCapability answers 401 when the caller is not authenticated and 403
// when their role lacks c. The resolved subject is kept in the request context.
func (ag *AuthGate) RequireCapability(c gate.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == gate.Anonymous {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := ag.Subject(r.Context())
			if err == nil {
				err = ag.Gate.Require(s, c)
			}
			switch {
			case errors.Is(err, gate.ErrUnauthorized):
				httpx.JSONError(w, http.StatusUnauthorized, "Authentication required", nil)
				return
			case errors.Is(err, gate.ErrForbidden):
				httpx.JSONError(w, http.StatusForbidden, "Insufficient permissions", nil)
				return
			case err != nil:
				httpx.Error(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), subjectCtxKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InvalidateUser drops the cached role of a user. Call it after a role change.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.Roles.Invalidate(userID)
}
