// Package policy wires the gate to the API: role resolution from the
// database, route capability middleware and the ownership rules for loans
// and notifications.
package policy

import (
	"context"

	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/models"
)

// OwnershipPolicy allows a subject to act on resources they own.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can allows list/create checks (nil resource) and denies resources that do
// not implement models.Ownable.
func (p *OwnershipPolicy) Can(_ context.Context, s gate.Subject, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(models.Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == s.ID
}

// StaffBypassPolicy lets managers and admins through and defers to inner for
// everyone else.
type StaffBypassPolicy struct {
	inner gate.Policy
}

func NewStaffBypassPolicy(inner gate.Policy) *StaffBypassPolicy {
	return &StaffBypassPolicy{inner: inner}
}

func (p *StaffBypassPolicy) Can(ctx context.Context, s gate.Subject, action gate.Action, resource any) bool {
	if s.Can(gate.Manager) {
		return true
	}
	return p.inner.Can(ctx, s, action, resource)
}
