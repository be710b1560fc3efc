package gate

import (
	"context"
	"errors"
)

// Sentinel errors returned by the gate and role parsing.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
	ErrUnknownRole     = errors.New("unknown role")
)

// Action names what the subject wants to do with a resource. Only the
// actions the API actually checks are declared.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionReturn Action = "return"
)

// Policy decides one resource type. For list checks resource may be nil.
type Policy interface {
	Can(ctx context.Context, s Subject, action Action, resource any) bool
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(ctx context.Context, s Subject, action Action, resource any) bool

func (f PolicyFunc) Can(ctx context.Context, s Subject, action Action, resource any) bool {
	return f(ctx, s, action, resource)
}
