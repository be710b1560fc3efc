package policy

import (
	"context"
	"errors"

	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/store"
)

// DBRoleResolver reads a user's role from the accounts table.
type DBRoleResolver struct {
	Users store.UserStore
}

func NewDBRoleResolver(users store.UserStore) *DBRoleResolver {
	return &DBRoleResolver{Users: users}
}

// Resolve returns gate.ErrUnauthorized for users that no longer exist, so a
// token outliving its account is rejected.
func (r *DBRoleResolver) Resolve(ctx context.Context, userID uint) (gate.Role, error) {
	u, err := r.Users.Get(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return "", gate.ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	if !u.Role.Valid() {
		return "", gate.ErrUnknownRole
	}
	return u.Role, nil
}
