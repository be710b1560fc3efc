package loans

import (
	"fmt"

	"github.com/diewo77/bookbuddy/internal/store"
)

// Eligibility is what the engine knows about a borrower when deciding.
type Eligibility struct {
	UserFound bool
	Overdue   int64
	Active    int64
	Limit     int
}

// Decide returns the first failing rule, in the order user-not-found,
// overdue-block, limit-reached, or nil when the user may borrow.
func (e Eligibility) Decide() error {
	if !e.UserFound {
		return store.ErrUserNotFound
	}
	if e.Overdue > 0 {
		return ErrOverdueBlock
	}
	if e.Active >= int64(e.Limit) {
		return ErrLimitReached.WithMessage(fmt.Sprintf("You have reached your borrowing limit of %d books.", e.Limit))
	}
	return nil
}

// availability is the locked book row plus its reservation queue as seen by
// one borrower.
type availability struct {
	Available      int
	Reserved       int64
	HolderReserved bool
}

// decide applies the reservation fairness rule before the stock check: while
// reservations outnumber or match the copies on the shelf, only reservers may
// borrow.
func (a availability) decide() error {
	if !a.HolderReserved && a.Reserved > 0 && int64(a.Available) <= a.Reserved {
		return ErrReservedForOthers
	}
	if a.Available < 1 {
		return ErrNoCopiesAvailable
	}
	return nil
}
