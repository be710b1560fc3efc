// Package store persists users, books, loans and notifications with gorm.
// Every sub-store obtained from a Store returned by Transaction runs inside
// that transaction.
package store

import (
	"context"
	"errors"

	"github.com/diewo77/bookbuddy/internal/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound         = apperr.New(apperr.KindNotFound, "user_not_found", "User not found")
	ErrBookNotFound         = apperr.New(apperr.KindNotFound, "book_not_found", "Book not found")
	ErrLoanNotFound         = apperr.New(apperr.KindNotFound, "loan_not_found", "Loan not found")
	ErrNotificationNotFound = apperr.New(apperr.KindNotFound, "notification_not_found", "Notification not found")
	ErrDuplicateEmail       = apperr.New(apperr.KindConflict, "duplicate_email", "Email already registered")

	// ErrCopiesOutOfRange is returned by AdjustAvailable when the change would
	// leave available copies outside [0, total].
	ErrCopiesOutOfRange = errors.New("available copies out of range")
)

// Store groups the sub-stores and opens transactions over them.
type Store interface {
	Books() BookStore
	Users() UserStore
	Loans() LoanStore
	Notifications() NotificationStore

	// Transaction runs fn with a Store bound to one database transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore implements Store on a *gorm.DB.
type GormStore struct {
	db *gorm.DB
}

// New returns a Store backed by db.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle.
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Books() BookStore                 { return &gormBooks{db: s.db} }
func (s *GormStore) Users() UserStore                 { return &gormUsers{db: s.db} }
func (s *GormStore) Loans() LoanStore                 { return &gormLoans{db: s.db} }
func (s *GormStore) Notifications() NotificationStore { return &gormNotifications{db: s.db} }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// forUpdate adds SELECT ... FOR UPDATE. The sqlite dialect drops the clause;
// immediate transactions serialize writers there instead.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// notFound maps gorm.ErrRecordNotFound to the domain error.
func notFound(err error, domain error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return err
}
