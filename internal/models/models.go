// Package models holds the persisted library records: users, books, loans and
// notifications.
package models

// All returns every model in migration order.
func All() []any {
	return []any{&User{}, &Book{}, &Loan{}, &Notification{}}
}

// Ownable is implemented by records that belong to a single user.
type Ownable interface {
	GetUserID() uint
}
