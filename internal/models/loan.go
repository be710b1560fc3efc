package models

import (
	"fmt"
	"strings"
	"time"
)

// LoanStatus is the state of a loan: reserved -> borrowed -> returned, or
// borrowed -> returned. Returned is terminal.
type LoanStatus string

const (
	LoanReserved LoanStatus = "reserved"
	LoanBorrowed LoanStatus = "borrowed"
	LoanReturned LoanStatus = "returned"
)

// ParseLoanStatus accepts "Borrowed", "borrowed", etc.
func ParseLoanStatus(s string) (LoanStatus, bool) {
	switch st := LoanStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case LoanReserved, LoanBorrowed, LoanReturned:
		return st, true
	}
	return "", false
}

// Label is the capitalised form used in API payloads.
func (s LoanStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// MarshalJSON writes the capitalised label.
func (s LoanStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Label())
}

func (s *LoanStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, ok := ParseLoanStatus(raw)
	if !ok {
		return fmt.Errorf("unknown loan status %q", raw)
	}
	*s = st
	return nil
}

// Loan is a ledger row. Rows are never deleted; UserID and BookID never change
// after creation.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"userId"`
	BookID     uint       `gorm:"not null;index" json:"bookId"`
	Status     LoanStatus `gorm:"size:16;not null;index" json:"status"`
	BorrowedAt time.Time  `gorm:"not null" json:"borrowDate"`
	DueAt      time.Time  `gorm:"not null;index" json:"dueDate"`
	ReturnedAt *time.Time `json:"returnDate"`
	PaidAmount float64    `gorm:"not null" json:"borrowingCost"`
	PeriodDays int        `gorm:"not null" json:"borrowingPeriodDays"`
	Fine       float64    `gorm:"not null" json:"fine"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (l *Loan) GetUserID() uint { return l.UserID }

// IsOverdue reports whether a borrowed loan is past due at t.
func (l *Loan) IsOverdue(t time.Time) bool {
	return l.Status == LoanBorrowed && l.DueAt.Before(t)
}
