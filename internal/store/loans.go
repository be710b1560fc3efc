package store

import (
	"context"
	"time"

	"github.com/diewo77/bookbuddy/internal/models"
	"gorm.io/gorm"
)

// LoanStore persists the loan ledger. Loans are never deleted.
type LoanStore interface {
	Get(ctx context.Context, id uint) (*models.Loan, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Loan, error)
	Create(ctx context.Context, l *models.Loan) error
	Save(ctx context.Context, l *models.Loan) error
	// Find returns the user's loan for the book in the given status, or
	// ErrLoanNotFound.
	Find(ctx context.Context, userID, bookID uint, status models.LoanStatus) (*models.Loan, error)
	CountBorrowed(ctx context.Context, userID uint) (int64, error)
	CountOverdue(ctx context.Context, userID uint, now time.Time) (int64, error)
	CountForBook(ctx context.Context, bookID uint, statuses ...models.LoanStatus) (int64, error)
	ListOpenBorrowed(ctx context.Context, userID uint) ([]models.Loan, error)
}

type gormLoans struct {
	db *gorm.DB
}

func (s *gormLoans) Get(ctx context.Context, id uint) (*models.Loan, error) {
	var l models.Loan
	if err := s.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, notFound(err, ErrLoanNotFound)
	}
	return &l, nil
}

func (s *gormLoans) GetForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var l models.Loan
	if err := forUpdate(s.db.WithContext(ctx)).First(&l, id).Error; err != nil {
		return nil, notFound(err, ErrLoanNotFound)
	}
	return &l, nil
}

func (s *gormLoans) Create(ctx context.Context, l *models.Loan) error {
	return s.db.WithContext(ctx).Create(l).Error
}

func (s *gormLoans) Save(ctx context.Context, l *models.Loan) error {
	return s.db.WithContext(ctx).Save(l).Error
}

func (s *gormLoans) Find(ctx context.Context, userID, bookID uint, status models.LoanStatus) (*models.Loan, error) {
	var l models.Loan
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, status).
		Order("id").
		First(&l).Error
	if err != nil {
		return nil, notFound(err, ErrLoanNotFound)
	}
	return &l, nil
}

func (s *gormLoans) CountBorrowed(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Loan{}).
		Where("user_id = ? AND status = ?", userID, models.LoanBorrowed).
		Count(&n).Error
	return n, err
}

func (s *gormLoans) CountOverdue(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Loan{}).
		Where("user_id = ? AND status = ? AND due_at < ?", userID, models.LoanBorrowed, now).
		Count(&n).Error
	return n, err
}

func (s *gormLoans) CountForBook(ctx context.Context, bookID uint, statuses ...models.LoanStatus) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&models.Loan{}).Where("book_id = ?", bookID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Count(&n).Error
	return n, err
}

func (s *gormLoans) ListOpenBorrowed(ctx context.Context, userID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.LoanBorrowed).
		Order("due_at").
		Find(&loans).Error
	return loans, err
}
