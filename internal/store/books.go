package store

import (
	"context"
	"strings"

	"github.com/diewo77/bookbuddy/internal/models"
	"gorm.io/gorm"
)

// BookListing is a catalog row with the number of loans ever made for it.
type BookListing struct {
	models.Book
	LoanCount int64 `json:"loanCount"`
}

// BookStore persists catalog entries. Deleted books are hidden but keep their
// loan history.
type BookStore interface {
	Get(ctx context.Context, id uint) (*models.Book, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Book, error)
	List(ctx context.Context, search string) ([]BookListing, error)
	Create(ctx context.Context, b *models.Book) error
	Update(ctx context.Context, b *models.Book) error
	Delete(ctx context.Context, id uint) error
	// AdjustAvailable adds delta to the available copies of a book. It fails
	// with ErrCopiesOutOfRange when the result would leave [0, total].
	AdjustAvailable(ctx context.Context, id uint, delta int) error
}

type gormBooks struct {
	db *gorm.DB
}

func (s *gormBooks) Get(ctx context.Context, id uint) (*models.Book, error) {
	var b models.Book
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, notFound(err, ErrBookNotFound)
	}
	return &b, nil
}

func (s *gormBooks) GetForUpdate(ctx context.Context, id uint) (*models.Book, error) {
	var b models.Book
	if err := forUpdate(s.db.WithContext(ctx)).First(&b, id).Error; err != nil {
		return nil, notFound(err, ErrBookNotFound)
	}
	return &b, nil
}

func (s *gormBooks) List(ctx context.Context, search string) ([]BookListing, error) {
	q := s.db.WithContext(ctx).Model(&models.Book{}).
		Select("books.*, (SELECT COUNT(*) FROM loans WHERE loans.book_id = books.id) AS loan_count")
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(books.title) LIKE ? OR LOWER(books.author) LIKE ? OR LOWER(books.isbn) LIKE ?", like, like, like)
	}
	var rows []BookListing
	if err := q.Order("books.created_at DESC").Order("books.id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormBooks) Create(ctx context.Context, b *models.Book) error {
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *gormBooks) Update(ctx context.Context, b *models.Book) error {
	res := s.db.WithContext(ctx).Model(b).Select("*").Omit("id", "created_at", "deleted_at").Updates(b)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (s *gormBooks) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Book{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (s *gormBooks) AdjustAvailable(ctx context.Context, id uint, delta int) error {
	res := s.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", id).
		Where("available_copies + ? >= 0 AND available_copies + ? <= total_copies", delta, delta).
		Update("available_copies", gorm.Expr("available_copies + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCopiesOutOfRange
	}
	return nil
}
