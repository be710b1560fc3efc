package store

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/models"
	"gorm.io/gorm"
)

// UserStore persists accounts. Emails are stored lower-cased.
type UserStore interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	GetForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateProfile(ctx context.Context, id uint, name, email string) (*models.User, error)
	UpdateRole(ctx context.Context, id uint, role gate.Role) (*models.User, error)
	AddFine(ctx context.Context, id uint, amount float64) error
	// ReduceFine lowers the balance by amount, never below zero.
	ReduceFine(ctx context.Context, id uint, amount float64) error
	ClearFine(ctx context.Context, id uint) error
}

type gormUsers struct {
	db *gorm.DB
}

// NormalizeEmail is the stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *gormUsers) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (s *gormUsers) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := forUpdate(s.db.WithContext(ctx)).First(&u, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (s *gormUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (s *gormUsers) emailTaken(ctx context.Context, email string, except uint) (bool, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *gormUsers) Create(ctx context.Context, u *models.User) error {
	u.Email = NormalizeEmail(u.Email)
	taken, err := s.emailTaken(ctx, u.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateEmail
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *gormUsers) UpdateProfile(ctx context.Context, id uint, name, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	taken, err := s.emailTaken(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"name": strings.TrimSpace(name), "email": email})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.Get(ctx, id)
}

func (s *gormUsers) UpdateRole(ctx context.Context, id uint, role gate.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, gate.ErrUnknownRole
	}
	if err := s.update(ctx, id, "role", role); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *gormUsers) AddFine(ctx context.Context, id uint, amount float64) error {
	return s.update(ctx, id, "fines", gorm.Expr("fines + ?", amount))
}

func (s *gormUsers) ReduceFine(ctx context.Context, id uint, amount float64) error {
	return s.update(ctx, id, "fines", gorm.Expr("CASE WHEN fines > ? THEN fines - ? ELSE 0 END", amount, amount))
}

func (s *gormUsers) ClearFine(ctx context.Context, id uint) error {
	return s.update(ctx, id, "fines", 0)
}

func (s *gormUsers) update(ctx context.Context, id uint, column string, value any) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
