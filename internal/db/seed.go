package db

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/bookbuddy/auth"
	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// SeedOptions controls what Seed inserts.
type SeedOptions struct {
	Catalog        []byte // YAML; the embedded starter catalog when nil
	AdminEmail     string
	AdminPassword  string
	BorrowingLimit int
}

type seedCatalog struct {
	Books []struct {
		Title       string               `yaml:"title"`
		Author      string               `yaml:"author"`
		ISBN        string               `yaml:"isbn"`
		Category    string               `yaml:"category"`
		Description string               `yaml:"description"`
		Copies      int                  `yaml:"copies"`
		Price       float64              `yaml:"price"`
		Pricing     []models.PricingTier `yaml:"pricing"`
	} `yaml:"books"`
}

// Seed inserts the starter catalog and, when credentials are given, an admin
// account. It is idempotent.
func Seed(db *gorm.DB, opts SeedOptions) error {
	raw := opts.Catalog
	if raw == nil {
		raw = defaultCatalog
	}
	var cat seedCatalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return fmt.Errorf("parse seed catalog: %w", err)
	}
	for _, b := range cat.Books {
		var existing models.Book
		err := db.Unscoped().Where("isbn = ?", b.ISBN).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		copies := max(b.Copies, 1)
		book := models.Book{
			Title:           b.Title,
			Author:          b.Author,
			ISBN:            b.ISBN,
			Category:        b.Category,
			Description:     b.Description,
			TotalCopies:     copies,
			AvailableCopies: copies,
			Price:           b.Price,
			Pricing:         b.Pricing,
		}
		if err := db.Create(&book).Error; err != nil {
			return fmt.Errorf("seed book %s: %w", b.ISBN, err)
		}
	}

	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	var admin models.User
	err := db.Where("email = ?", email).First(&admin).Error
	if err == nil {
		if admin.Role != gate.RoleAdmin {
			return db.Model(&admin).Update("role", gate.RoleAdmin).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return err
	}
	admin = models.User{
		Email:          email,
		Name:           "Administrator",
		PasswordHash:   hash,
		Role:           gate.RoleAdmin,
		BorrowingLimit: opts.BorrowingLimit,
	}
	return db.Create(&admin).Error
}
