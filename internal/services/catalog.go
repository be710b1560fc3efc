package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/bookbuddy/internal/apperr"
	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/diewo77/bookbuddy/internal/store"
	"github.com/diewo77/bookbuddy/validation"
)

var ErrBookHasActiveLoans = apperr.New(apperr.KindBusinessRule, "book_has_active_loans", "Cannot delete a book with active loans or reservations")

// BookInput is the writable part of a catalog entry. AvailableCopies is
// optional; nil means "derive it".
type BookInput struct {
	Title           string              `json:"title"`
	Author          string              `json:"author"`
	ISBN            string              `json:"isbn"`
	Category        string              `json:"category"`
	Description     string              `json:"description"`
	TotalCopies     int                 `json:"totalCopies"`
	AvailableCopies *int                `json:"availableCopies"`
	Price           float64             `json:"price"`
	Pricing         models.PricingTiers `json:"pricing"`
}

func (in BookInput) Validate() error {
	v := validation.Violations{}
	validation.Required("title", in.Title, v)
	validation.Required("author", in.Author, v)
	validation.Required("isbn", in.ISBN, v)
	validation.MinInt("totalCopies", in.TotalCopies, 1, v)
	if in.AvailableCopies != nil {
		validation.RangeInt("availableCopies", *in.AvailableCopies, 0, max(in.TotalCopies, 0), v)
	}
	validation.NonNegativeFloat("price", in.Price, v)
	for i, t := range in.Pricing {
		field := fmt.Sprintf("pricing[%d]", i)
		validation.MinInt(field+".days", t.Days, 1, v)
		validation.Required(field+".label", t.Label, v)
		validation.NonNegativeFloat(field+".price", t.Price, v)
	}
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}

func (in BookInput) apply(b *models.Book) {
	b.Title = strings.TrimSpace(in.Title)
	b.Author = strings.TrimSpace(in.Author)
	b.ISBN = strings.TrimSpace(in.ISBN)
	b.Category = strings.TrimSpace(in.Category)
	b.Description = in.Description
	b.TotalCopies = in.TotalCopies
	b.Price = in.Price
	b.Pricing = in.Pricing
}

type CatalogService struct {
	store store.Store
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{store: st}
}

func (s *CatalogService) List(ctx context.Context, search string) ([]store.BookListing, error) {
	return s.store.Books().List(ctx, strings.TrimSpace(search))
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Book, error) {
	return s.store.Books().Get(ctx, id)
}

// Create adds a book. Without an explicit count every copy starts on the shelf.
func (s *CatalogService) Create(ctx context.Context, in BookInput) (*models.Book, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	b := &models.Book{}
	in.apply(b)
	b.AvailableCopies = in.TotalCopies
	if in.AvailableCopies != nil {
		b.AvailableCopies = *in.AvailableCopies
	}
	if err := s.store.Books().Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces the book's fields. The shelf count is checked against the
// copies currently out on borrowed loans.
func (s *CatalogService) Update(ctx context.Context, id uint, in BookInput) (*models.Book, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out *models.Book
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.Books().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		lent, err := tx.Loans().CountForBook(ctx, id, models.LoanBorrowed)
		if err != nil {
			return err
		}
		if int64(in.TotalCopies) < lent {
			return apperr.Invalid(map[string]string{"totalCopies": "below_copies_on_loan"})
		}
		in.apply(b)
		if in.AvailableCopies == nil {
			b.AvailableCopies = max(in.TotalCopies-int(lent), 0)
		} else {
			if int64(*in.AvailableCopies)+lent > int64(in.TotalCopies) {
				return apperr.Invalid(map[string]string{"availableCopies": "exceeds_copies_on_shelf"})
			}
			b.AvailableCopies = *in.AvailableCopies
		}
		if err := tx.Books().Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete soft-deletes a book that has no open loans or reservations.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Books().GetForUpdate(ctx, id); err != nil {
			return err
		}
		open, err := tx.Loans().CountForBook(ctx, id, models.LoanBorrowed, models.LoanReserved)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrBookHasActiveLoans
		}
		return tx.Books().Delete(ctx, id)
	})
}
