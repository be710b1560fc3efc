package models

import (
	"database/sql/driver"
	"fmt"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PricingTier is one borrowing option offered for a book.
type PricingTier struct {
	Days  int     `json:"days" yaml:"days"`
	Label string  `json:"label" yaml:"label"`
	Price float64 `json:"price" yaml:"price"`
}

// PricingTiers is stored as a JSON text column.
type PricingTiers []PricingTier

func (p PricingTiers) Value() (driver.Value, error) {
	if len(p) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]PricingTier(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PricingTiers) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("pricing: unsupported column type %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	var tiers []PricingTier
	if err := json.Unmarshal(raw, &tiers); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	*p = tiers
	return nil
}

// Match returns the tier offering the given period at the given cost. Costs are
// compared to the cent.
func (p PricingTiers) Match(days int, cost float64) (PricingTier, bool) {
	for _, t := range p {
		if t.Days == days && math.Abs(t.Price-cost) < 0.005 {
			return t, true
		}
	}
	return PricingTier{}, false
}

// DefaultPricing derives the standard tiers from a base price.
func DefaultPricing(base float64) PricingTiers {
	return PricingTiers{
		{Days: 7, Label: "1 Week", Price: base},
		{Days: 14, Label: "2 Weeks", Price: base * 2},
		{Days: 30, Label: "1 Month", Price: base * 4},
	}
}

// Book is a catalog entry with its copy counts. AvailableCopies stays within
// [0, TotalCopies]; only the loan engine moves it.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"size:255;not null;index" json:"title"`
	Author          string         `gorm:"size:255;not null" json:"author"`
	ISBN            string         `gorm:"column:isbn;size:32;not null;index" json:"isbn"`
	TotalCopies     int            `gorm:"not null" json:"totalCopies"`
	AvailableCopies int            `gorm:"not null" json:"copiesAvailable"`
	Category        string         `gorm:"size:100" json:"category"`
	Description     string         `gorm:"type:text" json:"description"`
	Price           float64        `gorm:"not null" json:"price"`
	Pricing         PricingTiers   `gorm:"type:text" json:"pricing"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectivePricing returns the configured tiers, or the defaults derived from
// Price when none are configured.
func (b *Book) EffectivePricing() PricingTiers {
	if len(b.Pricing) > 0 {
		return b.Pricing
	}
	return DefaultPricing(b.Price)
}
