// Package validation collects per-field violations for request input structs.
// The first violation recorded for a field wins, so checks can be chained
// from the most to the least fundamental.
package validation

import (
	"net/mail"
	"strings"
)

// Violations maps a JSON field name to a machine-readable reason.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) add(field, reason string) {
	if _, seen := v[field]; !seen {
		v[field] = reason
	}
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "required")
	}
}

func PositiveID(field string, id uint, v Violations) {
	if id == 0 {
		v.add(field, "required")
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v.add(field, "must_be_positive")
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v.add(field, "must_not_be_negative")
	}
}

func MinInt(field string, val, minVal int, v Violations) {
	if val < minVal {
		v.add(field, "too_small")
	}
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v.add(field, "out_of_range")
	}
}

// MinLength counts runes, not bytes.
func MinLength(field, value string, n int, v Violations) {
	if len([]rune(value)) < n {
		v.add(field, "too_short")
	}
}

// Email is a no-op on blank input; pair it with Required.
func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, "invalid_email")
	}
}
