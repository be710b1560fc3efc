package loans

import (
	"math"
	"time"

	"github.com/diewo77/bookbuddy/internal/models"
)

// DefaultFinePerDay is charged for each started day past the due date.
const DefaultFinePerDay = 0.5

// FinePolicy computes overdue fines. Both the fine charged at return and the
// live projection shown on profiles use Assess.
type FinePolicy struct {
	PerDay float64
}

// Assess returns the fine for a loan due at due and returned at now: every
// started 24h period past due costs PerDay. Rounded to cents.
func (p FinePolicy) Assess(due, now time.Time) float64 {
	if !now.After(due) {
		return 0
	}
	days := math.Ceil(now.Sub(due).Hours() / 24)
	return RoundCents(days * p.PerDay)
}

// Outstanding is the persisted balance plus what the open overdue loans would
// cost if returned at now.
func (p FinePolicy) Outstanding(balance float64, open []models.Loan, now time.Time) float64 {
	total := balance
	for i := range open {
		if open[i].IsOverdue(now) {
			total += p.Assess(open[i].DueAt, now)
		}
	}
	return RoundCents(total)
}

// RoundCents rounds a dollar amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
