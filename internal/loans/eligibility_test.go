package loans

import (
	"testing"
	"time"

	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/diewo77/bookbuddy/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestEligibility_Decide(t *testing.T) {
	tests := []struct {
		name string
		in   Eligibility
		want error
	}{
		{"unknown user", Eligibility{}, store.ErrUserNotFound},
		{"overdue wins over limit", Eligibility{UserFound: true, Overdue: 1, Active: 5, Limit: 5}, ErrOverdueBlock},
		{"at limit", Eligibility{UserFound: true, Active: 5, Limit: 5}, ErrLimitReached},
		{"zero limit", Eligibility{UserFound: true, Limit: 0}, ErrLimitReached},
		{"below limit", Eligibility{UserFound: true, Active: 4, Limit: 5}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Decide()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEligibility_LimitMessage(t *testing.T) {
	err := Eligibility{UserFound: true, Active: 3, Limit: 3}.Decide()
	assert.EqualError(t, err, "You have reached your borrowing limit of 3 books.")
}

func TestAvailability_Decide(t *testing.T) {
	tests := []struct {
		name string
		in   availability
		want error
	}{
		{"free shelf", availability{Available: 2}, nil},
		{"empty shelf", availability{Available: 0}, ErrNoCopiesAvailable},
		{"queue covers shelf", availability{Available: 1, Reserved: 1}, ErrReservedForOthers},
		{"queue covers empty shelf", availability{Available: 0, Reserved: 2}, ErrReservedForOthers},
		{"spare copy beyond queue", availability{Available: 2, Reserved: 1}, nil},
		{"reserver takes held copy", availability{Available: 1, Reserved: 1, HolderReserved: true}, nil},
		{"reserver with empty shelf", availability{Available: 0, Reserved: 1, HolderReserved: true}, ErrNoCopiesAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.decide()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFinePolicy_Assess(t *testing.T) {
	p := FinePolicy{PerDay: 0.5}
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"early", due.Add(-time.Hour), 0},
		{"exactly due", due, 0},
		{"one second late", due.Add(time.Second), 0.5},
		{"one full day", due.Add(24 * time.Hour), 0.5},
		{"into second day", due.Add(25 * time.Hour), 1},
		{"ten days", due.Add(10 * 24 * time.Hour), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.Assess(due, tt.now), 1e-9)
		})
	}
}

func TestFinePolicy_Outstanding(t *testing.T) {
	p := FinePolicy{PerDay: 0.5}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	open := []models.Loan{
		{Status: models.LoanBorrowed, DueAt: now.Add(-49 * time.Hour)},
		{Status: models.LoanBorrowed, DueAt: now.Add(time.Hour)},
		{Status: models.LoanReserved, DueAt: now.Add(-72 * time.Hour)},
	}
	assert.InDelta(t, 2.0+1.5, p.Outstanding(2, open, now), 1e-9)
	assert.InDelta(t, 0.0, p.Outstanding(0, nil, now), 1e-9)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 0.3, RoundCents(0.1+0.2))
	assert.Equal(t, 1.01, RoundCents(1.005000001))
}
