package models

import (
	"testing"
	"time"
)

func TestLoan_GetUserID(t *testing.T) {
	loan := &Loan{UserID: 42}
	if got := loan.GetUserID(); got != 42 {
		t.Errorf("GetUserID() = %d, want 42", got)
	}
}

func TestLoan_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		status LoanStatus
		due    time.Time
		want   bool
	}{
		{"borrowed past due", LoanBorrowed, now.Add(-time.Hour), true},
		{"borrowed not yet due", LoanBorrowed, now.Add(time.Hour), false},
		{"reserved past due", LoanReserved, now.Add(-time.Hour), false},
		{"returned past due", LoanReturned, now.Add(-time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Loan{Status: tt.status, DueAt: tt.due}
			if got := l.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLoanStatus(t *testing.T) {
	if st, ok := ParseLoanStatus("Borrowed"); !ok || st != LoanBorrowed {
		t.Errorf("expected borrowed, got %q %v", st, ok)
	}
	if _, ok := ParseLoanStatus("overdue"); ok {
		t.Error("overdue is not a stored status")
	}
	if got := LoanReserved.Label(); got != "Reserved" {
		t.Errorf("Label() = %q", got)
	}
}

func TestBook_EffectivePricing(t *testing.T) {
	b := &Book{Price: 2.5}
	tiers := b.EffectivePricing()
	if len(tiers) != 3 {
		t.Fatalf("expected 3 default tiers, got %d", len(tiers))
	}
	if tiers[1].Days != 14 || tiers[1].Price != 5 {
		t.Errorf("unexpected 2-week tier: %+v", tiers[1])
	}
	if tiers[2].Days != 30 || tiers[2].Price != 10 {
		t.Errorf("unexpected 1-month tier: %+v", tiers[2])
	}

	b.Pricing = PricingTiers{{Days: 3, Label: "Weekend", Price: 1}}
	if got := b.EffectivePricing(); len(got) != 1 || got[0].Label != "Weekend" {
		t.Errorf("configured pricing ignored: %+v", got)
	}
}

func TestPricingTiers_Match(t *testing.T) {
	tiers := DefaultPricing(1.99)
	if _, ok := tiers.Match(14, 3.98); !ok {
		t.Error("expected 14-day tier to match")
	}
	if _, ok := tiers.Match(14, 1.99); ok {
		t.Error("wrong price must not match")
	}
	if _, ok := tiers.Match(10, 1.99); ok {
		t.Error("unknown period must not match")
	}
}

func TestPricingTiers_ScanValue(t *testing.T) {
	in := PricingTiers{{Days: 7, Label: "1 Week", Price: 3}}
	v, err := in.Value()
	if err != nil {
		t.Fatal(err)
	}
	var out PricingTiers
	if err := out.Scan(v); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if err := out.Scan(nil); err != nil || out != nil {
		t.Errorf("nil scan: %+v %v", out, err)
	}
}

func TestLoan_JSONStatusLabel(t *testing.T) {
	b, err := json.Marshal(&Loan{ID: 3, Status: LoanBorrowed})
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "Borrowed" {
		t.Errorf("status = %v, want Borrowed", out["status"])
	}
	var st LoanStatus
	if err := json.Unmarshal([]byte(`"Reserved"`), &st); err != nil || st != LoanReserved {
		t.Errorf("unmarshal: %q %v", st, err)
	}
	if err := json.Unmarshal([]byte(`"lost"`), &st); err == nil {
		t.Error("expected error for unknown status")
	}
}
