package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0", true},
		{"12.34", true},
		{"-0.01", false},
	}
	for _, tc := range cases {
		err := ValidateAmount(decimal.RequireFromString(tc.in))
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestSum(t *testing.T) {
	if !Sum().Equal(decimal.Zero) {
		t.Fatal("empty sum should be zero")
	}
	got := Sum(decimal.RequireFromString("1200"), decimal.RequireFromString("-50"), decimal.RequireFromString("0.5"))
	if !got.Equal(decimal.RequireFromString("1150.5")) {
		t.Fatalf("unexpected sum %s", got)
	}
}

func TestMonthSummary(t *testing.T) {
	budget := MonthlyAmounts{6: decimal.NewFromInt(100)}
	expenses := map[int]decimal.Decimal{1: decimal.RequireFromString("30.5"), 2: decimal.NewFromInt(80)}

	s := NewMonthSummary(2024, 6, budget, expenses)
	if !s.BudgetSet || s.Days != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !s.Spent.Equal(decimal.RequireFromString("110.5")) {
		t.Fatalf("spent = %s", s.Spent)
	}
	if !s.Remaining.Equal(decimal.RequireFromString("-10.5")) || !s.Overspent() {
		t.Fatalf("remaining = %s", s.Remaining)
	}

	empty := NewMonthSummary(2024, 7, budget, nil)
	if empty.BudgetSet || !empty.Budget.IsZero() || empty.Overspent() {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}
