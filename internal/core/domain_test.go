package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDay(t *testing.T) {
	cases := []struct {
		in   string
		want Day
		ok   bool
	}{
		{"2024-6-1", Day{2024, 6, 1}, true},
		{"2024-06-01", Day{2024, 6, 1}, true},
		{" 2024-12-31 ", Day{2024, 12, 31}, true},
		{"2024-2-29", Day{2024, 2, 29}, true},
		{"2023-2-29", Day{}, false},
		{"2024-4-31", Day{}, false},
		{"2024-13-1", Day{}, false},
		{"2024-0-1", Day{}, false},
		{"2024-1-0", Day{}, false},
		{"0-1-1", Day{}, false},
		{"2024-+1-1", Day{}, false},
		{"2024-1", Day{}, false},
		{"abc", Day{}, false},
		{"", Day{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDay(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error, got %v", tc.in, got)
		}
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%q error %v should be an invalid request", tc.in, err)
		}
	}
}

func TestDayString(t *testing.T) {
	if got := NewDay(2024, 6, 1).String(); got != "2024-6-1" {
		t.Fatalf("got %q", got)
	}
	d, err := ParseDay(NewDay(2025, 11, 30).String())
	if err != nil || d != NewDay(2025, 11, 30) {
		t.Fatalf("round trip failed: %v %v", d, err)
	}
}

func TestDayLess(t *testing.T) {
	ordered := []Day{{2023, 12, 31}, {2024, 1, 1}, {2024, 1, 2}, {2024, 2, 1}}
	for i := 1; i < len(ordered); i++ {
		if !ordered[i-1].Less(ordered[i]) || ordered[i].Less(ordered[i-1]) {
			t.Fatalf("expected %v < %v", ordered[i-1], ordered[i])
		}
	}
}

func TestScopeContains(t *testing.T) {
	d := NewDay(2024, 6, 15)
	cases := []struct {
		scope Scope
		want  bool
	}{
		{AllTime(), true},
		{YearScope(2024), true},
		{YearScope(2023), false},
		{MonthScope(2024, 6), true},
		{MonthScope(2024, 7), false},
		{MonthScope(2023, 6), false},
	}
	for _, tc := range cases {
		if got := tc.scope.Contains(d); got != tc.want {
			t.Fatalf("%v contains %v: expected %v", tc.scope, d, tc.want)
		}
	}
}

func TestScopeValidate(t *testing.T) {
	valid := []Scope{AllTime(), YearScope(2024), MonthScope(2024, 12)}
	for _, s := range valid {
		if err := s.Validate(); err != nil {
			t.Fatalf("%v: unexpected error %v", s, err)
		}
	}
	invalid := []Scope{{Year: 0, Month: 3}, {Year: -1}, MonthScope(2024, 13)}
	for _, s := range invalid {
		if err := s.Validate(); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%v: expected invalid request, got %v", s, err)
		}
	}
}

func TestMonthlyAmountsValidate(t *testing.T) {
	ok := MonthlyAmounts{1: decimal.NewFromInt(100), 12: decimal.Zero}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (MonthlyAmounts{13: decimal.NewFromInt(1)}).Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected invalid month, got %v", err)
	}
	if err := (MonthlyAmounts{1: decimal.NewFromInt(-1)}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestMonthlyAmountsClone(t *testing.T) {
	m := MonthlyAmounts{1: decimal.NewFromInt(5)}
	c := m.Clone()
	c[2] = decimal.NewFromInt(7)
	if _, ok := m[2]; ok {
		t.Fatal("clone shares storage with original")
	}
	if len(c) != 2 {
		t.Fatalf("clone has %d months, want 2", len(c))
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("upsert budget", cause)
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("storage error should match both sentinel and cause: %v", err)
	}
	if again := NewStorageError("outer", err); again != err {
		t.Fatal("storage errors should not be wrapped twice")
	}
	if NewStorageError("noop", nil) != nil {
		t.Fatal("nil cause should stay nil")
	}
}

func TestExpiredIsMalformed(t *testing.T) {
	if !errors.Is(ErrExpiredCredential, ErrMalformedCredential) {
		t.Fatal("expired credentials must be reported as malformed")
	}
}

func TestValidateYear(t *testing.T) {
	cases := []struct {
		year int
		ok   bool
	}{
		{1, true},
		{2024, true},
		{MaxYear, true},
		{0, false},
		{-1, false},
		{MaxYear + 1, false},
		{1 << 31, false},
	}
	for _, tc := range cases {
		err := ValidateYear(tc.year)
		if tc.ok != (err == nil) {
			t.Fatalf("ValidateYear(%d) = %v", tc.year, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("ValidateYear(%d) should be an invalid request, got %v", tc.year, err)
		}
	}
}
