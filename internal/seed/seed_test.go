package seed

import (
	"context"
	"errors"
	"testing"

	"budgetbook/internal/core"
	"budgetbook/internal/identity"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/services"
	"budgetbook/internal/storage/memory"
	"budgetbook/internal/users"
)

func newEnv(t *testing.T) (*services.LedgerService, *users.Service) {
	t.Helper()
	store := memory.New()
	svc := services.NewLedgerService(ledger.New(store), nil, log.Discard())
	return svc, users.NewService(store, identity.NewPlainCodec(""))
}

func TestGenerator_Run(t *testing.T) {
	ctx := context.Background()
	svc, accounts := newEnv(t)

	g := New(svc, accounts, 42, log.Discard())
	res, err := g.Run(ctx, Options{Users: 2, Year: 2024, DaysPerMonth: 3, Password: "secret"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Users) != 2 || res.Budgets != 2 {
		t.Fatalf("Run() = %+v, want 2 users and 2 budgets", res)
	}
	if res.Expenses != 2*12*3 {
		t.Errorf("Expenses = %d, want %d", res.Expenses, 2*12*3)
	}

	for _, id := range res.Users {
		if _, err := accounts.Login(ctx, id, "secret"); err != nil {
			t.Errorf("Login(%s) error = %v", id, err)
		}
		budget, err := svc.Budget(ctx, id, 2024)
		if err != nil {
			t.Fatalf("Budget() error = %v", err)
		}
		if len(budget) != 12 {
			t.Errorf("budget for %s has %d months, want 12", id, len(budget))
		}
		feb, err := svc.MonthExpenses(ctx, id, 2024, 2)
		if err != nil {
			t.Fatalf("MonthExpenses() error = %v", err)
		}
		if len(feb) != 3 {
			t.Errorf("february for %s has %d days, want 3", id, len(feb))
		}
	}
}

func TestGenerator_RunIsRepeatable(t *testing.T) {
	ctx := context.Background()
	svc, accounts := newEnv(t)

	first, err := New(svc, accounts, 7, log.Discard()).Run(ctx, Options{Users: 1, Year: 2023, DaysPerMonth: 1})
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	// Same seed produces the same ids; existing accounts are reused.
	second, err := New(svc, accounts, 7, log.Discard()).Run(ctx, Options{Users: 1, Year: 2023, DaysPerMonth: 1})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if first.Users[0] != second.Users[0] {
		t.Errorf("user ids differ: %s vs %s", first.Users[0], second.Users[0])
	}
}

func TestGenerator_RunValidation(t *testing.T) {
	svc, accounts := newEnv(t)
	g := New(svc, accounts, 1, log.Discard())

	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"zero year", Options{Users: 1}, core.ErrInvalidYear},
		{"no users", Options{Year: 2024}, core.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Run(context.Background(), tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerator_DaysCappedAtMonthLength(t *testing.T) {
	g := New(nil, nil, 3, log.Discard())
	got := g.days(2023, 2, 40)
	if len(got) != 28 {
		t.Fatalf("days() returned %d days, want 28", len(got))
	}
	for i, d := range got {
		if d != i+1 {
			t.Fatalf("days()[%d] = %d, want %d", i, d, i+1)
		}
	}
}
