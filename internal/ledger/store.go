// Package ledger holds the per-user budget and expense ledgers and the
// façade that composes them into reset commands.
package ledger

import (
	"context"

	"budgetbook/internal/core"
)

// BudgetStore persists one BudgetRecord per (user, year).
type BudgetStore interface {
	GetBudget(ctx context.Context, userID string, year int) (core.BudgetRecord, bool, error)
	// UpsertBudget replaces the whole month mapping, creating the record if needed.
	UpsertBudget(ctx context.Context, rec core.BudgetRecord) error
	// ZeroBudgetMonth sets one month to zero on an existing record in a single
	// store operation. It reports whether the record existed.
	ZeroBudgetMonth(ctx context.Context, userID string, year, month int) (bool, error)
	DeleteBudget(ctx context.Context, userID string, year int) error
	DeleteBudgets(ctx context.Context, userID string) (int64, error)
}

// ExpenseStore persists one ExpenseRecord per (user, day).
type ExpenseStore interface {
	// UpsertExpense stores the record and returns what was stored.
	UpsertExpense(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error)
	// QueryExpenses returns the user's records inside scope ordered by day.
	QueryExpenses(ctx context.Context, userID string, scope core.Scope) ([]core.ExpenseRecord, error)
	DeleteExpenses(ctx context.Context, userID string, scope core.Scope) (int64, error)
}

type Store interface {
	BudgetStore
	ExpenseStore
}

// Transactor is implemented by stores that can run several mutations atomically.
// fn must only use the Store it is handed.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Store) error) error
}
