package ledger

import (
	"context"
	"fmt"

	"budgetbook/internal/core"
)

// BudgetLedger manages the per-year monthly budget of each user.
type BudgetLedger struct {
	store BudgetStore
}

func NewBudgetLedger(store BudgetStore) *BudgetLedger {
	return &BudgetLedger{store: store}
}

// UpsertYear replaces the stored month mapping for the year and returns the year.
func (l *BudgetLedger) UpsertYear(ctx context.Context, userID string, year int, months core.MonthlyAmounts) (int, error) {
	if userID == "" {
		return 0, core.ErrMissingUser
	}
	if year == 0 {
		return 0, fmt.Errorf("%w: year is required", core.ErrInvalidRequest)
	}
	if months == nil {
		return 0, fmt.Errorf("%w: monthly budgets are required", core.ErrInvalidRequest)
	}
	if err := core.ValidateYear(year); err != nil {
		return 0, err
	}
	if err := months.Validate(); err != nil {
		return 0, err
	}
	rec := core.BudgetRecord{UserID: userID, Year: year, Months: months.Clone()}
	if err := l.store.UpsertBudget(ctx, rec); err != nil {
		return 0, core.NewStorageError("upsert budget", err)
	}
	return year, nil
}

// GetYear returns the stored mapping, or an empty one when nothing was stored.
func (l *BudgetLedger) GetYear(ctx context.Context, userID string, year int) (core.MonthlyAmounts, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	if err := core.ValidateYear(year); err != nil {
		return nil, err
	}
	rec, ok, err := l.store.GetBudget(ctx, userID, year)
	if err != nil {
		return nil, core.NewStorageError("get budget", err)
	}
	if !ok || rec.Months == nil {
		return core.MonthlyAmounts{}, nil
	}
	return rec.Months, nil
}

func (l *BudgetLedger) ResetYear(ctx context.Context, userID string, year int) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	if err := l.store.DeleteBudget(ctx, userID, year); err != nil {
		return core.NewStorageError("delete budget", err)
	}
	return nil
}

// ZeroMonth sets the month to zero on an existing record. A missing record stays missing.
func (l *BudgetLedger) ZeroMonth(ctx context.Context, userID string, year, month int) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	if err := core.ValidateMonth(month); err != nil {
		return err
	}
	if _, err := l.store.ZeroBudgetMonth(ctx, userID, year, month); err != nil {
		return core.NewStorageError("zero budget month", err)
	}
	return nil
}

// ResetAll deletes every budget record of the user.
func (l *BudgetLedger) ResetAll(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	if _, err := l.store.DeleteBudgets(ctx, userID); err != nil {
		return core.NewStorageError("delete budgets", err)
	}
	return nil
}
