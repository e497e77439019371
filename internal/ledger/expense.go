package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

// ExpenseLedger manages one spent amount per user and calendar day.
type ExpenseLedger struct {
	store ExpenseStore
}

func NewExpenseLedger(store ExpenseStore) *ExpenseLedger {
	return &ExpenseLedger{store: store}
}

// UpsertDay replaces or creates the day's amount and returns the stored amount.
// A nil amount is rejected; zero and negative amounts are accepted.
func (l *ExpenseLedger) UpsertDay(ctx context.Context, userID string, day core.Day, amount *decimal.Decimal) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, core.ErrMissingUser
	}
	if amount == nil {
		return decimal.Zero, fmt.Errorf("%w: amount is required", core.ErrInvalidRequest)
	}
	if err := day.Validate(); err != nil {
		return decimal.Zero, err
	}
	stored, err := l.store.UpsertExpense(ctx, core.ExpenseRecord{UserID: userID, Date: day, Amount: *amount})
	if err != nil {
		return decimal.Zero, core.NewStorageError("upsert expense", err)
	}
	return stored.Amount, nil
}

// QueryMonth returns the month's amounts keyed by day of month.
func (l *ExpenseLedger) QueryMonth(ctx context.Context, userID string, year, month int) (map[int]decimal.Decimal, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	scope := core.MonthScope(year, month)
	if err := l.checkScope(userID, scope); err != nil {
		return nil, err
	}
	recs, err := l.store.QueryExpenses(ctx, userID, scope)
	if err != nil {
		return nil, core.NewStorageError("query expenses", err)
	}
	out := make(map[int]decimal.Decimal, len(recs))
	for _, r := range recs {
		out[r.Date.Day] = r.Amount
	}
	return out, nil
}

// QueryYear returns the year's amounts keyed by month, then day.
func (l *ExpenseLedger) QueryYear(ctx context.Context, userID string, year int) (map[int]map[int]decimal.Decimal, error) {
	if err := core.ValidateYear(year); err != nil {
		return nil, err
	}
	scope := core.YearScope(year)
	if err := l.checkScope(userID, scope); err != nil {
		return nil, err
	}
	recs, err := l.store.QueryExpenses(ctx, userID, scope)
	if err != nil {
		return nil, core.NewStorageError("query expenses", err)
	}
	out := make(map[int]map[int]decimal.Decimal)
	for _, r := range recs {
		days, ok := out[r.Date.Month]
		if !ok {
			days = make(map[int]decimal.Decimal)
			out[r.Date.Month] = days
		}
		days[r.Date.Day] = r.Amount
	}
	return out, nil
}

func (l *ExpenseLedger) DeleteYear(ctx context.Context, userID string, year int) (int64, error) {
	if err := core.ValidateYear(year); err != nil {
		return 0, err
	}
	return l.deleteScope(ctx, userID, core.YearScope(year))
}

func (l *ExpenseLedger) DeleteMonth(ctx context.Context, userID string, year, month int) (int64, error) {
	if err := validateYearMonth(year, month); err != nil {
		return 0, err
	}
	return l.deleteScope(ctx, userID, core.MonthScope(year, month))
}

// DeleteAll removes every expense of the user.
func (l *ExpenseLedger) DeleteAll(ctx context.Context, userID string) (int64, error) {
	return l.deleteScope(ctx, userID, core.AllTime())
}

func (l *ExpenseLedger) deleteScope(ctx context.Context, userID string, scope core.Scope) (int64, error) {
	if err := l.checkScope(userID, scope); err != nil {
		return 0, err
	}
	n, err := l.store.DeleteExpenses(ctx, userID, scope)
	if err != nil {
		return 0, core.NewStorageError("delete expenses", err)
	}
	return n, nil
}

func (l *ExpenseLedger) checkScope(userID string, scope core.Scope) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	return scope.Validate()
}

func validateYearMonth(year, month int) error {
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	return core.ValidateMonth(month)
}
