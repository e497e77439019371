package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

// Ledger composes the budget and expense ledgers over one store.
type Ledger struct {
	store    Store
	budgets  *BudgetLedger
	expenses *ExpenseLedger
}

func New(store Store) *Ledger {
	return &Ledger{
		store:    store,
		budgets:  NewBudgetLedger(store),
		expenses: NewExpenseLedger(store),
	}
}

// Transactional reports whether compound commands run in a single transaction.
func (l *Ledger) Transactional() bool {
	_, ok := l.store.(Transactor)
	return ok
}

func (l *Ledger) UpsertYear(ctx context.Context, userID string, year int, months core.MonthlyAmounts) (int, error) {
	return l.budgets.UpsertYear(ctx, userID, year, months)
}

func (l *Ledger) GetYear(ctx context.Context, userID string, year int) (core.MonthlyAmounts, error) {
	return l.budgets.GetYear(ctx, userID, year)
}

func (l *Ledger) UpsertDay(ctx context.Context, userID string, day core.Day, amount *decimal.Decimal) (decimal.Decimal, error) {
	return l.expenses.UpsertDay(ctx, userID, day, amount)
}

func (l *Ledger) QueryMonth(ctx context.Context, userID string, year, month int) (map[int]decimal.Decimal, error) {
	return l.expenses.QueryMonth(ctx, userID, year, month)
}

// ResetScope clears a whole year (month == core.AllMonths) or a single month.
// A whole year loses its budget record and expenses; a single month has its
// budget zeroed and its expenses deleted.
func (l *Ledger) ResetScope(ctx context.Context, userID string, year, month int) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	if month != core.AllMonths {
		if err := core.ValidateMonth(month); err != nil {
			return err
		}
	}

	budgetHalf := func(ctx context.Context, s Store) error {
		if month == core.AllMonths {
			return NewBudgetLedger(s).ResetYear(ctx, userID, year)
		}
		return NewBudgetLedger(s).ZeroMonth(ctx, userID, year, month)
	}
	expenseHalf := func(ctx context.Context, s Store) error {
		var err error
		if month == core.AllMonths {
			_, err = NewExpenseLedger(s).DeleteYear(ctx, userID, year)
		} else {
			_, err = NewExpenseLedger(s).DeleteMonth(ctx, userID, year, month)
		}
		return err
	}
	return l.compound(ctx, "reset scope", budgetHalf, expenseHalf)
}

// ResetAll deletes every budget and expense record of the user.
func (l *Ledger) ResetAll(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	budgetHalf := func(ctx context.Context, s Store) error {
		return NewBudgetLedger(s).ResetAll(ctx, userID)
	}
	expenseHalf := func(ctx context.Context, s Store) error {
		_, err := NewExpenseLedger(s).DeleteAll(ctx, userID)
		return err
	}
	return l.compound(ctx, "reset all", budgetHalf, expenseHalf)
}

// MonthSummary compares the month's budget with its recorded expenses.
func (l *Ledger) MonthSummary(ctx context.Context, userID string, year, month int) (core.MonthSummary, error) {
	budget, err := l.budgets.GetYear(ctx, userID, year)
	if err != nil {
		return core.MonthSummary{}, err
	}
	days, err := l.expenses.QueryMonth(ctx, userID, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	return core.NewMonthSummary(year, month, budget, days), nil
}

// YearSummary returns one summary per month, January first.
func (l *Ledger) YearSummary(ctx context.Context, userID string, year int) ([]core.MonthSummary, error) {
	budget, err := l.budgets.GetYear(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	byMonth, err := l.expenses.QueryYear(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	out := make([]core.MonthSummary, 0, 12)
	for month := 1; month <= 12; month++ {
		out = append(out, core.NewMonthSummary(year, month, budget, byMonth[month]))
	}
	return out, nil
}

type half func(ctx context.Context, s Store) error

// compound runs the budget half then the expense half. On a Transactor both
// run in one transaction; otherwise a failed expense half leaves the budget
// half applied and is reported as a PartialFailure.
func (l *Ledger) compound(ctx context.Context, op string, budgetHalf, expenseHalf half) error {
	if tx, ok := l.store.(Transactor); ok {
		err := tx.InTx(ctx, func(s Store) error {
			if err := budgetHalf(ctx, s); err != nil {
				return err
			}
			return expenseHalf(ctx, s)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", op, core.NewStorageError(op, err))
		}
		return nil
	}

	if err := budgetHalf(ctx, l.store); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := expenseHalf(ctx, l.store); err != nil {
		slog.ErrorContext(ctx, "Compound command partially applied",
			"operation", op, "applied", HalfBudget, "failed", HalfExpense, "error", err)
		return &PartialFailure{Op: op, Applied: HalfBudget, Failed: HalfExpense, Err: err}
	}
	return nil
}
