// Package memory keeps ledger and user records in process memory, optionally
// snapshotting them to a JSON file.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

type budgetKey struct {
	userID string
	year   int
}

type expenseKey struct {
	userID string
	day    core.Day
}

// Store is safe for concurrent use. It does not support transactions.
type Store struct {
	mu       sync.RWMutex
	users    map[string]core.User
	budgets  map[budgetKey]core.MonthlyAmounts
	expenses map[expenseKey]decimal.Decimal
}

func New() *Store {
	return &Store{
		users:    make(map[string]core.User),
		budgets:  make(map[budgetKey]core.MonthlyAmounts),
		expenses: make(map[expenseKey]decimal.Decimal),
	}
}

func (s *Store) GetBudget(ctx context.Context, userID string, year int) (core.BudgetRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.BudgetRecord{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	months, ok := s.budgets[budgetKey{userID, year}]
	if !ok {
		return core.BudgetRecord{}, false, nil
	}
	return core.BudgetRecord{UserID: userID, Year: year, Months: months.Clone()}, true, nil
}

func (s *Store) UpsertBudget(ctx context.Context, rec core.BudgetRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetKey{rec.UserID, rec.Year}] = rec.Months.Clone()
	return nil
}

func (s *Store) ZeroBudgetMonth(ctx context.Context, userID string, year, month int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	months, ok := s.budgets[budgetKey{userID, year}]
	if !ok {
		return false, nil
	}
	months[month] = decimal.Zero
	return true, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID string, year int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.budgets, budgetKey{userID, year})
	return nil
}

func (s *Store) DeleteBudgets(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.budgets {
		if k.userID == userID {
			delete(s.budgets, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) UpsertExpense(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	if err := ctx.Err(); err != nil {
		return core.ExpenseRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[expenseKey{rec.UserID, rec.Date}] = rec.Amount
	return rec, nil
}

func (s *Store) QueryExpenses(ctx context.Context, userID string, scope core.Scope) ([]core.ExpenseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]core.ExpenseRecord, 0)
	for k, amount := range s.expenses {
		if k.userID == userID && scope.Contains(k.day) {
			out = append(out, core.ExpenseRecord{UserID: userID, Date: k.day, Amount: amount})
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Less(out[j].Date) })
	return out, nil
}

func (s *Store) DeleteExpenses(ctx context.Context, userID string, scope core.Scope) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.expenses {
		if k.userID == userID && scope.Contains(k.day) {
			delete(s.expenses, k)
			n++
		}
	}
	return n, nil
}

// CreateUser registers a new user. Ids are unique.
func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return core.ErrUserExists
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
