package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

type budgetEntry struct {
	rec core.BudgetRecord
	ok  bool
}

// LedgerStore caches budget lookups and expense queries in front of a ledger.Store.
//
// Keys carry a per-user generation. Writes bump the generation before and
// after reaching the inner store, and a loaded value is only cached if the
// generation did not move while loading, so a read never serves data older
// than the last completed write.
type LedgerStore struct {
	inner    ledger.Store
	budgets  *LRUCache[budgetEntry]
	expenses *LRUCache[[]core.ExpenseRecord]
	group    singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

// txLedgerStore is returned when the inner store supports transactions.
type txLedgerStore struct {
	*LedgerStore
	tx ledger.Transactor
}

// NewLedgerStore wraps inner. The result implements ledger.Transactor exactly
// when inner does, and registers its caches with m when m is not nil.
func NewLedgerStore(inner ledger.Store, size int, ttl time.Duration, m *Manager) ledger.Store {
	s := &LedgerStore{
		inner:    inner,
		budgets:  NewLRUCache[budgetEntry](size, ttl),
		expenses: NewLRUCache[[]core.ExpenseRecord](size, ttl),
		gens:     make(map[string]uint64),
	}
	if m != nil {
		m.Register(s.budgets)
		m.Register(s.expenses)
	}
	if tx, ok := inner.(ledger.Transactor); ok {
		return &txLedgerStore{LedgerStore: s, tx: tx}
	}
	return s
}

func (s *LedgerStore) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

func (s *LedgerStore) bump(userID string) {
	s.mu.Lock()
	s.gens[userID]++
	s.mu.Unlock()
}

// write brackets a mutation with generation bumps.
func (s *LedgerStore) write(userID string, fn func() error) error {
	s.bump(userID)
	defer s.bump(userID)
	return fn()
}

func budgetKey(gen uint64, userID string, year int) string {
	return "b:" + strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(year) + ":" + userID
}

func expenseKey(gen uint64, userID string, scope core.Scope) string {
	return "e:" + strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(scope.Year) + ":" +
		strconv.Itoa(scope.Month) + ":" + userID
}

func (s *LedgerStore) GetBudget(ctx context.Context, userID string, year int) (core.BudgetRecord, bool, error) {
	gen := s.generation(userID)
	key := budgetKey(gen, userID, year)
	if e, ok := s.budgets.Get(key); ok {
		return e.rec.Clone(), e.ok, nil
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		rec, ok, err := s.inner.GetBudget(ctx, userID, year)
		if err != nil {
			return nil, err
		}
		e := budgetEntry{rec: rec, ok: ok}
		if s.generation(userID) == gen {
			s.budgets.Set(key, budgetEntry{rec: rec.Clone(), ok: ok})
		}
		return e, nil
	})
	if err != nil {
		return core.BudgetRecord{}, false, err
	}
	e := v.(budgetEntry)
	return e.rec.Clone(), e.ok, nil
}

func (s *LedgerStore) QueryExpenses(ctx context.Context, userID string, scope core.Scope) ([]core.ExpenseRecord, error) {
	gen := s.generation(userID)
	key := expenseKey(gen, userID, scope)
	if recs, ok := s.expenses.Get(key); ok {
		return append([]core.ExpenseRecord(nil), recs...), nil
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		recs, err := s.inner.QueryExpenses(ctx, userID, scope)
		if err != nil {
			return nil, err
		}
		if s.generation(userID) == gen {
			s.expenses.Set(key, append([]core.ExpenseRecord(nil), recs...))
		}
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]core.ExpenseRecord{}, v.([]core.ExpenseRecord)...), nil
}

func (s *LedgerStore) UpsertBudget(ctx context.Context, rec core.BudgetRecord) error {
	return s.write(rec.UserID, func() error { return s.inner.UpsertBudget(ctx, rec) })
}

func (s *LedgerStore) ZeroBudgetMonth(ctx context.Context, userID string, year, month int) (bool, error) {
	var existed bool
	err := s.write(userID, func() error {
		var err error
		existed, err = s.inner.ZeroBudgetMonth(ctx, userID, year, month)
		return err
	})
	return existed, err
}

func (s *LedgerStore) DeleteBudget(ctx context.Context, userID string, year int) error {
	return s.write(userID, func() error { return s.inner.DeleteBudget(ctx, userID, year) })
}

func (s *LedgerStore) DeleteBudgets(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.write(userID, func() error {
		var err error
		n, err = s.inner.DeleteBudgets(ctx, userID)
		return err
	})
	return n, err
}

func (s *LedgerStore) UpsertExpense(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	var stored core.ExpenseRecord
	err := s.write(rec.UserID, func() error {
		var err error
		stored, err = s.inner.UpsertExpense(ctx, rec)
		return err
	})
	return stored, err
}

func (s *LedgerStore) DeleteExpenses(ctx context.Context, userID string, scope core.Scope) (int64, error) {
	var n int64
	err := s.write(userID, func() error {
		var err error
		n, err = s.inner.DeleteExpenses(ctx, userID, scope)
		return err
	})
	return n, err
}

// Stats reports usage of the budget and expense caches.
func (s *LedgerStore) Stats() (budgets, expenses Stats) {
	return s.budgets.Stats(), s.expenses.Stats()
}

// Ping forwards to the inner store when it can be pinged.
func (s *LedgerStore) Ping(ctx context.Context) error {
	if p, ok := s.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// InTx runs fn in the inner store's transaction. Users written inside the
// transaction get their generation bumped again once it has finished, so
// nothing read before the commit stays cached.
func (s *txLedgerStore) InTx(ctx context.Context, fn func(tx ledger.Store) error) error {
	touched := make(map[string]struct{})
	defer func() {
		for userID := range touched {
			s.bump(userID)
		}
	}()
	return s.tx.InTx(ctx, func(tx ledger.Store) error {
		return fn(&writeThrough{LedgerStore: s.LedgerStore, inner: tx, touched: touched})
	})
}

// writeThrough serves a transaction: reads bypass the cache, writes bump generations.
type writeThrough struct {
	*LedgerStore
	inner   ledger.Store
	touched map[string]struct{}
}

func (w *writeThrough) track(userID string, fn func() error) error {
	w.touched[userID] = struct{}{}
	return w.write(userID, fn)
}

func (w *writeThrough) GetBudget(ctx context.Context, userID string, year int) (core.BudgetRecord, bool, error) {
	return w.inner.GetBudget(ctx, userID, year)
}

func (w *writeThrough) QueryExpenses(ctx context.Context, userID string, scope core.Scope) ([]core.ExpenseRecord, error) {
	return w.inner.QueryExpenses(ctx, userID, scope)
}

func (w *writeThrough) UpsertBudget(ctx context.Context, rec core.BudgetRecord) error {
	return w.track(rec.UserID, func() error { return w.inner.UpsertBudget(ctx, rec) })
}

func (w *writeThrough) ZeroBudgetMonth(ctx context.Context, userID string, year, month int) (bool, error) {
	var existed bool
	err := w.track(userID, func() error {
		var err error
		existed, err = w.inner.ZeroBudgetMonth(ctx, userID, year, month)
		return err
	})
	return existed, err
}

func (w *writeThrough) DeleteBudget(ctx context.Context, userID string, year int) error {
	return w.track(userID, func() error { return w.inner.DeleteBudget(ctx, userID, year) })
}

func (w *writeThrough) DeleteBudgets(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := w.track(userID, func() error {
		var err error
		n, err = w.inner.DeleteBudgets(ctx, userID)
		return err
	})
	return n, err
}

func (w *writeThrough) UpsertExpense(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	var stored core.ExpenseRecord
	err := w.track(rec.UserID, func() error {
		var err error
		stored, err = w.inner.UpsertExpense(ctx, rec)
		return err
	})
	return stored, err
}

func (w *writeThrough) DeleteExpenses(ctx context.Context, userID string, scope core.Scope) (int64, error) {
	var n int64
	err := w.track(userID, func() error {
		var err error
		n, err = w.inner.DeleteExpenses(ctx, userID, scope)
		return err
	})
	return n, err
}
