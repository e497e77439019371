// Package ledgertest runs the ledger behaviour checks against any ledger.Store.
package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

// Run exercises store through the ledger façade. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s ledger.Store)
	}{
		{"YearsDoNotMix", yearsDoNotMix},
		{"UpsertYearReplaces", upsertYearReplaces},
		{"GetYearAbsentIsEmpty", getYearAbsentIsEmpty},
		{"ZeroMonthAbsentIsNoop", zeroMonthAbsentIsNoop},
		{"ZeroMonthExisting", zeroMonthExisting},
		{"QueryMonthExactMatch", queryMonthExactMatch},
		{"UpsertDayReplaces", upsertDayReplaces},
		{"QueryExpensesOrdered", queryExpensesOrdered},
		{"ResetScopeYear", resetScopeYear},
		{"ResetScopeMonth", resetScopeMonth},
		{"ResetAllIsolation", resetAllIsolation},
		{"DeleteCounts", deleteCounts},
		{"ConcurrentUpsertsOneRecord", concurrentUpsertsOneRecord},
		{"YearSummary", yearSummary},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

// D parses a decimal literal.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Amount returns a pointer to a decimal literal.
func Amount(s string) *decimal.Decimal {
	d := D(s)
	return &d
}

func equalAmounts(a, b map[int]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

func mustUpsertYear(t *testing.T, l *ledger.Ledger, user string, year int, m core.MonthlyAmounts) {
	t.Helper()
	got, err := l.UpsertYear(context.Background(), user, year, m)
	if err != nil {
		t.Fatalf("upsert year %d: %v", year, err)
	}
	if got != year {
		t.Fatalf("upsert year returned %d, want %d", got, year)
	}
}

func mustUpsertDay(t *testing.T, l *ledger.Ledger, user string, day core.Day, amount string) {
	t.Helper()
	got, err := l.UpsertDay(context.Background(), user, day, Amount(amount))
	if err != nil {
		t.Fatalf("upsert day %s: %v", day, err)
	}
	if !got.Equal(D(amount)) {
		t.Fatalf("upsert day returned %s, want %s", got, amount)
	}
}

func expectYear(t *testing.T, l *ledger.Ledger, user string, year int, want core.MonthlyAmounts) {
	t.Helper()
	got, err := l.GetYear(context.Background(), user, year)
	if err != nil {
		t.Fatalf("get year %d: %v", year, err)
	}
	if got == nil || !equalAmounts(got, want) {
		t.Fatalf("year %d: got %v, want %v", year, got, want)
	}
}

func expectMonth(t *testing.T, l *ledger.Ledger, user string, year, month int, want map[int]decimal.Decimal) {
	t.Helper()
	got, err := l.QueryMonth(context.Background(), user, year, month)
	if err != nil {
		t.Fatalf("query month %d-%d: %v", year, month, err)
	}
	if got == nil || !equalAmounts(got, want) {
		t.Fatalf("month %d-%d: got %v, want %v", year, month, got, want)
	}
}

func yearsDoNotMix(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	mustUpsertYear(t, l, "alice", 2024, core.MonthlyAmounts{1: D("100")})
	mustUpsertYear(t, l, "alice", 2025, core.MonthlyAmounts{2: D("200")})
	mustUpsertYear(t, l, "bob", 2024, core.MonthlyAmounts{3: D("300")})

	expectYear(t, l, "alice", 2024, core.MonthlyAmounts{1: D("100")})
	expectYear(t, l, "alice", 2025, core.MonthlyAmounts{2: D("200")})
	expectYear(t, l, "bob", 2024, core.MonthlyAmounts{3: D("300")})
}

func upsertYearReplaces(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	mustUpsertYear(t, l, "alice", 2024, core.MonthlyAmounts{1: D("100"), 2: D("200.50")})
	mustUpsertYear(t, l, "alice", 2024, core.MonthlyAmounts{3: D("300")})
	expectYear(t, l, "alice", 2024, core.MonthlyAmounts{3: D("300")})

	mustUpsertYear(t, l, "alice", 2024, core.MonthlyAmounts{})
	expectYear(t, l, "alice", 2024, core.MonthlyAmounts{})
}

func getYearAbsentIsEmpty(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	expectYear(t, l, "nobody", 2024, core.MonthlyAmounts{})
}

func zeroMonthAbsentIsNoop(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	if err := l.ResetScope(context.Background(), "alice", 2024, 6); err != nil {
		t.Fatalf("reset month: %v", err)
	}
	_, ok, err := s.GetBudget(context.Background(), "alice", 2024)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if ok {
		t.Fatal("zeroing a month must not create a budget record")
	}
}

func zeroMonthExisting(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	mustUpsertYear(t, l, "alice", 2024, core.MonthlyAmounts{6: D("500"), 7: D("1")})
	if err := ledger.NewBudgetLedger(s).ZeroMonth(context.Background(), "alice", 2024, 6); err != nil {
		t.Fatalf("zero month: %v", err)
	}
	expectYear(t, l, "alice", 2024, core.MonthlyAmounts{6: D("0"), 7: D("1")})

	if err := ledger.NewBudgetLedger(s).ZeroMonth(context.Background(), "alice", 2024, 9); err != nil {
		t.Fatalf("zero unset month: %v", err)
	}
	expectYear(t, l, "alice", 2024, core.MonthlyAmounts{6: D("0"), 7: D("1"), 9: D("0")})
}

func queryMonthExactMatch(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 1, 5), "1000")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 11, 5), "7")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 11, 12), "8")
	mustUpsertDay(t, l, "alice", core.NewDay(2023, 1, 5), "9")
	mustUpsertDay(t, l, "bob", core.NewDay(2024, 1, 6), "10")

	expectMonth(t, l, "alice", 2024, 1, map[int]decimal.Decimal{5: D("1000")})
	expectMonth(t, l, "alice", 2024, 11, map[int]decimal.Decimal{5: D("7"), 12: D("8")})
	expectMonth(t, l, "alice", 2024, 2, map[int]decimal.Decimal{})
}

func upsertDayReplaces(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	day := core.NewDay(2024, 6, 1)
	mustUpsertDay(t, l, "alice", day, "12.5")
	mustUpsertDay(t, l, "alice", day, "-3")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 6, 2), "0")
	expectMonth(t, l, "alice", 2024, 6, map[int]decimal.Decimal{1: D("-3"), 2: D("0")})
}

func queryExpensesOrdered(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	days := []core.Day{core.NewDay(2024, 3, 2), core.NewDay(2023, 12, 31), core.NewDay(2024, 1, 10), core.NewDay(2024, 3, 1)}
	for i, d := range days {
		mustUpsertDay(t, l, "alice", d, fmt.Sprint(i))
	}
	recs, err := s.QueryExpenses(context.Background(), "alice", core.AllTime())
	if err != nil {
		t.Fatalf("query expenses: %v", err)
	}
	want := []core.Day{core.NewDay(2023, 12, 31), core.NewDay(2024, 1, 10), core.NewDay(2024, 3, 1), core.NewDay(2024, 3, 2)}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, r := range recs {
		if r.Date != want[i] || r.UserID != "alice" {
			t.Fatalf("record %d: got %+v, want day %v", i, r, want[i])
		}
	}
}

func resetScopeYear(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := ledger.New(s)
	mustUpsertYear(t, l, "alice", 2024, core.MonthlyAmounts{1: D("100")})
	mustUpsertYear(t, l, "alice", 2025, core.MonthlyAmounts{1: D("150")})
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 1, 5), "10")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 7, 5), "11")
	mustUpsertDay(t, l, "alice", core.NewDay(2025, 1, 5), "12")

	if err := l.ResetScope(ctx, "alice", 2024, core.AllMonths); err != nil {
		t.Fatalf("reset year: %v", err)
	}
	expectYear(t, l, "alice", 2024, core.MonthlyAmounts{})
	expectMonth(t, l, "alice", 2024, 1, map[int]decimal.Decimal{})
	expectMonth(t, l, "alice", 2024, 7, map[int]decimal.Decimal{})
	expectYear(t, l, "alice", 2025, core.MonthlyAmounts{1: D("150")})
	expectMonth(t, l, "alice", 2025, 1, map[int]decimal.Decimal{5: D("12")})

	if err := l.ResetScope(ctx, "alice", 2024, core.AllMonths); err != nil {
		t.Fatalf("reset year twice: %v", err)
	}
}

func resetScopeMonth(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	mustUpsertYear(t, l, "alice", 2024, core.MonthlyAmounts{6: D("500"), 7: D("600")})
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 6, 1), "10")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 6, 30), "20")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 7, 1), "30")

	if err := l.ResetScope(context.Background(), "alice", 2024, 6); err != nil {
		t.Fatalf("reset month: %v", err)
	}
	expectYear(t, l, "alice", 2024, core.MonthlyAmounts{6: D("0"), 7: D("600")})
	expectMonth(t, l, "alice", 2024, 6, map[int]decimal.Decimal{})
	expectMonth(t, l, "alice", 2024, 7, map[int]decimal.Decimal{1: D("30")})
}

func resetAllIsolation(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	for _, user := range []string{"alice", "bob"} {
		mustUpsertYear(t, l, user, 2024, core.MonthlyAmounts{1: D("100")})
		mustUpsertYear(t, l, user, 2025, core.MonthlyAmounts{1: D("100")})
		mustUpsertDay(t, l, user, core.NewDay(2024, 1, 1), "1")
		mustUpsertDay(t, l, user, core.NewDay(2025, 2, 2), "2")
	}
	if err := l.ResetAll(context.Background(), "alice"); err != nil {
		t.Fatalf("reset all: %v", err)
	}
	expectYear(t, l, "alice", 2024, core.MonthlyAmounts{})
	expectYear(t, l, "alice", 2025, core.MonthlyAmounts{})
	expectMonth(t, l, "alice", 2024, 1, map[int]decimal.Decimal{})
	expectMonth(t, l, "alice", 2025, 2, map[int]decimal.Decimal{})

	expectYear(t, l, "bob", 2024, core.MonthlyAmounts{1: D("100")})
	expectYear(t, l, "bob", 2025, core.MonthlyAmounts{1: D("100")})
	expectMonth(t, l, "bob", 2024, 1, map[int]decimal.Decimal{1: D("1")})
	expectMonth(t, l, "bob", 2025, 2, map[int]decimal.Decimal{2: D("2")})
}

func deleteCounts(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	l := ledger.New(s)
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 1, 1), "1")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 1, 2), "1")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 2, 1), "1")
	mustUpsertDay(t, l, "alice", core.NewDay(2025, 2, 1), "1")

	expenses := ledger.NewExpenseLedger(s)
	n, err := expenses.DeleteMonth(ctx, "alice", 2024, 1)
	if err != nil || n != 2 {
		t.Fatalf("delete month: n=%d err=%v", n, err)
	}
	n, err = expenses.DeleteYear(ctx, "alice", 2024)
	if err != nil || n != 1 {
		t.Fatalf("delete year: n=%d err=%v", n, err)
	}
	n, err = expenses.DeleteAll(ctx, "alice")
	if err != nil || n != 1 {
		t.Fatalf("delete all: n=%d err=%v", n, err)
	}
	n, err = expenses.DeleteAll(ctx, "alice")
	if err != nil || n != 0 {
		t.Fatalf("delete all again: n=%d err=%v", n, err)
	}
}

func concurrentUpsertsOneRecord(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	day := core.NewDay(2024, 6, 1)
	const writers = 16

	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := D(fmt.Sprint(i))
			if _, err := l.UpsertDay(context.Background(), "alice", day, &amount); err != nil {
				errs <- err
			}
			if _, err := l.UpsertYear(context.Background(), "alice", 2024, core.MonthlyAmounts{6: amount}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent upsert: %v", err)
	}

	recs, err := s.QueryExpenses(context.Background(), "alice", core.AllTime())
	if err != nil {
		t.Fatalf("query expenses: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	if recs[0].Amount.LessThan(D("0")) || recs[0].Amount.GreaterThanOrEqual(D(fmt.Sprint(writers))) {
		t.Fatalf("unexpected stored amount %s", recs[0].Amount)
	}
	budget, err := l.GetYear(context.Background(), "alice", 2024)
	if err != nil || len(budget) != 1 {
		t.Fatalf("expected one budget month, got %v (err=%v)", budget, err)
	}
}

func yearSummary(t *testing.T, s ledger.Store) {
	l := ledger.New(s)
	mustUpsertYear(t, l, "alice", 2024, core.MonthlyAmounts{1: D("100"), 2: D("50")})
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 1, 1), "30")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 1, 2), "20")
	mustUpsertDay(t, l, "alice", core.NewDay(2024, 3, 2), "5")

	months, err := l.YearSummary(context.Background(), "alice", 2024)
	if err != nil {
		t.Fatalf("year summary: %v", err)
	}
	if len(months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(months))
	}
	jan := months[0]
	if jan.Month != 1 || !jan.Spent.Equal(D("50")) || !jan.Remaining.Equal(D("50")) || jan.Days != 2 {
		t.Fatalf("unexpected january %+v", jan)
	}
	mar := months[2]
	if mar.BudgetSet || !mar.Remaining.Equal(D("-5")) {
		t.Fatalf("unexpected march %+v", mar)
	}

	june, err := l.MonthSummary(context.Background(), "alice", 2024, 6)
	if err != nil || june.BudgetSet || !june.Spent.IsZero() {
		t.Fatalf("unexpected june %+v (err=%v)", june, err)
	}
}
