package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/ledger/ledgertest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLedgerBehaviour(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Store { return newTestRepo(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		repo.Close()
	}
	version, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	l := ledger.New(repo)
	if _, err := l.UpsertYear(ctx, "alice", 2024, core.MonthlyAmounts{1: ledgertest.D("100")}); err != nil {
		t.Fatal(err)
	}

	errAbort := errors.New("abort")
	err := repo.InTx(ctx, func(tx ledger.Store) error {
		if err := tx.DeleteBudget(ctx, "alice", 2024); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	months, err := l.GetYear(ctx, "alice", 2024)
	if err != nil || len(months) != 1 {
		t.Fatalf("delete should have been rolled back, got %v (err=%v)", months, err)
	}
}

func TestZeroMonthKeepsOtherMonths(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.UpsertBudget(ctx, core.BudgetRecord{UserID: "alice", Year: 2024, Months: core.MonthlyAmounts{
		6: ledgertest.D("500.75"), 11: ledgertest.D("20"),
	}}); err != nil {
		t.Fatal(err)
	}
	existed, err := repo.ZeroBudgetMonth(ctx, "alice", 2024, 6)
	if err != nil || !existed {
		t.Fatalf("zero month: existed=%v err=%v", existed, err)
	}
	existed, err = repo.ZeroBudgetMonth(ctx, "alice", 2030, 6)
	if err != nil || existed {
		t.Fatalf("zero month on absent record: existed=%v err=%v", existed, err)
	}
	rec, ok, err := repo.GetBudget(ctx, "alice", 2024)
	if err != nil || !ok {
		t.Fatalf("get budget: ok=%v err=%v", ok, err)
	}
	if !rec.Months[6].IsZero() || !rec.Months[11].Equal(ledgertest.D("20")) {
		t.Fatalf("unexpected months %v", rec.Months)
	}
}

func TestZeroMonthStoresSameJSONTypeAsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.UpsertBudget(ctx, core.BudgetRecord{UserID: "alice", Year: 2024, Months: core.MonthlyAmounts{
		1: ledgertest.D("100"), 6: ledgertest.D("500.75"),
	}}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.ZeroBudgetMonth(ctx, "alice", 2024, 6); err != nil {
		t.Fatal(err)
	}
	var upserted, zeroed, raw string
	err := repo.db.QueryRowContext(ctx,
		`SELECT json_type(monthly_amounts, '$."1"'), json_type(monthly_amounts, '$."6"'), json_extract(monthly_amounts, '$."6"')
		 FROM budgets WHERE user_id = ? AND year = ?`, "alice", 2024).Scan(&upserted, &zeroed, &raw)
	if err != nil {
		t.Fatal(err)
	}
	if upserted != zeroed {
		t.Fatalf("zeroed month stored as %s, upserted months as %s", zeroed, upserted)
	}
	if raw != "0" {
		t.Fatalf("zeroed month holds %q", raw)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := core.User{ID: "alice", PasswordHash: "hash", Name: "Alice", Nickname: "al"}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateUser(ctx, u); !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	got, err := repo.GetUser(ctx, "alice")
	if err != nil || got.Nickname != "al" || got.PasswordHash != "hash" || got.CreatedAt.IsZero() {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	if _, err := repo.GetUser(ctx, "bob"); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
