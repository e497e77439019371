package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/ledger/ledgertest"
)

func TestLedgerBehaviour(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Store { return New() })
}

func TestNotTransactional(t *testing.T) {
	var s ledger.Store = New()
	if _, ok := s.(ledger.Transactor); ok {
		t.Fatal("memory store must not advertise transactions")
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.CreateUser(ctx, core.User{ID: "alice", Name: "Alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, core.User{ID: "alice", Name: "Other"}); !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	u, err := s.GetUser(ctx, "alice")
	if err != nil || u.Name != "Alice" {
		t.Fatalf("get: %+v err=%v", u, err)
	}
	if _, err := s.GetUser(ctx, "bob"); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "ledger.json")

	s := New()
	l := ledger.New(s)
	if _, err := l.UpsertYear(ctx, "alice", 2024, core.MonthlyAmounts{1: ledgertest.D("100.25")}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.UpsertDay(ctx, "alice", core.NewDay(2024, 1, 5), ledgertest.Amount("12.5")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateUser(ctx, core.User{ID: "alice", PasswordHash: "hash", Name: "Alice"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	l2 := ledger.New(loaded)
	months, err := l2.GetYear(ctx, "alice", 2024)
	if err != nil || !months[1].Equal(ledgertest.D("100.25")) {
		t.Fatalf("budget not restored: %v err=%v", months, err)
	}
	days, err := l2.QueryMonth(ctx, "alice", 2024, 1)
	if err != nil || !days[5].Equal(ledgertest.D("12.5")) {
		t.Fatalf("expenses not restored: %v err=%v", days, err)
	}
	if u, err := loaded.GetUser(ctx, "alice"); err != nil || u.PasswordHash != "hash" {
		t.Fatalf("user not restored: %+v err=%v", u, err)
	}
}

func TestNewFromMissingFile(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil || s == nil {
		t.Fatalf("expected empty store, got %v", err)
	}
}
