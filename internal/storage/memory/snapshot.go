package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

type snapshot struct {
	Users    []snapshotUser    `json:"users"`
	Budgets  []snapshotBudget  `json:"budgets"`
	Expenses []snapshotExpense `json:"expenses"`
}

type snapshotUser struct {
	ID           string    `json:"id"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Nickname     string    `json:"nickname,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type snapshotBudget struct {
	UserID string                  `json:"user_id"`
	Year   int                     `json:"year"`
	Months map[int]decimal.Decimal `json:"months"`
}

type snapshotExpense struct {
	UserID string          `json:"user_id"`
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// NewFromFile loads a store from a snapshot written by Save.
// A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for _, u := range snap.Users {
		s.users[u.ID] = core.User{
			ID: u.ID, PasswordHash: u.PasswordHash, Name: u.Name,
			Email: u.Email, Phone: u.Phone, Nickname: u.Nickname, CreatedAt: u.CreatedAt,
		}
	}
	for _, b := range snap.Budgets {
		s.budgets[budgetKey{b.UserID, b.Year}] = core.MonthlyAmounts(b.Months).Clone()
	}
	for _, e := range snap.Expenses {
		day, err := core.ParseDay(e.Date)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot expense %q: %w", e.Date, err)
		}
		s.expenses[expenseKey{e.UserID, day}] = e.Amount
	}
	return s, nil
}

// Save writes the store to path atomically: a temp file is renamed over the target.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	snap := snapshot{
		Users:    make([]snapshotUser, 0, len(s.users)),
		Budgets:  make([]snapshotBudget, 0, len(s.budgets)),
		Expenses: make([]snapshotExpense, 0, len(s.expenses)),
	}
	for _, u := range s.users {
		snap.Users = append(snap.Users, snapshotUser{
			ID: u.ID, PasswordHash: u.PasswordHash, Name: u.Name,
			Email: u.Email, Phone: u.Phone, Nickname: u.Nickname, CreatedAt: u.CreatedAt,
		})
	}
	for k, months := range s.budgets {
		snap.Budgets = append(snap.Budgets, snapshotBudget{UserID: k.userID, Year: k.year, Months: months.Clone()})
	}
	for k, amount := range s.expenses {
		snap.Expenses = append(snap.Expenses, snapshotExpense{UserID: k.userID, Date: k.day.String(), Amount: amount})
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
