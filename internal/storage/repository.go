package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable ledger and user store. Compound ledger
// commands run inside a single SQLite transaction.
type SQLiteRepository struct {
	*ledgerQueries
	db *sql.DB
}

// ledgerQueries implements ledger.Store over a connection or a transaction.
type ledgerQueries struct {
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	repo := &SQLiteRepository{
		ledgerQueries: &ledgerQueries{queries: New(db)},
		db:            db,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InTx implements ledger.Transactor.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(tx ledger.Store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&ledgerQueries{queries: r.queries.WithTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (q *ledgerQueries) GetBudget(ctx context.Context, userID string, year int) (core.BudgetRecord, bool, error) {
	b, err := q.queries.GetBudget(ctx, userID, int64(year))
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetRecord{}, false, nil
	}
	if err != nil {
		return core.BudgetRecord{}, false, fmt.Errorf("get budget: %w", err)
	}
	months, err := decodeMonths(b.MonthlyAmounts)
	if err != nil {
		return core.BudgetRecord{}, false, err
	}
	return core.BudgetRecord{UserID: b.UserID, Year: int(b.Year), Months: months}, true, nil
}

func (q *ledgerQueries) UpsertBudget(ctx context.Context, rec core.BudgetRecord) error {
	encoded, err := encodeMonths(rec.Months)
	if err != nil {
		return err
	}
	err = q.queries.UpsertBudget(ctx, UpsertBudgetParams{
		UserID:         rec.UserID,
		Year:           int64(rec.Year),
		MonthlyAmounts: encoded,
	})
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"user_id", rec.UserID,
		"year", rec.Year,
		"months", len(rec.Months))
	return nil
}

func (q *ledgerQueries) ZeroBudgetMonth(ctx context.Context, userID string, year, month int) (bool, error) {
	n, err := q.queries.ZeroBudgetMonth(ctx, int64(month), userID, int64(year))
	if err != nil {
		return false, fmt.Errorf("zero budget month: %w", err)
	}
	return n > 0, nil
}

func (q *ledgerQueries) DeleteBudget(ctx context.Context, userID string, year int) error {
	if err := q.queries.DeleteBudget(ctx, userID, int64(year)); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func (q *ledgerQueries) DeleteBudgets(ctx context.Context, userID string) (int64, error) {
	n, err := q.queries.DeleteBudgetsByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete budgets: %w", err)
	}
	return n, nil
}

func (q *ledgerQueries) UpsertExpense(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	e, err := q.queries.UpsertExpense(ctx, Expense{
		UserID: rec.UserID,
		Year:   int64(rec.Date.Year),
		Month:  int64(rec.Date.Month),
		Day:    int64(rec.Date.Day),
		Amount: rec.Amount.String(),
	})
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("upsert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"user_id", e.UserID,
		"date", rec.Date.String(),
		"amount", e.Amount)

	return toExpenseRecord(e)
}

func (q *ledgerQueries) QueryExpenses(ctx context.Context, userID string, scope core.Scope) ([]core.ExpenseRecord, error) {
	var (
		rows []Expense
		err  error
	)
	switch {
	case scope.Year == 0:
		rows, err = q.queries.ListExpensesByUser(ctx, userID)
	case scope.Month == core.AllMonths:
		rows, err = q.queries.ListExpensesByYear(ctx, userID, int64(scope.Year))
	default:
		rows, err = q.queries.ListExpensesByMonth(ctx, userID, int64(scope.Year), int64(scope.Month))
	}
	if err != nil {
		return nil, fmt.Errorf("query expenses %s: %w", scope, err)
	}
	out := make([]core.ExpenseRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toExpenseRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (q *ledgerQueries) DeleteExpenses(ctx context.Context, userID string, scope core.Scope) (int64, error) {
	var (
		n   int64
		err error
	)
	switch {
	case scope.Year == 0:
		n, err = q.queries.DeleteExpensesByUser(ctx, userID)
	case scope.Month == core.AllMonths:
		n, err = q.queries.DeleteExpensesByYear(ctx, userID, int64(scope.Year))
	default:
		n, err = q.queries.DeleteExpensesByMonth(ctx, userID, int64(scope.Year), int64(scope.Month))
	}
	if err != nil {
		return 0, fmt.Errorf("delete expenses %s: %w", scope, err)
	}
	return n, nil
}

// CreateUser implements users.Store.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	n, err := r.queries.CreateUser(ctx, User{
		ID:           u.ID,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Nickname:     u.Nickname,
		CreatedAt:    u.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if n == 0 {
		return core.ErrUserExists
	}
	return nil
}

// GetUser implements users.Store.
func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return core.User{
		ID:           u.ID,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Nickname:     u.Nickname,
		CreatedAt:    time.Unix(u.CreatedAt, 0),
	}, nil
}

func toExpenseRecord(e Expense) (core.ExpenseRecord, error) {
	amount, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("decode expense amount %q: %w", e.Amount, err)
	}
	return core.ExpenseRecord{
		UserID: e.UserID,
		Date:   core.NewDay(int(e.Year), int(e.Month), int(e.Day)),
		Amount: amount,
	}, nil
}

func encodeMonths(m core.MonthlyAmounts) (string, error) {
	if m == nil {
		m = core.MonthlyAmounts{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode monthly amounts: %w", err)
	}
	return string(b), nil
}

func decodeMonths(s string) (core.MonthlyAmounts, error) {
	m := core.MonthlyAmounts{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode monthly amounts: %w", err)
	}
	return m, nil
}
