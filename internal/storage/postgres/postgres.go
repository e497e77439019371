// Package postgres stores ledgers and users in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	*ledgerQueries
	pool *pgxpool.Pool
}

type ledgerQueries struct {
	db querier
}

// Open connects, pings and migrates the database.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if _, err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{ledgerQueries: &ledgerQueries{db: pool}, pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InTx implements ledger.Transactor.
func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Store) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&ledgerQueries{db: tx})
	})
}

func (q *ledgerQueries) GetBudget(ctx context.Context, userID string, year int) (core.BudgetRecord, bool, error) {
	var raw string
	err := q.db.QueryRow(ctx,
		`SELECT monthly_amounts::text FROM budgets WHERE user_id = $1 AND year = $2`,
		userID, year,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.BudgetRecord{}, false, nil
	}
	if err != nil {
		return core.BudgetRecord{}, false, fmt.Errorf("get budget: %w", err)
	}
	months := core.MonthlyAmounts{}
	if err := json.Unmarshal([]byte(raw), &months); err != nil {
		return core.BudgetRecord{}, false, fmt.Errorf("decode monthly amounts: %w", err)
	}
	return core.BudgetRecord{UserID: userID, Year: year, Months: months}, true, nil
}

func (q *ledgerQueries) UpsertBudget(ctx context.Context, rec core.BudgetRecord) error {
	months := rec.Months
	if months == nil {
		months = core.MonthlyAmounts{}
	}
	encoded, err := json.Marshal(months)
	if err != nil {
		return fmt.Errorf("encode monthly amounts: %w", err)
	}
	_, err = q.db.Exec(ctx, `
		INSERT INTO budgets (user_id, year, monthly_amounts, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (user_id, year) DO UPDATE
		SET monthly_amounts = EXCLUDED.monthly_amounts,
			updated_at = EXCLUDED.updated_at
	`, rec.UserID, rec.Year, string(encoded))
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to PostgreSQL",
		"user_id", rec.UserID,
		"year", rec.Year,
		"months", len(rec.Months))
	return nil
}

func (q *ledgerQueries) ZeroBudgetMonth(ctx context.Context, userID string, year, month int) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE budgets
		SET monthly_amounts = jsonb_set(monthly_amounts, ARRAY[$3::text], '"0"'::jsonb, true),
			updated_at = now()
		WHERE user_id = $1 AND year = $2
	`, userID, year, fmt.Sprint(month))
	if err != nil {
		return false, fmt.Errorf("zero budget month: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *ledgerQueries) DeleteBudget(ctx context.Context, userID string, year int) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND year = $2`, userID, year); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func (q *ledgerQueries) DeleteBudgets(ctx context.Context, userID string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete budgets: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *ledgerQueries) UpsertExpense(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	var stored string
	err := q.db.QueryRow(ctx, `
		INSERT INTO expenses (user_id, year, month, day, amount, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, now())
		ON CONFLICT (user_id, year, month, day) DO UPDATE
		SET amount = EXCLUDED.amount,
			updated_at = EXCLUDED.updated_at
		RETURNING amount::text
	`, rec.UserID, rec.Date.Year, rec.Date.Month, rec.Date.Day, rec.Amount.String()).Scan(&stored)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("upsert expense: %w", err)
	}
	amount, err := decimal.NewFromString(stored)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("decode expense amount %q: %w", stored, err)
	}

	slog.InfoContext(ctx, "Expense saved to PostgreSQL",
		"user_id", rec.UserID,
		"date", rec.Date.String(),
		"amount", stored)

	rec.Amount = amount
	return rec, nil
}

func scopeFilter(userID string, scope core.Scope) (string, []any) {
	switch {
	case scope.Year == 0:
		return `user_id = $1`, []any{userID}
	case scope.Month == core.AllMonths:
		return `user_id = $1 AND year = $2`, []any{userID, scope.Year}
	default:
		return `user_id = $1 AND year = $2 AND month = $3`, []any{userID, scope.Year, scope.Month}
	}
}

func (q *ledgerQueries) QueryExpenses(ctx context.Context, userID string, scope core.Scope) ([]core.ExpenseRecord, error) {
	where, args := scopeFilter(userID, scope)
	rows, err := q.db.Query(ctx,
		`SELECT year, month, day, amount::text FROM expenses WHERE `+where+` ORDER BY year, month, day`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses %s: %w", scope, err)
	}
	defer rows.Close()

	out := make([]core.ExpenseRecord, 0)
	for rows.Next() {
		var (
			year, month, day int
			raw              string
		)
		if err := rows.Scan(&year, &month, &day, &raw); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("decode expense amount %q: %w", raw, err)
		}
		out = append(out, core.ExpenseRecord{UserID: userID, Date: core.NewDay(year, month, day), Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query expenses %s: %w", scope, err)
	}
	return out, nil
}

func (q *ledgerQueries) DeleteExpenses(ctx context.Context, userID string, scope core.Scope) (int64, error) {
	where, args := scopeFilter(userID, scope)
	tag, err := q.db.Exec(ctx, `DELETE FROM expenses WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expenses %s: %w", scope, err)
	}
	return tag.RowsAffected(), nil
}

// CreateUser implements users.Store.
func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, password_hash, name, email, phone, nickname, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, u.ID, u.PasswordHash, u.Name, u.Email, u.Phone, u.Nickname, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserExists
	}
	return nil
}

// GetUser implements users.Store.
func (s *Store) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, password_hash, name, email, phone, nickname, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.PasswordHash, &u.Name, &u.Email, &u.Phone, &u.Nickname, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
