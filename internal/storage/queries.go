package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Budget struct {
	UserID         string
	Year           int64
	MonthlyAmounts string
}

type Expense struct {
	UserID string
	Year   int64
	Month  int64
	Day    int64
	Amount string
}

type User struct {
	ID           string
	PasswordHash string
	Name         string
	Email        string
	Phone        string
	Nickname     string
	CreatedAt    int64
}

const getBudget = `-- name: GetBudget :one
SELECT user_id, year, monthly_amounts FROM budgets
WHERE user_id = ? AND year = ?
`

func (q *Queries) GetBudget(ctx context.Context, userID string, year int64) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, userID, year)
	var b Budget
	err := row.Scan(&b.UserID, &b.Year, &b.MonthlyAmounts)
	return b, err
}

const upsertBudget = `-- name: UpsertBudget :exec
INSERT INTO budgets (user_id, year, monthly_amounts, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (user_id, year) DO UPDATE SET
    monthly_amounts = excluded.monthly_amounts,
    updated_at = excluded.updated_at
`

type UpsertBudgetParams struct {
	UserID         string
	Year           int64
	MonthlyAmounts string
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, arg.UserID, arg.Year, arg.MonthlyAmounts)
	return err
}

const zeroBudgetMonth = `-- name: ZeroBudgetMonth :execrows
UPDATE budgets
SET monthly_amounts = json_set(monthly_amounts, '$."' || ? || '"', '0'),
    updated_at = CURRENT_TIMESTAMP
WHERE user_id = ? AND year = ?
`

func (q *Queries) ZeroBudgetMonth(ctx context.Context, month int64, userID string, year int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, zeroBudgetMonth, month, userID, year)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudget = `-- name: DeleteBudget :exec
DELETE FROM budgets WHERE user_id = ? AND year = ?
`

func (q *Queries) DeleteBudget(ctx context.Context, userID string, year int64) error {
	_, err := q.db.ExecContext(ctx, deleteBudget, userID, year)
	return err
}

const deleteBudgetsByUser = `-- name: DeleteBudgetsByUser :execrows
DELETE FROM budgets WHERE user_id = ?
`

func (q *Queries) DeleteBudgetsByUser(ctx context.Context, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudgetsByUser, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const upsertExpense = `-- name: UpsertExpense :one
INSERT INTO expenses (user_id, year, month, day, amount, updated_at)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (user_id, year, month, day) DO UPDATE SET
    amount = excluded.amount,
    updated_at = excluded.updated_at
RETURNING user_id, year, month, day, amount
`

func (q *Queries) UpsertExpense(ctx context.Context, arg Expense) (Expense, error) {
	row := q.db.QueryRowContext(ctx, upsertExpense, arg.UserID, arg.Year, arg.Month, arg.Day, arg.Amount)
	var e Expense
	err := row.Scan(&e.UserID, &e.Year, &e.Month, &e.Day, &e.Amount)
	return e, err
}

const listExpensesByUser = `-- name: ListExpensesByUser :many
SELECT user_id, year, month, day, amount FROM expenses
WHERE user_id = ?
ORDER BY year, month, day
`

func (q *Queries) ListExpensesByUser(ctx context.Context, userID string) ([]Expense, error) {
	return q.listExpenses(ctx, listExpensesByUser, userID)
}

const listExpensesByYear = `-- name: ListExpensesByYear :many
SELECT user_id, year, month, day, amount FROM expenses
WHERE user_id = ? AND year = ?
ORDER BY year, month, day
`

func (q *Queries) ListExpensesByYear(ctx context.Context, userID string, year int64) ([]Expense, error) {
	return q.listExpenses(ctx, listExpensesByYear, userID, year)
}

const listExpensesByMonth = `-- name: ListExpensesByMonth :many
SELECT user_id, year, month, day, amount FROM expenses
WHERE user_id = ? AND year = ? AND month = ?
ORDER BY year, month, day
`

func (q *Queries) ListExpensesByMonth(ctx context.Context, userID string, year, month int64) ([]Expense, error) {
	return q.listExpenses(ctx, listExpensesByMonth, userID, year, month)
}

func (q *Queries) listExpenses(ctx context.Context, query string, args ...interface{}) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.UserID, &e.Year, &e.Month, &e.Day, &e.Amount); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteExpensesByUser = `-- name: DeleteExpensesByUser :execrows
DELETE FROM expenses WHERE user_id = ?
`

func (q *Queries) DeleteExpensesByUser(ctx context.Context, userID string) (int64, error) {
	return q.execRows(ctx, deleteExpensesByUser, userID)
}

const deleteExpensesByYear = `-- name: DeleteExpensesByYear :execrows
DELETE FROM expenses WHERE user_id = ? AND year = ?
`

func (q *Queries) DeleteExpensesByYear(ctx context.Context, userID string, year int64) (int64, error) {
	return q.execRows(ctx, deleteExpensesByYear, userID, year)
}

const deleteExpensesByMonth = `-- name: DeleteExpensesByMonth :execrows
DELETE FROM expenses WHERE user_id = ? AND year = ? AND month = ?
`

func (q *Queries) DeleteExpensesByMonth(ctx context.Context, userID string, year, month int64) (int64, error) {
	return q.execRows(ctx, deleteExpensesByMonth, userID, year, month)
}

func (q *Queries) execRows(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createUser = `-- name: CreateUser :execrows
INSERT INTO users (id, password_hash, name, email, phone, nickname, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING
`

func (q *Queries) CreateUser(ctx context.Context, arg User) (int64, error) {
	return q.execRows(ctx, createUser, arg.ID, arg.PasswordHash, arg.Name, arg.Email, arg.Phone, arg.Nickname, arg.CreatedAt)
}

const getUser = `-- name: GetUser :one
SELECT id, password_hash, name, email, phone, nickname, created_at FROM users
WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.PasswordHash, &u.Name, &u.Email, &u.Phone, &u.Nickname, &u.CreatedAt)
	return u, err
}
