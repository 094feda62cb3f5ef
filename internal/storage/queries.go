package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type UserRow struct {
	ID           int64
	Username     string
	PasswordHash string
	Salt         string
	CreatedAt    string
}

type ExpenseRow struct {
	ID          int64
	UserID      int64
	Date        string
	Category    string
	AmountCents int64
	Note        string
}

type GroupTotalRow struct {
	Key   string
	Total int64
}

const userExists = `-- name: UserExists :one
SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)
`

func (q *Queries) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, userExists, username).Scan(&exists)
	return exists, err
}

const createUser = `-- name: CreateUser :execresult
INSERT INTO users (username, password_hash, salt, created_at)
VALUES (?, ?, ?, ?)
`

type CreateUserParams struct {
	Username     string
	PasswordHash string
	Salt         string
	CreatedAt    string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, createUser, arg.Username, arg.PasswordHash, arg.Salt, arg.CreatedAt)
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT id, username, password_hash, salt, created_at FROM users WHERE username = ?
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByUsername, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.CreatedAt)
	return u, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, username, password_hash, salt, created_at FROM users WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByID, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.CreatedAt)
	return u, err
}

const createExpense = `-- name: CreateExpense :execresult
INSERT INTO expenses (user_id, date, category, amount_cents, note)
VALUES (?, ?, ?, ?, ?)
`

type CreateExpenseParams struct {
	UserID      int64
	Date        string
	Category    string
	AmountCents int64
	Note        string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, createExpense, arg.UserID, arg.Date, arg.Category, arg.AmountCents, arg.Note)
}

const updateExpense = `-- name: UpdateExpense :exec
UPDATE expenses
SET date = ?, category = ?, amount_cents = ?, note = ?
WHERE id = ? AND user_id = ?
`

type UpdateExpenseParams struct {
	Date        string
	Category    string
	AmountCents int64
	Note        string
	ID          int64
	UserID      int64
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) error {
	_, err := q.db.ExecContext(ctx, updateExpense, arg.Date, arg.Category, arg.AmountCents, arg.Note, arg.ID, arg.UserID)
	return err
}

const deleteExpense = `-- name: DeleteExpense :exec
DELETE FROM expenses WHERE id = ? AND user_id = ?
`

func (q *Queries) DeleteExpense(ctx context.Context, id, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteExpense, id, userID)
	return err
}

const upsertBudget = `-- name: UpsertBudget :exec
INSERT INTO budgets (user_id, month, amount_cents)
VALUES (?, ?, ?)
ON CONFLICT (user_id, month) DO UPDATE SET amount_cents = excluded.amount_cents
`

type UpsertBudgetParams struct {
	UserID      int64
	Month       string
	AmountCents int64
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, arg.UserID, arg.Month, arg.AmountCents)
	return err
}

const getBudget = `-- name: GetBudget :one
SELECT amount_cents FROM budgets WHERE user_id = ? AND month = ?
`

func (q *Queries) GetBudget(ctx context.Context, userID int64, month string) (int64, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx, getBudget, userID, month).Scan(&cents)
	return cents, err
}

const getMonthTotal = `-- name: GetMonthTotal :one
SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
WHERE user_id = ? AND date BETWEEN ? AND ?
`

type GetMonthTotalParams struct {
	UserID int64
	From   string
	To     string
}

func (q *Queries) GetMonthTotal(ctx context.Context, arg GetMonthTotalParams) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, getMonthTotal, arg.UserID, arg.From, arg.To).Scan(&total)
	return total, err
}

// The queries below carry a WHERE clause assembled from an expense filter.

const listExpensesPrefix = `SELECT id, user_id, date, category, amount_cents, note FROM expenses WHERE `

func (q *Queries) ListExpenses(ctx context.Context, where string, args []interface{}) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesPrefix+where+` ORDER BY date ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ExpenseRow
	for rows.Next() {
		var e ExpenseRow
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Category, &e.AmountCents, &e.Note); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const (
	categoryTotals = `SELECT category, SUM(amount_cents) AS total FROM expenses WHERE %s
GROUP BY category ORDER BY total DESC, category ASC`
	dailyTotals = `SELECT date, SUM(amount_cents) FROM expenses WHERE %s
GROUP BY date ORDER BY date ASC`
	monthlyTotals = `SELECT substr(date, 1, 7) AS month, SUM(amount_cents) FROM expenses WHERE %s
GROUP BY month ORDER BY month ASC`
)

func (q *Queries) GroupTotals(ctx context.Context, query string, args []interface{}) ([]GroupTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GroupTotalRow
	for rows.Next() {
		var g GroupTotalRow
		if err := rows.Scan(&g.Key, &g.Total); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}
