package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expenses/internal/auth"
	"expenses/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrConstraint wraps CHECK and UNIQUE violations reported by SQLite.
var ErrConstraint = errors.New("constraint violation")

const defaultBusyTimeout = 5 * time.Second

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

type Option func(*options)

type options struct {
	busyTimeout time.Duration
}

// WithBusyTimeout sets how long a statement waits on a locked database file.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = d
	}
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies the schema. The pool holds a single connection.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	o := options{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", dbPath, o.busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
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

// ReadSnapshot runs fn against a repository bound to one transaction, so every
// read inside fn sees the same state of the database. The transaction is
// always rolled back; fn must only read.
func (r *SQLiteRepository) ReadSnapshot(ctx context.Context, fn func(*SQLiteRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	return fn(&SQLiteRepository{db: r.db, queries: r.queries.WithTx(tx)})
}

// CreateUser registers a new account. It reports created=false, with a nil
// error, for blank credentials or an existing username.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, password string) (int64, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, false, nil
	}

	exists, err := r.queries.UserExists(ctx, username)
	if err != nil {
		return 0, false, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return 0, false, nil
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return 0, false, err
	}

	res, err := r.queries.CreateUser(ctx, CreateUserParams{
		Username:     username,
		PasswordHash: auth.HashPassword(password, salt),
		Salt:         salt,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		if isConstraint(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id)
	return id, true, nil
}

// Authenticate returns the user id when username and password match.
func (r *SQLiteRepository) Authenticate(ctx context.Context, username, password string) (int64, bool, error) {
	u, err := r.queries.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get user: %w", err)
	}
	if !auth.VerifyPassword(password, u.Salt, u.PasswordHash) {
		return 0, false, nil
	}
	return u.ID, true, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, bool, error) {
	u, err := r.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, false, nil
	}
	if err != nil {
		return core.User{}, false, fmt.Errorf("get user %d: %w", id, err)
	}

	createdAt, err := time.Parse(time.RFC3339, u.CreatedAt)
	if err != nil {
		return core.User{}, false, fmt.Errorf("parse created_at for user %d: %w", id, err)
	}

	return core.User{ID: u.ID, Username: u.Username, CreatedAt: createdAt}, true, nil
}

// AddExpense inserts an expense. A negative amount fails the table CHECK and
// returns an error wrapping ErrConstraint.
func (r *SQLiteRepository) AddExpense(ctx context.Context, userID int64, date core.Date, category string, amount core.Money, note string) (int64, error) {
	res, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		UserID:      userID,
		Date:        date.String(),
		Category:    category,
		AmountCents: amount.Cents,
		Note:        note,
	})
	if err != nil {
		return 0, wrapWriteErr("create expense", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user_id", userID,
		"date", date.String(),
		"category", category,
		"amount_cents", amount.Cents)

	return id, nil
}

// QueryExpenses returns the user's expenses matching filter, ordered by date
// then id.
func (r *SQLiteRepository) QueryExpenses(ctx context.Context, userID int64, filter core.ExpenseFilter) ([]core.Expense, error) {
	where, args := filterClause(userID, filter)
	rows, err := r.queries.ListExpenses(ctx, where, args)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", row.ID, err)
		}
		expenses = append(expenses, core.Expense{
			ID:       row.ID,
			UserID:   row.UserID,
			Date:     d,
			Category: row.Category,
			Amount:   core.Money{Cents: row.AmountCents},
			Note:     row.Note,
		})
	}
	return expenses, nil
}

// DeleteExpense removes an expense owned by userID. Ids that do not exist or
// belong to another user are ignored.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, expenseID int64) error {
	if err := r.queries.DeleteExpense(ctx, expenseID, userID); err != nil {
		return fmt.Errorf("delete expense %d: %w", expenseID, err)
	}
	slog.InfoContext(ctx, "Expense delete requested", "id", expenseID, "user_id", userID)
	return nil
}

// UpdateExpense replaces every mutable field of an expense owned by userID.
// Like DeleteExpense it is a silent no-op for foreign or missing ids.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID, expenseID int64, date core.Date, category string, amount core.Money, note string) error {
	err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		Date:        date.String(),
		Category:    category,
		AmountCents: amount.Cents,
		Note:        note,
		ID:          expenseID,
		UserID:      userID,
	})
	if err != nil {
		return wrapWriteErr(fmt.Sprintf("update expense %d", expenseID), err)
	}
	return nil
}

// SetBudget creates or replaces the budget for (userID, month).
func (r *SQLiteRepository) SetBudget(ctx context.Context, userID int64, month core.Month, amount core.Money) error {
	err := r.queries.UpsertBudget(ctx, UpsertBudgetParams{
		UserID:      userID,
		Month:       month.String(),
		AmountCents: amount.Cents,
	})
	if err != nil {
		return wrapWriteErr("set budget", err)
	}
	slog.InfoContext(ctx, "Budget set", "user_id", userID, "month", month.String(), "amount_cents", amount.Cents)
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID int64, month core.Month) (core.Money, bool, error) {
	cents, err := r.queries.GetBudget(ctx, userID, month.String())
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, false, nil
	}
	if err != nil {
		return core.Money{}, false, fmt.Errorf("get budget: %w", err)
	}
	return core.Money{Cents: cents}, true, nil
}

// GetMonthTotal sums the user's expenses between YYYY-MM-01 and YYYY-MM-31.
func (r *SQLiteRepository) GetMonthTotal(ctx context.Context, userID int64, month core.Month) (core.Money, error) {
	total, err := r.queries.GetMonthTotal(ctx, GetMonthTotalParams{
		UserID: userID,
		From:   month.FirstDay().String(),
		To:     month.LenientLastDay(),
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("get month total: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// GetTopCategory returns the category with the largest total in the optional
// date range. Ties go to the alphabetically first category.
func (r *SQLiteRepository) GetTopCategory(ctx context.Context, userID int64, start, end *core.Date) (core.CategoryTotal, bool, error) {
	where, args := filterClause(userID, core.ExpenseFilter{Start: start, End: end})
	rows, err := r.queries.GroupTotals(ctx, fmt.Sprintf(categoryTotals, where)+" LIMIT 1", args)
	if err != nil {
		return core.CategoryTotal{}, false, fmt.Errorf("get top category: %w", err)
	}
	if len(rows) == 0 {
		return core.CategoryTotal{}, false, nil
	}
	return core.CategoryTotal{Category: rows[0].Key, Amount: core.Money{Cents: rows[0].Total}}, true, nil
}

// CategoryTotals groups filtered expenses by category, largest first.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, userID int64, filter core.ExpenseFilter) ([]core.CategoryTotal, error) {
	where, args := filterClause(userID, filter)
	rows, err := r.queries.GroupTotals(ctx, fmt.Sprintf(categoryTotals, where), args)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	out := make([]core.CategoryTotal, len(rows))
	for i, row := range rows {
		out[i] = core.CategoryTotal{Category: row.Key, Amount: core.Money{Cents: row.Total}}
	}
	return out, nil
}

// DailyTotals groups filtered expenses by date in ascending order.
func (r *SQLiteRepository) DailyTotals(ctx context.Context, userID int64, filter core.ExpenseFilter) ([]core.DailyTotal, error) {
	where, args := filterClause(userID, filter)
	rows, err := r.queries.GroupTotals(ctx, fmt.Sprintf(dailyTotals, where), args)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	out := make([]core.DailyTotal, len(rows))
	for i, row := range rows {
		d, err := core.ParseDate(row.Key)
		if err != nil {
			return nil, err
		}
		out[i] = core.DailyTotal{Date: d, Amount: core.Money{Cents: row.Total}}
	}
	return out, nil
}

// MonthlyTotals groups filtered expenses by calendar month in ascending order.
func (r *SQLiteRepository) MonthlyTotals(ctx context.Context, userID int64, filter core.ExpenseFilter) ([]core.MonthlyTotal, error) {
	where, args := filterClause(userID, filter)
	rows, err := r.queries.GroupTotals(ctx, fmt.Sprintf(monthlyTotals, where), args)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	out := make([]core.MonthlyTotal, len(rows))
	for i, row := range rows {
		m, err := core.ParseMonth(row.Key)
		if err != nil {
			return nil, err
		}
		out[i] = core.MonthlyTotal{Month: m, Amount: core.Money{Cents: row.Total}}
	}
	return out, nil
}

// filterClause builds the parameterized WHERE clause for an expense filter.
// Only placeholders are ever concatenated; values travel as arguments.
func filterClause(userID int64, f core.ExpenseFilter) (string, []interface{}) {
	conds := []string{"user_id = ?"}
	args := []interface{}{userID}

	if f.Start != nil {
		conds = append(conds, "date >= ?")
		args = append(args, f.Start.String())
	}
	if f.End != nil {
		conds = append(conds, "date <= ?")
		args = append(args, f.End.String())
	}
	if f.HasCategories() {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Categories)), ",")
		conds = append(conds, "category IN ("+placeholders+")")
		for _, c := range f.Categories {
			args = append(args, c)
		}
	}

	return strings.Join(conds, " AND "), args
}

func isConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func wrapWriteErr(op string, err error) error {
	if isConstraint(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
