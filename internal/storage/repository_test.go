package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"expenses/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustUser(t *testing.T, repo *SQLiteRepository, username string) int64 {
	t.Helper()
	id, created, err := repo.CreateUser(context.Background(), username, "pw-"+username)
	require.NoError(t, err)
	require.True(t, created)
	return id
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	id := mustUser(t, repo, "alice")
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	u, ok, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", u.Username)
}

func TestCreateUserUniqueness(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, created, err := repo.CreateUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.True(t, created)

	for _, pw := range []string{"pw1", "other"} {
		_, created, err = repo.CreateUser(ctx, "alice", pw)
		require.NoError(t, err)
		assert.False(t, created, "duplicate with password %q", pw)
	}

	// usernames are trimmed before the uniqueness check
	_, created, err = repo.CreateUser(ctx, "  alice ", "pw3")
	require.NoError(t, err)
	assert.False(t, created)

	// case-sensitive
	_, created, err = repo.CreateUser(ctx, "Alice", "pw1")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreateUserRejectsBlankCredentials(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cases := []struct{ user, pass string }{
		{"", "pw"},
		{"   ", "pw"},
		{"bob", ""},
	}
	for _, tc := range cases {
		_, created, err := repo.CreateUser(ctx, tc.user, tc.pass)
		require.NoError(t, err)
		assert.False(t, created, "user=%q pass=%q", tc.user, tc.pass)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, created, err := repo.CreateUser(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.True(t, created)

	got, ok, err := repo.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	got, ok, err = repo.Authenticate(ctx, " alice ", "pw1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok, err = repo.Authenticate(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repo.Authenticate(ctx, "nobody", "pw1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUserByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	before := time.Now().UTC().Add(-time.Second)

	id := mustUser(t, repo, "alice")

	u, ok, err := repo.GetUserByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)
	assert.False(t, u.CreatedAt.Before(before))

	_, ok, err = repo.GetUserByID(ctx, id+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")

	id, err := repo.AddExpense(ctx, uid, mustDate(t, "2024-03-02"), "Food", core.Money{Cents: 1250}, "lunch")
	require.NoError(t, err)

	got, err := repo.QueryExpenses(ctx, uid, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.Expense{
		ID:       id,
		UserID:   uid,
		Date:     mustDate(t, "2024-03-02"),
		Category: "Food",
		Amount:   core.Money{Cents: 1250},
		Note:     "lunch",
	}, got[0])

	require.NoError(t, repo.UpdateExpense(ctx, uid, id, mustDate(t, "2024-03-05"), "Travel", core.Money{Cents: 0}, ""))

	got, err = repo.QueryExpenses(ctx, uid, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-05", got[0].Date.String())
	assert.Equal(t, "Travel", got[0].Category)
	assert.Equal(t, int64(0), got[0].Amount.Cents)
	assert.Equal(t, "", got[0].Note)
}

func TestNegativeAmountsViolateConstraint(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")

	_, err := repo.AddExpense(ctx, uid, mustDate(t, "2024-01-01"), "Food", core.Money{Cents: -1}, "")
	assert.ErrorIs(t, err, ErrConstraint)

	id, err := repo.AddExpense(ctx, uid, mustDate(t, "2024-01-01"), "Food", core.Money{Cents: 100}, "")
	require.NoError(t, err)
	err = repo.UpdateExpense(ctx, uid, id, mustDate(t, "2024-01-01"), "Food", core.Money{Cents: -5}, "")
	assert.ErrorIs(t, err, ErrConstraint)

	err = repo.SetBudget(ctx, uid, core.NewMonth(2024, time.January), core.Money{Cents: -1})
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustUser(t, repo, "alice")
	b := mustUser(t, repo, "bob")

	id, err := repo.AddExpense(ctx, a, mustDate(t, "2024-01-05"), "Food", core.Money{Cents: 100}, "mine")
	require.NoError(t, err)

	got, err := repo.QueryExpenses(ctx, b, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.DeleteExpense(ctx, b, id))
	require.NoError(t, repo.UpdateExpense(ctx, b, id, mustDate(t, "2024-02-01"), "Hacked", core.Money{Cents: 1}, "x"))

	got, err = repo.QueryExpenses(ctx, a, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Food", got[0].Category)
	assert.Equal(t, "mine", got[0].Note)

	require.NoError(t, repo.DeleteExpense(ctx, a, id))
	got, err = repo.QueryExpenses(ctx, a, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	// deleting a missing id is not an error
	assert.NoError(t, repo.DeleteExpense(ctx, a, 9999))
}

func seedAggregation(t *testing.T, repo *SQLiteRepository, uid int64) {
	t.Helper()
	ctx := context.Background()
	rows := []struct {
		date     string
		category string
		cents    int64
	}{
		{"2024-01-05", "Food", 10000},
		{"2024-01-20", "Food", 5000},
		{"2024-01-10", "Travel", 3000},
	}
	for _, r := range rows {
		_, err := repo.AddExpense(ctx, uid, mustDate(t, r.date), r.category, core.Money{Cents: r.cents}, "")
		require.NoError(t, err)
	}
}

func TestAggregation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")
	seedAggregation(t, repo, uid)

	total, err := repo.GetMonthTotal(ctx, uid, core.NewMonth(2024, time.January))
	require.NoError(t, err)
	assert.Equal(t, int64(18000), total.Cents)

	top, ok, err := repo.GetTopCategory(ctx, uid, mustDate(t, "2024-01-01").Ptr(), mustDate(t, "2024-01-31").Ptr())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Food", top.Category)
	assert.Equal(t, int64(15000), top.Amount.Cents)

	total, err = repo.GetMonthTotal(ctx, uid, core.NewMonth(2024, time.February))
	require.NoError(t, err)
	assert.Equal(t, int64(0), total.Cents)

	_, ok, err = repo.GetTopCategory(ctx, uid, mustDate(t, "2023-01-01").Ptr(), mustDate(t, "2023-12-31").Ptr())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMonthTotalBounds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")

	for _, r := range []struct {
		date  string
		cents int64
	}{
		{"2023-12-31", 1},
		{"2024-01-01", 10},
		{"2024-01-31", 100},
		{"2024-02-01", 1000},
		{"2024-02-29", 10000},
		{"2024-03-01", 100000},
		{"2024-04-30", 1000000},
		{"2024-05-01", 10000000},
	} {
		_, err := repo.AddExpense(ctx, uid, mustDate(t, r.date), "Food", core.Money{Cents: r.cents}, "")
		require.NoError(t, err)
	}

	tests := []struct {
		month core.Month
		want  int64
	}{
		{core.NewMonth(2023, time.December), 1},
		{core.NewMonth(2024, time.January), 110},
		{core.NewMonth(2024, time.February), 11000},
		{core.NewMonth(2024, time.March), 100000},
		{core.NewMonth(2024, time.April), 1000000},
		{core.NewMonth(2024, time.May), 10000000},
		{core.NewMonth(2024, time.June), 0},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			total, err := repo.GetMonthTotal(ctx, uid, tt.month)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total.Cents)
		})
	}
}

func TestReadSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")
	seedAggregation(t, repo, uid)

	var (
		count int
		total int64
	)
	err := repo.ReadSnapshot(ctx, func(tx *SQLiteRepository) error {
		expenses, err := tx.QueryExpenses(ctx, uid, core.ExpenseFilter{})
		if err != nil {
			return err
		}
		count = len(expenses)
		cats, err := tx.CategoryTotals(ctx, uid, core.ExpenseFilter{})
		for _, c := range cats {
			total += c.Amount.Cents
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, int64(18000), total)

	sentinel := errors.New("stop")
	err = repo.ReadSnapshot(ctx, func(*SQLiteRepository) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	// The connection is released afterwards.
	_, err = repo.AddExpense(ctx, uid, mustDate(t, "2024-01-06"), "Food", core.Money{Cents: 1}, "")
	require.NoError(t, err)
}

func TestTopCategoryTieBreak(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")

	for _, c := range []string{"Travel", "Bills"} {
		_, err := repo.AddExpense(ctx, uid, mustDate(t, "2024-01-05"), c, core.Money{Cents: 500}, "")
		require.NoError(t, err)
	}

	top, ok, err := repo.GetTopCategory(ctx, uid, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bills", top.Category)
}

func TestRollups(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")
	seedAggregation(t, repo, uid)
	_, err := repo.AddExpense(ctx, uid, mustDate(t, "2024-02-01"), "Bills", core.Money{Cents: 700}, "")
	require.NoError(t, err)

	cats, err := repo.CategoryTotals(ctx, uid, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Food", cats[0].Category)
	assert.Equal(t, "Travel", cats[1].Category)
	assert.Equal(t, "Bills", cats[2].Category)

	daily, err := repo.DailyTotals(ctx, uid, core.ExpenseFilter{Categories: []string{"Food"}})
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, "2024-01-05", daily[0].Date.String())
	assert.Equal(t, "2024-01-20", daily[1].Date.String())

	monthly, err := repo.MonthlyTotals(ctx, uid, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[0].Month.String())
	assert.Equal(t, int64(18000), monthly[0].Amount.Cents)
	assert.Equal(t, "2024-02", monthly[1].Month.String())
	assert.Equal(t, int64(700), monthly[1].Amount.Cents)
}

func TestQueryExpensesFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")
	seedAggregation(t, repo, uid)

	cases := []struct {
		name   string
		filter core.ExpenseFilter
		want   int
	}{
		{"no filter", core.ExpenseFilter{}, 3},
		{"empty category set", core.ExpenseFilter{Categories: []string{}}, 3},
		{"start inclusive", core.ExpenseFilter{Start: mustDate(t, "2024-01-10").Ptr()}, 2},
		{"end inclusive", core.ExpenseFilter{End: mustDate(t, "2024-01-10").Ptr()}, 2},
		{"range", core.ExpenseFilter{Start: mustDate(t, "2024-01-06").Ptr(), End: mustDate(t, "2024-01-19").Ptr()}, 1},
		{"category", core.ExpenseFilter{Categories: []string{"Travel"}}, 1},
		{"categories", core.ExpenseFilter{Categories: []string{"Travel", "Food"}}, 3},
		{"unknown category", core.ExpenseFilter{Categories: []string{"Rent"}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.QueryExpenses(ctx, uid, tc.filter)
			require.NoError(t, err)
			assert.Len(t, got, tc.want)
		})
	}
}

func TestBudgetIdempotence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")
	jan := core.NewMonth(2024, time.January)

	_, ok, err := repo.GetBudget(ctx, uid, jan)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetBudget(ctx, uid, jan, core.Money{Cents: 50000}))
	require.NoError(t, repo.SetBudget(ctx, uid, jan, core.Money{Cents: 30000}))

	var n int
	err = repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets WHERE user_id = ? AND month = ?`, uid, jan.String()).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	amount, ok, err := repo.GetBudget(ctx, uid, jan)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(30000), amount.Cents)
}

func TestOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	uid := mustUser(t, repo, "alice")

	dates := []string{"2024-01-03", "2024-01-01", "2024-01-03", "2024-01-02"}
	for _, d := range dates {
		_, err := repo.AddExpense(ctx, uid, mustDate(t, d), "Food", core.Money{Cents: 100}, "")
		require.NoError(t, err)
	}

	first, err := repo.QueryExpenses(ctx, uid, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, first, 4)
	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.Date.Equal(cur.Date.Time) {
			assert.Less(t, prev.ID, cur.ID)
		} else {
			assert.True(t, prev.Date.Before(cur.Date.Time))
		}
	}

	second, err := repo.QueryExpenses(ctx, uid, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
