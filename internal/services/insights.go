package services

import (
	"context"
	"fmt"

	"expenses/internal/core"
	"expenses/internal/session"
	"expenses/internal/storage"

	"github.com/shopspring/decimal"
)

// Insights summarizes the expenses selected by a session filter.
type Insights struct {
	Start        core.Date
	End          core.Date
	Total        core.Money
	AverageDaily core.Money
	Count        int
	TopCategory  *core.CategoryTotal
	Categories   []core.CategoryTotal
	Daily        []core.DailyTotal
	Monthly      []core.MonthlyTotal

	// LastMonthBudget is the status of the latest month with filtered spending,
	// set only when that month has a budget.
	LastMonthBudget *core.BudgetStatus
}

// Insights computes totals, rollups and the latest month's budget position
// for the session filter. The top category considers the date range only.
// All reads share one transaction so the figures agree with each other.
func (s *TrackerService) Insights(ctx context.Context, sess session.Session) (Insights, error) {
	if !sess.Authenticated() {
		return Insights{}, ErrNotAuthenticated
	}

	f := sess.Filter
	filter := f.ExpenseFilter()
	out := Insights{Start: f.Start, End: f.End}

	var (
		expenses  []core.Expense
		top       core.CategoryTotal
		hasTop    bool
		budget    core.Money
		hasBudget bool
	)

	err := s.storage.ReadSnapshot(ctx, func(repo *storage.SQLiteRepository) error {
		var err error
		if expenses, err = repo.QueryExpenses(ctx, sess.UserID, filter); err != nil {
			return err
		}
		if out.Categories, err = repo.CategoryTotals(ctx, sess.UserID, filter); err != nil {
			return err
		}
		if out.Daily, err = repo.DailyTotals(ctx, sess.UserID, filter); err != nil {
			return err
		}
		if out.Monthly, err = repo.MonthlyTotals(ctx, sess.UserID, filter); err != nil {
			return err
		}
		if top, hasTop, err = repo.GetTopCategory(ctx, sess.UserID, filter.Start, filter.End); err != nil {
			return err
		}
		if n := len(out.Monthly); n > 0 {
			budget, hasBudget, err = repo.GetBudget(ctx, sess.UserID, out.Monthly[n-1].Month)
		}
		return err
	})
	if err != nil {
		return Insights{}, fmt.Errorf("insights: %w", err)
	}

	for _, ct := range out.Categories {
		out.Total = out.Total.Add(ct.Amount)
	}
	out.Count = len(expenses)
	out.AverageDaily = averagePerDay(out.Total, f.Days())
	out.Categories = core.WithShares(out.Categories, out.Total)
	if hasTop {
		top.Share = top.Amount.Ratio(out.Total) * 100
		out.TopCategory = &top
	}
	if hasBudget {
		last := out.Monthly[len(out.Monthly)-1]
		status := core.EvaluateBudget(last.Month, budget, last.Amount)
		out.LastMonthBudget = &status
	}

	return out, nil
}

func averagePerDay(total core.Money, days int) core.Money {
	if days < 1 {
		days = 1
	}
	avg := decimal.NewFromInt(total.Cents).Div(decimal.NewFromInt(int64(days))).Round(0)
	return core.Money{Cents: avg.IntPart()}
}
