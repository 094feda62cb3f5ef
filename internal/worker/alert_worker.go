package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/core"
)

// BudgetReader is the storage subset the alert worker needs.
type BudgetReader interface {
	GetUserByID(ctx context.Context, id int64) (core.User, bool, error)
	GetBudget(ctx context.Context, userID int64, month core.Month) (core.Money, bool, error)
	GetMonthTotal(ctx context.Context, userID int64, month core.Month) (core.Money, error)
}

// AlertWorker consumes budget alerts and records the current budget state for
// each one. Messages are hints: the worker always re-reads storage.
type AlertWorker struct {
	storage BudgetReader
}

func NewAlertWorker(storage BudgetReader) *AlertWorker {
	return &AlertWorker{storage: storage}
}

// HandleBudgetAlert processes one alert. Returning an error requeues the message,
// so only storage failures do; malformed or obsolete alerts are dropped.
func (w *AlertWorker) HandleBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	month, err := core.ParseMonth(msg.Month)
	if err != nil {
		slog.WarnContext(ctx, "Dropping budget alert with invalid month",
			"user_id", msg.UserID,
			"month", msg.Month)
		return nil
	}

	user, ok, err := w.storage.GetUserByID(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !ok {
		slog.WarnContext(ctx, "Dropping budget alert for unknown user", "user_id", msg.UserID)
		return nil
	}

	status, err := w.CurrentStatus(ctx, msg.UserID, month)
	if err != nil {
		return err
	}

	if !status.Alerting() {
		slog.DebugContext(ctx, "Budget alert no longer applies",
			"user_id", user.ID,
			"month", month.String(),
			"alerted_level", msg.Level,
			"current_level", string(status.Level))
		return nil
	}

	slog.WarnContext(ctx, "Budget alert",
		"user_id", user.ID,
		"username", user.Username,
		"month", month.String(),
		"level", string(status.Level),
		"spent", status.Spent.String(),
		"budget", status.Budget.String(),
		"ratio", status.Ratio,
		"published_at", msg.Timestamp)

	return nil
}

// CurrentStatus evaluates the stored budget for a user's month. Months without
// a budget evaluate against zero.
func (w *AlertWorker) CurrentStatus(ctx context.Context, userID int64, month core.Month) (core.BudgetStatus, error) {
	budget, _, err := w.storage.GetBudget(ctx, userID, month)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("get budget: %w", err)
	}
	spent, err := w.storage.GetMonthTotal(ctx, userID, month)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("get month total: %w", err)
	}
	return core.EvaluateBudget(month, budget, spent), nil
}
