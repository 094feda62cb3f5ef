package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/session"
	"expenses/internal/storage"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotAuthenticated   = errors.New("not authenticated")

	ErrInvalidAmount = core.ErrInvalidAmount
	ErrInvalidDate   = core.ErrInvalidDate
	ErrInvalidMonth  = core.ErrInvalidMonth
)

// AlertPublisher sends budget alerts. *amqp.Client implements it.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// TrackerService validates user input and orchestrates storage calls for a
// session. Alerts are optional: a nil publisher disables them.
type TrackerService struct {
	storage   *storage.SQLiteRepository
	publisher AlertPublisher
	now       func() time.Time
}

func NewTrackerService(storage *storage.SQLiteRepository, publisher AlertPublisher) *TrackerService {
	return &TrackerService{
		storage:   storage,
		publisher: publisher,
		now:       time.Now,
	}
}

// ExpenseInput carries the user-editable fields of an expense.
type ExpenseInput struct {
	Date     core.Date
	Category string
	Amount   core.Money
	Note     string
}

// AddResult is returned by AddExpense. Budget is only meaningful when
// HasBudget is true.
type AddResult struct {
	ID        int64
	Budget    core.BudgetStatus
	HasBudget bool
}

// SignUp creates an account and returns its id.
func (s *TrackerService) SignUp(ctx context.Context, username, password, confirm string) (int64, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return 0, ErrMissingCredentials
	}
	if password != confirm {
		return 0, ErrPasswordMismatch
	}

	id, created, err := s.storage.CreateUser(ctx, username, password)
	if err != nil {
		return 0, fmt.Errorf("sign up: %w", err)
	}
	if !created {
		return 0, ErrUsernameTaken
	}
	return id, nil
}

// Login checks credentials and returns a fresh session with default filters.
func (s *TrackerService) Login(ctx context.Context, username, password string) (session.Session, error) {
	username = strings.TrimSpace(username)
	id, ok, err := s.storage.Authenticate(ctx, username, password)
	if err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}
	if !ok {
		slog.InfoContext(ctx, "Login rejected", "username", username)
		return session.Session{}, ErrInvalidCredentials
	}
	return session.Session{
		UserID:   id,
		Username: username,
		Filter:   session.DefaultFilter(s.now()),
	}, nil
}

func (s *TrackerService) Account(ctx context.Context, sess session.Session) (core.User, error) {
	if !sess.Authenticated() {
		return core.User{}, ErrNotAuthenticated
	}
	u, ok, err := s.storage.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return core.User{}, fmt.Errorf("account: %w", err)
	}
	if !ok {
		return core.User{}, ErrNotAuthenticated
	}
	return u, nil
}

// AddExpense records a new expense and reports the resulting budget status of
// its month. Alerts for nearing or exceeded budgets are published best-effort.
func (s *TrackerService) AddExpense(ctx context.Context, sess session.Session, in ExpenseInput) (AddResult, error) {
	if !sess.Authenticated() {
		return AddResult{}, ErrNotAuthenticated
	}
	exp := core.Expense{
		UserID:   sess.UserID,
		Date:     in.Date,
		Category: core.NormalizeCategory(in.Category),
		Amount:   in.Amount,
		Note:     in.Note,
	}
	if err := exp.Validate(); err != nil {
		return AddResult{}, err
	}

	id, err := s.storage.AddExpense(ctx, exp.UserID, exp.Date, exp.Category, exp.Amount, exp.Note)
	if err != nil {
		return AddResult{}, fmt.Errorf("add expense: %w", err)
	}

	result := AddResult{ID: id}
	status, ok, err := s.BudgetStatus(ctx, sess, core.MonthOf(in.Date))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to evaluate budget after add", "id", id, "error", err)
		return result, nil
	}
	result.Budget, result.HasBudget = status, ok

	if ok && status.Alerting() {
		s.publishAlert(ctx, sess.UserID, status)
	}
	return result, nil
}

// UpdateExpense replaces an owned expense. Zero amounts are allowed here.
func (s *TrackerService) UpdateExpense(ctx context.Context, sess session.Session, id int64, in ExpenseInput) error {
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if err := in.Amount.ValidateNonNegative(); err != nil {
		return err
	}
	err := s.storage.UpdateExpense(ctx, sess.UserID, id, in.Date, core.NormalizeCategory(in.Category), in.Amount, in.Note)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (s *TrackerService) DeleteExpense(ctx context.Context, sess session.Session, id int64) error {
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := s.storage.DeleteExpense(ctx, sess.UserID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ListExpenses returns the session user's expenses within the session filter.
func (s *TrackerService) ListExpenses(ctx context.Context, sess session.Session) ([]core.Expense, error) {
	if !sess.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	expenses, err := s.storage.QueryExpenses(ctx, sess.UserID, sess.Filter.ExpenseFilter())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *TrackerService) SetBudget(ctx context.Context, sess session.Session, month core.Month, amount core.Money) error {
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	if month.IsZero() {
		return ErrInvalidMonth
	}
	if err := amount.ValidateNonNegative(); err != nil {
		return err
	}
	if err := s.storage.SetBudget(ctx, sess.UserID, month, amount); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

// BudgetStatus compares the month's total with its budget. ok is false when no
// budget is set for the month.
func (s *TrackerService) BudgetStatus(ctx context.Context, sess session.Session, month core.Month) (core.BudgetStatus, bool, error) {
	if !sess.Authenticated() {
		return core.BudgetStatus{}, false, ErrNotAuthenticated
	}
	budget, ok, err := s.storage.GetBudget(ctx, sess.UserID, month)
	if err != nil {
		return core.BudgetStatus{}, false, fmt.Errorf("budget status: %w", err)
	}
	if !ok {
		return core.BudgetStatus{Month: month}, false, nil
	}
	spent, err := s.storage.GetMonthTotal(ctx, sess.UserID, month)
	if err != nil {
		return core.BudgetStatus{}, false, fmt.Errorf("budget status: %w", err)
	}
	return core.EvaluateBudget(month, budget, spent), true, nil
}

func (s *TrackerService) publishAlert(ctx context.Context, userID int64, status core.BudgetStatus) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping budget alert")
		return
	}
	if err := s.publisher.PublishBudgetAlert(ctx, amqp.NewBudgetAlertMessage(userID, status)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"user_id", userID,
			"month", status.Month.String(),
			"error", err)
	}
}

// Ready reports whether storage is reachable.
func (s *TrackerService) Ready(ctx context.Context) error {
	return s.storage.Ping(ctx)
}
