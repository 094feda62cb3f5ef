package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/storage"
)

// sanitizeInput removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// errorResponse maps a service error to a response. Unknown errors are
// logged and reported as 500 without details.
func errorResponse(r *http.Request, err error, component, operation string) *ResponseBuilder {
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		return UnauthorizedError("Please log in.")
	case errors.Is(err, services.ErrInvalidCredentials):
		return UnauthorizedError("Invalid username or password.")
	case errors.Is(err, services.ErrMissingCredentials):
		return UnprocessableEntityError("Please provide username and password.")
	case errors.Is(err, services.ErrPasswordMismatch):
		return UnprocessableEntityError("Passwords do not match.")
	case errors.Is(err, services.ErrUsernameTaken):
		return UnprocessableEntityError("Username already exists or invalid input.")
	case errors.Is(err, core.ErrAmountTooSmall):
		return UnprocessableEntityError("Amount must be at least 0.01.")
	case errors.Is(err, core.ErrInvalidAmount):
		return UnprocessableEntityError("Amount should be greater than 0.")
	case errors.Is(err, core.ErrInvalidDate):
		return UnprocessableEntityError("Date must be in YYYY-MM-DD format.")
	case errors.Is(err, core.ErrInvalidMonth):
		return UnprocessableEntityError("Month must be in YYYY-MM format.")
	case errors.Is(err, storage.ErrConstraint):
		return UnprocessableEntityError("Invalid input.")
	case errors.Is(err, errMalformedID):
		return BadRequestError("Invalid expense id.")
	}

	ctx := r.Context()
	log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Request failed", err, component, operation,
		log.NewFields().WithErrorType(log.ErrorTypeInternal))
	return InternalServerError("Something went wrong, please try again.")
}

type userView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

func newUserView(u core.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type expenseView struct {
	ID       int64      `json:"id"`
	Date     string     `json:"date"`
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Note     string     `json:"note"`
}

func newExpenseViews(expenses []core.Expense) []expenseView {
	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, expenseView{
			ID:       e.ID,
			Date:     e.Date.String(),
			Category: e.Category,
			Amount:   e.Amount,
			Note:     e.Note,
		})
	}
	return views
}

type budgetView struct {
	Month     string     `json:"month"`
	Budget    core.Money `json:"budget"`
	Spent     core.Money `json:"spent"`
	Remaining core.Money `json:"remaining"`
	Ratio     float64    `json:"ratio"`
	Level     string     `json:"level"`
}

func newBudgetView(st core.BudgetStatus) *budgetView {
	return &budgetView{
		Month:     st.Month.String(),
		Budget:    st.Budget,
		Spent:     st.Spent,
		Remaining: st.Remaining(),
		Ratio:     st.Ratio,
		Level:     string(st.Level),
	}
}

type filterView struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Categories []string `json:"categories"`
}
