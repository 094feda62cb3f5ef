package http

import (
	"fmt"
	"net/http"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/session"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	expenses, err := s.svc.ListExpenses(r.Context(), sess)
	if err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpList).Write(w)
		return
	}

	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	resp := NewResponse().Data(map[string]interface{}{
		"filter": filterView{
			Start:      sess.Filter.Start.String(),
			End:        sess.Filter.End.String(),
			Categories: sess.Filter.Categories,
		},
		"expenses": newExpenseViews(expenses),
		"total":    total,
	})
	if len(expenses) == 0 {
		resp.Notify(NotificationInfo, "No expenses found for the current filters.")
	}
	resp.Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, errResp := parseBody(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	in, err := parseExpenseInput(p)
	if err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpCreate).Write(w)
		return
	}

	sess := session.FromContext(r.Context())
	result, err := s.svc.AddExpense(r.Context(), sess, in)
	if err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpCreate).Write(w)
		return
	}

	category := core.NormalizeCategory(in.Category)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		"id", result.ID,
		"date", in.Date.String(),
		"category", category,
		"amount_cents", in.Amount.Cents)

	data := map[string]interface{}{"id": result.ID}
	resp := NewResponse().
		Status(http.StatusCreated).
		Success(fmt.Sprintf("Added expense #%d: %s %s on %s", result.ID, category, in.Amount, in.Date))
	if result.HasBudget {
		data["budget"] = newBudgetView(result.Budget)
		t, text := budgetMessage(result.Budget)
		resp.Notify(t, text)
	}
	resp.Data(data).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpUpdate).Write(w)
		return
	}

	p, errResp := parseBody(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	in, err := parseExpenseInput(p)
	if err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpUpdate).Write(w)
		return
	}

	if err := s.svc.UpdateExpense(r.Context(), session.FromContext(r.Context()), id, in); err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpUpdate).Write(w)
		return
	}

	NewResponse().
		Data(map[string]interface{}{"id": id}).
		Success(fmt.Sprintf("Updated expense #%d", id)).
		Write(w)
}

// handleDeleteExpense answers 204 whether or not the expense belonged to the
// caller, so ids of other users cannot be guessed.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpDelete).Write(w)
		return
	}

	if err := s.svc.DeleteExpense(r.Context(), session.FromContext(r.Context()), id); err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpDelete).Write(w)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted", "id", id)
	NewResponse().NoContent().Write(w)
}

// budgetMessage describes a budget status the way the add and budget
// endpoints report it.
func budgetMessage(st core.BudgetStatus) (NotificationType, string) {
	switch st.Level {
	case core.BudgetExceeded:
		return NotificationError, fmt.Sprintf("Budget exceeded for %s! Spent %s / %s.", st.Month, st.Spent, st.Budget)
	case core.BudgetNearing:
		return NotificationWarning, fmt.Sprintf("Nearing budget for %s: Spent %s / %s (%.1f%%).", st.Month, st.Spent, st.Budget, st.Ratio*100)
	default:
		return NotificationInfo, fmt.Sprintf("Budget status for %s: %s / %s (%.1f%%).", st.Month, st.Spent, st.Budget, st.Ratio*100)
	}
}
