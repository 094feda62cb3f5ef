package http

import (
	"errors"
	"fmt"
	"net/http"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/session"
)

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		errorResponse(r, err, log.ComponentBudget, log.OpRead).Write(w)
		return
	}

	status, ok, err := s.svc.BudgetStatus(r.Context(), session.FromContext(r.Context()), month)
	if err != nil {
		errorResponse(r, err, log.ComponentBudget, log.OpRead).Write(w)
		return
	}
	if !ok {
		NewResponse().
			Data(map[string]interface{}{"month": month.String(), "budget": nil}).
			Notify(NotificationInfo, fmt.Sprintf("No budget set for %s.", month)).
			Write(w)
		return
	}

	t, text := budgetMessage(status)
	NewResponse().
		Data(map[string]interface{}{"month": month.String(), "budget": newBudgetView(status)}).
		Notify(t, text).
		Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		errorResponse(r, err, log.ComponentBudget, log.OpUpdate).Write(w)
		return
	}

	p, errResp := parseBody(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	amount, err := parseAmount(p, "amount")
	if errors.Is(err, core.ErrAmountTooSmall) {
		errorResponse(r, err, log.ComponentBudget, log.OpUpdate).Write(w)
		return
	}
	if err != nil {
		UnprocessableEntityError("Budget must be zero or more.").Write(w)
		return
	}

	if err := s.svc.SetBudget(r.Context(), session.FromContext(r.Context()), month, amount); err != nil {
		errorResponse(r, err, log.ComponentBudget, log.OpUpdate).Write(w)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget set",
		"month", month.String(), "amount_cents", amount.Cents)

	NewResponse().
		Data(map[string]interface{}{"month": month.String(), "amount": amount}).
		Success(fmt.Sprintf("Budget for %s set to %s", month, amount)).
		Write(w)
}
