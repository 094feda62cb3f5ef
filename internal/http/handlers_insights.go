package http

import (
	"bytes"
	"mime"
	"net/http"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/session"
)

type categoryTotalView struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Share    float64    `json:"share"`
}

type dailyTotalView struct {
	Date   string     `json:"date"`
	Amount core.Money `json:"amount"`
}

type monthlyTotalView struct {
	Month  string     `json:"month"`
	Amount core.Money `json:"amount"`
}

type insightsView struct {
	Start           string              `json:"start"`
	End             string              `json:"end"`
	Total           core.Money          `json:"total"`
	AverageDaily    core.Money          `json:"average_daily"`
	Count           int                 `json:"count"`
	TopCategory     *categoryTotalView  `json:"top_category"`
	Categories      []categoryTotalView `json:"categories"`
	Daily           []dailyTotalView    `json:"daily"`
	Monthly         []monthlyTotalView  `json:"monthly"`
	LastMonthBudget *budgetView         `json:"last_month_budget"`
}

func newInsightsView(in services.Insights) insightsView {
	v := insightsView{
		Start:        in.Start.String(),
		End:          in.End.String(),
		Total:        in.Total,
		AverageDaily: in.AverageDaily,
		Count:        in.Count,
		Categories:   make([]categoryTotalView, 0, len(in.Categories)),
		Daily:        make([]dailyTotalView, 0, len(in.Daily)),
		Monthly:      make([]monthlyTotalView, 0, len(in.Monthly)),
	}
	if in.TopCategory != nil {
		v.TopCategory = &categoryTotalView{
			Category: in.TopCategory.Category,
			Amount:   in.TopCategory.Amount,
			Share:    in.TopCategory.Share,
		}
	}
	for _, c := range in.Categories {
		v.Categories = append(v.Categories, categoryTotalView{Category: c.Category, Amount: c.Amount, Share: c.Share})
	}
	for _, d := range in.Daily {
		v.Daily = append(v.Daily, dailyTotalView{Date: d.Date.String(), Amount: d.Amount})
	}
	for _, m := range in.Monthly {
		v.Monthly = append(v.Monthly, monthlyTotalView{Month: m.Month.String(), Amount: m.Amount})
	}
	if in.LastMonthBudget != nil {
		v.LastMonthBudget = newBudgetView(*in.LastMonthBudget)
	}
	return v
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.svc.Insights(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpRead).Write(w)
		return
	}

	resp := NewResponse().Data(newInsightsView(insights))
	if insights.Count == 0 {
		resp.Notify(NotificationInfo, "No expenses found for the current filters.")
	}
	if insights.LastMonthBudget != nil {
		t, text := budgetMessage(*insights.LastMonthBudget)
		if t == NotificationInfo {
			t = NotificationSuccess
		}
		resp.Notify(t, text)
	}
	resp.Write(w)
}

// handleExport buffers the CSV so a storage failure can still be reported
// with a proper status code.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var buf bytes.Buffer
	if err := s.svc.ExportCSV(r.Context(), sess, &buf); err != nil {
		errorResponse(r, err, log.ComponentExpense, log.OpExport).Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": services.ExportFilename(sess),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().
		Data(map[string]interface{}{"categories": core.Categories()}).
		Write(w)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Account(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		errorResponse(r, err, log.ComponentAuth, log.OpRead).Write(w)
		return
	}
	NewResponse().Data(newUserView(user)).Write(w)
}
