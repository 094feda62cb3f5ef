package amqp

import (
	"encoding/json"
	"time"

	"expenses/internal/core"
)

// BudgetAlertMessage announces that a user's spending for a month crossed the
// nearing or exceeded threshold. Consumers re-read current state before acting.
type BudgetAlertMessage struct {
	UserID      int64     `json:"user_id"`
	Month       string    `json:"month"`
	Level       string    `json:"level"`
	SpentCents  int64     `json:"spent_cents"`
	BudgetCents int64     `json:"budget_cents"`
	Ratio       float64   `json:"ratio"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewBudgetAlertMessage builds an alert from a computed budget status.
func NewBudgetAlertMessage(userID int64, status core.BudgetStatus) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		UserID:      userID,
		Month:       status.Month.String(),
		Level:       string(status.Level),
		SpentCents:  status.Spent.Cents,
		BudgetCents: status.Budget.Cents,
		Ratio:       status.Ratio,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
