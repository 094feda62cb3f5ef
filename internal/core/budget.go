package core

// BudgetLevel classifies spending against a monthly budget.
type BudgetLevel string

const (
	BudgetOK       BudgetLevel = "ok"
	BudgetNearing  BudgetLevel = "nearing"
	BudgetExceeded BudgetLevel = "exceeded"
)

const (
	nearingRatio  = 0.9
	exceededRatio = 1.0
)

// BudgetStatus is the result of comparing a month's spending with its budget.
type BudgetStatus struct {
	Month  Month
	Budget Money
	Spent  Money
	Ratio  float64
	Level  BudgetLevel
}

// EvaluateBudget computes the status for spent against budget. A zero budget
// yields ratio 0 and level ok.
func EvaluateBudget(month Month, budget, spent Money) BudgetStatus {
	ratio := spent.Ratio(budget)
	level := BudgetOK
	switch {
	case ratio >= exceededRatio:
		level = BudgetExceeded
	case ratio >= nearingRatio:
		level = BudgetNearing
	}
	return BudgetStatus{
		Month:  month,
		Budget: budget,
		Spent:  spent,
		Ratio:  ratio,
		Level:  level,
	}
}

// Alerting reports whether the status warrants a notification.
func (s BudgetStatus) Alerting() bool {
	return s.Level == BudgetNearing || s.Level == BudgetExceeded
}

// Remaining returns budget minus spent, negative when over budget.
func (s BudgetStatus) Remaining() Money {
	return Money{Cents: s.Budget.Cents - s.Spent.Cents}
}
