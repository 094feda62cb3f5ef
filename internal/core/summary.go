package core

// CategoryTotal is the amount spent in one category. Share is the percentage
// of the surrounding total and is only set by callers that know that total.
type CategoryTotal struct {
	Category string
	Amount   Money
	Share    float64
}

// DailyTotal is the amount spent on a single day.
type DailyTotal struct {
	Date   Date
	Amount Money
}

// MonthlyTotal is the amount spent in a calendar month.
type MonthlyTotal struct {
	Month  Month
	Amount Money
}

// WithShares returns a copy of totals with Share filled in as a percentage of total.
func WithShares(totals []CategoryTotal, total Money) []CategoryTotal {
	out := make([]CategoryTotal, len(totals))
	for i, ct := range totals {
		ct.Share = ct.Amount.Ratio(total) * 100
		out[i] = ct
	}
	return out
}
