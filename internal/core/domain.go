package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

type (
	// Date is a calendar date without a time component, always UTC midnight.
	Date struct {
		time.Time
	}

	// Month identifies a calendar month in YYYY-MM form.
	Month struct {
		Year  int
		Month time.Month
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID        int64
		Username  string
		CreatedAt time.Time
	}

	Expense struct {
		ID       int64
		UserID   int64
		Date     Date
		Category string
		Amount   Money
		Note     string
	}

	// ExpenseFilter restricts expense queries. Nil bounds and an empty category
	// set impose no restriction.
	ExpenseFilter struct {
		Start      *Date
		End        *Date
		Categories []string
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")

	// ErrAmountTooSmall is returned for positive amounts below one cent.
	ErrAmountTooSmall = errors.New("amount below 0.01")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO-8601 YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Ptr returns a pointer to a copy of d, handy for building filters.
func (d Date) Ptr() *Date {
	return &d
}

// DaysUntil returns the number of calendar days from d to end, inclusive of both.
func (d Date) DaysUntil(end Date) int {
	return int(end.Sub(d.Time).Hours()/24) + 1
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the month a date falls in.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Time.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// FirstDay returns the first calendar day of the month.
func (m Month) FirstDay() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

// LastDay returns the true last calendar day of the month.
func (m Month) LastDay() Date {
	return Date{Time: time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC)}
}

// LenientLastDay returns the "YYYY-MM-31" upper bound used for month totals.
// It is compared lexicographically against stored dates and never excludes a
// real day, even for months shorter than 31 days.
func (m Month) LenientLastDay() string {
	return m.String() + "-31"
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateNonNegative accepts zero, as budgets and edited expenses may be zero.
func (m Money) ValidateNonNegative() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks an expense before it is stored: a set date, a category and a
// positive amount.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return e.Amount.Validate()
}

// HasCategories reports whether the filter restricts by category.
func (f ExpenseFilter) HasCategories() bool {
	return len(f.Categories) > 0
}
