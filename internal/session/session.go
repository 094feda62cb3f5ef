// Package session holds the per-request user identity and active filters.
package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"expenses/internal/core"
)

// ErrInvalidRange is returned when a filter ends before it starts.
var ErrInvalidRange = errors.New("end date is before start date")

// Session identifies the logged-in user and the filters applied to their
// views. The zero value is the anonymous session.
type Session struct {
	UserID   int64
	Username string
	Filter   Filter
}

// Filter is the date range and category selection for listings, insights and
// exports.
type Filter struct {
	Start      core.Date
	End        core.Date
	Categories []string
}

func (s Session) Authenticated() bool {
	return s.UserID > 0
}

// DefaultFilter covers the first of now's month through today, all default
// categories.
func DefaultFilter(now time.Time) Filter {
	today := core.DateOf(now)
	return Filter{
		Start:      core.MonthOf(today).FirstDay(),
		End:        today,
		Categories: core.Categories(),
	}
}

// ParseFilter reads start, end and repeated category parameters. Missing or
// malformed values keep their defaults.
func ParseFilter(q url.Values, now time.Time) (Filter, error) {
	f := DefaultFilter(now)

	if d, err := core.ParseDate(q.Get("start")); err == nil {
		f.Start = d
	}
	if d, err := core.ParseDate(q.Get("end")); err == nil {
		f.End = d
	}

	var cats []string
	for _, c := range q["category"] {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	if len(cats) > 0 {
		f.Categories = cats
	}

	if f.End.Before(f.Start.Time) {
		return Filter{}, ErrInvalidRange
	}
	return f, nil
}

// ExpenseFilter converts f to the storage filter.
func (f Filter) ExpenseFilter() core.ExpenseFilter {
	return core.ExpenseFilter{
		Start:      f.Start.Ptr(),
		End:        f.End.Ptr(),
		Categories: f.Categories,
	}
}

// Days is the inclusive length of the range, at least 1.
func (f Filter) Days() int {
	if n := f.Start.DaysUntil(f.End); n > 1 {
		return n
	}
	return 1
}

type contextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or the anonymous session.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}
