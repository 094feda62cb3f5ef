package session

import (
	"context"
	"net/url"
	"testing"
	"time"

	"expenses/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.March, 15, 18, 30, 0, 0, time.UTC)

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter(now)
	assert.Equal(t, "2024-03-01", f.Start.String())
	assert.Equal(t, "2024-03-15", f.End.String())
	assert.Equal(t, core.DefaultCategories, f.Categories)
	assert.Equal(t, 15, f.Days())
}

func TestParseFilter(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		start, end string
		cats       []string
		wantErr    bool
	}{
		{"defaults", "", "2024-03-01", "2024-03-15", core.DefaultCategories, false},
		{"explicit range", "start=2024-01-01&end=2024-01-31", "2024-01-01", "2024-01-31", core.DefaultCategories, false},
		{"malformed start falls back", "start=yesterday", "2024-03-01", "2024-03-15", core.DefaultCategories, false},
		{"categories", "category=Food&category=+Rent+&category=", "2024-03-01", "2024-03-15", []string{"Food", "Rent"}, false},
		{"reversed range", "start=2024-02-10&end=2024-02-01", "", "", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			f, err := ParseFilter(q, now)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.start, f.Start.String())
			assert.Equal(t, tc.end, f.End.String())
			assert.Equal(t, tc.cats, f.Categories)
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	assert.False(t, FromContext(context.Background()).Authenticated())

	s := Session{UserID: 7, Username: "alice", Filter: DefaultFilter(now)}
	got := FromContext(WithSession(context.Background(), s))
	assert.True(t, got.Authenticated())
	assert.Equal(t, "alice", got.Username)
}

func TestExpenseFilter(t *testing.T) {
	f := Filter{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 1), Categories: []string{"Food"}}
	ef := f.ExpenseFilter()
	require.NotNil(t, ef.Start)
	require.NotNil(t, ef.End)
	assert.Equal(t, "2024-01-01", ef.Start.String())
	assert.Equal(t, 1, f.Days())
}
