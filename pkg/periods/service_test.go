package periods

import (
	"testing"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) types.Date {
	date, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return date
}

// Wednesday
var now = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC)

func TestNamedPeriods(t *testing.T) {
	tests := []struct {
		sel   Selector
		start string
		end   string
	}{
		{Day, "2024-03-13", "2024-03-13"},
		{Week, "2024-03-10", "2024-03-13"},
		{Month, "2024-03-01", "2024-03-13"},
		{Year, "2024-01-01", "2024-03-13"},
	}
	for _, tt := range tests {
		t.Run(string(tt.sel), func(t *testing.T) {
			p, err := Named(now, tt.sel)
			require.NoError(t, err)
			assert.Equal(t, d(tt.start), p.Start)
			assert.Equal(t, d(tt.end), p.End)
		})
	}
}

func TestWeekStartsOnSundayItself(t *testing.T) {
	sunday := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)
	p, err := Named(sunday, Week)
	require.NoError(t, err)
	assert.Equal(t, d("2024-03-10"), p.Start)
	assert.Equal(t, d("2024-03-10"), p.End)
}

func TestWeekCrossesMonthBoundary(t *testing.T) {
	tuesday := time.Date(2024, time.October, 1, 8, 0, 0, 0, time.UTC)
	p, err := Named(tuesday, Week)
	require.NoError(t, err)
	assert.Equal(t, d("2024-09-29"), p.Start)
}

func TestComparisonPeriods(t *testing.T) {
	tests := []struct {
		sel   Selector
		start string
		end   string
	}{
		{PreviousDay, "2024-03-12", "2024-03-12"},
		{PreviousWeek, "2024-03-06", "2024-03-13"},
		{PreviousMonth, "2024-02-01", "2024-02-29"},
	}
	for _, tt := range tests {
		t.Run(string(tt.sel), func(t *testing.T) {
			p, err := Comparison(now, tt.sel)
			require.NoError(t, err)
			assert.Equal(t, d(tt.start), p.Start)
			assert.Equal(t, d(tt.end), p.End)
		})
	}
}

func TestPreviousMonthInJanuary(t *testing.T) {
	jan := time.Date(2025, time.January, 31, 23, 0, 0, 0, time.UTC)
	p, err := Comparison(jan, PreviousMonth)
	require.NoError(t, err)
	assert.Equal(t, d("2024-12-01"), p.Start)
	assert.Equal(t, d("2024-12-31"), p.End)
}

func TestPreviousMonthFromLongMonth(t *testing.T) {
	// March 31st must not overflow into March again.
	mar := time.Date(2023, time.March, 31, 12, 0, 0, 0, time.UTC)
	p, err := Comparison(mar, PreviousMonth)
	require.NoError(t, err)
	assert.Equal(t, d("2023-02-01"), p.Start)
	assert.Equal(t, d("2023-02-28"), p.End)
}

func TestDeterministic(t *testing.T) {
	for _, sel := range []Selector{Day, Week, Month, Year} {
		a, _ := Named(now, sel)
		b, _ := Named(now, sel)
		assert.Equal(t, a, b)
	}
	for _, sel := range []Selector{PreviousDay, PreviousWeek, PreviousMonth} {
		a, _ := Comparison(now, sel)
		b, _ := Comparison(now, sel)
		assert.Equal(t, a, b)
	}
}

func TestUnknownSelectors(t *testing.T) {
	_, err := Named(now, PreviousDay)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
	_, err = Comparison(now, Week)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
	_, err = Named(now, Custom)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestCustomPassesThroughInvertedRange(t *testing.T) {
	p := CustomPeriod(d("2024-03-10"), d("2024-03-01"))
	assert.Equal(t, d("2024-03-10"), p.Start)
	assert.Equal(t, d("2024-03-01"), p.End)
}

func TestNowInLocationDecidesToday(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	// 23:30 UTC on the 12th is already the 13th at UTC+2.
	late := time.Date(2024, time.March, 12, 23, 30, 0, 0, time.UTC).In(loc)
	p, err := Named(late, Day)
	require.NoError(t, err)
	assert.Equal(t, d("2024-03-13"), p.Start)
}
