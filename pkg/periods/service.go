// Package periods derives concrete calendar-date intervals for the
// period selectors offered by the card.
package periods

import (
	"errors"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

type Selector string

const (
	Day   Selector = "day"
	Week  Selector = "week"
	Month Selector = "month"
	Year  Selector = "year"

	PreviousDay   Selector = "previous_day"
	PreviousWeek  Selector = "previous_week"
	PreviousMonth Selector = "previous_month"

	Custom Selector = "custom"
)

var ErrUnknownPeriod = errors.New("unknown period")

func IsNamed(s Selector) bool {
	switch s {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

func IsComparison(s Selector) bool {
	switch s {
	case PreviousDay, PreviousWeek, PreviousMonth:
		return true
	}
	return false
}

// Named returns the primary period for the selector, relative to now.
func Named(now time.Time, s Selector) (types.Period, error) {
	today := types.DateOf(now)
	switch s {
	case Day:
		return types.Period{Start: today, End: today}, nil
	case Week:
		// Weeks start on Sunday.
		return types.Period{Start: today.AddDays(-int(now.Weekday())), End: today}, nil
	case Month:
		return types.Period{Start: types.Date{Year: today.Year, Month: today.Month, Day: 1}, End: today}, nil
	case Year:
		return types.Period{Start: types.Date{Year: today.Year, Month: time.January, Day: 1}, End: today}, nil
	}
	return types.Period{}, ErrUnknownPeriod
}

// Comparison returns the comparison period for the selector, relative to now.
// previous_week is the rolling 7 days ending today, not the calendar week before Week.
func Comparison(now time.Time, s Selector) (types.Period, error) {
	today := types.DateOf(now)
	switch s {
	case PreviousDay:
		yesterday := today.AddDays(-1)
		return types.Period{Start: yesterday, End: yesterday}, nil
	case PreviousWeek:
		return types.Period{Start: today.AddDays(-7), End: today}, nil
	case PreviousMonth:
		first := types.Date{Year: today.Year, Month: today.Month, Day: 1}
		lastOfPrevious := first.AddDays(-1)
		return types.Period{
			Start: types.Date{Year: lastOfPrevious.Year, Month: lastOfPrevious.Month, Day: 1},
			End:   lastOfPrevious,
		}, nil
	}
	return types.Period{}, ErrUnknownPeriod
}

// CustomPeriod passes the dates through unchanged. End before start is allowed.
func CustomPeriod(start, end types.Date) types.Period {
	return types.Period{Start: start, End: end}
}
