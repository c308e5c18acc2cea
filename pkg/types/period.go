package types

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// AddDays normalises overflow the same way time.Date does.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// StartUTC is 00:00:00 UTC of the day.
func (d Date) StartUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// EndUTC is the last second of the day in UTC.
func (d Date) EndUTC() time.Time {
	return d.StartUTC().AddDate(0, 0, 1).Add(-time.Second)
}

func (d Date) Before(o Date) bool {
	return d.StartUTC().Before(o.StartUTC())
}

func (d Date) String() string {
	return d.StartUTC().Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Period is a closed calendar-date interval. End may precede Start for custom periods.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func (p Period) String() string {
	return p.Start.String() + ".." + p.End.String()
}
