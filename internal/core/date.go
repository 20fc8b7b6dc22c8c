package core

import (
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day. Transactions carry no time-of-day component, and
// storing days as ISO strings keeps lexicographic ordering equal to
// chronological ordering.
type Date struct {
	time.Time
}

// NewDate builds a Date for the given year, month and day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON renders the ISO date.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON accepts an ISO date string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// MonthRange returns the first and last day of a month.
func MonthRange(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

// YearRange returns January 1st and December 31st of a year.
func YearRange(year int) (Date, Date) {
	return NewDate(year, 1, 1), NewDate(year, 12, 31)
}

// MonthsBetween lists every (year, month) pair touched by the inclusive
// range, in chronological order. Used by the month-by-month breakdowns.
func MonthsBetween(from, to Date) [][2]int {
	if to.Before(from) {
		return nil
	}
	var months [][2]int
	y, m := from.Year(), int(from.Month())
	endY, endM := to.Year(), int(to.Month())
	for y < endY || (y == endY && m <= endM) {
		months = append(months, [2]int{y, m})
		m++
		if m > 12 {
			m = 1
			y++
		}
	}
	return months
}

// Period is an inclusive date range.
type Period struct {
	Start Date `json:"startDate"`
	End   Date `json:"endDate"`
}

// Validate rejects ranges whose end precedes the start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return ErrInvalidDate
	}
	return nil
}
