// Package calendar holds the YYYY-MM-DD day arithmetic shared by the engine.
package calendar

import (
	"errors"
	"time"
)

// Layout is the canonical encoding of a calendar day.
const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date format")

// Parse parses a YYYY-MM-DD day as midnight UTC.
func Parse(day string) (time.Time, error) {
	t, err := time.Parse(Layout, day)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Validate returns ErrInvalidDate if day is not a YYYY-MM-DD string.
func Validate(day string) error {
	_, err := Parse(day)
	return err
}

// Format renders t as a calendar day in its own location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// DayOf returns the calendar day t falls on in loc.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(Layout)
}

// AddDays shifts a valid day by n days. Uses AddDate so month and year
// boundaries are handled by the time package.
func AddDays(day string, n int) string {
	t, err := Parse(day)
	if err != nil {
		return day
	}
	return Format(t.AddDate(0, 0, n))
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to string) (int, error) {
	f, err := Parse(from)
	if err != nil {
		return 0, err
	}
	t, err := Parse(to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f).Hours() / 24), nil
}

// Range lists every day in [from, to]. Empty when from is after to.
func Range(from, to string) ([]string, error) {
	n, err := DaysBetween(from, to)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	days := make([]string, 0, n+1)
	for i := 0; i <= n; i++ {
		days = append(days, AddDays(from, i))
	}
	return days, nil
}

// WeekStart returns the Monday of the week containing day.
func WeekStart(day string) (string, error) {
	t, err := Parse(day)
	if err != nil {
		return "", err
	}
	weekday := int(t.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7
	}
	return Format(t.AddDate(0, 0, -(weekday - 1))), nil
}

// Age returns completed years between birth and the given day.
func Age(birthDate, on string) (int, error) {
	b, err := Parse(birthDate)
	if err != nil {
		return 0, err
	}
	d, err := Parse(on)
	if err != nil {
		return 0, err
	}
	age := d.Year() - b.Year()
	if d.Before(b.AddDate(age, 0, 0)) {
		age--
	}
	return age, nil
}
