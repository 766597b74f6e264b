// Package expiry enumerates weekly option expirations and measures days to them.
package expiry

import (
	"fmt"
	"time"
)

// Layout is the date format used for expirations everywhere in csp.
const Layout = "2006-01-02"

// WeeklyFridays returns the next n Fridays after today as YYYY-MM-DD strings.
// The first date is strictly after today, so a Friday today is skipped.
func WeeklyFridays(today time.Time, n int) []string {
	if n <= 0 {
		return []string{}
	}
	d := DateOf(today)
	ahead := (int(time.Friday) - int(d.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	first := d.AddDate(0, 0, ahead)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, first.AddDate(0, 0, 7*i).Format(Layout))
	}
	return out
}

// Parse parses a YYYY-MM-DD expiration in UTC.
func Parse(date string) (time.Time, error) {
	t, err := time.Parse(Layout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiration %q: want YYYY-MM-DD", date)
	}
	return t, nil
}

// DateOf drops the time of day, keeping t's calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil is the calendar-day difference from today to expiration.
// It is zero on the expiration date and negative afterwards.
func DaysUntil(today time.Time, expiration string) (int, error) {
	exp, err := Parse(expiration)
	if err != nil {
		return 0, err
	}
	hours := exp.Sub(DateOf(today)).Hours()
	return int(hours / 24), nil
}
