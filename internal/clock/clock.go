// Package clock supplies calendar dates. Anything that needs "today" takes a
// Clock so tests can pin it.
package clock

import "time"

// Clock reports the current calendar date.
type Clock interface {
	Today() time.Time
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// Today returns the current date in c.Location as midnight UTC.
func (c System) Today() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Now().In(loc))
}

// Fixed always reports the same date.
type Fixed time.Time

// Today implements Clock.
func (f Fixed) Today() time.Time { return DateOf(time.Time(f)) }

// DateOf drops the time of day from t, keeping t's own calendar date, and
// returns it as midnight UTC. All dates in the system use this form so that
// equality and ordering compare calendar days only.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddDays moves d by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}

// AddMonths moves d by n calendar months. Unlike time.AddDate it never
// overflows into the following month: when the target month is shorter, the
// day is clamped to its last day (Aug 31 + 6 months = Feb 28 or 29).
func AddMonths(d time.Time, n int) time.Time {
	y, m, day := DateOf(d).Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
