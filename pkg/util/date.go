package util

import "time"

// TimestampLayout renders a midnight date the way pandas Timestamp.isoformat
// does for naive timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// Midnight truncates t to the start of its calendar day, keeping t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsBusinessDay reports whether t falls on Monday through Friday. Holidays
// are not considered.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextBusinessDay returns midnight of the first business day strictly after t.
func NextBusinessDay(t time.Time) time.Time {
	d := Midnight(t).AddDate(0, 0, 1)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// BusinessDaysAfter returns the n business days following t, ascending.
func BusinessDaysAfter(t time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	d := t
	for len(out) < n {
		d = NextBusinessDay(d)
		out = append(out, d)
	}
	return out
}
