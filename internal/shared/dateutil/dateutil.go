// Package dateutil handles calendar dates, stored as midnight UTC so they compare
// and persist (postgres DATE) independent of any organization's zone.
package dateutil

import "time"

const Layout = "2006-01-02"

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a calendar date by n days.
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// At builds the instant in loc for a calendar date and minutes past midnight.
// Minutes beyond 1440 roll into the next day.
func At(date time.Time, minutes int, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, minutes, 0, 0, loc)
}

func Parse(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}

func Format(date time.Time) string {
	return date.Format(Layout)
}
