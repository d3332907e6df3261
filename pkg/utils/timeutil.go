package utils

import (
	"time"
)

// ShortMonthUTC returns the English short month name ("Jan") of t in UTC.
// The local time zone of the process never affects the label.
func ShortMonthUTC(t time.Time) string {
	return t.UTC().Format("Jan")
}

// FirstOfMonthUTC returns midnight UTC on the first day of t's UTC month.
func FirstOfMonthUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonthsUTC moves the first of t's month by n months.
func AddMonthsUTC(t time.Time, n int) time.Time {
	return FirstOfMonthUTC(t).AddDate(0, n, 0)
}

// ObservationStart returns the first day of the current month, moved back
// years years. It is the start of the dashboard's observation window.
func ObservationStart(now time.Time, years int) time.Time {
	return FirstOfMonthUTC(now).AddDate(-years, 0, 0)
}
