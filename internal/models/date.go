package models

import "time"

// DateLayout is the single canonical on-disk date format. The source app mixed
// YYYY-MM-DD and DD/MM/YYYY; everything here goes through these two functions.
const DateLayout = "2006-01-02"

// FormatDate renders t as a canonical local calendar day.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a canonical date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

var weekdayIDs = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// WeekdayID maps a weekday to the plan day identifier.
func WeekdayID(d time.Weekday) string {
	return weekdayIDs[d]
}
