package lottery

import (
	"fmt"
	"time"
)

// DrawWeekdays lists the weekdays on which draws happen.
var DrawWeekdays = []time.Weekday{time.Tuesday, time.Thursday, time.Sunday}

// IsDrawDay reports whether t falls on a draw weekday.
func IsDrawDay(t time.Time) bool {
	wd := t.Weekday()
	for _, d := range DrawWeekdays {
		if d == wd {
			return true
		}
	}
	return false
}

// PreviousDrawDay returns the latest draw day on or before t, truncated to midnight UTC.
func PreviousDrawDay(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for !IsDrawDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// NominalIssue numbers a draw day by its position among the year's draw days.
// Real numbering skips holiday breaks, so this is only used for synthetic data.
func NominalIssue(day time.Time) string {
	seq := 0
	for d := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC); !d.After(day); d = d.AddDate(0, 0, 1) {
		if IsDrawDay(d) {
			seq++
		}
	}
	return fmt.Sprintf("%04d%03d", day.Year(), seq)
}
