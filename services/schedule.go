package services

import (
	"fleet-backend/models"
	"time"
)

// ShouldFireToday reports whether rule produces activities on today's
// calendar date. Only the date part of today (in its own location) is used.
func ShouldFireToday(rule *models.AutomaticActivity, today time.Time) bool {
	day := civilDay(today)

	if rule.StartDate != nil && day.Before(civilDay(*rule.StartDate)) {
		return false
	}
	if rule.EndDate != nil && day.After(civilDay(*rule.EndDate)) {
		return false
	}

	switch rule.Cadence {
	case models.CadenceDaily:
		return true
	case models.CadenceWeekly:
		for _, name := range rule.DaysOfWeek {
			if wd, ok := models.WeekdayFromName(name); ok && wd == day.Weekday() {
				return true
			}
		}
		return false
	case models.CadenceMonthly:
		if rule.DayOfMonth == nil || *rule.DayOfMonth < 1 {
			return false
		}
		// Days past the end of a short month fire on its last day.
		want := *rule.DayOfMonth
		if last := daysInMonth(day.Year(), day.Month()); want > last {
			want = last
		}
		return day.Day() == want
	}
	return false
}

// civilDay drops the clock and zone from t, keeping its calendar date.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
