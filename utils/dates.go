package utils

import (
	"strings"
	"time"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
)

const DateLayout = "2006-01-02"

// NormalizeDate accepts a calendar date or an ISO date-time and returns
// the YYYY-MM-DD part.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", models.Invalid("Invalid date format, expected YYYY-MM-DD")
	}
	return s, nil
}

// OptionalDate is NormalizeDate for query parameters that may be empty.
func OptionalDate(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return NormalizeDate(s)
}

func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Monday of t's week.
func StartOfWeek(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return DayStart(t).AddDate(0, 0, -(wd - 1))
}

func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// WeekBounds returns the Monday and Sunday around the given YYYY-MM-DD.
func WeekBounds(date string) (start, end string, err error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", "", err
	}
	mon := StartOfWeek(d)
	return FormatDate(mon), FormatDate(mon.AddDate(0, 0, 6)), nil
}
