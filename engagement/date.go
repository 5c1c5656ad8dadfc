package engagement

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for every date field.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date field is not a YYYY-MM-DD day.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a calendar day. The result is midnight UTC so that day
// arithmetic is never affected by DST transitions.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Today returns the calendar day of now as observed in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to string) (int, error) {
	f, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(f) / (24 * time.Hour)), nil
}

// AddDays shifts a calendar day by n days.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDate(day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}
