package recurrence

import (
	"fmt"
	"time"
)

// DueDate derives the due date of an occurrence scheduled at `at`.
// For KindNone the caller-supplied date is returned unchanged.
func DueDate(at time.Time, kind Kind, supplied time.Time) (time.Time, error) {
	switch kind {
	case KindDaily:
		return at.AddDate(0, 0, 1), nil
	case KindWeekly:
		return at.AddDate(0, 0, 7), nil
	case KindMonthly:
		return AddMonths(at, 1), nil
	case KindNone, "":
		return supplied, nil
	default:
		return time.Time{}, &InvalidRuleError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}
}

// AddMonths moves t by n calendar months, clamping the day to the end of the
// target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hh, mm, ss := t.Clock()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hh, mm, ss, t.Nanosecond(), t.Location())
}

func DaysIn(year int, month time.Month) int {
	// Move to next month, roll back a day.
	firstOfNextMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNextMonth.AddDate(0, 0, -1).Day()
}

// WeekStart returns Monday 00:00 in loc of the ISO week containing now.
// Sunday belongs to the week that started the previous Monday.
func WeekStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	y, m, d := local.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}
