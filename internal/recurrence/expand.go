package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Overflow decides what a monthly rule does when DayOfMonth does not exist
// in the target month (the 31st of February).
type Overflow int

const (
	// OverflowClamp moves the date to the last day of the month.
	OverflowClamp Overflow = iota
	// OverflowSkip drops that month.
	OverflowSkip
)

func ParseOverflow(raw string) (Overflow, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "clamp":
		return OverflowClamp, nil
	case "skip":
		return OverflowSkip, nil
	default:
		return 0, fmt.Errorf("unknown month overflow policy %q", raw)
	}
}

func (o Overflow) String() string {
	if o == OverflowSkip {
		return "skip"
	}
	return "clamp"
}

// Expander expands rules with a fixed overflow policy.
type Expander struct {
	Overflow Overflow
}

// Expand uses the clamp policy.
func Expand(start, horizon time.Time, rule Rule) ([]time.Time, error) {
	return Expander{}.Expand(start, horizon, rule)
}

// Expand returns the occurrence dates of rule in [start, horizon], strictly
// increasing. Calendar arithmetic happens in start's location so the wall
// clock time of day survives DST changes.
func (e Expander) Expand(start, horizon time.Time, rule Rule) ([]time.Time, error) {
	if rule == nil {
		return nil, nil
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if horizon.Before(start) {
		return nil, nil
	}

	switch r := rule.(type) {
	case None:
		return nil, nil
	case Daily:
		return expandDaily(start, horizon, r.Interval), nil
	case Weekly:
		return expandWeekly(start, horizon, r), nil
	case Monthly:
		return e.expandMonthly(start, horizon, r), nil
	default:
		return nil, &InvalidRuleError{Field: "kind", Reason: fmt.Sprintf("unsupported rule %T", rule)}
	}
}

func expandDaily(start, horizon time.Time, interval int) []time.Time {
	var out []time.Time
	for n := 0; ; n++ {
		d := start.AddDate(0, 0, n*interval)
		if d.After(horizon) {
			return out
		}
		out = append(out, d)
	}
}

// expandWeekly walks blocks of 7*interval days from start and emits the
// matching weekdays of the first week of each block.
func expandWeekly(start, horizon time.Time, r Weekly) []time.Time {
	var want [7]bool
	if len(r.Days) == 0 {
		want[start.Weekday()] = true
	}
	for _, d := range r.Days {
		want[d] = true
	}

	var out []time.Time
	for block := 0; ; block++ {
		blockStart := start.AddDate(0, 0, block*7*r.Interval)
		if blockStart.After(horizon) {
			return out
		}
		for i := 0; i < 7; i++ {
			d := blockStart.AddDate(0, 0, i)
			if d.After(horizon) {
				return out
			}
			if want[d.Weekday()] {
				out = append(out, d)
			}
		}
	}
}

func (e Expander) expandMonthly(start, horizon time.Time, r Monthly) []time.Time {
	day := r.DayOfMonth
	if day == 0 {
		day = start.Day()
	}
	year, month, _ := start.Date()
	hh, mm, ss := start.Clock()
	ns := start.Nanosecond()
	loc := start.Location()

	var out []time.Time
	for k := 0; ; k++ {
		first := time.Date(year, month+time.Month(k*r.Interval), 1, hh, mm, ss, ns, loc)
		if first.After(horizon) {
			return out
		}
		d := day
		if last := DaysIn(first.Year(), first.Month()); d > last {
			if e.Overflow == OverflowSkip {
				continue
			}
			d = last
		}
		c := time.Date(first.Year(), first.Month(), d, hh, mm, ss, ns, loc)
		if c.Before(start) {
			continue
		}
		if c.After(horizon) {
			return out
		}
		out = append(out, c)
	}
}
