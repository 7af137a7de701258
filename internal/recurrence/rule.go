// Package recurrence expands recurrence rules into concrete occurrence dates
// and derives due dates. Everything here is pure: callers pass "now" and the
// horizon explicitly.
package recurrence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind names the recurrence variant stored alongside a template.
type Kind string

const (
	KindNone    Kind = "none"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// ParseKind accepts the stored/wire spelling of a kind. Empty means none.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindNone:
		return KindNone, nil
	case KindDaily:
		return KindDaily, nil
	case KindWeekly:
		return KindWeekly, nil
	case KindMonthly:
		return KindMonthly, nil
	default:
		return "", &InvalidRuleError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", raw)}
	}
}

// Rule is one of None, Daily, Weekly or Monthly.
type Rule interface {
	Kind() Kind
	Validate() error
}

// None marks a single-occurrence task.
type None struct{}

// Daily repeats every Interval days.
type Daily struct {
	Interval int
}

// Weekly repeats on Days every Interval weeks. Empty Days means the
// weekday of the anchor date.
type Weekly struct {
	Interval int
	Days     []time.Weekday
}

// Monthly repeats every Interval months on DayOfMonth. Zero DayOfMonth
// means the anchor's day of month.
type Monthly struct {
	Interval   int
	DayOfMonth int
}

func (None) Kind() Kind    { return KindNone }
func (Daily) Kind() Kind   { return KindDaily }
func (Weekly) Kind() Kind  { return KindWeekly }
func (Monthly) Kind() Kind { return KindMonthly }

func (None) Validate() error { return nil }

func (r Daily) Validate() error { return validateInterval(r.Interval) }

func (r Weekly) Validate() error {
	if err := validateInterval(r.Interval); err != nil {
		return err
	}
	for _, d := range r.Days {
		if d < time.Sunday || d > time.Saturday {
			return &InvalidRuleError{Field: "days_of_week", Reason: fmt.Sprintf("weekday %d out of range 0..6", d)}
		}
	}
	return nil
}

func (r Monthly) Validate() error {
	if err := validateInterval(r.Interval); err != nil {
		return err
	}
	if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
		return &InvalidRuleError{Field: "day_of_month", Reason: fmt.Sprintf("day %d out of range 1..31", r.DayOfMonth)}
	}
	return nil
}

func validateInterval(n int) error {
	if n < 1 {
		return &InvalidRuleError{Field: "interval", Reason: fmt.Sprintf("interval %d must be at least 1", n)}
	}
	return nil
}

// InvalidRuleError reports a malformed recurrence rule.
type InvalidRuleError struct {
	Field  string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid recurrence %s: %s", e.Field, e.Reason)
}

// FromParts builds a validated Rule from flat columns.
func FromParts(kind Kind, interval int, days []time.Weekday, dayOfMonth int) (Rule, error) {
	var r Rule
	switch kind {
	case "", KindNone:
		r = None{}
	case KindDaily:
		r = Daily{Interval: interval}
	case KindWeekly:
		r = Weekly{Interval: interval, Days: days}
	case KindMonthly:
		r = Monthly{Interval: interval, DayOfMonth: dayOfMonth}
	default:
		return nil, &InvalidRuleError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Parts flattens a Rule back into columns. A nil rule is None.
func Parts(r Rule) (kind Kind, interval int, days []time.Weekday, dayOfMonth int) {
	switch v := r.(type) {
	case Daily:
		return KindDaily, v.Interval, nil, 0
	case Weekly:
		return KindWeekly, v.Interval, v.Days, 0
	case Monthly:
		return KindMonthly, v.Interval, nil, v.DayOfMonth
	default:
		return KindNone, 0, nil, 0
	}
}

// FormatDays renders weekdays as a sorted, de-duplicated "1,3,5" list.
func FormatDays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	seen := make(map[time.Weekday]bool, len(days))
	ints := make([]int, 0, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		ints = append(ints, int(d))
	}
	sort.Ints(ints)
	parts := make([]string, len(ints))
	for i, n := range ints {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ParseDays reads the FormatDays encoding.
func ParseDays(raw string) ([]time.Weekday, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []time.Weekday
	for _, p := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &InvalidRuleError{Field: "days_of_week", Reason: fmt.Sprintf("bad weekday %q", p)}
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}
