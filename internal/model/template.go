package model

import (
	"time"

	"household-planner/internal/recurrence"
)

// TaskTemplate is the recurring (or one-off) task definition occurrences are
// produced from.
type TaskTemplate struct {
	ID          string  `gorm:"primaryKey;size:36"`
	HouseholdID string  `gorm:"size:64;index"`
	RoomID      *string `gorm:"size:36;index"`
	Title       string
	Description string
	Points      int
	Icon        string

	RecurKind       recurrence.Kind `gorm:"size:16;default:none"`
	RecurInterval   int
	RecurDays       string
	RecurDayOfMonth int

	Timezone    string
	ScheduledAt *time.Time
	DueDate     *time.Time
	Status      Status `gorm:"size:16;default:pending"`
	CompletedAt *time.Time
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Rule decodes the recurrence columns.
func (t *TaskTemplate) Rule() (recurrence.Rule, error) {
	days, err := recurrence.ParseDays(t.RecurDays)
	if err != nil {
		return nil, err
	}
	return recurrence.FromParts(t.RecurKind, t.RecurInterval, days, t.RecurDayOfMonth)
}

// SetRule stores r in the recurrence columns. A nil rule clears them.
func (t *TaskTemplate) SetRule(r recurrence.Rule) {
	kind, interval, days, dom := recurrence.Parts(r)
	t.RecurKind = kind
	t.RecurInterval = interval
	t.RecurDays = recurrence.FormatDays(days)
	t.RecurDayOfMonth = dom
}

// IsRecurring reports whether the materializer should expand this template.
func (t *TaskTemplate) IsRecurring() bool {
	return t.RecurKind != "" && t.RecurKind != recurrence.KindNone
}

// Location resolves Timezone, falling back to def for empty or unknown zones.
func (t *TaskTemplate) Location(def *time.Location) *time.Location {
	if t.Timezone != "" {
		if loc, err := time.LoadLocation(t.Timezone); err == nil {
			return loc
		}
	}
	if def == nil {
		return time.Local
	}
	return def
}
