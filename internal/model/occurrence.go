package model

import "time"

// TaskOccurrence is one dated instance of a template. ParentTemplateID is nil
// for one-off tasks. (ParentTemplateID, ScheduledAt) is unique.
type TaskOccurrence struct {
	ID               string  `gorm:"primaryKey;size:36"`
	HouseholdID      string  `gorm:"size:64;index"`
	ParentTemplateID *string `gorm:"size:36;uniqueIndex:idx_occurrence_template_at"`
	RoomID           *string `gorm:"size:36"`
	Title            string
	Description      string
	Points           int
	Icon             string

	ScheduledAt       time.Time `gorm:"uniqueIndex:idx_occurrence_template_at"`
	DueDate           time.Time `gorm:"index:idx_occurrence_status_due,priority:2"`
	Status            Status    `gorm:"size:16;default:pending;index:idx_occurrence_status_due,priority:1"`
	CompletedAt       *time.Time
	DueSoonNotifiedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OccurrenceFrom copies the reward and display fields of t verbatim.
func OccurrenceFrom(t *TaskTemplate, scheduledAt, dueDate time.Time) TaskOccurrence {
	parent := t.ID
	return TaskOccurrence{
		HouseholdID:      t.HouseholdID,
		ParentTemplateID: &parent,
		RoomID:           t.RoomID,
		Title:            t.Title,
		Description:      t.Description,
		Points:           t.Points,
		Icon:             t.Icon,
		ScheduledAt:      scheduledAt,
		DueDate:          dueDate,
		Status:           StatusPending,
	}
}
