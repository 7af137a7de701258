package model

import "time"

// WeeklyAssignment binds one template to one member for the week starting
// at WeekStartDate (Monday 00:00 in the household timezone, stored UTC).
type WeeklyAssignment struct {
	ID               string    `gorm:"primaryKey;size:36"`
	HouseholdID      string    `gorm:"size:64;index:idx_assignment_household_week"`
	TemplateID       string    `gorm:"size:36;uniqueIndex:idx_assignment_template_week"`
	AssignedMemberID string    `gorm:"size:64"`
	WeekStartDate    time.Time `gorm:"uniqueIndex:idx_assignment_template_week;index:idx_assignment_household_week"`
	IsCompleted      bool      `gorm:"default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
