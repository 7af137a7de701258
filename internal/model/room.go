package model

import "time"

// Room groups a household's templates by area (kitchen, bathroom, garden).
// NameKey is the case-folded, space-collapsed name rooms are matched by;
// Name keeps the first spelling seen.
type Room struct {
	ID          string `gorm:"primaryKey;size:36"`
	HouseholdID string `gorm:"size:64;index:idx_household_room_key,unique"`
	NameKey     string `gorm:"size:128;index:idx_household_room_key,unique"`
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
