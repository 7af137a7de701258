package model

import "time"

// HouseholdMember backs the membership directory. Position fixes the
// rotation order inside a household.
type HouseholdMember struct {
	ID             uint   `gorm:"primaryKey"`
	HouseholdID    string `gorm:"size:64;index:idx_household_member,unique"`
	MemberID       string `gorm:"size:64;index:idx_household_member,unique"`
	DisplayName    string
	Position       int
	TelegramChatID *int64    `gorm:"index"`
	JoinedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time
}
