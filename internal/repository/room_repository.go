package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"household-planner/internal/model"
)

// RoomRepository manages household rooms.
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// GetOrCreate resolves a room by name inside a household. "  kitchen" and
// "Kitchen" are the same room. A blank name resolves to no room.
func (r *RoomRepository) GetOrCreate(ctx context.Context, householdID, name string) (*model.Room, error) {
	display := strings.Join(strings.Fields(name), " ")
	if display == "" {
		return nil, nil
	}
	key := strings.ToLower(display)

	db := r.db.WithContext(ctx)
	room := model.Room{HouseholdID: householdID, NameKey: key, Name: display}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&room).Error; err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	var stored model.Room
	if err := db.Where("household_id = ? AND name_key = ?", householdID, key).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("find room %q: %w", display, notFound(err))
	}
	return &stored, nil
}

func (r *RoomRepository) ListByHousehold(ctx context.Context, householdID string) ([]model.Room, error) {
	var rooms []model.Room
	if err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("name_key ASC").
		Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
