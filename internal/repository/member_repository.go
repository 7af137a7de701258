package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"household-planner/internal/model"
)

// MemberRepository is the membership directory: who belongs to a household
// and in which rotation order.
type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Upsert adds memberID to the end of the household's rotation order, or
// refreshes the display name and chat id of an existing member.
func (r *MemberRepository) Upsert(ctx context.Context, householdID, memberID, displayName string, chatID *int64) (*model.HouseholdMember, error) {
	var member model.HouseholdMember
	db := r.db.WithContext(ctx)
	err := db.Where("household_id = ? AND member_id = ?", householdID, memberID).First(&member).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"display_name":     displayName,
			"telegram_chat_id": chatID,
		}
		if err := db.Model(&member).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update member: %w", err)
		}
		return &member, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		var last struct{ Max *int }
		if err := db.Model(&model.HouseholdMember{}).
			Select("MAX(position) AS max").
			Where("household_id = ?", householdID).
			Scan(&last).Error; err != nil {
			return nil, fmt.Errorf("member position: %w", err)
		}
		position := 0
		if last.Max != nil {
			position = *last.Max + 1
		}
		member = model.HouseholdMember{
			HouseholdID:    householdID,
			MemberID:       memberID,
			DisplayName:    displayName,
			Position:       position,
			TelegramChatID: chatID,
		}
		if err := db.Create(&member).Error; err != nil {
			return nil, fmt.Errorf("create member: %w", err)
		}
		return &member, nil
	default:
		return nil, fmt.Errorf("find member: %w", err)
	}
}

func (r *MemberRepository) Remove(ctx context.Context, householdID, memberID string) error {
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND member_id = ?", householdID, memberID).
		Delete(&model.HouseholdMember{}).Error; err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// MemberIDs returns the household's members in rotation order.
func (r *MemberRepository) MemberIDs(ctx context.Context, householdID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.HouseholdMember{}).
		Where("household_id = ?", householdID).
		Order("position ASC, joined_at ASC, id ASC").
		Pluck("member_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return ids, nil
}

// ListByHousehold returns the household's members in rotation order.
func (r *MemberRepository) ListByHousehold(ctx context.Context, householdID string) ([]model.HouseholdMember, error) {
	var members []model.HouseholdMember
	if err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("position ASC, joined_at ASC, id ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// TelegramChatID returns the chat a member receives notifications in.
func (r *MemberRepository) TelegramChatID(ctx context.Context, memberID string) (int64, bool, error) {
	var member model.HouseholdMember
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND telegram_chat_id IS NOT NULL", memberID).
		Order("id ASC").
		First(&member).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("find member chat: %w", err)
	}
	return *member.TelegramChatID, true, nil
}

func (r *MemberRepository) FindByTelegramChatID(ctx context.Context, chatID int64) (*model.HouseholdMember, error) {
	var member model.HouseholdMember
	if err := r.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID).Order("id ASC").First(&member).Error; err != nil {
		return nil, fmt.Errorf("find member by chat: %w", notFound(err))
	}
	return &member, nil
}
