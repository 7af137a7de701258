package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"household-planner/internal/model"
)

// AssignmentRepository handles weekly rotation assignments.
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) ListByHouseholdWeek(ctx context.Context, householdID string, weekStart time.Time) ([]model.WeeklyAssignment, error) {
	var out []model.WeeklyAssignment
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND week_start_date = ?", householdID, model.Instant(weekStart)).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return out, nil
}

// InsertIfAbsent inserts a unless (template_id, week_start_date) is taken.
func (r *AssignmentRepository) InsertIfAbsent(ctx context.Context, a *model.WeeklyAssignment) (bool, error) {
	a.WeekStartDate = model.Instant(a.WeekStartDate)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		return false, fmt.Errorf("insert assignment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *AssignmentRepository) FindByTemplateWeek(ctx context.Context, templateID string, weekStart time.Time) (*model.WeeklyAssignment, error) {
	var a model.WeeklyAssignment
	if err := r.db.WithContext(ctx).
		Where("template_id = ? AND week_start_date = ?", templateID, model.Instant(weekStart)).
		First(&a).Error; err != nil {
		return nil, fmt.Errorf("find assignment: %w", notFound(err))
	}
	return &a, nil
}
