package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"household-planner/internal/model"
	"household-planner/internal/recurrence"
)

// TemplateRepository handles task templates.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, t *model.TaskTemplate) error {
	normalizeTemplate(t)
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*model.TaskTemplate, error) {
	var t model.TaskTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, fmt.Errorf("find template %s: %w", id, notFound(err))
	}
	return &t, nil
}

// Save writes every column, including zero values.
func (r *TemplateRepository) Save(ctx context.Context, t *model.TaskTemplate) error {
	normalizeTemplate(t)
	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

// ListActiveRecurring returns every active template with a recurrence rule.
func (r *TemplateRepository) ListActiveRecurring(ctx context.Context) ([]model.TaskTemplate, error) {
	var out []model.TaskTemplate
	if err := r.db.WithContext(ctx).
		Where("active = ? AND recur_kind IS NOT NULL AND recur_kind <> ? AND recur_kind <> ?", true, "", recurrence.KindNone).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	return out, nil
}

func (r *TemplateRepository) ListActiveByHousehold(ctx context.Context, householdID string) ([]model.TaskTemplate, error) {
	var out []model.TaskTemplate
	if err := r.db.WithContext(ctx).
		Where("household_id = ? AND active = ?", householdID, true).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list household templates: %w", err)
	}
	return out, nil
}

func normalizeTemplate(t *model.TaskTemplate) {
	t.ScheduledAt = model.InstantPtr(t.ScheduledAt)
	t.DueDate = model.InstantPtr(t.DueDate)
	t.CompletedAt = model.InstantPtr(t.CompletedAt)
}
