package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"household-planner/internal/model"
)

// OccurrenceRepository handles generated task occurrences.
type OccurrenceRepository struct {
	db *gorm.DB
}

func NewOccurrenceRepository(db *gorm.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

func (r *OccurrenceRepository) Create(ctx context.Context, o *model.TaskOccurrence) error {
	normalizeOccurrence(o)
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("create occurrence: %w", err)
	}
	return nil
}

// InsertIfAbsent inserts o unless an occurrence with the same
// (parent_template_id, scheduled_at) exists. It reports whether a row was
// written; a conflict is not an error.
func (r *OccurrenceRepository) InsertIfAbsent(ctx context.Context, o *model.TaskOccurrence) (bool, error) {
	normalizeOccurrence(o)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(o)
	if res.Error != nil {
		return false, fmt.Errorf("insert occurrence: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *OccurrenceRepository) FindByID(ctx context.Context, id string) (*model.TaskOccurrence, error) {
	var o model.TaskOccurrence
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, fmt.Errorf("find occurrence %s: %w", id, notFound(err))
	}
	return &o, nil
}

func (r *OccurrenceRepository) Save(ctx context.Context, o *model.TaskOccurrence) error {
	normalizeOccurrence(o)
	if err := r.db.WithContext(ctx).Save(o).Error; err != nil {
		return fmt.Errorf("save occurrence: %w", err)
	}
	return nil
}

func (r *OccurrenceRepository) ListByTemplate(ctx context.Context, templateID string) ([]model.TaskOccurrence, error) {
	var out []model.TaskOccurrence
	if err := r.db.WithContext(ctx).
		Where("parent_template_id = ?", templateID).
		Order("scheduled_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	return out, nil
}

// ScheduledAtByTemplate returns the scheduled instants already materialized
// for a template.
func (r *OccurrenceRepository) ScheduledAtByTemplate(ctx context.Context, templateID string) ([]time.Time, error) {
	var out []time.Time
	if err := r.db.WithContext(ctx).Model(&model.TaskOccurrence{}).
		Where("parent_template_id = ?", templateID).
		Order("scheduled_at ASC").
		Pluck("scheduled_at", &out).Error; err != nil {
		return nil, fmt.Errorf("list scheduled dates: %w", err)
	}
	return out, nil
}

// ListPendingDueBefore returns pending occurrences with due_date < before.
func (r *OccurrenceRepository) ListPendingDueBefore(ctx context.Context, before time.Time) ([]model.TaskOccurrence, error) {
	var out []model.TaskOccurrence
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", model.StatusPending, before.UTC()).
		Order("due_date ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list overdue candidates: %w", err)
	}
	return out, nil
}

// ListPendingDueBetween returns pending occurrences with from <= due_date <= to.
// With unnotifiedOnly set, occurrences already flagged by a due-soon pass are
// left out.
func (r *OccurrenceRepository) ListPendingDueBetween(ctx context.Context, from, to time.Time, unnotifiedOnly bool) ([]model.TaskOccurrence, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND due_date >= ? AND due_date <= ?", model.StatusPending, from.UTC(), to.UTC())
	if unnotifiedOnly {
		q = q.Where("due_soon_notified_at IS NULL")
	}
	var out []model.TaskOccurrence
	if err := q.Order("due_date ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list due-soon occurrences: %w", err)
	}
	return out, nil
}

// TransitionStatus moves an occurrence from one status to another only if it
// is still in `from`. It reports whether this call made the change.
func (r *OccurrenceRepository) TransitionStatus(ctx context.Context, id string, from, to model.Status) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TaskOccurrence{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("transition occurrence %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *OccurrenceRepository) MarkDueSoonNotified(ctx context.Context, id string, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.TaskOccurrence{}).
		Where("id = ?", id).
		Update("due_soon_notified_at", model.Instant(at)).Error; err != nil {
		return fmt.Errorf("mark due-soon notified: %w", err)
	}
	return nil
}

func normalizeOccurrence(o *model.TaskOccurrence) {
	o.ScheduledAt = model.Instant(o.ScheduledAt)
	o.DueDate = model.Instant(o.DueDate)
	o.CompletedAt = model.InstantPtr(o.CompletedAt)
	o.DueSoonNotifiedAt = model.InstantPtr(o.DueSoonNotifiedAt)
}
