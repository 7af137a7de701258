package service

import (
	"context"
	"errors"
	"time"

	"household-planner/internal/model"
)

var (
	// ErrNotFound is returned when a template or occurrence does not exist.
	ErrNotFound = model.ErrNotFound
	// ErrNoMembers is returned by the rotation for a household without members.
	ErrNoMembers = errors.New("household has no members")
	// ErrValidation wraps rejected input other than recurrence rules.
	ErrValidation = errors.New("validation failed")
)

// TemplateStore persists task templates.
type TemplateStore interface {
	Create(ctx context.Context, t *model.TaskTemplate) error
	FindByID(ctx context.Context, id string) (*model.TaskTemplate, error)
	Save(ctx context.Context, t *model.TaskTemplate) error
	ListActiveRecurring(ctx context.Context) ([]model.TaskTemplate, error)
	ListActiveByHousehold(ctx context.Context, householdID string) ([]model.TaskTemplate, error)
}

// OccurrenceStore persists occurrences. InsertIfAbsent must enforce
// uniqueness of (parent template, scheduled at) and report a conflict as
// (false, nil).
type OccurrenceStore interface {
	Create(ctx context.Context, o *model.TaskOccurrence) error
	InsertIfAbsent(ctx context.Context, o *model.TaskOccurrence) (bool, error)
	FindByID(ctx context.Context, id string) (*model.TaskOccurrence, error)
	Save(ctx context.Context, o *model.TaskOccurrence) error
	ScheduledAtByTemplate(ctx context.Context, templateID string) ([]time.Time, error)
	ListPendingDueBefore(ctx context.Context, before time.Time) ([]model.TaskOccurrence, error)
	ListPendingDueBetween(ctx context.Context, from, to time.Time, unnotifiedOnly bool) ([]model.TaskOccurrence, error)
	TransitionStatus(ctx context.Context, id string, from, to model.Status) (bool, error)
	MarkDueSoonNotified(ctx context.Context, id string, at time.Time) error
}

// AssignmentStore persists weekly assignments, unique per (template, week).
type AssignmentStore interface {
	ListByHouseholdWeek(ctx context.Context, householdID string, weekStart time.Time) ([]model.WeeklyAssignment, error)
	InsertIfAbsent(ctx context.Context, a *model.WeeklyAssignment) (bool, error)
	FindByTemplateWeek(ctx context.Context, templateID string, weekStart time.Time) (*model.WeeklyAssignment, error)
}

// MemberDirectory returns a household's member ids in rotation order.
type MemberDirectory interface {
	MemberIDs(ctx context.Context, householdID string) ([]string, error)
}

// RoomStore resolves room names to rooms.
type RoomStore interface {
	GetOrCreate(ctx context.Context, householdID, name string) (*model.Room, error)
}
