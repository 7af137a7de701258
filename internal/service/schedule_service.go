package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"household-planner/internal/model"
	"household-planner/internal/recurrence"
)

// TemplateInput represents data required to create a template.
type TemplateInput struct {
	HouseholdID string
	Title       string
	Description string
	Room        string
	Icon        string
	Points      int
	Recurrence  recurrence.Rule
	Timezone    string
	ScheduledAt *time.Time
	DueDate     *time.Time
}

// ScheduleUpdate carries the schedule fields to overwrite. Nil fields are
// left as they are.
type ScheduleUpdate struct {
	ScheduledAt *time.Time
	DueDate     *time.Time
	Recurrence  recurrence.Rule
	Timezone    *string
}

// ScheduleService owns the schedule of templates and the lifecycle status of
// occurrences. It does not police status transitions.
type ScheduleService struct {
	templates   TemplateStore
	occurrences OccurrenceStore
	rooms       RoomStore
	log         zerolog.Logger
}

func NewScheduleService(templates TemplateStore, occurrences OccurrenceStore, rooms RoomStore, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{templates: templates, occurrences: occurrences, rooms: rooms, log: log}
}

// CreateTemplate stores a new template. A template without recurrence is a
// one-off task and gets its single occurrence right away; that occurrence
// has no parent template.
func (s *ScheduleService) CreateTemplate(ctx context.Context, in TemplateInput, now time.Time) (*model.TaskTemplate, *model.TaskOccurrence, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.HouseholdID) == "" {
		return nil, nil, fmt.Errorf("%w: household is required", ErrValidation)
	}
	rule := in.Recurrence
	if rule == nil {
		rule = recurrence.None{}
	}
	if err := rule.Validate(); err != nil {
		return nil, nil, err
	}
	if err := validateTimezone(in.Timezone); err != nil {
		return nil, nil, err
	}

	var roomID *string
	if in.Room != "" && s.rooms != nil {
		room, err := s.rooms.GetOrCreate(ctx, in.HouseholdID, in.Room)
		if err != nil {
			return nil, nil, err
		}
		if room != nil {
			roomID = &room.ID
		}
	}

	anchor := now
	if in.ScheduledAt != nil {
		anchor = *in.ScheduledAt
	}

	t := model.TaskTemplate{
		HouseholdID: in.HouseholdID,
		RoomID:      roomID,
		Title:       in.Title,
		Description: in.Description,
		Points:      in.Points,
		Icon:        in.Icon,
		Timezone:    in.Timezone,
		ScheduledAt: &anchor,
		DueDate:     in.DueDate,
		Status:      model.StatusPending,
		Active:      true,
	}
	t.SetRule(rule)

	if err := s.templates.Create(ctx, &t); err != nil {
		return nil, nil, err
	}

	if rule.Kind() != recurrence.KindNone {
		return &t, nil, nil
	}

	due := anchor
	if in.DueDate != nil {
		due = *in.DueDate
	}
	occ := model.OccurrenceFrom(&t, anchor, due)
	occ.ParentTemplateID = nil
	if err := s.occurrences.Create(ctx, &occ); err != nil {
		return &t, nil, err
	}
	return &t, &occ, nil
}

// SetSchedule overwrites the template's schedule fields and resets its
// status to pending.
func (s *ScheduleService) SetSchedule(ctx context.Context, templateID string, upd ScheduleUpdate) (*model.TaskTemplate, error) {
	t, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if upd.Recurrence != nil {
		if err := upd.Recurrence.Validate(); err != nil {
			return nil, err
		}
		t.SetRule(upd.Recurrence)
	}
	if upd.Timezone != nil {
		if err := validateTimezone(*upd.Timezone); err != nil {
			return nil, err
		}
		t.Timezone = *upd.Timezone
	}
	if upd.ScheduledAt != nil {
		at := *upd.ScheduledAt
		t.ScheduledAt = &at
	}
	if upd.DueDate != nil {
		due := *upd.DueDate
		t.DueDate = &due
	}
	t.Status = model.StatusPending
	t.CompletedAt = nil

	if err := s.templates.Save(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info().Str("template", templateID).Str("kind", string(t.RecurKind)).Msg("schedule updated")
	return t, nil
}

// UpdateTaskStatus sets an occurrence's status. Entering completed stamps
// completedAt; any other status clears it.
func (s *ScheduleService) UpdateTaskStatus(ctx context.Context, occurrenceID string, status model.Status, now time.Time) (*model.TaskOccurrence, error) {
	status, err := model.ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	o, err := s.occurrences.FindByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}

	switch {
	case status != model.StatusCompleted:
		o.CompletedAt = nil
	case o.Status != model.StatusCompleted || o.CompletedAt == nil:
		at := now
		o.CompletedAt = &at
	}
	o.Status = status

	if err := s.occurrences.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func validateTimezone(tz string) error {
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrValidation, tz)
	}
	return nil
}
