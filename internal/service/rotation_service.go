package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"household-planner/internal/metrics"
	"household-planner/internal/model"
	"household-planner/internal/recurrence"
)

// RotationService hands each active template of a household to one member
// per week, round-robin over the membership order.
type RotationService struct {
	templates   TemplateStore
	assignments AssignmentStore
	members     MemberDirectory
	loc         *time.Location
	metrics     *metrics.Metrics
	log         zerolog.Logger
	flight      singleflight.Group
}

func NewRotationService(templates TemplateStore, assignments AssignmentStore, members MemberDirectory, loc *time.Location, m *metrics.Metrics, log zerolog.Logger) *RotationService {
	if loc == nil {
		loc = time.Local
	}
	return &RotationService{
		templates:   templates,
		assignments: assignments,
		members:     members,
		loc:         loc,
		metrics:     m,
		log:         log,
	}
}

// AssignWeek writes this week's assignments for a household. A household
// that already has assignments for the week gets them back unchanged.
func (s *RotationService) AssignWeek(ctx context.Context, householdID string, now time.Time) ([]model.WeeklyAssignment, error) {
	weekStart := recurrence.WeekStart(now, s.loc)
	key := householdID + ":" + weekStart.UTC().Format(time.RFC3339)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.assignWeek(ctx, householdID, weekStart)
	})
	out, _ := v.([]model.WeeklyAssignment)
	return out, err
}

func (s *RotationService) assignWeek(ctx context.Context, householdID string, weekStart time.Time) ([]model.WeeklyAssignment, error) {
	templates, err := s.templates.ListActiveByHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	members, err := s.members.MemberIDs(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("household %s: %w", householdID, ErrNoMembers)
	}

	existing, err := s.assignments.ListByHouseholdWeek(ctx, householdID, weekStart)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	previous, err := s.assignments.ListByHouseholdWeek(ctx, householdID, weekStart.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	prior := make(map[string]string, len(previous))
	for _, a := range previous {
		prior[a.TemplateID] = a.AssignedMemberID
	}

	out := make([]model.WeeklyAssignment, 0, len(templates))
	created := 0
	for _, t := range templates {
		a := model.WeeklyAssignment{
			HouseholdID:      householdID,
			TemplateID:       t.ID,
			AssignedMemberID: NextAssignee(members, prior[t.ID]),
			WeekStartDate:    weekStart,
		}
		ok, err := s.assignments.InsertIfAbsent(ctx, &a)
		if err != nil {
			return out, err
		}
		if !ok {
			got, err := s.assignments.FindByTemplateWeek(ctx, t.ID, weekStart)
			if err != nil {
				return out, err
			}
			a = *got
		} else {
			created++
		}
		out = append(out, a)
	}

	s.metrics.Assigned(created)
	s.log.Info().
		Str("household", householdID).
		Time("week", weekStart).
		Int("templates", len(templates)).
		Int("members", len(members)).
		Msg("weekly rotation assigned")
	return out, nil
}

// NextAssignee returns the member after prior in members. An empty prior, or
// one no longer in the list, restarts the rotation at the first member.
func NextAssignee(members []string, prior string) string {
	if len(members) == 0 {
		return ""
	}
	if prior != "" {
		for i, m := range members {
			if m == prior {
				return members[(i+1)%len(members)]
			}
		}
	}
	return members[0]
}
