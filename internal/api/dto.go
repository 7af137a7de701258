package api

import (
	"time"

	"household-planner/internal/model"
	"household-planner/internal/recurrence"
)

type recurrenceRequest struct {
	Kind       string `json:"kind"`
	Interval   *int   `json:"interval"`
	DaysOfWeek []int  `json:"days_of_week"`
	DayOfMonth int    `json:"day_of_month"`
}

// rule builds the recurrence rule. An omitted interval means 1.
func (r *recurrenceRequest) rule() (recurrence.Rule, error) {
	if r == nil {
		return nil, nil
	}
	kind, err := recurrence.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	interval := 1
	if r.Interval != nil {
		interval = *r.Interval
	}
	days := make([]time.Weekday, 0, len(r.DaysOfWeek))
	for _, d := range r.DaysOfWeek {
		days = append(days, time.Weekday(d))
	}
	if kind == recurrence.KindNone {
		return recurrence.None{}, nil
	}
	return recurrence.FromParts(kind, interval, days, r.DayOfMonth)
}

type createTemplateRequest struct {
	HouseholdID string             `json:"household_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Room        string             `json:"room"`
	Icon        string             `json:"icon"`
	Points      int                `json:"points"`
	Timezone    string             `json:"timezone"`
	ScheduledAt *time.Time         `json:"scheduled_at"`
	DueDate     *time.Time         `json:"due_date"`
	Recurrence  *recurrenceRequest `json:"recurrence"`
}

type scheduleRequest struct {
	ScheduledAt *time.Time         `json:"scheduled_at"`
	DueDate     *time.Time         `json:"due_date"`
	Timezone    *string            `json:"timezone"`
	Recurrence  *recurrenceRequest `json:"recurrence"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type memberRequest struct {
	DisplayName    string `json:"display_name"`
	TelegramChatID *int64 `json:"telegram_chat_id"`
}

type recurrenceResponse struct {
	Kind       recurrence.Kind `json:"kind"`
	Interval   int             `json:"interval,omitempty"`
	DaysOfWeek []int           `json:"days_of_week,omitempty"`
	DayOfMonth int             `json:"day_of_month,omitempty"`
}

type templateResponse struct {
	ID          string             `json:"id"`
	HouseholdID string             `json:"household_id"`
	RoomID      *string            `json:"room_id,omitempty"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Points      int                `json:"points"`
	Icon        string             `json:"icon,omitempty"`
	Recurrence  recurrenceResponse `json:"recurrence"`
	Timezone    string             `json:"timezone,omitempty"`
	ScheduledAt *time.Time         `json:"scheduled_at"`
	DueDate     *time.Time         `json:"due_date"`
	Status      model.Status       `json:"status"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Active      bool               `json:"active"`
}

func newTemplateResponse(t *model.TaskTemplate) templateResponse {
	rec := recurrenceResponse{Kind: t.RecurKind, Interval: t.RecurInterval, DayOfMonth: t.RecurDayOfMonth}
	if rec.Kind == "" {
		rec.Kind = recurrence.KindNone
	}
	if days, err := recurrence.ParseDays(t.RecurDays); err == nil {
		for _, d := range days {
			rec.DaysOfWeek = append(rec.DaysOfWeek, int(d))
		}
	}
	return templateResponse{
		ID:          t.ID,
		HouseholdID: t.HouseholdID,
		RoomID:      t.RoomID,
		Title:       t.Title,
		Description: t.Description,
		Points:      t.Points,
		Icon:        t.Icon,
		Recurrence:  rec,
		Timezone:    t.Timezone,
		ScheduledAt: t.ScheduledAt,
		DueDate:     t.DueDate,
		Status:      t.Status,
		CompletedAt: t.CompletedAt,
		Active:      t.Active,
	}
}

type occurrenceResponse struct {
	ID               string       `json:"id"`
	HouseholdID      string       `json:"household_id"`
	ParentTemplateID *string      `json:"parent_template_id"`
	RoomID           *string      `json:"room_id,omitempty"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Points           int          `json:"points"`
	Icon             string       `json:"icon,omitempty"`
	ScheduledAt      time.Time    `json:"scheduled_at"`
	DueDate          time.Time    `json:"due_date"`
	Status           model.Status `json:"status"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

func newOccurrenceResponse(o *model.TaskOccurrence) occurrenceResponse {
	return occurrenceResponse{
		ID:               o.ID,
		HouseholdID:      o.HouseholdID,
		ParentTemplateID: o.ParentTemplateID,
		RoomID:           o.RoomID,
		Title:            o.Title,
		Description:      o.Description,
		Points:           o.Points,
		Icon:             o.Icon,
		ScheduledAt:      o.ScheduledAt,
		DueDate:          o.DueDate,
		Status:           o.Status,
		CompletedAt:      o.CompletedAt,
	}
}

func newOccurrenceList(list []model.TaskOccurrence) []occurrenceResponse {
	out := make([]occurrenceResponse, 0, len(list))
	for i := range list {
		out = append(out, newOccurrenceResponse(&list[i]))
	}
	return out
}

type assignmentResponse struct {
	ID               string    `json:"id"`
	HouseholdID      string    `json:"household_id"`
	TemplateID       string    `json:"template_id"`
	AssignedMemberID string    `json:"assigned_member_id"`
	WeekStartDate    time.Time `json:"week_start_date"`
	IsCompleted      bool      `json:"is_completed"`
}

func newAssignmentList(list []model.WeeklyAssignment) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, assignmentResponse{
			ID:               a.ID,
			HouseholdID:      a.HouseholdID,
			TemplateID:       a.TemplateID,
			AssignedMemberID: a.AssignedMemberID,
			WeekStartDate:    a.WeekStartDate,
			IsCompleted:      a.IsCompleted,
		})
	}
	return out
}

type memberResponse struct {
	HouseholdID string `json:"household_id"`
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Position    int    `json:"position"`
}
