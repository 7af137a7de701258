package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"household-planner/internal/model"
	"household-planner/internal/service"
)

func (h *handler) health(c *gin.Context) {
	checks := gin.H{"database": "not configured"}
	status := http.StatusOK
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	}
	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

func (h *handler) assignWeek(c *gin.Context) {
	out, err := h.Rotation.AssignWeek(c.Request.Context(), c.Param("id"), h.Now())
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, newAssignmentList(out))
}

func (h *handler) listMembers(c *gin.Context) {
	members, err := h.Members.ListByHousehold(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{HouseholdID: m.HouseholdID, MemberID: m.MemberID, DisplayName: m.DisplayName, Position: m.Position})
	}
	Success(c, out)
}

func (h *handler) upsertMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	name := req.DisplayName
	if name == "" {
		name = c.Param("member")
	}
	m, err := h.Members.Upsert(c.Request.Context(), c.Param("id"), c.Param("member"), name, req.TelegramChatID)
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, memberResponse{HouseholdID: m.HouseholdID, MemberID: m.MemberID, DisplayName: m.DisplayName, Position: m.Position})
}

func (h *handler) removeMember(c *gin.Context) {
	if err := h.Members.Remove(c.Request.Context(), c.Param("id"), c.Param("member")); err != nil {
		fail(c, err)
		return
	}
	Success(c, nil)
}

func (h *handler) createTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	rule, err := req.Recurrence.rule()
	if err != nil {
		fail(c, err)
		return
	}
	t, occ, err := h.Schedule.CreateTemplate(c.Request.Context(), service.TemplateInput{
		HouseholdID: req.HouseholdID,
		Title:       req.Title,
		Description: req.Description,
		Room:        req.Room,
		Icon:        req.Icon,
		Points:      req.Points,
		Recurrence:  rule,
		Timezone:    req.Timezone,
		ScheduledAt: req.ScheduledAt,
		DueDate:     req.DueDate,
	}, h.Now())
	if err != nil {
		fail(c, err)
		return
	}
	resp := gin.H{"template": newTemplateResponse(t)}
	if occ != nil {
		resp["occurrence"] = newOccurrenceResponse(occ)
	}
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: resp})
}

func (h *handler) materialize(c *gin.Context) {
	window := h.DefaultHorizon
	if raw := c.Query("horizon"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			Error(c, http.StatusBadRequest, "invalid request", fmt.Sprintf("horizon %q must be a positive duration", raw))
			return
		}
		window = d
	}
	created, err := h.Materializer.Materialize(c.Request.Context(), c.Param("id"), h.Now().Add(window))
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, newOccurrenceList(created))
}

func (h *handler) nextOccurrence(c *gin.Context) {
	next, err := h.Materializer.NextOccurrence(c.Request.Context(), c.Param("id"), h.Now())
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, gin.H{"next": next})
}

func (h *handler) setSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	rule, err := req.Recurrence.rule()
	if err != nil {
		fail(c, err)
		return
	}
	t, err := h.Schedule.SetSchedule(c.Request.Context(), c.Param("id"), service.ScheduleUpdate{
		ScheduledAt: req.ScheduledAt,
		DueDate:     req.DueDate,
		Recurrence:  rule,
		Timezone:    req.Timezone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, newTemplateResponse(t))
}

func (h *handler) cancelSchedule(c *gin.Context) {
	t, err := h.Materializer.CancelSchedule(c.Request.Context(), c.Param("id"), h.Now())
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, newTemplateResponse(t))
}

func (h *handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	o, err := h.Schedule.UpdateTaskStatus(c.Request.Context(), c.Param("id"), model.Status(req.Status), h.Now())
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, newOccurrenceResponse(o))
}

func (h *handler) sweep(c *gin.Context) {
	ctx, now := c.Request.Context(), h.Now()
	var (
		res interface{}
		err error
	)
	switch c.Param("job") {
	case "overdue":
		res, err = h.Sweeper.OverdueSweep(ctx, now)
	case "due-soon":
		res, err = h.Sweeper.DueSoonSweep(ctx, now)
	case "generate":
		res, err = h.Sweeper.GenerateUpcoming(ctx, now)
	default:
		Error(c, http.StatusNotFound, "unknown job", c.Param("job"))
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	Success(c, res)
}
