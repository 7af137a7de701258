// Package api is the HTTP admin surface: on-demand triggers for the
// scheduling operations plus health and metrics endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"household-planner/internal/model"
	"household-planner/internal/service"
)

// MemberAdmin manages household membership.
type MemberAdmin interface {
	Upsert(ctx context.Context, householdID, memberID, displayName string, chatID *int64) (*model.HouseholdMember, error)
	Remove(ctx context.Context, householdID, memberID string) error
	ListByHousehold(ctx context.Context, householdID string) ([]model.HouseholdMember, error)
}

// Deps are the services the handlers call into.
type Deps struct {
	Schedule     *service.ScheduleService
	Materializer *service.Materializer
	Rotation     *service.RotationService
	Sweeper      *service.Sweeper
	Members      MemberAdmin
	// Ping checks the database for /healthz. Nil skips the check.
	Ping     func(ctx context.Context) error
	Gatherer prometheus.Gatherer
	// DefaultHorizon applies to materialize calls without ?horizon.
	DefaultHorizon time.Duration
	Now            func() time.Time
	Log            zerolog.Logger
}

type handler struct {
	Deps
}

// NewRouter wires the routes onto a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.DefaultHorizon <= 0 {
		d.DefaultHorizon = service.DefaultGenerationHorizon
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	h := &handler{Deps: d}

	router := gin.New()
	router.Use(requestID(), requestLog(d.Log), gin.Recovery())

	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		households := v1.Group("/households/:id")
		{
			households.POST("/rotation", h.assignWeek)
			households.GET("/members", h.listMembers)
			households.PUT("/members/:member", h.upsertMember)
			households.DELETE("/members/:member", h.removeMember)
		}

		templates := v1.Group("/templates")
		{
			templates.POST("", h.createTemplate)
			templates.POST("/:id/materialize", h.materialize)
			templates.GET("/:id/next-occurrence", h.nextOccurrence)
			templates.PUT("/:id/schedule", h.setSchedule)
			templates.DELETE("/:id/schedule", h.cancelSchedule)
		}

		v1.PATCH("/occurrences/:id/status", h.updateStatus)
		v1.POST("/sweeps/:job", h.sweep)
	}

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})
	return router
}
