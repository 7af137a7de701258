package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"household-planner/internal/metrics"
	"household-planner/internal/model"
	"household-planner/internal/recurrence"
)

// DefaultNextOccurrenceWindow bounds the look-ahead of NextOccurrence.
const DefaultNextOccurrenceWindow = 90 * 24 * time.Hour

type MaterializerConfig struct {
	// Location is used for templates without their own timezone.
	Location             *time.Location
	Overflow             recurrence.Overflow
	NextOccurrenceWindow time.Duration
}

// Materializer turns recurring templates into concrete occurrences.
type Materializer struct {
	templates   TemplateStore
	occurrences OccurrenceStore
	expander    recurrence.Expander
	loc         *time.Location
	nextWindow  time.Duration
	metrics     *metrics.Metrics
	log         zerolog.Logger
	flight      singleflight.Group
}

func NewMaterializer(templates TemplateStore, occurrences OccurrenceStore, cfg MaterializerConfig, m *metrics.Metrics, log zerolog.Logger) *Materializer {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.NextOccurrenceWindow <= 0 {
		cfg.NextOccurrenceWindow = DefaultNextOccurrenceWindow
	}
	return &Materializer{
		templates:   templates,
		occurrences: occurrences,
		expander:    recurrence.Expander{Overflow: cfg.Overflow},
		loc:         cfg.Location,
		nextWindow:  cfg.NextOccurrenceWindow,
		metrics:     m,
		log:         log,
	}
}

// Materialize creates the missing occurrences of a template up to horizon
// and returns only the ones this call created. Repeating the call is a
// no-op. Concurrent calls for the same template and horizon share one run.
func (m *Materializer) Materialize(ctx context.Context, templateID string, horizon time.Time) ([]model.TaskOccurrence, error) {
	key := "materialize:" + templateID + ":" + strconv.FormatInt(horizon.Unix(), 10)
	v, err, _ := m.flight.Do(key, func() (any, error) {
		return m.materialize(ctx, templateID, horizon)
	})
	created, _ := v.([]model.TaskOccurrence)
	return created, err
}

func (m *Materializer) materialize(ctx context.Context, templateID string, horizon time.Time) ([]model.TaskOccurrence, error) {
	t, err := m.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	rule, err := t.Rule()
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}
	if rule.Kind() == recurrence.KindNone {
		return []model.TaskOccurrence{}, nil
	}

	dates, err := m.candidates(t, rule, horizon)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}

	existing, err := m.occurrences.ScheduledAtByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(existing))
	for _, at := range existing {
		seen[at.Unix()] = struct{}{}
	}

	created := []model.TaskOccurrence{}
	for _, d := range dates {
		at := model.Instant(d)
		if _, ok := seen[at.Unix()]; ok {
			continue
		}
		due, err := recurrence.DueDate(d, rule.Kind(), d)
		if err != nil {
			return created, err
		}
		occ := model.OccurrenceFrom(t, at, model.Instant(due))
		ok, err := m.occurrences.InsertIfAbsent(ctx, &occ)
		if err != nil {
			return created, err
		}
		if !ok {
			// Another writer materialized it between our read and insert.
			continue
		}
		created = append(created, occ)
	}

	m.metrics.Materialized(len(created))
	m.log.Debug().
		Str("template", templateID).
		Int("candidates", len(dates)).
		Int("created", len(created)).
		Time("horizon", horizon).
		Msg("materialized template")
	return created, nil
}

// candidates expands the template's rule from its anchor, in the template's
// timezone. Templates without an anchor are anchored at creation time.
func (m *Materializer) candidates(t *model.TaskTemplate, rule recurrence.Rule, horizon time.Time) ([]time.Time, error) {
	loc := t.Location(m.loc)
	anchor := t.CreatedAt
	if t.ScheduledAt != nil {
		anchor = *t.ScheduledAt
	}
	return m.expander.Expand(anchor.In(loc), horizon.In(loc), rule)
}

// CancelSchedule drops the template's recurrence and clears schedule fields
// that lie after now. Occurrences already materialized are kept.
func (m *Materializer) CancelSchedule(ctx context.Context, templateID string, now time.Time) (*model.TaskTemplate, error) {
	t, err := m.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	t.SetRule(recurrence.None{})
	if t.ScheduledAt != nil && t.ScheduledAt.After(now) {
		t.ScheduledAt = nil
	}
	if t.DueDate != nil && t.DueDate.After(now) {
		t.DueDate = nil
	}
	if err := m.templates.Save(ctx, t); err != nil {
		return nil, err
	}
	m.log.Info().Str("template", templateID).Msg("schedule cancelled")
	return t, nil
}

// NextOccurrence returns the first occurrence strictly after now within the
// look-ahead window, or nil.
func (m *Materializer) NextOccurrence(ctx context.Context, templateID string, now time.Time) (*time.Time, error) {
	t, err := m.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	rule, err := t.Rule()
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}
	dates, err := m.candidates(t, rule, now.Add(m.nextWindow))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateID, err)
	}
	for _, d := range dates {
		if d.After(now) {
			next := model.Instant(d)
			return &next, nil
		}
	}
	return nil, nil
}
