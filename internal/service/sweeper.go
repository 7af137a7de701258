package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"household-planner/internal/metrics"
	"household-planner/internal/model"
)

const (
	DefaultDueSoonWindow     = 24 * time.Hour
	DefaultGenerationHorizon = 30 * 24 * time.Hour
)

type SweeperConfig struct {
	DueSoonWindow     time.Duration
	GenerationHorizon time.Duration
	// DedupeDueSoon records a due-soon notification per occurrence and skips
	// it on later passes. Off by default: every pass re-notifies.
	DedupeDueSoon bool
}

// SweepResult summarises one sweep run.
type SweepResult struct {
	Scanned      int `json:"scanned"`
	Transitioned int `json:"transitioned"`
	Notified     int `json:"notified"`
	Failed       int `json:"failed"`
}

// GenerateResult summarises one upcoming-instance generation run.
type GenerateResult struct {
	Templates int `json:"templates"`
	Created   int `json:"created"`
}

// Sweeper runs the periodic scans over stored occurrences. It keeps no state
// between runs.
type Sweeper struct {
	templates    TemplateStore
	occurrences  OccurrenceStore
	members      MemberDirectory
	notifier     Notifier
	materializer *Materializer
	cfg          SweeperConfig
	metrics      *metrics.Metrics
	log          zerolog.Logger
	flight       singleflight.Group
}

func NewSweeper(templates TemplateStore, occurrences OccurrenceStore, members MemberDirectory, notifier Notifier, materializer *Materializer, cfg SweeperConfig, m *metrics.Metrics, log zerolog.Logger) *Sweeper {
	if cfg.DueSoonWindow <= 0 {
		cfg.DueSoonWindow = DefaultDueSoonWindow
	}
	if cfg.GenerationHorizon <= 0 {
		cfg.GenerationHorizon = DefaultGenerationHorizon
	}
	return &Sweeper{
		templates:    templates,
		occurrences:  occurrences,
		members:      members,
		notifier:     notifier,
		materializer: materializer,
		cfg:          cfg,
		metrics:      m,
		log:          log,
	}
}

// OverdueSweep flips pending occurrences whose due date has passed to
// overdue and notifies the household. Only the run that wins the
// pending->overdue transition notifies, so a second pass is silent.
func (s *Sweeper) OverdueSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	v, err, _ := s.flight.Do(flightKey("overdue", now), func() (any, error) {
		return s.overdue(ctx, now)
	})
	res, _ := v.(SweepResult)
	return res, err
}

func (s *Sweeper) overdue(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	list, err := s.occurrences.ListPendingDueBefore(ctx, now)
	if err != nil {
		return res, err
	}
	res.Scanned = len(list)

	members := make(map[string][]string)
	var errs []error
	for i := range list {
		o := &list[i]
		ok, err := s.occurrences.TransitionStatus(ctx, o.ID, model.StatusPending, model.StatusOverdue)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		res.Transitioned++
		s.metrics.Overdue()
		if err := s.notifyHousehold(ctx, o, NotifyTaskOverdue, PriorityHigh, members, &res); err != nil {
			errs = append(errs, err)
		}
	}

	s.log.Info().
		Int("scanned", res.Scanned).
		Int("overdue", res.Transitioned).
		Int("notified", res.Notified).
		Int("failed", res.Failed).
		Msg("overdue sweep finished")
	return res, errors.Join(errs...)
}

// DueSoonSweep notifies households about pending occurrences due within
// [now, now+window]. Without DedupeDueSoon every pass notifies again; the
// sweep interval bounds the volume.
func (s *Sweeper) DueSoonSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	v, err, _ := s.flight.Do(flightKey("due-soon", now), func() (any, error) {
		return s.dueSoon(ctx, now)
	})
	res, _ := v.(SweepResult)
	return res, err
}

func (s *Sweeper) dueSoon(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	list, err := s.occurrences.ListPendingDueBetween(ctx, now, now.Add(s.cfg.DueSoonWindow), s.cfg.DedupeDueSoon)
	if err != nil {
		return res, err
	}
	res.Scanned = len(list)

	members := make(map[string][]string)
	var errs []error
	for i := range list {
		o := &list[i]
		if err := s.notifyHousehold(ctx, o, NotifyTaskDueSoon, PriorityMedium, members, &res); err != nil {
			errs = append(errs, err)
			continue
		}
		if s.cfg.DedupeDueSoon {
			if err := s.occurrences.MarkDueSoonNotified(ctx, o.ID, now); err != nil {
				errs = append(errs, err)
			}
		}
	}

	s.log.Info().
		Int("scanned", res.Scanned).
		Int("notified", res.Notified).
		Int("failed", res.Failed).
		Msg("due-soon sweep finished")
	return res, errors.Join(errs...)
}

// GenerateUpcoming materializes every active recurring template up to
// now + GenerationHorizon. One failing template does not stop the others.
func (s *Sweeper) GenerateUpcoming(ctx context.Context, now time.Time) (GenerateResult, error) {
	v, err, _ := s.flight.Do(flightKey("generate", now), func() (any, error) {
		return s.generate(ctx, now)
	})
	res, _ := v.(GenerateResult)
	return res, err
}

func (s *Sweeper) generate(ctx context.Context, now time.Time) (GenerateResult, error) {
	var res GenerateResult
	templates, err := s.templates.ListActiveRecurring(ctx)
	if err != nil {
		return res, err
	}
	horizon := now.Add(s.cfg.GenerationHorizon)

	var errs []error
	for _, t := range templates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res.Templates++
		created, err := s.materializer.Materialize(ctx, t.ID, horizon)
		res.Created += len(created)
		if err != nil {
			s.log.Warn().Err(err).Str("template", t.ID).Msg("materialize failed")
			errs = append(errs, err)
		}
	}

	s.log.Info().
		Int("templates", res.Templates).
		Int("created", res.Created).
		Msg("upcoming instance generation finished")
	return res, errors.Join(errs...)
}

// flightKey lets concurrent runs of one sweep share work only when they
// observe the same clock.
func flightKey(job string, now time.Time) string {
	return job + ":" + strconv.FormatInt(now.Unix(), 10)
}

// notifyHousehold sends one notification per household member. Notifier
// errors are logged and counted but never returned: the status change that
// triggered the notification stands on its own.
func (s *Sweeper) notifyHousehold(ctx context.Context, o *model.TaskOccurrence, kind NotificationType, prio Priority, cache map[string][]string, res *SweepResult) error {
	ids, ok := cache[o.HouseholdID]
	if !ok {
		var err error
		ids, err = s.members.MemberIDs(ctx, o.HouseholdID)
		if err != nil {
			s.log.Warn().Err(err).Str("household", o.HouseholdID).Msg("load members")
			return err
		}
		cache[o.HouseholdID] = ids
	}

	for _, memberID := range ids {
		n := Notification{
			MemberID:     memberID,
			HouseholdID:  o.HouseholdID,
			OccurrenceID: o.ID,
			Title:        o.Title,
			DueDate:      o.DueDate,
			Type:         kind,
			Priority:     prio,
		}
		err := s.notifier.Notify(ctx, n)
		s.metrics.Notification(string(kind), err)
		if err != nil {
			res.Failed++
			s.log.Warn().Err(err).
				Str("member", memberID).
				Str("occurrence", o.ID).
				Str("type", string(kind)).
				Msg("notify failed")
			continue
		}
		res.Notified++
	}
	return nil
}
