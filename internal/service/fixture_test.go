package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"household-planner/internal/model"
	"household-planner/internal/repository"
	"household-planner/internal/service"
)

const household = "house-1"

var monday = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db          *gorm.DB
	templates   *repository.TemplateRepository
	occurrences *repository.OccurrenceRepository
	assignments *repository.AssignmentRepository
	members     *repository.MemberRepository
	rooms       *repository.RoomRepository
	notifier    *recordingNotifier

	schedule     *service.ScheduleService
	materializer *service.Materializer
	sweeper      *service.Sweeper
	rotation     *service.RotationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.NewDB("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		db:          db,
		templates:   repository.NewTemplateRepository(db),
		occurrences: repository.NewOccurrenceRepository(db),
		assignments: repository.NewAssignmentRepository(db),
		members:     repository.NewMemberRepository(db),
		rooms:       repository.NewRoomRepository(db),
		notifier:    &recordingNotifier{},
	}
	log := zerolog.Nop()
	f.schedule = service.NewScheduleService(f.templates, f.occurrences, f.rooms, log)
	f.materializer = service.NewMaterializer(f.templates, f.occurrences, service.MaterializerConfig{Location: time.UTC}, nil, log)
	f.sweeper = service.NewSweeper(f.templates, f.occurrences, f.members, f.notifier, f.materializer, service.SweeperConfig{}, nil, log)
	f.rotation = service.NewRotationService(f.templates, f.assignments, f.members, time.UTC, nil, log)
	return f
}

func (f *fixture) addMembers(t *testing.T, householdID string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := f.members.Upsert(context.Background(), householdID, id, id, nil)
		require.NoError(t, err)
	}
}

func (f *fixture) createTemplate(t *testing.T, in service.TemplateInput) *model.TaskTemplate {
	t.Helper()
	if in.HouseholdID == "" {
		in.HouseholdID = household
	}
	if in.Title == "" {
		in.Title = "Take out the bins"
	}
	tpl, _, err := f.schedule.CreateTemplate(context.Background(), in, monday)
	require.NoError(t, err)
	return tpl
}

func (f *fixture) createOccurrence(t *testing.T, title string, due time.Time) *model.TaskOccurrence {
	t.Helper()
	o := &model.TaskOccurrence{
		HouseholdID: household,
		Title:       title,
		ScheduledAt: due.Add(-time.Hour),
		DueDate:     due,
		Status:      model.StatusPending,
	}
	require.NoError(t, f.occurrences.Create(context.Background(), o))
	return o
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []service.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n service.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

func (r *recordingNotifier) reset() []service.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}
