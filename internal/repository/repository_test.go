package repository

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"household-planner/internal/model"
	"household-planner/internal/recurrence"
)

var base = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestNewDBRejectsUnknownDriver(t *testing.T) {
	_, err := NewDB("mysql", "root@/planner", zerolog.Nop())
	assert.Error(t, err)
	_, err = NewDB("postgres", "", zerolog.Nop())
	assert.Error(t, err)
}

func TestNewDBCreatesSQLiteDir(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "dir", "planner.db")
	db, err := NewDB("sqlite", dsn, zerolog.Nop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.FileExists(t, dsn)
}

func TestFailedStatementsReachInfoLevelLogs(t *testing.T) {
	var buf bytes.Buffer
	db, err := NewDB("sqlite", ":memory:", zerolog.New(&buf).Level(zerolog.InfoLevel))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	buf.Reset()

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "no_such_table")
	assert.Contains(t, buf.String(), `"component":"gorm"`)
}

func TestOccurrenceInsertIfAbsent(t *testing.T) {
	repo := NewOccurrenceRepository(newTestDB(t))
	ctx := context.Background()
	parent := "tpl-1"

	first := model.TaskOccurrence{HouseholdID: "h", ParentTemplateID: &parent, Title: "a", ScheduledAt: base, DueDate: base.Add(time.Hour)}
	ok, err := repo.InsertIfAbsent(ctx, &first)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same instant expressed in another zone with sub-second noise.
	loc := time.FixedZone("UTC+3", 3*3600)
	dup := model.TaskOccurrence{HouseholdID: "h", ParentTemplateID: &parent, Title: "b", ScheduledAt: base.In(loc).Add(300 * time.Millisecond), DueDate: base}
	ok, err = repo.InsertIfAbsent(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.ListByTemplate(ctx, parent)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Title)

	// One-off occurrences have no parent and never conflict.
	for i := 0; i < 2; i++ {
		o := model.TaskOccurrence{HouseholdID: "h", Title: "one-off", ScheduledAt: base, DueDate: base}
		ok, err := repo.InsertIfAbsent(ctx, &o)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestOccurrenceTransitionStatus(t *testing.T) {
	repo := NewOccurrenceRepository(newTestDB(t))
	ctx := context.Background()
	o := model.TaskOccurrence{HouseholdID: "h", Title: "a", ScheduledAt: base, DueDate: base, Status: model.StatusPending}
	require.NoError(t, repo.Create(ctx, &o))

	ok, err := repo.TransitionStatus(ctx, o.ID, model.StatusPending, model.StatusOverdue)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, o.ID, model.StatusPending, model.StatusOverdue)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOverdue, got.Status)

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestOccurrenceDueQueries(t *testing.T) {
	repo := NewOccurrenceRepository(newTestDB(t))
	ctx := context.Background()

	mk := func(title string, due time.Time, status model.Status) *model.TaskOccurrence {
		o := &model.TaskOccurrence{HouseholdID: "h", Title: title, ScheduledAt: due.Add(-time.Hour), DueDate: due, Status: status}
		require.NoError(t, repo.Create(ctx, o))
		return o
	}
	mk("past", base.Add(-time.Second), model.StatusPending)
	mk("at", base, model.StatusPending)
	mk("edge", base.Add(24*time.Hour), model.StatusPending)
	mk("beyond", base.Add(24*time.Hour+time.Second), model.StatusPending)
	mk("done", base.Add(time.Hour), model.StatusCompleted)

	before, err := repo.ListPendingDueBefore(ctx, base)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "past", before[0].Title)

	between, err := repo.ListPendingDueBetween(ctx, base, base.Add(24*time.Hour), false)
	require.NoError(t, err)
	require.Len(t, between, 2)
	assert.Equal(t, "at", between[0].Title)
	assert.Equal(t, "edge", between[1].Title)

	require.NoError(t, repo.MarkDueSoonNotified(ctx, between[0].ID, base))
	between, err = repo.ListPendingDueBetween(ctx, base, base.Add(24*time.Hour), true)
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "edge", between[0].Title)
}

func TestTemplateListings(t *testing.T) {
	repo := NewTemplateRepository(newTestDB(t))
	ctx := context.Background()

	recurring := &model.TaskTemplate{HouseholdID: "h", Title: "daily", Active: true}
	recurring.SetRule(recurrence.Daily{Interval: 1})
	oneOff := &model.TaskTemplate{HouseholdID: "h", Title: "once", Active: true}
	oneOff.SetRule(recurrence.None{})
	other := &model.TaskTemplate{HouseholdID: "other", Title: "weekly", Active: true}
	other.SetRule(recurrence.Weekly{Interval: 1})
	for _, tpl := range []*model.TaskTemplate{recurring, oneOff, other} {
		require.NoError(t, repo.Create(ctx, tpl))
	}

	other.Active = false
	require.NoError(t, repo.Save(ctx, other))

	list, err := repo.ListActiveRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, recurring.ID, list[0].ID)

	list, err = repo.ListActiveByHousehold(ctx, "h")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestMemberOrdering(t *testing.T) {
	repo := NewMemberRepository(newTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"carol", "alice", "bob"} {
		_, err := repo.Upsert(ctx, "h", id, id, nil)
		require.NoError(t, err)
	}
	ids, err := repo.MemberIDs(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "alice", "bob"}, ids)

	// Re-joining keeps the original position.
	chat := int64(42)
	m, err := repo.Upsert(ctx, "h", "carol", "Carol", &chat)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Position)

	require.NoError(t, repo.Remove(ctx, "h", "alice"))
	_, err = repo.Upsert(ctx, "h", "dave", "Dave", nil)
	require.NoError(t, err)
	ids, err = repo.MemberIDs(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob", "dave"}, ids)

	got, ok, err := repo.TelegramChatID(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, chat, got)

	_, ok, err = repo.TelegramChatID(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	member, err := repo.FindByTelegramChatID(ctx, chat)
	require.NoError(t, err)
	assert.Equal(t, "Carol", member.DisplayName)

	_, err = repo.FindByTelegramChatID(ctx, 7)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestAssignmentInsertIfAbsent(t *testing.T) {
	repo := NewAssignmentRepository(newTestDB(t))
	ctx := context.Background()
	week := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	a := model.WeeklyAssignment{HouseholdID: "h", TemplateID: "t1", AssignedMemberID: "alice", WeekStartDate: week}
	ok, err := repo.InsertIfAbsent(ctx, &a)
	require.NoError(t, err)
	assert.True(t, ok)

	b := model.WeeklyAssignment{HouseholdID: "h", TemplateID: "t1", AssignedMemberID: "bob", WeekStartDate: week}
	ok, err = repo.InsertIfAbsent(ctx, &b)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByTemplateWeek(ctx, "t1", week)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.AssignedMemberID)

	list, err := repo.ListByHouseholdWeek(ctx, "h", week)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.FindByTemplateWeek(ctx, "t1", week.AddDate(0, 0, 7))
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRoomGetOrCreate(t *testing.T) {
	repo := NewRoomRepository(newTestDB(t))
	ctx := context.Background()

	a, err := repo.GetOrCreate(ctx, "h", "Kitchen")
	require.NoError(t, err)
	b, err := repo.GetOrCreate(ctx, "h", "Kitchen")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	none, err := repo.GetOrCreate(ctx, "h", "  ")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRoomNamesMatchLoosely(t *testing.T) {
	repo := NewRoomRepository(newTestDB(t))
	ctx := context.Background()

	kitchen, err := repo.GetOrCreate(ctx, "h", "Kitchen")
	require.NoError(t, err)
	again, err := repo.GetOrCreate(ctx, "h", "  kitchen ")
	require.NoError(t, err)
	assert.Equal(t, kitchen.ID, again.ID)
	assert.Equal(t, "Kitchen", again.Name)

	living, err := repo.GetOrCreate(ctx, "h", "Living   room")
	require.NoError(t, err)
	assert.Equal(t, "Living room", living.Name)
	same, err := repo.GetOrCreate(ctx, "h", "LIVING ROOM")
	require.NoError(t, err)
	assert.Equal(t, living.ID, same.ID)

	elsewhere, err := repo.GetOrCreate(ctx, "other", "Kitchen")
	require.NoError(t, err)
	assert.NotEqual(t, kitchen.ID, elsewhere.ID)

	rooms, err := repo.ListByHousehold(ctx, "h")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Kitchen", rooms[0].Name)
	assert.Equal(t, "Living room", rooms[1].Name)
}

func TestTemplateCreatedInactiveStaysInactive(t *testing.T) {
	repo := NewTemplateRepository(newTestDB(t))
	ctx := context.Background()

	paused := &model.TaskTemplate{HouseholdID: "h", Title: "paused", Active: false}
	paused.SetRule(recurrence.Daily{Interval: 1})
	require.NoError(t, repo.Create(ctx, paused))

	got, err := repo.FindByID(ctx, paused.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	list, err := repo.ListActiveRecurring(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLiteDir(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{dsn: ":memory:", want: ""},
		{dsn: "file::memory:?cache=shared", want: ""},
		{dsn: "file:planner.db?mode=memory", want: ""},
		{dsn: "planner.db", want: ""},
		{dsn: "data/planner.db", want: "data"},
		{dsn: "file:/var/lib/planner/planner.db?_busy_timeout=5000", want: "/var/lib/planner"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDir(tt.dsn))
		})
	}
}
