package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-planner/internal/model"
	"household-planner/internal/repository"
	"household-planner/internal/service"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type botFixture struct {
	bot       *Bot
	sender    *fakeSender
	members   *repository.MemberRepository
	templates *repository.TemplateRepository
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	db, err := repository.NewDB("sqlite", ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	members := repository.NewMemberRepository(db)
	templates := repository.NewTemplateRepository(db)
	rotation := service.NewRotationService(templates, repository.NewAssignmentRepository(db), members, time.UTC, nil, zerolog.Nop())

	sender := &fakeSender{}
	b := newBot(sender, members, rotation, templates, time.UTC, zerolog.Nop())
	b.now = func() time.Time { return time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC) }
	return &botFixture{bot: b, sender: sender, members: members, templates: templates}
}

func command(chatID, userID int64, first, text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: userID, FirstName: first},
		Chat:     &tgbotapi.Chat{ID: chatID, Type: "private"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestJoinRegistersMemberWithChat(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.handleMessage(ctx, command(100, 1, "Alice", "/join flat-7")))
	require.NoError(t, f.bot.handleMessage(ctx, command(200, 2, "Bob", "/join flat-7")))

	ids, err := f.members.MemberIDs(ctx, "flat-7")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)

	chat, ok, err := f.members.TelegramChatID(ctx, "2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(200), chat)

	reply := f.sender.last(t)
	assert.Equal(t, int64(200), reply.ChatID)
	assert.Contains(t, reply.Text, "flat-7")
	assert.Contains(t, reply.Text, "№2")
	assert.Equal(t, tgbotapi.ModeHTML, reply.ParseMode)
}

func TestJoinRequiresHousehold(t *testing.T) {
	f := newBotFixture(t)
	require.NoError(t, f.bot.handleMessage(context.Background(), command(100, 1, "Alice", "/join")))
	assert.Contains(t, f.sender.last(t).Text, "/join")
}

func TestRotateAssignsWeek(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.handleMessage(ctx, command(100, 1, "Alice", "/join flat-7")))
	require.NoError(t, f.bot.handleMessage(ctx, command(200, 2, "Bob", "/join flat-7")))
	tpl := &model.TaskTemplate{HouseholdID: "flat-7", Title: "vacuum <hall>", Status: model.StatusPending, Active: true}
	require.NoError(t, f.templates.Create(ctx, tpl))

	require.NoError(t, f.bot.handleMessage(ctx, command(200, 2, "Bob", "/rotate")))
	reply := f.sender.last(t)
	assert.Equal(t, int64(200), reply.ChatID)
	assert.Contains(t, reply.Text, "2026-01-05")
	assert.Contains(t, reply.Text, "Vacuum &lt;hall&gt; — Alice")
}

func TestRotateRequiresMembership(t *testing.T) {
	f := newBotFixture(t)
	require.NoError(t, f.bot.handleMessage(context.Background(), command(300, 3, "Eve", "/rotate")))
	assert.Contains(t, f.sender.last(t).Text, "/join")
}

func TestUnknownInput(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	require.NoError(t, f.bot.handleMessage(ctx, command(100, 1, "Alice", "/dance")))
	assert.Contains(t, f.sender.last(t).Text, "/help")

	plain := &tgbotapi.Message{Text: "hi", From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 100, Type: "private"}}
	require.NoError(t, f.bot.handleMessage(ctx, plain))
	assert.Len(t, f.sender.sent, 2)
}

func TestStartWithoutClient(t *testing.T) {
	f := newBotFixture(t)
	assert.Error(t, f.bot.Start(context.Background()))
}

type chatMap map[string]int64

func (c chatMap) TelegramChatID(_ context.Context, memberID string) (int64, bool, error) {
	id, ok := c[memberID]
	return id, ok, nil
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, chatMap{"alice": 100}, 50, time.UTC, zerolog.Nop())
	ctx := context.Background()
	note := service.Notification{
		MemberID: "alice",
		Title:    "dishes",
		DueDate:  time.Date(2026, time.January, 5, 18, 30, 0, 0, time.UTC),
		Type:     service.NotifyTaskOverdue,
		Priority: service.PriorityHigh,
	}

	require.NoError(t, n.Notify(ctx, note))
	msg := sender.last(t)
	assert.Equal(t, int64(100), msg.ChatID)
	assert.Contains(t, msg.Text, "Dishes")

	note.MemberID = "bob"
	require.NoError(t, n.Notify(ctx, note))
	assert.Len(t, sender.sent, 1)

	sender.err = errors.New("flood wait")
	note.MemberID = "alice"
	assert.Error(t, n.Notify(ctx, note))
}

func TestTelegramNotifierHonoursContext(t *testing.T) {
	n := NewTelegramNotifier(&fakeSender{}, chatMap{"alice": 100}, 1, time.UTC, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.Notify(ctx, service.Notification{MemberID: "alice"}))

	// The single-token bucket is empty now.
	cancel()
	assert.Error(t, n.Notify(ctx, service.Notification{MemberID: "alice"}))
}
