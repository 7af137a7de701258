package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"household-planner/internal/model"
	"household-planner/internal/recurrence"
	"household-planner/internal/service"
)

// Sender is the part of the Telegram API the bot writes through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// MemberStore is the membership directory as the bot sees it.
type MemberStore interface {
	Upsert(ctx context.Context, householdID, memberID, displayName string, chatID *int64) (*model.HouseholdMember, error)
	ListByHousehold(ctx context.Context, householdID string) ([]model.HouseholdMember, error)
	FindByTelegramChatID(ctx context.Context, chatID int64) (*model.HouseholdMember, error)
}

// Rotator assigns this week's chores.
type Rotator interface {
	AssignWeek(ctx context.Context, householdID string, now time.Time) ([]model.WeeklyAssignment, error)
}

// TemplateFinder resolves template titles for replies.
type TemplateFinder interface {
	FindByID(ctx context.Context, id string) (*model.TaskTemplate, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	client    *tgbotapi.BotAPI
	api       Sender
	members   MemberStore
	rotation  Rotator
	templates TemplateFinder
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger
}

func New(token string, members MemberStore, rotation Rotator, templates TemplateFinder, loc *time.Location, log zerolog.Logger) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info().Str("account", client.Self.UserName).Msg("bot authorized")

	b := newBot(client, members, rotation, templates, loc, log)
	b.client = client
	return b, nil
}

func newBot(api Sender, members MemberStore, rotation Rotator, templates TemplateFinder, loc *time.Location, log zerolog.Logger) *Bot {
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api:       api,
		members:   members,
		rotation:  rotation,
		templates: templates,
		loc:       loc,
		now:       time.Now,
		log:       log,
	}
}

// API exposes the sender so the notifier can share the bot's connection.
func (b *Bot) API() Sender {
	return b.api
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no telegram client")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Warn().Err(err).Int64("chat", update.Message.Chat.ID).Msg("handle message")
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "Я понимаю только команды. Загляни в /help.")
	}

	b.log.Info().
		Int64("user", msg.From.ID).
		Str("command", msg.Command()).
		Str("args", msg.CommandArguments()).
		Msg("command received")

	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(msg)
	case "join":
		return b.handleJoin(ctx, msg)
	case "rotate":
		return b.handleRotate(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "🏠 <b>Домашний планировщик</b>\n" +
		"• /join &lt;дом&gt; — вступить в дом и получать напоминания\n" +
		"• /rotate — распределить дела на эту неделю\n" +
		"• /help — подсказки"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleJoin(ctx context.Context, msg *tgbotapi.Message) error {
	household := strings.TrimSpace(msg.CommandArguments())
	if household == "" {
		return b.sendText(msg.Chat.ID, "Укажи дом: /join &lt;дом&gt;")
	}

	chatID := msg.Chat.ID
	name := displayName(msg.From)
	member, err := b.members.Upsert(ctx, household, strconv.FormatInt(msg.From.ID, 10), name, &chatID)
	if err != nil {
		return err
	}
	return b.sendText(chatID, fmt.Sprintf("✅ %s, ты в доме <b>%s</b> (очередь №%d).",
		escape(name), escape(member.HouseholdID), member.Position+1))
}

func (b *Bot) handleRotate(ctx context.Context, msg *tgbotapi.Message) error {
	member, err := b.members.FindByTelegramChatID(ctx, msg.Chat.ID)
	if errors.Is(err, model.ErrNotFound) {
		return b.sendText(msg.Chat.ID, "Сначала вступи в дом: /join &lt;дом&gt;")
	}
	if err != nil {
		return err
	}

	now := b.now()
	assignments, err := b.rotation.AssignWeek(ctx, member.HouseholdID, now)
	if errors.Is(err, service.ErrNoMembers) {
		return b.sendText(msg.Chat.ID, "В доме пока никого нет.")
	}
	if err != nil {
		return err
	}

	titles := make(map[string]string, len(assignments))
	for _, a := range assignments {
		t, err := b.templates.FindByID(ctx, a.TemplateID)
		if err != nil {
			b.log.Warn().Err(err).Str("template", a.TemplateID).Msg("resolve template title")
			continue
		}
		titles[a.TemplateID] = t.Title
	}
	members, err := b.members.ListByHousehold(ctx, member.HouseholdID)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.MemberID] = m.DisplayName
	}

	return b.sendText(msg.Chat.ID, formatAssignments(recurrence.WeekStart(now, b.loc), assignments, titles, names))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return name
}
