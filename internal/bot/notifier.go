package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"household-planner/internal/service"
)

// ChatDirectory maps a member to the Telegram chat it joined from.
type ChatDirectory interface {
	TelegramChatID(ctx context.Context, memberID string) (int64, bool, error)
}

// TelegramNotifier delivers notifications as Telegram messages. Members that
// never joined through the bot have no chat and are skipped.
type TelegramNotifier struct {
	api     Sender
	chats   ChatDirectory
	limiter *rate.Limiter
	loc     *time.Location
	log     zerolog.Logger
}

func NewTelegramNotifier(api Sender, chats ChatDirectory, ratePerSec float64, loc *time.Location, log zerolog.Logger) *TelegramNotifier {
	if ratePerSec <= 0 {
		ratePerSec = 20
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	if loc == nil {
		loc = time.Local
	}
	return &TelegramNotifier{
		api:     api,
		chats:   chats,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		loc:     loc,
		log:     log,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, note service.Notification) error {
	chatID, ok, err := n.chats.TelegramChatID(ctx, note.MemberID)
	if err != nil {
		return err
	}
	if !ok {
		n.log.Debug().Str("member", note.MemberID).Msg("no telegram chat, skipping")
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, formatNotification(note, n.loc))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}
