// Package notify delivers trade notifications to external channels.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"coinwhisperer/internal/domain"
	"coinwhisperer/pkg/errors"
	"coinwhisperer/pkg/logger"
)

// Notifier announces executed trades. Implementations must be safe for
// concurrent use.
type Notifier interface {
	NotifyTrade(ctx context.Context, trade *domain.Trade) error
}

// Noop is used when notifications are not configured.
type Noop struct{}

func (Noop) NotifyTrade(ctx context.Context, trade *domain.Trade) error { return nil }

// Telegram sends trade alerts to a chat. API calls are rate limited well
// below Telegram's 30 msg/sec cap.
type Telegram struct {
	api     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	log     *logger.Logger
}

var _ Notifier = (*Telegram)(nil)

// NewTelegram creates a Telegram notifier.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "telegram bot token is required")
	}
	if chatID == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "telegram chat id is required")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}

	return &Telegram{
		api:     api,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		log:     logger.Get().With("component", "telegram_notify"),
	}, nil
}

// NotifyTrade sends a formatted trade alert.
func (t *Telegram) NotifyTrade(ctx context.Context, trade *domain.Trade) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limit wait")
	}

	emoji := "🟢"
	if trade.Type == domain.TradeSell {
		emoji = "🔴"
	}
	text := fmt.Sprintf(
		"%s *%s %s*\nAmount: $%s\nPrice: $%s\nSentiment: %.2f",
		emoji, trade.Type, trade.CoinSymbol,
		trade.Amount.StringFixed(2), trade.Price.String(), trade.SentimentScore,
	)

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Send(msg); err != nil {
		return errors.Wrap(err, "send telegram message")
	}

	t.log.Debugf("Trade notification sent for %s %s", trade.Type, trade.CoinSymbol)
	return nil
}
