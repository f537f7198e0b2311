package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"autotrader/src/autotrade"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers trade-opened messages through a Telegram bot.
// Delivery is best effort: the orchestrator logs and ignores any error
// returned from here.
type TelegramNotifier struct {
	token  string
	chatID string
	http   *resty.Client
}

// NewTelegramNotifier builds a notifier from the environment. When no bot
// token is configured it returns nil and the orchestrator falls back to
// its no-op notifier.
func NewTelegramNotifier() *TelegramNotifier {
	config := GetConfig()
	if config.TelegramBotToken == "" {
		logger.Info("[notifier] No Telegram bot token configured, notifications disabled")
		return nil
	}

	return &TelegramNotifier{
		token:  config.TelegramBotToken,
		chatID: config.TelegramChatID,
		http: resty.New().
			SetBaseURL(telegramAPIBase).
			SetTimeout(10 * time.Second),
	}
}

// NotifyTradeOpened sends the "trade opened" message.
func (n *TelegramNotifier) NotifyTradeOpened(ctx context.Context, userID uint, note autotrade.TradeNotification) error {
	text := fmt.Sprintf(
		"Trade opened for user %d: %s %s @ %s",
		userID, note.Side, note.Symbol, note.EntryPrice,
	)

	resp, err := n.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"chat_id": n.chatID,
			"text":    text,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.token))

	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("telegram HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	logger.WithFields(map[string]interface{}{
		"component": "TelegramNotifier",
		"user_id":   userID,
		"symbol":    note.Symbol,
	}).Debug("Trade notification sent")

	return nil
}
