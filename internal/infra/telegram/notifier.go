package telegram

import (
	"fmt"
	"time"

	"cable_billing_engine/internal/domain/billing"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Client defines an interface for sending messages via a Telegram bot.
// This helps in decoupling the notification logic from the specific bot library.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.User{ID: recipientChatID} // Operator chats are direct user chats
	_, err := tba.bot.Send(recipient, text, options)
	return err
}

// OperatorNotifier delivers cycle notifications to the configured operator
// chat. Send failures are logged and swallowed: the engine never blocks or
// fails on an unreachable operator.
type OperatorNotifier struct {
	client          Client
	adminTelegramID int64
	logger          *logrus.Entry
}

func NewOperatorNotifier(client Client, adminTelegramID int64, logger *logrus.Entry) *OperatorNotifier {
	return &OperatorNotifier{
		client:          client,
		adminTelegramID: adminTelegramID,
		logger:          logger,
	}
}

func (n *OperatorNotifier) ResetConfirmationRequested(cfg billing.CycleConfig, today time.Time) {
	monthKey := billing.MonthKeyOf(today)
	messageText := fmt.Sprintf(
		"Billing cycle for %s is due (due day %d, today %s) and auto-reset is disabled.\nConfirm to mark all eligible customers unpaid.",
		monthKey.String(), cfg.DueDay, today.Format("2006-01-02"))

	replyMarkup := &telebot.ReplyMarkup{ResizeKeyboard: true} // Inline keyboard
	btnConfirm := replyMarkup.Data("Run monthly reset", fmt.Sprintf("cycle_confirm_%s", monthKey.String()))
	replyMarkup.Inline(replyMarkup.Row(btnConfirm))

	err := n.client.SendMessage(n.adminTelegramID, messageText, &telebot.SendOptions{ReplyMarkup: replyMarkup, ParseMode: telebot.ModeDefault})
	if err != nil {
		n.logger.WithError(err).WithField("month_key", monthKey.String()).Error("Failed to send reset confirmation prompt")
		return
	}
	n.logger.WithField("month_key", monthKey.String()).Info("Reset confirmation prompt sent to operator")
}

func (n *OperatorNotifier) ResetCompleted(count int64, silent bool) {
	if silent {
		n.logger.WithField("count", count).Debug("Reset completed silently, skipping operator report")
		return
	}
	messageText := fmt.Sprintf("Monthly reset completed: %d customers marked unpaid.", count)
	if err := n.client.SendMessage(n.adminTelegramID, messageText, nil); err != nil {
		n.logger.WithError(err).Error("Failed to send reset completion report")
	}
}

func (n *OperatorNotifier) AutoExpireCompleted(count int64) {
	messageText := fmt.Sprintf("Auto-expire sweep completed: %d customers past the 30-day recharge window marked unpaid.", count)
	if err := n.client.SendMessage(n.adminTelegramID, messageText, nil); err != nil {
		n.logger.WithError(err).Error("Failed to send auto-expire report")
	}
}
