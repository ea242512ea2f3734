package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cable_billing_engine/internal/app"
	"cable_billing_engine/internal/domain/billing"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterOperatorHandlers registers handlers for the operator commands.
// It requires the bot instance, the cycle services, and the configured admin Telegram ID.
func RegisterOperatorHandlers(
	ctx context.Context,
	b *telebot.Bot,
	resetService *app.ResetService,
	expireService *app.ExpireService,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	b.Handle("/reset", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/reset",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		res, err := resetService.RunMonthlyReset(ctx, true)
		if err != nil {
			handlerLogger.WithError(err).Error("Manual monthly reset failed")
			return c.Send(fmt.Sprintf("Monthly reset failed: %s", err.Error()))
		}

		handlerLogger.WithField("count", res.Count).Info("Manual monthly reset completed")
		return c.Send(fmt.Sprintf("Monthly reset for %s completed: %d customers marked unpaid.", res.MonthKey.String(), res.Count))
	})

	b.Handle("/expire", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/expire",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		res, err := expireService.RunAutoExpire(ctx)
		if err != nil {
			handlerLogger.WithError(err).Error("Manual auto-expire failed")
			return c.Send(fmt.Sprintf("Auto-expire failed: %s", err.Error()))
		}

		handlerLogger.WithField("count", res.Count).Info("Manual auto-expire completed")
		if res.Count == 0 {
			return c.Send("Auto-expire completed: no customers past the recharge window.")
		}
		return c.Send(fmt.Sprintf("Auto-expire completed: %d customers marked unpaid.", res.Count))
	})

	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/status",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not authorized to run this command.")
		}

		cfg, err := resetService.CycleConfig(ctx)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to load cycle configuration")
			return c.Send(fmt.Sprintf("Failed to load cycle configuration: %s", err.Error()))
		}

		var response strings.Builder
		response.WriteString("Billing cycle status:\n")
		response.WriteString(fmt.Sprintf("Due day: %d\n", cfg.DueDay))
		if cfg.AutoResetEnabled {
			response.WriteString("Auto-reset: enabled\n")
		} else {
			response.WriteString("Auto-reset: disabled (operator confirmation required)\n")
		}
		if cfg.LastResetMonthKey.IsZero() {
			response.WriteString("Last reset: never\n")
		} else {
			response.WriteString(fmt.Sprintf("Last reset: %s\n", cfg.LastResetMonthKey.String()))
		}
		return c.Send(response.String())
	})

	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := strings.TrimPrefix(c.Callback().Data, "\f")

		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "callback",
			"sender_id": c.Sender().ID,
			"data":      data,
		})

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized callback")
			return c.Respond(&telebot.CallbackResponse{Text: "Not authorized."})
		}

		if strings.HasPrefix(data, "cycle_confirm_") {
			monthKeyStr := strings.TrimPrefix(data, "cycle_confirm_") // cycle_confirm_2026-08-01
			promptedKey, err := billing.ParseMonthKey(monthKeyStr)
			if err != nil {
				c.Bot().OnError(fmt.Errorf("invalid month key '%s' in confirm callback: %w", monthKeyStr, err), c)
				return c.Respond(&telebot.CallbackResponse{Text: "Invalid confirmation."})
			}

			// Not silent: the notifier delivers the completion report, the
			// callback only acks the button press.
			res, err := resetService.ConfirmReset(ctx, promptedKey)
			if err != nil {
				if errors.Is(err, app.ErrStaleConfirmation) {
					handlerLogger.Info("Stale reset confirmation ignored")
					return c.Respond(&telebot.CallbackResponse{Text: "This confirmation is no longer valid."})
				}
				handlerLogger.WithError(err).Error("Confirmed monthly reset failed")
				return c.Respond(&telebot.CallbackResponse{Text: "Monthly reset failed."})
			}

			handlerLogger.WithField("count", res.Count).Info("Confirmed monthly reset completed")
			return c.Respond(&telebot.CallbackResponse{Text: "Reset confirmed."})
		}

		// Fallback for unhandled callbacks.
		c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", data), c)
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
	})
}
