package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/formatting"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender часть API бота, нужная для отправки уведомлений
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramSink отправляет тренеру сообщение в привязанный чат
type TelegramSink struct {
	sender   MessageSender
	location *time.Location
	logger   *zap.Logger
}

func NewTelegramSink(sender MessageSender, location *time.Location, logger *zap.Logger) *TelegramSink {
	if location == nil {
		location = time.UTC
	}
	return &TelegramSink{sender: sender, location: location, logger: logger}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, event model.BookingEvent) error {
	if event.Trainer.TelegramChatID == nil {
		s.logger.Debug("Trainer has no linked chat, skipping",
			zap.Int64("trainer_id", event.Trainer.ID),
		)
		return nil
	}

	_, err := s.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *event.Trainer.TelegramChatID,
		Text:   formatting.FormatBookingNotification(event, s.location),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
