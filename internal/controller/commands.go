package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/trainer_scheduler/internal/formatting"
	"github.com/Freeeeeet/trainer_scheduler/internal/service"
	"go.uber.org/zap"
)

const helpText = "📖 Справка\n\n" +
	"/start <id тренера> - получать уведомления о новых записях в этот чат\n" +
	"/bookings - предстоящие записи\n" +
	"/help - эта справка"

const errorText = "❌ Произошла ошибка. Попробуйте позже."

// startReply привязывает чат к тренеру и возвращает текст ответа
func (c *BotController) startReply(ctx context.Context, chatID int64, text string) string {
	args := strings.Fields(text)
	if len(args) < 2 {
		return "👋 Привет!\n\nЧтобы получать уведомления о записях, отправьте /start <id тренера>.\n\n" + helpText
	}

	trainerID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || trainerID <= 0 {
		return "⚠️ Неверный id тренера. Пример: /start 42"
	}

	trainer, err := c.trainers.LinkTelegramChat(ctx, trainerID, chatID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return fmt.Sprintf("⚠️ Тренер %d не найден", trainerID)
		}
		c.logger.Error("Failed to link chat", zap.Int64("trainer_id", trainerID), zap.Error(err))
		return errorText
	}

	return fmt.Sprintf("✅ %s, уведомления о новых записях будут приходить в этот чат.", trainer.Name)
}

// bookingsReply список предстоящих записей тренера, привязанного к чату
func (c *BotController) bookingsReply(ctx context.Context, chatID int64) string {
	trainer, err := c.trainers.GetByTelegramChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return "⚠️ Чат не привязан к тренеру. Отправьте /start <id тренера>."
		}
		c.logger.Error("Failed to get trainer by chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return errorText
	}

	bookings, err := c.trainers.UpcomingBookings(ctx, trainer.ID)
	if err != nil {
		c.logger.Error("Failed to get upcoming bookings", zap.Int64("trainer_id", trainer.ID), zap.Error(err))
		return errorText
	}

	return formatting.FormatBookingList(bookings, c.location)
}
