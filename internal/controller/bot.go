package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// TrainerUseCase операции тренера, доступные из бота
type TrainerUseCase interface {
	LinkTelegramChat(ctx context.Context, trainerID, chatID int64) (*model.Trainer, error)
	GetByTelegramChat(ctx context.Context, chatID int64) (*model.Trainer, error)
	UpcomingBookings(ctx context.Context, trainerID int64) ([]model.Booking, error)
}

type BotController struct {
	bot      *bot.Bot
	trainers TrainerUseCase
	location *time.Location
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, trainers TrainerUseCase, location *time.Location, logger *zap.Logger) *BotController {
	if location == nil {
		location = time.UTC
	}
	return &BotController{
		bot:      botInstance,
		trainers: trainers,
		location: location,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// /start принимает аргумент: /start <trainer_id>
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/bookings", bot.MatchTypeExact, c.HandleBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Привязать чат: /start <id тренера>"},
		{Command: "bookings", Description: "📅 Предстоящие записи"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

func (c *BotController) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.reply(ctx, b, update.Message.Chat.ID, c.startReply(ctx, update.Message.Chat.ID, update.Message.Text))
}

func (c *BotController) HandleBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.reply(ctx, b, update.Message.Chat.ID, c.bookingsReply(ctx, update.Message.Chat.ID))
}

func (c *BotController) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.reply(ctx, b, update.Message.Chat.ID, helpText)
}

func (c *BotController) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		c.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
