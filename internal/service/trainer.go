package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
	"go.uber.org/zap"
)

// lookupTrainer получает тренера и приводит ошибки хранилища к BookingError
func lookupTrainer(ctx context.Context, trainers TrainerStore, trainerID int64) (*model.Trainer, error) {
	trainer, err := trainers.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrTrainerNotFound) {
			return nil, newBookingError(KindInvalidInput, err, "unknown trainer %d", trainerID)
		}
		return nil, newBookingError(KindStorageUnavailable, err, "get trainer")
	}
	return trainer, nil
}

// TrainerService операции тренера, не связанные с бронированием
type TrainerService struct {
	trainers    TrainerStore
	bookings    BookingStore
	clock       Clock
	defaultSlot time.Duration
	logger      *zap.Logger
}

// NewTrainerService создаёт новый сервис. defaultSlot подставляется тренерам без своей длительности.
func NewTrainerService(trainers TrainerStore, bookings BookingStore, clock Clock, defaultSlot time.Duration, logger *zap.Logger) *TrainerService {
	if clock == nil {
		clock = RealClock{}
	}
	if defaultSlot < time.Minute {
		defaultSlot = time.Hour
	}
	return &TrainerService{
		trainers:    trainers,
		bookings:    bookings,
		clock:       clock,
		defaultSlot: defaultSlot,
		logger:      logger,
	}
}

// CreateTrainer регистрирует тренера. slotMinutes=0 означает длительность по умолчанию.
func (s *TrainerService) CreateTrainer(ctx context.Context, name string, slotMinutes int) (*model.Trainer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newBookingError(KindInvalidInput, nil, "trainer name is required")
	}
	if slotMinutes < 0 || slotMinutes > 24*60 {
		return nil, newBookingError(KindInvalidInput, nil, "slot duration must be between 0 and 1440 minutes")
	}
	if slotMinutes == 0 {
		slotMinutes = int(s.defaultSlot / time.Minute)
	}

	trainer := &model.Trainer{Name: name, SlotDurationMinutes: slotMinutes}
	if err := s.trainers.Create(ctx, trainer); err != nil {
		return nil, newBookingError(KindStorageUnavailable, err, "create trainer")
	}

	s.logger.Info("Trainer created",
		zap.Int64("trainer_id", trainer.ID),
		zap.String("name", trainer.Name),
	)
	return trainer, nil
}

// LinkTelegramChat привязывает чат Telegram к тренеру для уведомлений
func (s *TrainerService) LinkTelegramChat(ctx context.Context, trainerID, chatID int64) (*model.Trainer, error) {
	trainer, err := lookupTrainer(ctx, s.trainers, trainerID)
	if err != nil {
		return nil, err
	}

	if err := s.trainers.SetTelegramChatID(ctx, trainerID, chatID); err != nil {
		return nil, newBookingError(KindStorageUnavailable, err, "link telegram chat")
	}

	s.logger.Info("Telegram chat linked",
		zap.Int64("trainer_id", trainerID),
		zap.Int64("chat_id", chatID),
	)

	trainer.TelegramChatID = &chatID
	return trainer, nil
}

// GetByTelegramChat получает тренера по чату
func (s *TrainerService) GetByTelegramChat(ctx context.Context, chatID int64) (*model.Trainer, error) {
	trainer, err := s.trainers.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrTrainerNotFound) {
			return nil, newBookingError(KindInvalidInput, err, "chat is not linked to a trainer")
		}
		return nil, newBookingError(KindStorageUnavailable, err, "get trainer by chat")
	}
	return trainer, nil
}

// UpcomingBookings получает подтверждённые бронирования тренера, которые ещё не закончились
func (s *TrainerService) UpcomingBookings(ctx context.Context, trainerID int64) ([]model.Booking, error) {
	bookings, err := s.bookings.FutureConfirmed(ctx, trainerID, s.clock.Now())
	if err != nil {
		return nil, newBookingError(KindStorageUnavailable, err, "get upcoming bookings")
	}
	return bookings, nil
}
