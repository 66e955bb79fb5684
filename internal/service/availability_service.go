package service

import (
	"context"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"go.uber.org/zap"
)

// AvailabilityService управляет недельным расписанием тренера
type AvailabilityService struct {
	trainers     TrainerStore
	availability AvailabilityStore
	cache        SlotCache
	logger       *zap.Logger
}

// NewAvailabilityService создаёт новый сервис
func NewAvailabilityService(trainers TrainerStore, availability AvailabilityStore, cache SlotCache, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		trainers:     trainers,
		availability: availability,
		cache:        cache,
		logger:       logger,
	}
}

// GetAvailability возвращает текущее расписание тренера
func (s *AvailabilityService) GetAvailability(ctx context.Context, trainerID int64) (model.AvailabilityMap, error) {
	if _, err := lookupTrainer(ctx, s.trainers, trainerID); err != nil {
		return nil, err
	}

	availability, err := s.availability.GetAvailability(ctx, trainerID)
	if err != nil {
		return nil, newBookingError(KindStorageUnavailable, err, "get availability")
	}
	return availability, nil
}

// SetAvailability проверяет и полностью заменяет расписание тренера.
// Уже существующие бронирования вне нового расписания не трогаются.
func (s *AvailabilityService) SetAvailability(ctx context.Context, trainerID int64, raw map[string][]string) (model.AvailabilityMap, error) {
	availability, err := model.ParseAvailabilityMap(raw)
	if err != nil {
		return nil, newBookingError(KindInvalidInput, err, "invalid availability")
	}

	if _, err := lookupTrainer(ctx, s.trainers, trainerID); err != nil {
		return nil, err
	}

	if err := s.availability.SetAvailability(ctx, trainerID, availability); err != nil {
		return nil, newBookingError(KindStorageUnavailable, err, "set availability")
	}

	if s.cache != nil {
		if err := s.cache.InvalidateTrainer(ctx, trainerID); err != nil {
			s.logger.Warn("Failed to invalidate slot cache",
				zap.Int64("trainer_id", trainerID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Availability updated",
		zap.Int64("trainer_id", trainerID),
		zap.Int("weekdays", len(availability.Weekdays())),
	)

	return availability, nil
}
