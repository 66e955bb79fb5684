package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
	"github.com/Freeeeeet/trainer_scheduler/internal/scheduling"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingConfig параметры планировщика
type BookingConfig struct {
	Location            *time.Location // часовой пояс, в котором заданы расписания
	DefaultSlotDuration time.Duration  // если у тренера не задана своя длительность
	CommitTimeout       time.Duration  // ограничение на транзакцию коммита
}

type BookingService struct {
	trainers     TrainerStore
	availability AvailabilityStore
	bookings     BookingStore
	cache        SlotCache
	dispatcher   Dispatcher
	clock        Clock
	validate     *validator.Validate
	cfg          BookingConfig
	logger       *zap.Logger
}

func NewBookingService(
	trainers TrainerStore,
	availability AvailabilityStore,
	bookings BookingStore,
	cache SlotCache,
	dispatcher Dispatcher,
	clock Clock,
	cfg BookingConfig,
	logger *zap.Logger,
) *BookingService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultSlotDuration <= 0 {
		cfg.DefaultSlotDuration = time.Hour
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 5 * time.Second
	}
	if clock == nil {
		clock = RealClock{}
	}

	return &BookingService{
		trainers:     trainers,
		availability: availability,
		bookings:     bookings,
		cache:        cache,
		dispatcher:   dispatcher,
		clock:        clock,
		validate:     validator.New(),
		cfg:          cfg,
		logger:       logger,
	}
}

// GetBookableSlots возвращает свободные слоты тренера на день.
// Чтение без блокировок; устаревший слот будет отклонён при бронировании.
func (s *BookingService) GetBookableSlots(ctx context.Context, trainerID int64, day time.Time) ([]model.Slot, error) {
	now := s.clock.Now()
	dayStart := s.dayStart(day)

	trainer, err := lookupTrainer(ctx, s.trainers, trainerID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cachedSlots(ctx, trainerID, dayStart); ok {
		return dropStarted(cached, now), nil
	}

	availability, err := s.availability.GetAvailability(ctx, trainerID)
	if err != nil {
		return nil, newBookingError(KindStorageUnavailable, err, "get availability")
	}

	bookings, err := s.bookings.FutureConfirmed(ctx, trainerID, now)
	if err != nil {
		return nil, newBookingError(KindStorageUnavailable, err, "get bookings")
	}

	slots := scheduling.GenerateSlots(availability, dayStart, bookings, trainer.SlotDuration(s.cfg.DefaultSlotDuration), now)

	// Параллельный Invalidate может прийти раньше этого Set, запись живёт до TTL
	if s.cache != nil {
		if err := s.cache.Set(ctx, trainerID, dayStart, slots); err != nil {
			s.logger.Warn("Failed to cache slots",
				zap.Int64("trainer_id", trainerID),
				zap.Error(err),
			)
		}
	}

	return slots, nil
}

// SubmitBooking проверяет запрос и атомарно сохраняет бронирование.
//
// RECEIVED -> VALIDATED -> COMMITTED | REJECTED. Проверка пересечений и вставка
// выполняются в одной сериализованной по тренеру транзакции.
func (s *BookingService) SubmitBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	now := s.clock.Now()
	log := s.logger.With(
		zap.Int64("trainer_id", req.TrainerID),
		zap.Time("start", req.StartTime),
		zap.Time("end", req.EndTime),
	)
	log.Debug("Booking request received")

	booking, trainer, err := s.admit(ctx, req, now)
	if err != nil {
		s.logRejection(log, err)
		return nil, err
	}

	if err := s.commit(ctx, booking, now); err != nil {
		s.logRejection(log, err)
		return nil, err
	}

	log.Info("Booking committed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("client", booking.ClientName),
	)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, booking.TrainerID, s.dayStart(booking.StartTime)); err != nil {
			log.Warn("Failed to invalidate slot cache", zap.Error(err))
		}
	}

	s.notify(ctx, *booking, *trainer)

	return booking, nil
}

// admit выполняет проверки 1-2: структура запроса и попадание в расписание
func (s *BookingService) admit(ctx context.Context, req model.BookingRequest, now time.Time) (*model.Booking, *model.Trainer, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientContact = strings.TrimSpace(req.ClientContact)
	req.Note = strings.TrimSpace(req.Note)

	if err := s.validateRequest(req, now); err != nil {
		return nil, nil, err
	}

	trainer, err := lookupTrainer(ctx, s.trainers, req.TrainerID)
	if err != nil {
		return nil, nil, err
	}

	// Свежее чтение расписания, а не слот из предыдущего запроса
	availability, err := s.availability.GetAvailability(ctx, req.TrainerID)
	if err != nil {
		return nil, nil, newBookingError(KindStorageUnavailable, err, "get availability")
	}

	start := req.StartTime.In(s.cfg.Location)
	end := req.EndTime.In(s.cfg.Location)
	if !withinAvailability(availability, start, end) {
		return nil, nil, newBookingError(KindOutsideAvailability, nil,
			"%s %s-%s is outside trainer availability",
			model.WeekdayToken(start.Weekday()), start.Format("15:04"), end.Format("15:04"))
	}

	booking := &model.Booking{
		ID:            uuid.New(),
		TrainerID:     req.TrainerID,
		StartTime:     start,
		EndTime:       end,
		ClientName:    req.ClientName,
		ClientContact: req.ClientContact,
		Note:          req.Note,
		Status:        model.BookingStatusConfirmed,
	}

	return booking, trainer, nil
}

// commit выполняет проверки 3-4 под блокировкой тренера
func (s *BookingService) commit(ctx context.Context, booking *model.Booking, now time.Time) error {
	commitCtx, cancel := context.WithTimeout(ctx, s.cfg.CommitTimeout)
	defer cancel()

	err := s.bookings.InTrainerTx(commitCtx, booking.TrainerID, func(ctx context.Context, tx repository.BookingTx) error {
		existing, err := tx.FutureConfirmed(ctx, booking.TrainerID, now)
		if err != nil {
			return err
		}

		if scheduling.Overlaps(booking.StartTime, booking.EndTime, existing) {
			return newBookingError(KindSlotTaken, nil, "requested time overlaps an existing booking")
		}

		return tx.Insert(ctx, booking)
	})

	if err == nil {
		return nil
	}

	var bookingErr *BookingError
	switch {
	case errors.As(err, &bookingErr):
		return bookingErr
	case errors.Is(err, repository.ErrOverlap):
		return newBookingError(KindCommitFailed, err, "booking lost a concurrent commit")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// Исход коммита неизвестен, клиент должен перечитать слоты
		return newBookingError(KindStorageUnavailable, err, "commit outcome unknown")
	default:
		return newBookingError(KindStorageUnavailable, err, "commit booking")
	}
}

func (s *BookingService) validateRequest(req model.BookingRequest, now time.Time) error {
	if err := s.validate.Struct(req); err != nil {
		return newBookingError(KindInvalidInput, err, "invalid booking request")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return newBookingError(KindInvalidInput, nil, "start and end are required")
	}
	if !req.StartTime.Before(req.EndTime) {
		return newBookingError(KindInvalidInput, nil, "start must be before end")
	}
	if !req.StartTime.After(now) {
		return newBookingError(KindInvalidInput, nil, "start must be in the future")
	}
	return nil
}

func (s *BookingService) cachedSlots(ctx context.Context, trainerID int64, day time.Time) ([]model.Slot, bool) {
	if s.cache == nil {
		return nil, false
	}

	slots, ok, err := s.cache.Get(ctx, trainerID, day)
	if err != nil {
		s.logger.Warn("Failed to read slot cache",
			zap.Int64("trainer_id", trainerID),
			zap.Error(err),
		)
		return nil, false
	}
	return slots, ok
}

// notify передаёт событие диспетчеру ровно один раз; ошибки только логируются
func (s *BookingService) notify(ctx context.Context, booking model.Booking, trainer model.Trainer) {
	if s.dispatcher == nil {
		return
	}

	event := model.NewBookingCreatedEvent(booking, trainer)
	if err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to dispatch booking notification",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) logRejection(log *zap.Logger, err error) {
	var bookingErr *BookingError
	if errors.As(err, &bookingErr) && bookingErr.Retryable() {
		log.Error("Booking failed", zap.Error(err))
		return
	}
	log.Info("Booking rejected", zap.Error(err))
}

func (s *BookingService) dayStart(t time.Time) time.Time {
	local := t.In(s.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.cfg.Location)
}

// withinAvailability проверяет что [start, end) целиком внутри одного интервала дня start
func withinAvailability(availability model.AvailabilityMap, start, end time.Time) bool {
	for _, r := range availability.RangesFor(start.Weekday()) {
		if r.Contains(start, end) {
			return true
		}
	}
	return false
}

func dropStarted(slots []model.Slot, now time.Time) []model.Slot {
	result := make([]model.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Start.After(now) {
			result = append(result, slot)
		}
	}
	return result
}

// String для логов
func (c BookingConfig) String() string {
	return fmt.Sprintf("location=%s slot=%s commit_timeout=%s", c.Location, c.DefaultSlotDuration, c.CommitTimeout)
}
