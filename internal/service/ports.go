package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
)

// TrainerStore интерфейс хранилища тренеров
type TrainerStore interface {
	Create(ctx context.Context, trainer *model.Trainer) error
	GetByID(ctx context.Context, id int64) (*model.Trainer, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Trainer, error)
	SetTelegramChatID(ctx context.Context, trainerID, chatID int64) error
}

// AvailabilityStore интерфейс хранилища недельных расписаний
type AvailabilityStore interface {
	GetAvailability(ctx context.Context, trainerID int64) (model.AvailabilityMap, error)
	SetAvailability(ctx context.Context, trainerID int64, availability model.AvailabilityMap) error
}

// BookingStore интерфейс хранилища бронирований.
// InTrainerTx должен гарантировать, что fn для одного тренера не выполняются параллельно.
type BookingStore interface {
	FutureConfirmed(ctx context.Context, trainerID int64, from time.Time) ([]model.Booking, error)
	InTrainerTx(ctx context.Context, trainerID int64, fn func(ctx context.Context, tx repository.BookingTx) error) error
}

// SlotCache кэш вычисленных слотов на день.
// Запись, сделанная читателем сразу после Invalidate, может прожить до SLOT_CACHE_TTL:
// список свободных слотов устаревает не дольше TTL, а бронирование всегда
// перепроверяется в транзакции.
type SlotCache interface {
	Get(ctx context.Context, trainerID int64, day time.Time) ([]model.Slot, bool, error)
	Set(ctx context.Context, trainerID int64, day time.Time, slots []model.Slot) error
	Invalidate(ctx context.Context, trainerID int64, day time.Time) error
	InvalidateTrainer(ctx context.Context, trainerID int64) error
}

// Dispatcher принимает события для доставки уведомлений. Не должен блокироваться.
type Dispatcher interface {
	Dispatch(ctx context.Context, event model.BookingEvent) error
}

// Clock интерфейс для получения текущего времени (для тестирования)
type Clock interface {
	Now() time.Time
}

// RealClock реальные часы для production
type RealClock struct{}

// Now возвращает текущее время
func (RealClock) Now() time.Time {
	return time.Now()
}
