// Package memory реализует хранилища в памяти процесса.
// Используется в тестах и при STORAGE_DRIVER=memory, когда транзакционной
// изоляции базы нет и бронирования сериализуются мьютексом на тренера.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
	"github.com/Freeeeeet/trainer_scheduler/internal/scheduling"
)

// defaultSlotMinutes совпадает с DEFAULT колонки trainers.slot_duration_minutes
const defaultSlotMinutes = 60

type Store struct {
	mu           sync.RWMutex
	trainers     map[int64]*model.Trainer
	availability map[int64]model.AvailabilityMap
	bookings     map[int64][]model.Booking
	nextID       int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		trainers:     make(map[int64]*model.Trainer),
		availability: make(map[int64]model.AvailabilityMap),
		bookings:     make(map[int64][]model.Booking),
		locks:        make(map[int64]*sync.Mutex),
	}
}

// Create создаёт тренера
func (s *Store) Create(_ context.Context, trainer *model.Trainer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	trainer.ID = s.nextID
	trainer.CreatedAt = time.Now()
	if trainer.SlotDurationMinutes <= 0 {
		trainer.SlotDurationMinutes = defaultSlotMinutes
	}

	stored := *trainer
	s.trainers[trainer.ID] = &stored
	return nil
}

// GetByID получает тренера по ID
func (s *Store) GetByID(_ context.Context, id int64) (*model.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trainer, ok := s.trainers[id]
	if !ok {
		return nil, repository.ErrTrainerNotFound
	}
	copied := *trainer
	return &copied, nil
}

// GetByTelegramChatID получает тренера по привязанному чату
func (s *Store) GetByTelegramChatID(_ context.Context, chatID int64) (*model.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, trainer := range s.trainers {
		if trainer.TelegramChatID != nil && *trainer.TelegramChatID == chatID {
			copied := *trainer
			return &copied, nil
		}
	}
	return nil, repository.ErrTrainerNotFound
}

// SetTelegramChatID привязывает чат к тренеру
func (s *Store) SetTelegramChatID(_ context.Context, trainerID, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trainer, ok := s.trainers[trainerID]
	if !ok {
		return repository.ErrTrainerNotFound
	}

	// Чат принадлежит одному тренеру, прежняя привязка снимается
	for id, other := range s.trainers {
		if id != trainerID && other.TelegramChatID != nil && *other.TelegramChatID == chatID {
			other.TelegramChatID = nil
		}
	}

	trainer.TelegramChatID = &chatID
	return nil
}

// GetAvailability возвращает снимок расписания тренера
func (s *Store) GetAvailability(_ context.Context, trainerID int64) (model.AvailabilityMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(model.AvailabilityMap, len(s.availability[trainerID]))
	for day, ranges := range s.availability[trainerID] {
		snapshot[day] = append([]model.TimeRange(nil), ranges...)
	}
	return snapshot, nil
}

// SetAvailability заменяет расписание тренера
func (s *Store) SetAvailability(_ context.Context, trainerID int64, availability model.AvailabilityMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make(model.AvailabilityMap, len(availability))
	for day, ranges := range availability {
		stored[day] = append([]model.TimeRange(nil), ranges...)
	}
	s.availability[trainerID] = stored
	return nil
}

// FutureConfirmed возвращает подтверждённые бронирования, не закончившиеся к from
func (s *Store) FutureConfirmed(_ context.Context, trainerID int64, from time.Time) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.futureConfirmedLocked(trainerID, from), nil
}

// InTrainerTx выполняет fn под мьютексом тренера. Вставки применяются только
// если fn завершилась без ошибки.
func (s *Store) InTrainerTx(ctx context.Context, trainerID int64, fn func(ctx context.Context, tx repository.BookingTx) error) error {
	lock := s.trainerLock(trainerID)
	lock.Lock()
	defer lock.Unlock()

	tx := &storeTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range tx.pending {
		// Аналог ограничения bookings_no_overlap
		if scheduling.Overlaps(b.StartTime, b.EndTime, s.bookings[b.TrainerID]) {
			return fmt.Errorf("create booking: %w", repository.ErrOverlap)
		}
		s.bookings[b.TrainerID] = append(s.bookings[b.TrainerID], b)
	}
	return nil
}

// All возвращает все бронирования тренера
func (s *Store) All(trainerID int64) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Booking(nil), s.bookings[trainerID]...)
}

func (s *Store) trainerLock(trainerID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[trainerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[trainerID] = lock
	}
	return lock
}

func (s *Store) futureConfirmedLocked(trainerID int64, from time.Time) []model.Booking {
	var result []model.Booking
	for _, b := range s.bookings[trainerID] {
		if b.IsConfirmed() && b.EndTime.After(from) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result
}

type storeTx struct {
	store   *Store
	pending []model.Booking
}

func (t *storeTx) FutureConfirmed(_ context.Context, trainerID int64, from time.Time) ([]model.Booking, error) {
	t.store.mu.RLock()
	result := t.store.futureConfirmedLocked(trainerID, from)
	t.store.mu.RUnlock()

	for _, b := range t.pending {
		if b.TrainerID == trainerID && b.IsConfirmed() && b.EndTime.After(from) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (t *storeTx) Insert(_ context.Context, booking *model.Booking) error {
	if !booking.StartTime.Before(booking.EndTime) {
		return fmt.Errorf("create booking: start must be before end")
	}
	if scheduling.Overlaps(booking.StartTime, booking.EndTime, t.pending) {
		return fmt.Errorf("create booking: %w", repository.ErrOverlap)
	}

	booking.CreatedAt = time.Now()
	t.pending = append(t.pending, *booking)
	return nil
}
