package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/migrations"
	"github.com/Freeeeeet/trainer_scheduler/internal/scheduling"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errTaken = errors.New("taken")

// setupPool подключается к TEST_DB_DSN и применяет миграции
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.UpContext(ctx, db, "."))

	return pool
}

func createTrainer(t *testing.T, pool *pgxpool.Pool) *model.Trainer {
	t.Helper()
	ctx := context.Background()

	trainer := &model.Trainer{Name: "integration", SlotDurationMinutes: 60}
	require.NoError(t, repository.NewTrainerRepository(pool).Create(ctx, trainer))

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM trainers WHERE id = $1`, trainer.ID)
	})
	return trainer
}

func newBooking(trainerID int64, start time.Time, d time.Duration) *model.Booking {
	return &model.Booking{
		ID:            uuid.New(),
		TrainerID:     trainerID,
		StartTime:     start,
		EndTime:       start.Add(d),
		ClientName:    "client",
		ClientContact: "contact",
		Status:        model.BookingStatusConfirmed,
	}
}

func TestBookingRepositoryConcurrentCommit(t *testing.T) {
	pool := setupPool(t)
	trainer := createTrainer(t, pool)
	repo := repository.NewBookingRepository(pool)

	ctx := context.Background()
	now := time.Now().UTC()
	start := now.Add(48 * time.Hour).Truncate(time.Hour)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			booking := newBooking(trainer.ID, start, time.Hour)
			errs[i] = repo.InTrainerTx(ctx, trainer.ID, func(ctx context.Context, tx repository.BookingTx) error {
				existing, err := tx.FutureConfirmed(ctx, trainer.ID, now)
				if err != nil {
					return err
				}
				if scheduling.Overlaps(booking.StartTime, booking.EndTime, existing) {
					return errTaken
				}
				return tx.Insert(ctx, booking)
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errTaken)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := repo.FutureConfirmed(ctx, trainer.ID, now)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestBookingRepositoryExclusionConstraint(t *testing.T) {
	pool := setupPool(t)
	trainer := createTrainer(t, pool)
	repo := repository.NewBookingRepository(pool)

	ctx := context.Background()
	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)

	insert := func(b *model.Booking) error {
		return repo.InTrainerTx(ctx, trainer.ID, func(ctx context.Context, tx repository.BookingTx) error {
			return tx.Insert(ctx, b)
		})
	}

	require.NoError(t, insert(newBooking(trainer.ID, start, time.Hour)))

	// Вставка без проверки в коде ловится ограничением
	err := insert(newBooking(trainer.ID, start.Add(30*time.Minute), time.Hour))
	assert.ErrorIs(t, err, repository.ErrOverlap)

	// Полуоткрытые интервалы: касание границы допустимо
	require.NoError(t, insert(newBooking(trainer.ID, start.Add(time.Hour), time.Hour)))
}

func TestAvailabilityRepository(t *testing.T) {
	pool := setupPool(t)
	trainer := createTrainer(t, pool)
	repo := repository.NewAvailabilityRepository(pool, zap.NewNop())
	ctx := context.Background()

	empty, err := repo.GetAvailability(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	availability, err := model.ParseAvailabilityMap(map[string][]string{
		"mon": {"09:00-12:00", "14:00-18:00"},
		"sat": {"10:00-24:00"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.SetAvailability(ctx, trainer.ID, availability))

	stored, err := repo.GetAvailability(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Equal(t, availability.Raw(), stored.Raw())
}

func TestTrainerRepository(t *testing.T) {
	pool := setupPool(t)
	trainer := createTrainer(t, pool)
	repo := repository.NewTrainerRepository(pool)
	ctx := context.Background()

	chatID := time.Now().UnixNano()
	require.NoError(t, repo.SetTelegramChatID(ctx, trainer.ID, chatID))

	found, err := repo.GetByTelegramChatID(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, trainer.ID, found.ID)

	_, err = repo.GetByID(ctx, -1)
	assert.ErrorIs(t, err, repository.ErrTrainerNotFound)

	t.Run("Relink Chat", func(t *testing.T) {
		other := createTrainer(t, pool)
		require.NoError(t, repo.SetTelegramChatID(ctx, other.ID, chatID))

		found, err := repo.GetByTelegramChatID(ctx, chatID)
		require.NoError(t, err)
		assert.Equal(t, other.ID, found.ID)

		released, err := repo.GetByID(ctx, trainer.ID)
		require.NoError(t, err)
		assert.Nil(t, released.TelegramChatID)
	})

	t.Run("Default Slot Duration", func(t *testing.T) {
		created := &model.Trainer{Name: "no slot"}
		require.NoError(t, repo.Create(ctx, created))
		t.Cleanup(func() {
			_, _ = pool.Exec(context.Background(), `DELETE FROM trainers WHERE id = $1`, created.ID)
		})
		assert.Equal(t, 60, created.SlotDurationMinutes)
	})
}
