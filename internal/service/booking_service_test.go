package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/trainer_scheduler/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2030-01-07 - понедельник
var monday = time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, event model.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fixture struct {
	svc        *BookingService
	store      *memory.Store
	dispatcher *MockDispatcher
	trainer    *model.Trainer
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	trainer := &model.Trainer{Name: "Anna", SlotDurationMinutes: 60}
	require.NoError(t, store.Create(ctx, trainer))

	availability, err := model.ParseAvailabilityMap(map[string][]string{"mon": {"09:00-11:00"}})
	require.NoError(t, err)
	require.NoError(t, store.SetAvailability(ctx, trainer.ID, availability))

	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	svc := NewBookingService(store, store, store, nil, dispatcher, fixedClock{now: now},
		BookingConfig{Location: time.UTC, DefaultSlotDuration: time.Hour, CommitTimeout: time.Second},
		zap.NewNop())

	return &fixture{svc: svc, store: store, dispatcher: dispatcher, trainer: trainer}
}

func (f *fixture) request(start, end time.Time) model.BookingRequest {
	return model.BookingRequest{
		TrainerID:     f.trainer.ID,
		StartTime:     start,
		EndTime:       end,
		ClientName:    "Ivan",
		ClientContact: "ivan@example.com",
	}
}

func TestGetBookableSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("Free Morning", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		slots, err := f.svc.GetBookableSlots(ctx, f.trainer.ID, monday)
		require.NoError(t, err)
		assert.Equal(t, []model.Slot{
			{Start: at(9, 0), End: at(10, 0)},
			{Start: at(10, 0), End: at(11, 0)},
		}, slots)
	})

	t.Run("Booked Slot Is Hidden", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		_, err := f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
		require.NoError(t, err)

		slots, err := f.svc.GetBookableSlots(ctx, f.trainer.ID, monday)
		require.NoError(t, err)
		assert.Equal(t, []model.Slot{{Start: at(10, 0), End: at(11, 0)}}, slots)
	})

	t.Run("Day Is Normalized", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		slots, err := f.svc.GetBookableSlots(ctx, f.trainer.ID, at(15, 45))
		require.NoError(t, err)
		assert.Len(t, slots, 2)
	})

	t.Run("Past Slots Are Never Returned", func(t *testing.T) {
		f := newFixture(t, at(9, 0))
		slots, err := f.svc.GetBookableSlots(ctx, f.trainer.ID, monday)
		require.NoError(t, err)
		assert.Equal(t, []model.Slot{{Start: at(10, 0), End: at(11, 0)}}, slots)
	})

	t.Run("Unknown Trainer", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		_, err := f.svc.GetBookableSlots(ctx, f.trainer.ID+100, monday)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.ErrorIs(t, err, repository.ErrTrainerNotFound)
	})
}

func TestSubmitBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits And Notifies Once", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		booking, err := f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
		require.NoError(t, err)

		assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, "Ivan", booking.ClientName)
		assert.Len(t, f.store.All(f.trainer.ID), 1)

		f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
		event := f.dispatcher.Calls[0].Arguments.Get(1).(model.BookingEvent)
		assert.Equal(t, model.EventTypeBookingCreated, event.Type)
		assert.Equal(t, booking.ID, event.Booking.ID)
		assert.Equal(t, f.trainer.ID, event.Trainer.ID)
		assert.Equal(t, "ivan@example.com", event.Client.Contact)
	})

	t.Run("Outside Availability", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		_, err := f.svc.SubmitBooking(ctx, f.request(at(10, 30), at(11, 30)))
		assert.ErrorIs(t, err, ErrOutsideAvailability)

		tuesday := f.request(at(33, 0), at(34, 0))
		_, err = f.svc.SubmitBooking(ctx, tuesday)
		assert.ErrorIs(t, err, ErrOutsideAvailability)

		f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("Slot Taken", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		_, err := f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
		require.NoError(t, err)

		_, err = f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
		assert.ErrorIs(t, err, ErrSlotTaken)

		_, err = f.svc.SubmitBooking(ctx, f.request(at(9, 30), at(10, 30)))
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("Idempotent Rejection", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		_, err := f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, err := f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
		assert.Len(t, f.store.All(f.trainer.ID), 1)
		f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
	})

	t.Run("Half Open Boundary", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		_, err := f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
		require.NoError(t, err)
		_, err = f.svc.SubmitBooking(ctx, f.request(at(10, 0), at(11, 0)))
		require.NoError(t, err)
		assert.Len(t, f.store.All(f.trainer.ID), 2)
	})

	t.Run("Invalid Input", func(t *testing.T) {
		f := newFixture(t, at(8, 0))

		cases := map[string]model.BookingRequest{
			"start after end": f.request(at(10, 0), at(9, 0)),
			"empty interval":  f.request(at(10, 0), at(10, 0)),
			"in the past":     f.request(at(7, 0), at(8, 0)),
			"starts now":      f.request(at(8, 0), at(9, 0)),
			"zero start":      f.request(time.Time{}, at(10, 0)),
		}
		noName := f.request(at(9, 0), at(10, 0))
		noName.ClientName = "   "
		cases["blank client name"] = noName
		noContact := f.request(at(9, 0), at(10, 0))
		noContact.ClientContact = ""
		cases["missing contact"] = noContact
		unknown := f.request(at(9, 0), at(10, 0))
		unknown.TrainerID = 4242
		cases["unknown trainer"] = unknown

		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := f.svc.SubmitBooking(ctx, req)
				assert.ErrorIs(t, err, ErrInvalidInput)
			})
		}
		assert.Empty(t, f.store.All(f.trainer.ID))
	})

	t.Run("Notification Failure Does Not Fail Booking", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		failing := new(MockDispatcher)
		failing.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("queue full"))
		f.svc.dispatcher = failing

		booking, err := f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
		require.NoError(t, err)
		assert.NotNil(t, booking)
		failing.AssertNumberOfCalls(t, "Dispatch", 1)
	})
}

func TestSubmitBookingConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(8, 0))

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrSlotTaken)
	}

	assert.Equal(t, 1, succeeded)
	f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)

	all := f.store.All(f.trainer.ID)
	require.Len(t, all, 1)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.False(t, scheduling.IntervalsOverlap(all[i].StartTime, all[i].EndTime, all[j].StartTime, all[j].EndTime))
		}
	}
}

func TestSubmitBookingConcurrentMixedIntervals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(8, 0))

	intervals := [][2]time.Time{
		{at(9, 0), at(10, 0)},
		{at(9, 30), at(10, 30)},
		{at(10, 0), at(11, 0)},
		{at(9, 0), at(9, 30)},
		{at(10, 15), at(10, 45)},
	}

	var wg sync.WaitGroup
	for round := 0; round < 4; round++ {
		for _, iv := range intervals {
			wg.Add(1)
			go func(start, end time.Time) {
				defer wg.Done()
				_, _ = f.svc.SubmitBooking(ctx, f.request(start, end))
			}(iv[0], iv[1])
		}
	}
	wg.Wait()

	all := f.store.All(f.trainer.ID)
	require.NotEmpty(t, all)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.False(t, scheduling.IntervalsOverlap(all[i].StartTime, all[i].EndTime, all[j].StartTime, all[j].EndTime),
				"bookings %v-%v and %v-%v overlap", all[i].StartTime, all[i].EndTime, all[j].StartTime, all[j].EndTime)
		}
	}
}

type stubBookingStore struct {
	futureErr error
	txErr     error
}

func (s *stubBookingStore) FutureConfirmed(context.Context, int64, time.Time) ([]model.Booking, error) {
	return nil, s.futureErr
}

func (s *stubBookingStore) InTrainerTx(context.Context, int64, func(ctx context.Context, tx repository.BookingTx) error) error {
	return s.txErr
}

func TestSubmitBookingStorageFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		txErr     error
		want      error
		reason    string
		retryable bool
	}{
		{"Lost Race", repository.ErrOverlap, ErrCommitFailed, "SlotTaken", false},
		{"Timeout", context.DeadlineExceeded, ErrStorageUnavailable, "StorageUnavailable", true},
		{"Connection Lost", errors.New("conn reset"), ErrStorageUnavailable, "StorageUnavailable", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, at(8, 0))
			f.svc.bookings = &stubBookingStore{txErr: tt.txErr}

			_, err := f.svc.SubmitBooking(ctx, f.request(at(9, 0), at(10, 0)))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, ErrSlotTaken)

			var bookingErr *BookingError
			require.ErrorAs(t, err, &bookingErr)
			assert.Equal(t, tt.reason, bookingErr.ReasonCode())
			assert.Equal(t, tt.retryable, bookingErr.Retryable())
			f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
		})
	}

	t.Run("Slots Read Failure", func(t *testing.T) {
		f := newFixture(t, at(8, 0))
		f.svc.bookings = &stubBookingStore{futureErr: errors.New("db down")}
		_, err := f.svc.GetBookableSlots(ctx, f.trainer.ID, monday)
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})
}

type mapCache struct {
	mu          sync.Mutex
	slots       map[time.Time][]model.Slot
	invalidated []time.Time
}

func newMapCache() *mapCache {
	return &mapCache{slots: make(map[time.Time][]model.Slot)}
}

func (c *mapCache) Get(_ context.Context, _ int64, day time.Time) ([]model.Slot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slots, ok := c.slots[day]
	return slots, ok, nil
}

func (c *mapCache) Set(_ context.Context, _ int64, day time.Time, slots []model.Slot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[day] = slots
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, _ int64, day time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.slots, day)
	c.invalidated = append(c.invalidated, day)
	return nil
}

func (c *mapCache) InvalidateTrainer(context.Context, int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = make(map[time.Time][]model.Slot)
	return nil
}

func TestSlotCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(8, 0))
	cache := newMapCache()
	f.svc.cache = cache

	slots, err := f.svc.GetBookableSlots(ctx, f.trainer.ID, monday)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
	assert.Len(t, cache.slots[monday], 2)

	t.Run("Cached Slots Drop Started Ones", func(t *testing.T) {
		f.svc.clock = fixedClock{now: at(9, 0)}
		slots, err := f.svc.GetBookableSlots(ctx, f.trainer.ID, monday)
		require.NoError(t, err)
		assert.Equal(t, []model.Slot{{Start: at(10, 0), End: at(11, 0)}}, slots)
	})

	t.Run("Commit Invalidates Day", func(t *testing.T) {
		_, err := f.svc.SubmitBooking(ctx, f.request(at(10, 0), at(11, 0)))
		require.NoError(t, err)
		assert.Equal(t, []time.Time{monday}, cache.invalidated)

		slots, err := f.svc.GetBookableSlots(ctx, f.trainer.ID, monday)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})
}
