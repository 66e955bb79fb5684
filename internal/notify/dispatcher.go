// Package notify доставляет события о бронированиях получателям в фоне.
// Сбой доставки никогда не откатывает уже сохранённое бронирование.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"go.uber.org/zap"
)

// ErrQueueFull очередь уведомлений переполнена
var ErrQueueFull = errors.New("notification queue is full")

// ErrStopped диспетчер уже остановлен
var ErrStopped = errors.New("dispatcher is stopped")

// Sink получатель событий
type Sink interface {
	Name() string
	Send(ctx context.Context, event model.BookingEvent) error
}

// Dispatcher очередь событий и воркер, который раздаёт их всем получателям
type Dispatcher struct {
	queue       chan model.BookingEvent
	sinks       []Sink
	sendTimeout time.Duration
	logger      *zap.Logger

	mu       sync.RWMutex
	stopped  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewDispatcher создаёт диспетчер с очередью заданного размера
func NewDispatcher(queueSize int, sendTimeout time.Duration, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 100
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		queue:       make(chan model.BookingEvent, queueSize),
		sinks:       sinks,
		sendTimeout: sendTimeout,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start запускает воркер доставки
func (d *Dispatcher) Start(ctx context.Context) {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	d.logger.Info("Starting notification dispatcher", zap.Strings("sinks", names))

	d.wg.Add(1)
	go d.run(ctx)
}

// Stop прекращает приём событий, дожидается доставки уже принятых
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.stopChan)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("Notification dispatcher stopped")
}

// Dispatch ставит событие в очередь и сразу возвращается
func (d *Dispatcher) Dispatch(_ context.Context, event model.BookingEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		case <-d.stopChan:
			d.drain(ctx)
			return
		case <-ctx.Done():
			d.logger.Info("Notification dispatcher cancelled", zap.Int("pending", len(d.queue)))
			return
		}
	}
}

// drain доставляет то, что осталось в очереди после Stop
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event model.BookingEvent) {
	for _, sink := range d.sinks {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
		err := sink.Send(sendCtx, event)
		cancel()

		if err != nil {
			d.logger.Error("Failed to deliver notification",
				zap.String("sink", sink.Name()),
				zap.String("booking_id", event.Booking.ID.String()),
				zap.Error(err),
			)
			continue
		}

		d.logger.Debug("Notification delivered",
			zap.String("sink", sink.Name()),
			zap.String("booking_id", event.Booking.ID.String()),
		)
	}
}
