package notify

import (
	"context"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"go.uber.org/zap"
)

// LogSink пишет события в лог. Используется, когда других получателей нет.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, event model.BookingEvent) error {
	s.logger.Info("Booking event",
		zap.String("type", event.Type),
		zap.String("booking_id", event.Booking.ID.String()),
		zap.Int64("trainer_id", event.Trainer.ID),
		zap.Time("start", event.Booking.StartTime),
		zap.Time("end", event.Booking.EndTime),
		zap.String("client", event.Client.Name),
	)
	return nil
}
