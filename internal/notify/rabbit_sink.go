package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
)

const contentTypeJSON = "application/json"

// RabbitSink публикует события в durable очередь RabbitMQ с подтверждениями
type RabbitSink struct {
	channel *amqp.Channel
	queue   string
}

// NewRabbitSink открывает канал, объявляет очередь и включает publisher confirms
func NewRabbitSink(conn *amqp.Connection, queue string) (*RabbitSink, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		channel.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	if err := channel.Confirm(false); err != nil {
		channel.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return &RabbitSink{channel: channel, queue: queue}, nil
}

func (s *RabbitSink) Name() string { return "rabbitmq" }

func (s *RabbitSink) Send(ctx context.Context, event model.BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.Booking.ID.String(),
		Type:         event.Type,
		Timestamp:    time.Now(),
		Body:         body,
	}

	// Подтверждение привязано к delivery tag своей публикации
	confirm, err := s.channel.PublishWithDeferredConfirmWithContext(ctx, "", s.queue, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	ack, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait confirm: %w", err)
	}
	if !ack {
		return fmt.Errorf("publish event: broker nacked delivery %d", confirm.DeliveryTag)
	}
	return nil
}

// Close закрывает канал
func (s *RabbitSink) Close() error {
	return s.channel.Close()
}

// DialRabbit подключается к брокеру
func DialRabbit(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return conn, nil
}
