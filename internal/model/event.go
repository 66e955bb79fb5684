package model

// EventTypeBookingCreated тип события о новой записи
const EventTypeBookingCreated = "booking_created"

// BookingClient контактные данные клиента из бронирования
type BookingClient struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// BookingEvent событие для диспетчера уведомлений
type BookingEvent struct {
	Type    string        `json:"type"`
	Booking Booking       `json:"booking"`
	Trainer Trainer       `json:"trainer"`
	Client  BookingClient `json:"client"`
}

// NewBookingCreatedEvent собирает событие booking_created
func NewBookingCreatedEvent(booking Booking, trainer Trainer) BookingEvent {
	return BookingEvent{
		Type:    EventTypeBookingCreated,
		Booking: booking,
		Trainer: trainer,
		Client: BookingClient{
			Name:    booking.ClientName,
			Contact: booking.ClientContact,
		},
	}
}
