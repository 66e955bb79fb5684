package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждено, участвует в проверке пересечений
	BookingStatusCanceled  BookingStatus = "canceled"  // Отменено, в проверках не участвует
)

type Booking struct {
	ID            uuid.UUID     `json:"id"`
	TrainerID     int64         `json:"trainer_id"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	ClientName    string        `json:"client_name"`
	ClientContact string        `json:"client_contact"`
	Note          string        `json:"note,omitempty"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// IsConfirmed проверяет что бронирование активно
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// BookingRequest входящий запрос на бронирование, отдельно не хранится
type BookingRequest struct {
	TrainerID     int64     `json:"trainer_id" validate:"required,gt=0"`
	StartTime     time.Time `json:"start" validate:"required"`
	EndTime       time.Time `json:"end" validate:"required"`
	ClientName    string    `json:"client_name" validate:"required,max=200"`
	ClientContact string    `json:"client_contact" validate:"required,max=320"`
	Note          string    `json:"note" validate:"max=2000"`
}
