package service

import (
	"fmt"
)

type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "InvalidInput"
	KindOutsideAvailability ErrorKind = "OutsideAvailability"
	KindSlotTaken           ErrorKind = "SlotTaken"
	KindCommitFailed        ErrorKind = "CommitFailed"
	KindStorageUnavailable  ErrorKind = "StorageUnavailable"
)

// Сентинелы для errors.Is
var (
	ErrInvalidInput        = &BookingError{Kind: KindInvalidInput}
	ErrOutsideAvailability = &BookingError{Kind: KindOutsideAvailability}
	ErrSlotTaken           = &BookingError{Kind: KindSlotTaken}
	ErrCommitFailed        = &BookingError{Kind: KindCommitFailed}
	ErrStorageUnavailable  = &BookingError{Kind: KindStorageUnavailable}
)

// BookingError типизированный отказ в бронировании
type BookingError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newBookingError(kind ErrorKind, err error, format string, args ...any) *BookingError {
	return &BookingError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *BookingError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

// Is сравнивает по виду ошибки, поэтому errors.Is(err, ErrSlotTaken) работает для любого сообщения
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Kind == e.Kind
}

// ReasonCode код причины для клиента. Проигранная гонка при коммите
// показывается как занятое время, чтобы клиент выбрал слот заново.
func (e *BookingError) ReasonCode() string {
	if e.Kind == KindCommitFailed {
		return string(KindSlotTaken)
	}
	return string(e.Kind)
}

// Retryable можно ли безопасно повторить весь запрос без изменений
func (e *BookingError) Retryable() bool {
	return e.Kind == KindStorageUnavailable
}
