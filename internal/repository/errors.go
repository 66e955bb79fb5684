package repository

import "errors"

var (
	// ErrOverlap хранилище отклонило запись из-за пересечения с другим бронированием
	ErrOverlap = errors.New("booking overlaps an existing booking")
	// ErrTrainerNotFound тренер не найден
	ErrTrainerNotFound = errors.New("trainer not found")
)
