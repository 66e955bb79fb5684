package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingTx операции с бронированиями внутри сериализованной по тренеру транзакции
type BookingTx interface {
	FutureConfirmed(ctx context.Context, trainerID int64, from time.Time) ([]model.Booking, error)
	Insert(ctx context.Context, booking *model.Booking) error
}

type BookingRepository struct {
	base *base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{base: base.NewRepository(pool)}
}

const bookingColumns = `id, trainer_id, start_time, end_time, client_name, client_contact, note, status, created_at`

// FutureConfirmed получает подтверждённые бронирования тренера, которые ещё не закончились к from
func (r *BookingRepository) FutureConfirmed(ctx context.Context, trainerID int64, from time.Time) ([]model.Booking, error) {
	return futureConfirmed(ctx, r.base.Pool(), trainerID, from)
}

// InTrainerTx выполняет fn в транзакции, сериализованной по тренеру.
//
// Advisory lock на trainer_id берётся первой командой транзакции, поэтому
// конкурентные запросы к одному тренеру выполняются строго по очереди.
// Изоляция READ COMMITTED: каждый запрос после получения блокировки видит
// уже закоммиченные бронирования предыдущего владельца блокировки.
// Ограничение bookings_no_overlap остаётся последней линией защиты.
func (r *BookingRepository) InTrainerTx(ctx context.Context, trainerID int64, fn func(ctx context.Context, tx BookingTx) error) error {
	err := r.base.InTx(ctx, pgx.ReadCommitted, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, trainerID); err != nil {
			return fmt.Errorf("lock trainer bookings: %w", err)
		}
		return fn(ctx, &bookingTx{tx: tx})
	})

	if err != nil && (base.IsConflict(err) || base.IsRetryable(err)) {
		return fmt.Errorf("%w: %v", ErrOverlap, err)
	}
	return err
}

type bookingTx struct {
	tx pgx.Tx
}

func (t *bookingTx) FutureConfirmed(ctx context.Context, trainerID int64, from time.Time) ([]model.Booking, error) {
	return futureConfirmed(ctx, t.tx, trainerID, from)
}

// Insert создаёт новое бронирование
func (t *bookingTx) Insert(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (id, trainer_id, start_time, end_time, client_name, client_contact, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := t.tx.QueryRow(
		ctx, query,
		booking.ID,
		booking.TrainerID,
		booking.StartTime,
		booking.EndTime,
		booking.ClientName,
		booking.ClientContact,
		booking.Note,
		booking.Status,
	).Scan(&booking.CreatedAt)

	if err != nil {
		if base.IsConflict(err) {
			return fmt.Errorf("create booking: %w", ErrOverlap)
		}
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

func futureConfirmed(ctx context.Context, q base.Querier, trainerID int64, from time.Time) ([]model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE trainer_id = $1
		  AND status = 'confirmed'
		  AND end_time > $2
		ORDER BY start_time
	`

	rows, err := q.Query(ctx, query, trainerID, from)
	if err != nil {
		return nil, fmt.Errorf("get future bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var booking model.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.TrainerID,
			&booking.StartTime,
			&booking.EndTime,
			&booking.ClientName,
			&booking.ClientContact,
			&booking.Note,
			&booking.Status,
			&booking.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}
