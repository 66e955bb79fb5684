package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TrainerRepository struct {
	base *base.Repository
}

func NewTrainerRepository(pool *pgxpool.Pool) *TrainerRepository {
	return &TrainerRepository{base: base.NewRepository(pool)}
}

const trainerColumns = `id, name, slot_duration_minutes, telegram_chat_id, created_at`

// Create создаёт нового тренера. Нулевая длительность слота заменяется значением
// по умолчанию из схемы.
func (r *TrainerRepository) Create(ctx context.Context, trainer *model.Trainer) error {
	query := `
		INSERT INTO trainers (name, slot_duration_minutes, telegram_chat_id)
		VALUES ($1, $2, $3)
		RETURNING id, slot_duration_minutes, created_at
	`
	args := []any{trainer.Name, trainer.SlotDurationMinutes, trainer.TelegramChatID}

	if trainer.SlotDurationMinutes <= 0 {
		query = `
			INSERT INTO trainers (name, telegram_chat_id)
			VALUES ($1, $2)
			RETURNING id, slot_duration_minutes, created_at
		`
		args = []any{trainer.Name, trainer.TelegramChatID}
	}

	err := r.base.Pool().QueryRow(ctx, query, args...).
		Scan(&trainer.ID, &trainer.SlotDurationMinutes, &trainer.CreatedAt)
	if err != nil {
		return fmt.Errorf("create trainer: %w", err)
	}

	return nil
}

// GetByID получает тренера по ID
func (r *TrainerRepository) GetByID(ctx context.Context, id int64) (*model.Trainer, error) {
	query := `
		SELECT ` + trainerColumns + `
		FROM trainers
		WHERE id = $1
	`

	trainer, err := r.scanOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get trainer by id: %w", err)
	}
	return trainer, nil
}

// GetByTelegramChatID получает тренера, привязанного к чату
func (r *TrainerRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Trainer, error) {
	query := `
		SELECT ` + trainerColumns + `
		FROM trainers
		WHERE telegram_chat_id = $1
	`

	trainer, err := r.scanOne(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("get trainer by telegram chat: %w", err)
	}
	return trainer, nil
}

// SetTelegramChatID привязывает чат для уведомлений. Чат принадлежит одному
// тренеру: прежний владелец чата отвязывается в той же транзакции.
func (r *TrainerRepository) SetTelegramChatID(ctx context.Context, trainerID, chatID int64) error {
	return r.base.InTx(ctx, pgx.ReadCommitted, func(ctx context.Context, tx pgx.Tx) error {
		release := `
			UPDATE trainers
			SET telegram_chat_id = NULL
			WHERE telegram_chat_id = $1 AND id <> $2
		`
		if _, err := tx.Exec(ctx, release, chatID, trainerID); err != nil {
			return fmt.Errorf("release telegram chat: %w", err)
		}

		link := `
			UPDATE trainers
			SET telegram_chat_id = $1
			WHERE id = $2
		`
		result, err := tx.Exec(ctx, link, chatID, trainerID)
		if err != nil {
			return fmt.Errorf("set telegram chat: %w", err)
		}

		if result.RowsAffected() == 0 {
			return ErrTrainerNotFound
		}
		return nil
	})
}

func (r *TrainerRepository) scanOne(ctx context.Context, query string, arg any) (*model.Trainer, error) {
	var trainer model.Trainer
	err := r.base.Pool().QueryRow(ctx, query, arg).Scan(
		&trainer.ID,
		&trainer.Name,
		&trainer.SlotDurationMinutes,
		&trainer.TelegramChatID,
		&trainer.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	return &trainer, nil
}
