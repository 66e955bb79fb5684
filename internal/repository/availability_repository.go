package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/base"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AvailabilityRepository хранит недельное расписание тренеров в JSONB
type AvailabilityRepository struct {
	base   *base.Repository
	logger *zap.Logger
}

// NewAvailabilityRepository создаёт новый репозиторий
func NewAvailabilityRepository(pool *pgxpool.Pool, logger *zap.Logger) *AvailabilityRepository {
	return &AvailabilityRepository{
		base:   base.NewRepository(pool),
		logger: logger,
	}
}

// GetAvailability получает расписание тренера. Отсутствие записи - пустая карта.
func (r *AvailabilityRepository) GetAvailability(ctx context.Context, trainerID int64) (model.AvailabilityMap, error) {
	query := `
		SELECT schedule
		FROM trainer_availability
		WHERE trainer_id = $1
	`

	var data []byte
	err := r.base.Pool().QueryRow(ctx, query, trainerID).Scan(&data)
	if err != nil {
		if base.IsNotFound(err) {
			return model.AvailabilityMap{}, nil
		}
		return nil, fmt.Errorf("get availability: %w", err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode availability: %w", err)
	}

	availability, err := model.ParseAvailabilityMap(raw)
	if err != nil {
		// Сохранённое расписание не должно быть невалидным, но лучше увидеть это в логах
		r.logger.Error("Stored availability is malformed",
			zap.Int64("trainer_id", trainerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("parse availability: %w", err)
	}

	return availability, nil
}

// SetAvailability полностью заменяет расписание тренера
func (r *AvailabilityRepository) SetAvailability(ctx context.Context, trainerID int64, availability model.AvailabilityMap) error {
	query := `
		INSERT INTO trainer_availability (trainer_id, schedule, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (trainer_id) DO UPDATE
		SET schedule = EXCLUDED.schedule, updated_at = NOW()
	`

	data, err := json.Marshal(availability.Raw())
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}

	if _, err := r.base.Pool().Exec(ctx, query, trainerID, data); err != nil {
		return fmt.Errorf("set availability: %w", err)
	}

	return nil
}
