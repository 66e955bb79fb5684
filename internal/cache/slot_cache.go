// Package cache кэширует вычисленные слоты на день в Redis.
// Кэш только ускоряет чтение: бронирование всегда перепроверяется в транзакции.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "slots"
	scanBatch = 100
)

type SlotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSlotCache создаёт кэш поверх клиента Redis
func NewSlotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SlotCache {
	return &SlotCache{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Get возвращает слоты из кэша. ok=false если ключа нет.
func (c *SlotCache) Get(ctx context.Context, trainerID int64, day time.Time) ([]model.Slot, bool, error) {
	data, err := c.client.Get(ctx, Key(trainerID, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get slots: %w", err)
	}

	var slots []model.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false, fmt.Errorf("decode slots: %w", err)
	}
	return slots, true, nil
}

func (c *SlotCache) Set(ctx context.Context, trainerID int64, day time.Time, slots []model.Slot) error {
	if slots == nil {
		slots = []model.Slot{}
	}

	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}

	if err := c.client.Set(ctx, Key(trainerID, day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set slots: %w", err)
	}
	return nil
}

// Invalidate удаляет слоты одного дня
func (c *SlotCache) Invalidate(ctx context.Context, trainerID int64, day time.Time) error {
	if err := c.client.Del(ctx, Key(trainerID, day)).Err(); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return nil
}

// InvalidateTrainer удаляет все закэшированные дни тренера
func (c *SlotCache) InvalidateTrainer(ctx context.Context, trainerID int64) error {
	pattern := fmt.Sprintf("%s:%d:*", keyPrefix, trainerID)

	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan slots: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete slots: %w", err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Slot cache invalidated",
		zap.Int64("trainer_id", trainerID),
		zap.Int("keys", deleted),
	)
	return nil
}

// Key ключ вида slots:{trainer_id}:{YYYY-MM-DD}
func Key(trainerID int64, day time.Time) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, trainerID, day.Format(time.DateOnly))
}
