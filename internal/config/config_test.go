package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "STORAGE_DRIVER", "DB_DSN", "HTTP_ADDR", "HTTP_RATE_LIMIT",
		"TIMEZONE", "DEFAULT_SLOT_MINUTES", "COMMIT_TIMEOUT", "SLOT_CACHE_TTL",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RABBITMQ_URL", "RABBITMQ_QUEUE",
		"TELEGRAM_TOKEN", "NOTIFY_QUEUE_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, time.Hour, cfg.DefaultSlotDuration())
	assert.Equal(t, 5*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.SlotCacheTTL)
	assert.Equal(t, "booking_events", cfg.RabbitMQQueue)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/db")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("DEFAULT_SLOT_MINUTES", "45")
	t.Setenv("COMMIT_TIMEOUT", "2s")
	t.Setenv("REDIS_DB", "3")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
	assert.Equal(t, 45*time.Minute, cfg.DefaultSlotDuration())
	assert.Equal(t, 2*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"Postgres Without DSN", map[string]string{"STORAGE_DRIVER": "postgres"}},
		{"Unknown Driver", map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{"Bad Timezone", map[string]string{"STORAGE_DRIVER": "memory", "TIMEZONE": "Mars/Olympus"}},
		{"Bad Int", map[string]string{"STORAGE_DRIVER": "memory", "HTTP_RATE_LIMIT": "many"}},
		{"Bad Duration", map[string]string{"STORAGE_DRIVER": "memory", "COMMIT_TIMEOUT": "5"}},
		{"Zero Slot", map[string]string{"STORAGE_DRIVER": "memory", "DEFAULT_SLOT_MINUTES": "0"}},
		{"Zero Cache TTL", map[string]string{"STORAGE_DRIVER": "memory", "SLOT_CACHE_TTL": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
