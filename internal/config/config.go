package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	DBDSN         string `mapstructure:"DB_DSN"`

	HTTPAddr      string `mapstructure:"HTTP_ADDR"`
	HTTPRateLimit int    `mapstructure:"HTTP_RATE_LIMIT"`

	Timezone           string        `mapstructure:"TIMEZONE"`
	DefaultSlotMinutes int           `mapstructure:"DEFAULT_SLOT_MINUTES"`
	CommitTimeout      time.Duration `mapstructure:"COMMIT_TIMEOUT"`

	SlotCacheTTL  time.Duration `mapstructure:"SLOT_CACHE_TTL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue string `mapstructure:"RABBITMQ_QUEUE"`

	TelegramToken   string `mapstructure:"TELEGRAM_TOKEN"`
	NotifyQueueSize int    `mapstructure:"NOTIFY_QUEUE_SIZE"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения и подставляет значения по умолчанию
func FromEnv() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationVar := func(key string, def time.Duration) time.Duration {
		v, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Environment:        getString("ENV", "development"),
		LogLevel:           getString("LOG_LEVEL", ""),
		StorageDriver:      getString("STORAGE_DRIVER", StorageDriverPostgres),
		DBDSN:              os.Getenv("DB_DSN"),
		HTTPAddr:           getString("HTTP_ADDR", ":8080"),
		HTTPRateLimit:      intVar("HTTP_RATE_LIMIT", 20),
		Timezone:           getString("TIMEZONE", "UTC"),
		DefaultSlotMinutes: intVar("DEFAULT_SLOT_MINUTES", 60),
		CommitTimeout:      durationVar("COMMIT_TIMEOUT", 5*time.Second),
		SlotCacheTTL:       durationVar("SLOT_CACHE_TTL", 500*time.Millisecond),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            intVar("REDIS_DB", 0),
		RabbitMQURL:        os.Getenv("RABBITMQ_URL"),
		RabbitMQQueue:      getString("RABBITMQ_QUEUE", "booking_events"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		NotifyQueueSize:    intVar("NOTIFY_QUEUE_SIZE", 100),
	}

	if len(errs) > 0 {
		return nil, errs[0]
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		// Проверяем обязательные поля
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.DefaultSlotMinutes <= 0 {
		return fmt.Errorf("DEFAULT_SLOT_MINUTES must be positive")
	}
	if c.CommitTimeout <= 0 {
		return fmt.Errorf("COMMIT_TIMEOUT must be positive")
	}
	// Без TTL ключ в Redis не истекает
	if c.SlotCacheTTL <= 0 {
		return fmt.Errorf("SLOT_CACHE_TTL must be positive")
	}
	return nil
}

// Location часовой пояс расписаний
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultSlotDuration длительность слота по умолчанию
func (c *Config) DefaultSlotDuration() time.Duration {
	return time.Duration(c.DefaultSlotMinutes) * time.Minute
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
