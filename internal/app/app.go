package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/cache"
	"github.com/Freeeeeet/trainer_scheduler/internal/config"
	"github.com/Freeeeeet/trainer_scheduler/internal/controller"
	"github.com/Freeeeeet/trainer_scheduler/internal/controller/rest"
	"github.com/Freeeeeet/trainer_scheduler/internal/notify"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/trainer_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// stores набор хранилищ, одинаковый для postgres и memory
type stores struct {
	trainers     service.TrainerStore
	availability service.AvailabilityStore
	bookings     service.BookingStore
}

// App собранное приложение: HTTP сервер, бот и фоновая доставка уведомлений
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	server     *http.Server
	dispatcher *notify.Dispatcher
	bot        *controller.BotController
	closers    []func()
}

// New подключает хранилища и внешние сервисы и собирает зависимости
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	st, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var slotCache service.SlotCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.onClose(func() { client.Close() })
		slotCache = cache.NewSlotCache(client, cfg.SlotCacheTTL, logger)
		logger.Info("Slot cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.SlotCacheTTL))
	}

	sinks := []notify.Sink{notify.NewLogSink(logger)}

	if cfg.RabbitMQURL != "" {
		conn, err := notify.DialRabbit(cfg.RabbitMQURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.onClose(func() { conn.Close() })

		rabbit, err := notify.NewRabbitSink(conn, cfg.RabbitMQQueue)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.onClose(func() { rabbit.Close() })
		sinks = append(sinks, rabbit)
	}

	var botInstance *bot.Bot
	if cfg.TelegramToken != "" {
		botInstance, err = bot.New(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		sinks = append(sinks, notify.NewTelegramSink(botInstance, cfg.Location(), logger))
	}

	a.dispatcher = notify.NewDispatcher(cfg.NotifyQueueSize, 0, logger, sinks...)

	clock := service.RealClock{}
	bookingService := service.NewBookingService(
		st.trainers, st.availability, st.bookings, slotCache, a.dispatcher, clock,
		service.BookingConfig{
			Location:            cfg.Location(),
			DefaultSlotDuration: cfg.DefaultSlotDuration(),
			CommitTimeout:       cfg.CommitTimeout,
		},
		logger,
	)
	availabilityService := service.NewAvailabilityService(st.trainers, st.availability, slotCache, logger)
	trainerService := service.NewTrainerService(st.trainers, st.bookings, clock, cfg.DefaultSlotDuration(), logger)

	if botInstance != nil {
		a.bot = controller.NewBotController(botInstance, trainerService, cfg.Location(), logger)
	}

	router := rest.NewRouter(
		rest.RouterConfig{RateLimit: cfg.HTTPRateLimit},
		rest.NewTrainerController(trainerService, logger),
		rest.NewBookingController(bookingService, cfg.Location(), logger),
		rest.NewAvailabilityController(availabilityService, logger),
		logger,
	)

	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Application configured",
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("telegram", botInstance != nil),
		zap.Bool("rabbitmq", cfg.RabbitMQURL != ""),
		zap.Stringer("booking", service.BookingConfig{
			Location:            cfg.Location(),
			DefaultSlotDuration: cfg.DefaultSlotDuration(),
			CommitTimeout:       cfg.CommitTimeout,
		}),
	)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	if a.cfg.StorageDriver == config.StorageDriverMemory {
		a.logger.Warn("Using in-memory storage, data will be lost on restart")
		store := memory.NewStore()
		return &stores{trainers: store, availability: store, bookings: store}, nil
	}

	pool, err := pgxpool.New(ctx, a.cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	a.onClose(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := NewMigrator(pool, a.logger)
	if err != nil {
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return nil, err
	}

	return &stores{
		trainers:     repository.NewTrainerRepository(pool),
		availability: repository.NewAvailabilityRepository(pool, a.logger),
		bookings:     repository.NewBookingRepository(pool),
	}, nil
}

// Run запускает все компоненты и блокируется до отмены ctx или ошибки сервера
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	// Воркер живёт до Stop, чтобы доставить очередь после отмены ctx
	a.dispatcher.Start(context.WithoutCancel(ctx))
	defer a.dispatcher.Stop()

	if a.bot != nil {
		if err := a.bot.RegisterHandlers(ctx); err != nil {
			a.logger.Warn("Failed to register bot commands", zap.Error(err))
		}
		go a.bot.Start(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("🚀 HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	a.logger.Info("👋 HTTP server stopped")
	return nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
