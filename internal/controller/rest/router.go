package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// RouterConfig параметры HTTP слоя
type RouterConfig struct {
	RateLimit int // запросов в секунду с одного IP, 0 - без ограничения
}

// NewRouter собирает chi роутер со всеми маршрутами /api/v1
func NewRouter(
	cfg RouterConfig,
	trainerController *TrainerController,
	bookingController *BookingController,
	availabilityController *AvailabilityController,
	logger *zap.Logger,
) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.RateLimit > 0 {
		router.Use(httprate.LimitByIP(cfg.RateLimit, time.Second))
	}
	router.Use(requestLogger(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api/v1/trainers", func(r chi.Router) {
		r.Post("/", trainerController.CreateTrainer)

		r.Route("/{trainer_id}", func(r chi.Router) {
			r.Get("/slots", bookingController.GetSlots)
			r.Post("/bookings", bookingController.SubmitBooking)
			r.Get("/availability", availabilityController.GetAvailability)
			r.Put("/availability", availabilityController.SetAvailability)
		})
	})

	return router
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(started)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
