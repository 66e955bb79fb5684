package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// BookingUseCase операции бронирования, доступные по HTTP
type BookingUseCase interface {
	GetBookableSlots(ctx context.Context, trainerID int64, day time.Time) ([]model.Slot, error)
	SubmitBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
}

type BookingController struct {
	bookings BookingUseCase
	location *time.Location
	logger   *zap.Logger
}

// NewBookingController location используется для разбора параметра day
func NewBookingController(bookings BookingUseCase, location *time.Location, logger *zap.Logger) *BookingController {
	if location == nil {
		location = time.UTC
	}
	return &BookingController{bookings: bookings, location: location, logger: logger}
}

type slotsResponse struct {
	TrainerID int64        `json:"trainer_id"`
	Day       string       `json:"day"`
	Slots     []model.Slot `json:"slots"`
}

// GetSlots GET /trainers/{trainer_id}/slots?day=YYYY-MM-DD
func (c *BookingController) GetSlots(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := trainerIDParam(w, r)
	if !ok {
		return
	}

	dayParam := r.URL.Query().Get("day")
	if dayParam == "" {
		badRequest(w, "query parameter day is required")
		return
	}
	day, err := time.ParseInLocation(time.DateOnly, dayParam, c.location)
	if err != nil {
		badRequest(w, "day must be in YYYY-MM-DD format")
		return
	}

	slots, err := c.bookings.GetBookableSlots(r.Context(), trainerID, day)
	if err != nil {
		writeError(c.logger, w, err)
		return
	}
	if slots == nil {
		slots = []model.Slot{}
	}

	writeSuccess(w, http.StatusOK, slotsResponse{
		TrainerID: trainerID,
		Day:       dayParam,
		Slots:     slots,
	})
}

// SubmitBooking POST /trainers/{trainer_id}/bookings
func (c *BookingController) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := trainerIDParam(w, r)
	if !ok {
		return
	}

	var req model.BookingRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	req.TrainerID = trainerID

	booking, err := c.bookings.SubmitBooking(r.Context(), req)
	if err != nil {
		writeError(c.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, booking)
}

func trainerIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "trainer_id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "trainer_id must be a positive integer")
		return 0, false
	}
	return id, true
}
