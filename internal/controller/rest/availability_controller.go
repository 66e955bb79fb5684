package rest

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// AvailabilityUseCase операции с недельным расписанием
type AvailabilityUseCase interface {
	GetAvailability(ctx context.Context, trainerID int64) (model.AvailabilityMap, error)
	SetAvailability(ctx context.Context, trainerID int64, raw map[string][]string) (model.AvailabilityMap, error)
}

type AvailabilityController struct {
	availability AvailabilityUseCase
	logger       *zap.Logger
}

func NewAvailabilityController(availability AvailabilityUseCase, logger *zap.Logger) *AvailabilityController {
	return &AvailabilityController{availability: availability, logger: logger}
}

// GetAvailability GET /trainers/{trainer_id}/availability
func (c *AvailabilityController) GetAvailability(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := trainerIDParam(w, r)
	if !ok {
		return
	}

	availability, err := c.availability.GetAvailability(r.Context(), trainerID)
	if err != nil {
		writeError(c.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, availability.Raw())
}

// SetAvailability PUT /trainers/{trainer_id}/availability, тело {"mon": ["09:00-12:00"]}
func (c *AvailabilityController) SetAvailability(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := trainerIDParam(w, r)
	if !ok {
		return
	}

	var raw map[string][]string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	availability, err := c.availability.SetAvailability(r.Context(), trainerID, raw)
	if err != nil {
		writeError(c.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusOK, availability.Raw())
}
