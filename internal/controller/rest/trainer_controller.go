package rest

import (
	"context"
	"net/http"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type TrainerUseCase interface {
	CreateTrainer(ctx context.Context, name string, slotMinutes int) (*model.Trainer, error)
}

type TrainerController struct {
	trainers TrainerUseCase
	logger   *zap.Logger
}

func NewTrainerController(trainers TrainerUseCase, logger *zap.Logger) *TrainerController {
	return &TrainerController{trainers: trainers, logger: logger}
}

type createTrainerRequest struct {
	Name                string `json:"name"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

// CreateTrainer POST /trainers
func (c *TrainerController) CreateTrainer(w http.ResponseWriter, r *http.Request) {
	var req createTrainerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	trainer, err := c.trainers.CreateTrainer(r.Context(), req.Name, req.SlotDurationMinutes)
	if err != nil {
		writeError(c.logger, w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, trainer)
}
