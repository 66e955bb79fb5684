package rest

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/trainer_scheduler/internal/repository"
	"github.com/Freeeeeet/trainer_scheduler/internal/service"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	headerContentType   = "Content-Type"
	mimeApplicationJSON = "application/json"

	reasonInternal = "Internal"
	reasonNotFound = "NotFound"
)

// Response общий конверт ответов API
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body Response) {
	w.Header().Set(headerContentType, mimeApplicationJSON)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, Response{Success: true, Data: data})
}

// writeError переводит ошибку сервиса в HTTP статус и код причины
func writeError(log *zap.Logger, w http.ResponseWriter, err error) {
	code, reason, message := classify(err)

	if code >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Int("status", code), zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.Int("status", code), zap.Error(err))
	}

	writeJSON(w, code, Response{Success: false, Reason: reason, Message: message})
}

func classify(err error) (int, string, string) {
	if errors.Is(err, repository.ErrTrainerNotFound) {
		return http.StatusNotFound, reasonNotFound, "trainer not found"
	}

	var bookingErr *service.BookingError
	if !errors.As(err, &bookingErr) {
		return http.StatusInternalServerError, reasonInternal, "something went wrong"
	}

	switch bookingErr.Kind {
	case service.KindInvalidInput:
		return http.StatusBadRequest, bookingErr.ReasonCode(), bookingErr.Message
	case service.KindOutsideAvailability:
		return http.StatusUnprocessableEntity, bookingErr.ReasonCode(), bookingErr.Message
	case service.KindSlotTaken, service.KindCommitFailed:
		return http.StatusConflict, bookingErr.ReasonCode(), "this time is no longer available"
	case service.KindStorageUnavailable:
		return http.StatusServiceUnavailable, bookingErr.ReasonCode(), "storage is temporarily unavailable, please retry"
	default:
		return http.StatusInternalServerError, reasonInternal, "something went wrong"
	}
}

// badRequest ответ на некорректный запрос до вызова сервиса
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Reason:  string(service.KindInvalidInput),
		Message: message,
	})
}
