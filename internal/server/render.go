package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"foodforall/internal/payments"
	"foodforall/pkg/types"
)

const maxJSONBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Message: message})
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}

func (s *Service) forbidden(w http.ResponseWriter) {
	s.writeError(w, http.StatusForbidden, "Forbidden Access")
}

// writeStoreError translates known domain errors to their status code and
// hides everything else behind a 500.
func (s *Service) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrFoodUnavailable):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, types.ErrRequestNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrInvalidStatus), errors.Is(err, payments.ErrInvalidAmount):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.internalServerError(w)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
