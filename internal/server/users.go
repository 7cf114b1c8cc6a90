package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"foodforall/pkg/types"
)

func (s *Service) handlePutUser(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PathValue("email"))
	if email == "" {
		s.writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	var user types.User
	if err := decodeJSON(w, r, &user); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user.Email = email

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := s.users.UpsertUser(ctx, &user)
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Error("failed to upsert user")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := s.users.CountUsers(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to count users")
		s.internalServerError(w)
		return
	}

	delivered, err := s.requests.CountRequestsByStatus(ctx, types.FoodStatusDelivered)
	if err != nil {
		s.logger.WithError(err).Error("failed to count delivered requests")
		s.internalServerError(w)
		return
	}

	s.writeJSON(w, http.StatusOK, types.Stats{Users: users, Delivered: delivered})
}
