package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodforall/internal/utils"
	"foodforall/pkg/types"

	"github.com/sirupsen/logrus"
)

// handlePostRequest claims a listing for the caller. The listing must still
// be available; the store moves it to requested in the same step.
func (s *Service) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	var req types.FoodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Food.ID) == "" {
		s.writeError(w, http.StatusBadRequest, "food._id is required")
		return
	}

	switch req.Requester.Email {
	case "":
		req.Requester.Email = identity.Email
		if req.Requester.Name == "" {
			req.Requester.Name = identity.Name
		}
	case identity.Email:
	default:
		s.forbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := s.requests.ClaimFood(ctx, &req)
	if err != nil {
		entry := s.logger.WithError(err).WithField("food_id", req.Food.ID)
		if errors.Is(err, types.ErrFoodUnavailable) {
			entry.Info("food is no longer available")
		} else {
			entry.Error("failed to claim food")
		}
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleGetRequests lists requests. A requester email, from the path or
// ?email, must belong to the caller.
func (s *Service) handleGetRequests(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	filter, err := s.queries.Requests(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid query parameters")
		return
	}

	if email := r.PathValue("email"); email != "" {
		filter.RequesterEmail = email
	}

	if filter.RequesterEmail != "" && filter.RequesterEmail != identity.Email {
		s.logger.WithFields(logrus.Fields{
			"caller":    identity.Email,
			"requested": filter.RequesterEmail,
		}).Warn("requester email mismatch")
		s.forbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	requests, err := s.requests.Requests(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("failed to list requests")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, requests)
}

// handlePutRequest upserts a request keyed by the path id or the body _id.
// ?status sets both the request status and the snapshot's foodStatus.
func (s *Service) handlePutRequest(w http.ResponseWriter, r *http.Request) {
	var req types.FoodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if id := r.PathValue("id"); id != "" {
		req.ID = id
	}
	if req.ID == "" {
		req.ID = utils.NanoID()
	}

	if value := strings.TrimSpace(r.URL.Query().Get("status")); value != "" {
		status, err := types.ParseFoodStatus(value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Status = status
		req.Food.Status = status
	} else if req.Status != "" {
		status, err := types.ParseFoodStatus(string(req.Status))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Status = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := s.requests.UpsertRequest(ctx, &req)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", req.ID).Error("failed to upsert request")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := s.requests.DeleteRequest(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", id).Error("failed to delete request")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handlePostDonation(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	id := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	req, err := s.requests.Request(ctx, id)
	if err != nil {
		if !errors.Is(err, types.ErrRequestNotFound) {
			s.logger.WithError(err).WithField("request_id", id).Error("failed to load request for donation")
		}
		s.writeStoreError(w, err)
		return
	}

	if req.Requester.Email != identity.Email {
		s.forbidden(w)
		return
	}

	intent, err := s.payments.CreateDonationIntent(ctx, req)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", id).Error("failed to create donation intent")
		s.writeStoreError(w, err)
		return
	}

	if err := s.requests.SetPaymentIntent(ctx, id, intent.ID); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"request_id":        id,
			"payment_intent_id": intent.ID,
		}).Error("failed to record payment intent")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, intent)
}
