package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"foodforall/pkg/types"
)

func (s *Service) handlePostFood(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())

	var food types.Food
	if err := decodeJSON(w, r, &food); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if food.Status != "" {
		status, err := types.ParseFoodStatus(string(food.Status))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		food.Status = status
	}

	if food.Donator.Email == "" {
		food.Donator.Email = identity.Email
		if food.Donator.Name == "" {
			food.Donator.Name = identity.Name
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := s.foods.InsertFood(ctx, &food)
	if err != nil {
		s.logger.WithError(err).Error("failed to insert food")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleGetFoods(w http.ResponseWriter, r *http.Request) {
	q, err := s.queries.Listing(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid query parameters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	foods, err := s.foods.Foods(ctx, q)
	if err != nil {
		s.logger.WithError(err).WithField("sort", q.Sort.String()).Error("failed to list foods")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, foods)
}

func (s *Service) handleGetFood(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	foods, err := s.foods.FoodsByID(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("food_id", id).Error("failed to fetch food")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, foods)
}

// handlePutFood replaces the listing, creating it when the id is unknown.
// Any non-empty ?status marks the listing delivered.
func (s *Service) handlePutFood(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var food types.Food
	if err := decodeJSON(w, r, &food); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case r.URL.Query().Get("status") != "":
		food.Status = types.FoodStatusDelivered
	case food.Status != "":
		status, err := types.ParseFoodStatus(string(food.Status))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		food.Status = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	previousImage, err := s.storedImage(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("food_id", id).Error("failed to load food")
		s.writeStoreError(w, err)
		return
	}

	result, err := s.foods.UpsertFood(ctx, id, &food)
	if err != nil {
		s.logger.WithError(err).WithField("food_id", id).Error("failed to upsert food")
		s.writeStoreError(w, err)
		return
	}

	if previousImage != food.Image {
		s.releaseImage(ctx, id, previousImage)
	}

	s.writeJSON(w, http.StatusOK, result)
}

type statusRequest struct {
	Status string `json:"foodStatus"`
}

func (s *Service) handlePutFoodStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	value := strings.TrimSpace(r.URL.Query().Get("status"))
	if value == "" {
		var body statusRequest
		if err := decodeJSON(w, r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, "status is required")
			return
		}
		value = strings.TrimSpace(body.Status)
	}

	status, err := types.ParseFoodStatus(value)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := s.foods.UpdateFoodStatus(ctx, id, status)
	if err != nil {
		s.logger.WithError(err).WithField("food_id", id).Error("failed to update food status")
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleDeleteFood(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	image, err := s.storedImage(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("food_id", id).Error("failed to load food")
		s.writeStoreError(w, err)
		return
	}

	result, err := s.foods.DeleteFood(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("food_id", id).Error("failed to delete food")
		s.writeStoreError(w, err)
		return
	}

	if result.DeletedCount > 0 {
		s.releaseImage(ctx, id, image)
	}

	s.writeJSON(w, http.StatusOK, result)
}
