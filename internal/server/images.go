package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"foodforall/internal/query"
	"foodforall/internal/storage"

	"github.com/sirupsen/logrus"
)

type imageResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *Service) handlePostImage(w http.ResponseWriter, r *http.Request) {
	limit := s.config.ImageMaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	if header.Size > limit {
		s.writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.logger.WithError(err).Error("failed to read uploaded image")
		s.internalServerError(w)
		return
	}
	if int64(len(data)) > limit {
		s.writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		s.writeError(w, http.StatusUnsupportedMediaType, "file must be an image")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	key, err := s.images.Upload(ctx, storage.ImageKey(header.Filename), data, contentType)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"filename": header.Filename,
			"size":     len(data),
		}).Error("failed to upload image")
		s.internalServerError(w)
		return
	}

	s.writeJSON(w, http.StatusCreated, imageResponse{Key: key, URL: s.images.PublicURL(key)})
}

// storedImage returns the image URL currently saved on the listing, or ""
// when image storage is off or the listing does not exist.
func (s *Service) storedImage(ctx context.Context, foodID string) (string, error) {
	if s.images == nil {
		return "", nil
	}

	foods, err := s.foods.FoodsByID(ctx, foodID)
	if err != nil {
		return "", err
	}
	if len(foods) == 0 {
		return "", nil
	}

	return foods[0].Image, nil
}

// releaseImage deletes an uploaded image the listing no longer shows.
// Images still shown by request snapshots of the listing are kept.
func (s *Service) releaseImage(ctx context.Context, foodID, imageURL string) {
	if s.images == nil || imageURL == "" {
		return
	}

	key, ok := s.images.KeyFromURL(imageURL)
	if !ok {
		return
	}

	entry := s.logger.WithFields(logrus.Fields{"food_id": foodID, "key": key})

	requests, err := s.requests.Requests(ctx, query.RequestFilter{FoodID: foodID})
	if err != nil {
		entry.WithError(err).Warn("failed to check requests before deleting image")
		return
	}
	for _, req := range requests {
		if req.Food.Image == imageURL {
			return
		}
	}

	if err := s.images.Delete(ctx, key); err != nil {
		entry.WithError(err).Warn("failed to delete image")
	}
}
