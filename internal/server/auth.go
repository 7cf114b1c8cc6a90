package server

import (
	"net/http"
	"strings"

	"foodforall/internal/auth"

	"github.com/sirupsen/logrus"
)

type tokenRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Service) handlePostJWT(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(body.Email)
	if email == "" {
		s.writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	token, expiresAt, err := s.issuer.Issue(auth.Identity{Email: email, Name: strings.TrimSpace(body.Name)})
	if err != nil {
		s.logger.WithError(err).Error("failed to issue identity token")
		s.internalServerError(w)
		return
	}

	if err := s.cookies.Set(w, token, expiresAt); err != nil {
		s.logger.WithError(err).Error("failed to encrypt identity token")
		s.internalServerError(w)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"email":      email,
		"expires_at": expiresAt,
	}).Info("issued identity token")

	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// handleLogout clears the identity cookie. Issued tokens are not revoked
// and stay valid until they expire.
func (s *Service) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.cookies.Clear(w)
	s.writeJSON(w, http.StatusOK, successResponse{Success: true})
}
