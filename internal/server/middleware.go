package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodforall/internal/auth"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyIdentity contextKey = "identity"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireAuth rejects requests without a valid identity cookie and puts the
// verified identity on the request context.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.cookies.Read(r)
		if err != nil {
			if errors.Is(err, auth.ErrNoToken) {
				s.logger.Debug("no identity cookie found")
			} else {
				s.logger.WithError(err).Warn("failed to decode identity cookie")
			}
			s.writeError(w, http.StatusUnauthorized, "unAuthorized")
			return
		}

		identity, err := s.issuer.Verify(raw)
		if err != nil {
			s.logger.WithError(err).Warn("failed to verify identity token")
			s.writeError(w, http.StatusUnauthorized, "unAuthorized")
			return
		}

		s.logger.WithField("email", identity.Email).Debug("authenticated user")

		ctx := context.WithValue(r.Context(), contextKeyIdentity, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromContext(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(contextKeyIdentity).(*auth.Identity)
	return identity, ok && identity != nil
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			// a leading "//" would make Location protocol-relative
			newURL.Path = "/" + strings.TrimLeft(strings.TrimSuffix(path, "/"), "/")
			newURL.RawPath = ""

			// 308 keeps the method and body of PUT and POST requests
			http.Redirect(w, r, newURL.String(), http.StatusPermanentRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}
