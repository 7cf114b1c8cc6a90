package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"foodforall/internal/auth"
	"foodforall/internal/payments"
	"foodforall/internal/query"
	"foodforall/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type FoodStore interface {
	InsertFood(ctx context.Context, food *types.Food) (*types.InsertResult, error)
	Foods(ctx context.Context, q query.ListingQuery) ([]*types.Food, error)
	FoodsByID(ctx context.Context, id string) ([]*types.Food, error)
	UpsertFood(ctx context.Context, id string, food *types.Food) (*types.UpdateResult, error)
	UpdateFoodStatus(ctx context.Context, id string, status types.FoodStatus) (*types.UpdateResult, error)
	DeleteFood(ctx context.Context, id string) (*types.DeleteResult, error)
}

type RequestStore interface {
	ClaimFood(ctx context.Context, req *types.FoodRequest) (*types.InsertResult, error)
	Requests(ctx context.Context, filter query.RequestFilter) ([]*types.FoodRequest, error)
	Request(ctx context.Context, id string) (*types.FoodRequest, error)
	UpsertRequest(ctx context.Context, req *types.FoodRequest) (*types.UpdateResult, error)
	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error
	DeleteRequest(ctx context.Context, id string) (*types.DeleteResult, error)
	CountRequestsByStatus(ctx context.Context, status types.FoodStatus) (int64, error)
}

type UserStore interface {
	UpsertUser(ctx context.Context, user *types.User) (*types.UpdateResult, error)
	CountUsers(ctx context.Context) (int64, error)
}

type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(url string) (string, bool)
}

type PaymentProvider interface {
	CreateDonationIntent(ctx context.Context, req *types.FoodRequest) (*payments.Intent, error)
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	foods    FoodStore
	requests RequestStore
	users    UserStore

	// optional; their routes are not registered when nil
	images   ImageStore
	payments PaymentProvider

	issuer  *auth.Issuer
	cookies *auth.CookieJar
	queries *query.Builder

	handler http.Handler
	server  *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	foods FoodStore,
	requests RequestStore,
	users UserStore,
	images ImageStore,
	payments PaymentProvider,
) (*Service, error) {
	mux := flow.New()

	issuer, err := auth.NewIssuer([]byte(config.TokenSecret), config.TokenTTL)
	if err != nil {
		return nil, err
	}

	cookies, err := auth.NewCookieJar(auth.CookieConfig{
		Name:       config.CookieName,
		HashKey:    config.CookieHashKey,
		BlockKey:   config.CookieBlockKey,
		Production: config.IsProduction(),
		MaxAge:     config.TokenTTL,
	})
	if err != nil {
		return nil, err
	}

	queries, err := query.NewBuilder(query.Config{
		QuantityParam: config.QuantitySortParam,
		ExpiryParam:   config.ExpirySortParam,
		NameMatch:     query.NameMatch(config.NameMatch),
	})
	if err != nil {
		return nil, err
	}

	s := &Service{
		logger:   logger,
		config:   config,
		foods:    foods,
		requests: requests,
		users:    users,
		images:   images,
		payments: payments,
		issuer:   issuer,
		cookies:  cookies,
		queries:  queries,
	}

	s.buildRouter(mux)

	// flow only runs Use middleware for matched routes, so these wrap the
	// whole mux to also see unmatched and trailing-slash paths
	var handler http.Handler = s.StripTrailingSlash(mux)
	handler = s.LoggingMiddleware(handler)

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	}).Handler(handler)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.ServerPort),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

// Handler returns the fully wrapped handler, CORS included.
func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.NotFound = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowed = http.HandlerFunc(s.handleMethodNotAllowed)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/jwt", s.handlePostJWT, http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout, http.MethodGet, http.MethodPost)

	r.HandleFunc("/users/:email", s.handlePutUser, http.MethodPut)
	r.HandleFunc("/statictic", s.handleGetStats, http.MethodGet)
	r.HandleFunc("/statistics", s.handleGetStats, http.MethodGet)

	r.HandleFunc("/availableFood", s.handleGetFoods, http.MethodGet)
	r.HandleFunc("/foods", s.handleGetFoods, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/availableFood", s.handlePostFood, http.MethodPost)
		r.HandleFunc("/availableFood/:id", s.handleGetFood, http.MethodGet)
		r.HandleFunc("/availableFood/:id", s.handlePutFood, http.MethodPut)
		r.HandleFunc("/availableFood/:id", s.handleDeleteFood, http.MethodDelete)

		r.HandleFunc("/foods/insert", s.handlePostFood, http.MethodPost)
		r.HandleFunc("/foods/delete/:id", s.handleDeleteFood, http.MethodDelete)
		r.HandleFunc("/foods/:id", s.handleGetFood, http.MethodGet)
		r.HandleFunc("/food/update/status/:id", s.handlePutFoodStatus, http.MethodPut)
		r.HandleFunc("/food/update/:id", s.handlePutFood, http.MethodPut)

		r.HandleFunc("/requestedFood", s.handlePostRequest, http.MethodPost)
		r.HandleFunc("/requestedFood", s.handleGetRequests, http.MethodGet)
		r.HandleFunc("/requestedFood/update", s.handlePutRequest, http.MethodPut)
		r.HandleFunc("/requestedFood/:id", s.handleDeleteRequest, http.MethodDelete)

		r.HandleFunc("/req-food", s.handlePostRequest, http.MethodPost)
		r.HandleFunc("/req-food/update/:id", s.handlePutRequest, http.MethodPut)
		r.HandleFunc("/req-food/delete/:id", s.handleDeleteRequest, http.MethodDelete)
		r.HandleFunc("/req-food/:email", s.handleGetRequests, http.MethodGet)

		if s.payments != nil {
			r.HandleFunc("/requestedFood/:id/donation", s.handlePostDonation, http.MethodPost)
		}

		if s.images != nil {
			r.HandleFunc("/images", s.handlePostImage, http.MethodPost)
		}
	})
}

func (s *Service) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Food-for-all SERVER"))
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusNotFound, "not found")
}

func (s *Service) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
