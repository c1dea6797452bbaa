package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/floodcast/floodcast-api/internal/account"
	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/floodcast/floodcast-api/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Predictions runs prediction requests for the calling user.
type Predictions interface {
	Predict(ctx context.Context, authHeader string, body io.Reader) (domain.PredictionResponse, error)
	History(ctx context.Context, authHeader string) ([]domain.PredictionResult, error)
}

// PredictionRecords gives administrative access to stored predictions.
type PredictionRecords interface {
	List(ctx context.Context) ([]domain.PredictionResult, error)
	FindByID(ctx context.Context, id string) (domain.PredictionResult, error)
	ListBySubject(ctx context.Context, subjectID string) ([]domain.PredictionResult, error)
	Delete(ctx context.Context, id string) error
}

// Accounts registers, logs in and administers users.
type Accounts interface {
	Register(ctx context.Context, reg account.Registration) (domain.User, error)
	Login(ctx context.Context, email, password string) (account.LoginResult, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id string, patch account.Update) (domain.User, error)
	Delete(ctx context.Context, id string) error
}

// Weather serves the aggregated BMKG forecast.
type Weather interface {
	Snapshot(ctx context.Context) (weather.Snapshot, error)
}

// Authorizer resolves a bearer header to a subject.
type Authorizer interface {
	Authorize(header string) (domain.Subject, error)
}

// Deps are the collaborators the HTTP API routes to.
type Deps struct {
	Predictions Predictions
	Records     PredictionRecords
	Accounts    Accounts
	Weather     Weather
	Auth        Authorizer
	Ready       sharedobs.ReadinessChecker
}

// Server exposes the JSON API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API routes and /healthz, /readyz, and /metrics.
// The write timeout covers a prediction that exhausts its retries.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), cors())

	h := &handlers{deps: deps, logger: logger}

	router.GET("/", h.root)
	router.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	router.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(deps.Ready)))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/register", h.register)
	router.POST("/login", h.login)

	api := router.Group("/api")
	api.POST("/predict", h.predict)
	api.GET("/predictions", h.history)
	api.GET("/weather", h.weather)

	admin := router.Group("/", requireToken(deps.Auth))
	admin.GET("/users", h.listUsers)
	admin.PUT("/users/:id", h.updateUser)
	admin.DELETE("/users/:id", h.deleteUser)
	admin.GET("/predictions", h.listPredictions)
	admin.GET("/predictions/:id", h.getPrediction)
	admin.GET("/predictions/user/:userId", h.listUserPredictions)
	admin.DELETE("/predictions/:id", h.deletePrediction)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 180 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
