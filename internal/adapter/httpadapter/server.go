package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/city-signal/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxClassifyBody = 1 << 20

// Service is the slice of the pipeline the HTTP API serves.
type Service interface {
	sharedobs.ReadinessChecker
	Latest() (*domain.Result, bool)
	Classify(obs []domain.Observation) ([]domain.Observation, []domain.Rejection, error)
}

// Server exposes health, readiness, metrics and result endpoints.
type Server struct {
	httpServer *http.Server
	svc        Service
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1 result routes.
func NewServer(addr string, svc Service, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/results/latest", s.handleLatest)
	mux.HandleFunc("POST /v1/observations/zone", s.handleClassify)

	return s
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

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	res, ok := s.svc.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no batch has completed yet")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

type classifyResponse struct {
	Observations []domain.Observation `json:"observations"`
	Rejections   []domain.Rejection   `json:"rejections"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var obs []domain.Observation
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClassifyBody))
	if err := dec.Decode(&obs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tagged, rejected, err := s.svc.Classify(obs)
	if errors.Is(err, domain.ErrNoReferenceData) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("classify observations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if tagged == nil {
		tagged = []domain.Observation{}
	}
	if rejected == nil {
		rejected = []domain.Rejection{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, classifyResponse{Observations: tagged, Rejections: rejected})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
