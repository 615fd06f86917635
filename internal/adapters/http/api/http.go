// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/gamefit/internal/adapters/repository"
	"github.com/okian/gamefit/internal/domain/prediction"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ready reports whether a model is loaded.
	Ready() bool

	// Predict scores one validated request.
	Predict(ctx context.Context, req prediction.Request) (prediction.Response, error)

	// Metadata describes the loaded model.
	Metadata() (repository.Metadata, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	modelHandler   *ModelHandler
	auth           *KeyAuth
}

// NewServer creates a new API server with all handlers. It fails when no
// internal key is configured.
func NewServer(deps Dependencies, statsProvider StatsProvider, internalKey string) (*Server, error) {
	auth, err := NewKeyAuth(internalKey)
	if err != nil {
		return nil, err
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
		modelHandler:   NewModelHandler(deps),
		auth:           auth,
	}, nil
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict-success", MetricsMiddleware(s.auth.Require(s.predictHandler.HandlePredict), "predict-success"))
	mux.HandleFunc("/model", MetricsMiddleware(s.auth.Require(s.modelHandler.HandleModel), "model"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
