// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/coffeerun/internal/domain/race"
	"github.com/okian/coffeerun/internal/domain/session"
	"github.com/okian/coffeerun/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateRace(ctx context.Context, names []string) (session.View, error)
	GetRace(ctx context.Context, id string) (session.View, error)
	Rerun(ctx context.Context, id string) (session.View, error)
	Reset(ctx context.Context, id string) (session.View, error)
	Results(ctx context.Context, id string) (race.Result, error)
	Delete(ctx context.Context, id string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	racesHandler  *RacesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		racesHandler:  NewRacesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /races", MetricsMiddleware(s.racesHandler.HandleCreate, "races"))
	mux.HandleFunc("GET /races/{id}", MetricsMiddleware(s.racesHandler.HandleGet, "race"))
	mux.HandleFunc("DELETE /races/{id}", MetricsMiddleware(s.racesHandler.HandleDelete, "race"))
	mux.HandleFunc("POST /races/{id}/rerun", MetricsMiddleware(s.racesHandler.HandleRerun, "rerun"))
	mux.HandleFunc("POST /races/{id}/reset", MetricsMiddleware(s.racesHandler.HandleReset, "reset"))
	mux.HandleFunc("GET /races/{id}/results", MetricsMiddleware(s.racesHandler.HandleResults, "results"))
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

// writeError maps err to a status and writes the JSON error body. Server
// errors are logged; client errors are not.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := statusOf(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		logger.Get().Named("api").Error(ctx, "request failed", logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
