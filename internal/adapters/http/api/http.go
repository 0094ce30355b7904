// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/terimu/internal/app"
	"github.com/okian/terimu/internal/domain/model"
	"github.com/okian/terimu/internal/domain/types"
)

// maxBodyBytes caps request bodies; every request payload is a few fields.
const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateSession(ctx context.Context, storyID, lang string) (model.Session, error)
	Session(ctx context.Context, id string) (model.Session, error)
	Drop(ctx context.Context, id string, cmd service.DropCommand) (service.DropResult, error)
	Check(ctx context.Context, id string) (service.CheckResult, error)
	Reset(ctx context.Context, id string) (model.Session, error)
	EndSession(ctx context.Context, id string) error

	// ListStories returns the catalog localized to lang.
	ListStories(ctx context.Context, lang string) []types.StoryView
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	storiesHandler  *StoriesHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		storiesHandler:  NewStoriesHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	sh := s.sessionsHandler

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /stories", MetricsMiddleware(s.storiesHandler.HandleListStories, "stories"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(sh.HandleCreate, "sessions.create"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(sh.HandleGet, "sessions.get"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(sh.HandleEnd, "sessions.end"))
	mux.HandleFunc("POST /sessions/{id}/drops", MetricsMiddleware(sh.HandleDrop, "sessions.drop"))
	mux.HandleFunc("POST /sessions/{id}/check", MetricsMiddleware(sh.HandleCheck, "sessions.check"))
	mux.HandleFunc("POST /sessions/{id}/reset", MetricsMiddleware(sh.HandleReset, "sessions.reset"))
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

// writeFailure answers with the status mapped from err.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, Wrap(op, err))
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched
// when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
