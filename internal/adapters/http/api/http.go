// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/overcall/internal/adapters/repository"
	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
)

// RequestIDHeader carries a caller-chosen request id in and the effective one out.
const RequestIDHeader = "X-Request-ID"

// DefaultMaxBodyBytes caps request bodies when no option is given.
const DefaultMaxBodyBytes = 1 << 20

// Adviser answers advice requests.
type Adviser interface {
	Advise(ctx context.Context, payload map[string]any, requestID string) (types.AdviceResponse, error)
}

// SafetyReporter builds standalone safety reports.
type SafetyReporter interface {
	Safety(ctx context.Context, payload map[string]any, requestID string) (types.SafetyResponse, error)
}

// BaselineAdmin reads and seeds stored player baselines.
type BaselineAdmin interface {
	GetBaseline(ctx context.Context, playerID string) (model.Baseline, error)
	PutBaseline(ctx context.Context, playerID string, b model.Baseline) error
}

// DecisionReader reads the decision audit trail.
type DecisionReader interface {
	GetDecision(ctx context.Context, requestID string) (repository.AuditRecord, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Adviser
	SafetyReporter
	BaselineAdmin
	DecisionReader
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	adviseHandler    *AdviseHandler
	safetyHandler    *SafetyHandler
	baselineHandler  *BaselineHandler
	decisionsHandler *DecisionsHandler

	origins []string
}

// Option configures a Server.
type Option func(*settings)

type settings struct {
	maxBodyBytes int64
	origins      []string
	logger       logger.Logger
}

// WithMaxBodyBytes caps POST and PUT bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *settings) { s.origins = origins }
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	st := settings{maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&st)
	}
	if st.logger == nil {
		st.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		adviseHandler:    NewAdviseHandler(deps, st.maxBodyBytes, st.logger),
		safetyHandler:    NewSafetyHandler(deps, st.maxBodyBytes),
		baselineHandler:  NewBaselineHandler(deps, st.maxBodyBytes),
		decisionsHandler: NewDecisionsHandler(deps),
		origins:          st.origins,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /v1/advise", MetricsMiddleware(s.adviseHandler.HandleAdvise, "advise"))
	mux.HandleFunc("POST /api/orchestrate", MetricsMiddleware(s.adviseHandler.HandleAdvise, "orchestrate"))
	mux.HandleFunc("POST /v1/safety", MetricsMiddleware(s.safetyHandler.HandleSafety, "safety"))
	mux.HandleFunc("GET /v1/baselines/{playerId}", MetricsMiddleware(s.baselineHandler.HandleGetBaseline, "baselines"))
	mux.HandleFunc("PUT /v1/baselines/{playerId}", MetricsMiddleware(s.baselineHandler.HandlePutBaseline, "baselines"))
	mux.HandleFunc("GET /v1/decisions/{requestId}", MetricsMiddleware(s.decisionsHandler.HandleGetDecision, "decisions"))
}

// Handler wraps h with the CORS policy configured on the server.
func (s *Server) Handler(h http.Handler) http.Handler {
	return CORSMiddleware(h, s.origins...)
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

// writeBodyError reports a readObject failure as 413 or 400.
func writeBodyError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", Wrap(op, err))
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
}

// readObject decodes a body that must be a single JSON object.
func readObject(w http.ResponseWriter, r *http.Request, limit int64) (map[string]any, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, mbe.Limit)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, errors.New("body must be a JSON object")
	}
	if obj == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return obj, nil
}

// isNotFound translates store not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}
