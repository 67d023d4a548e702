// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/hirepulse/internal/adapters/mq/worker"
	service "github.com/okian/hirepulse/internal/app"
	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/internal/domain/velocity"
	"github.com/okian/hirepulse/pkg/logger"
)

// maxBodyBytes caps dataset uploads.
const maxBodyBytes = 64 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	DatasetDependencies
	AnalysisDependencies
}

// DatasetDependencies manages stored datasets.
type DatasetDependencies interface {
	ImportDataset(ctx context.Context, ds *model.Dataset, source string) (model.DatasetSummary, error)
	ListDatasets(ctx context.Context) ([]model.DatasetSummary, error)
	GetDataset(ctx context.Context, id string) (model.DatasetSummary, error)
	DeleteDataset(ctx context.Context, id string) error
}

// AnalysisDependencies runs analyses over stored datasets.
type AnalysisDependencies interface {
	Analyze(ctx context.Context, datasetID string, f model.Filter) (velocity.Result, error)
	SubmitJob(ctx context.Context, datasetID string, f model.Filter) (string, error)
	Job(ctx context.Context, id string) (worker.JobRecord, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	datasetsHandler *DatasetsHandler
	analysisHandler *AnalysisHandler
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger logger.Logger
}

// WithLogger sets the logger that records server-side failures.
func WithLogger(l logger.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	o := serverOptions{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		datasetsHandler: NewDatasetsHandler(deps, o.logger),
		analysisHandler: NewAnalysisHandler(deps, o.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /datasets", MetricsMiddleware(s.datasetsHandler.HandleCreate, "datasets"))
	mux.HandleFunc("GET /datasets", MetricsMiddleware(s.datasetsHandler.HandleList, "datasets"))
	mux.HandleFunc("GET /datasets/{id}", MetricsMiddleware(s.datasetsHandler.HandleGet, "dataset"))
	mux.HandleFunc("DELETE /datasets/{id}", MetricsMiddleware(s.datasetsHandler.HandleDelete, "dataset"))

	mux.HandleFunc("POST /datasets/{id}/velocity", MetricsMiddleware(s.analysisHandler.HandleVelocity, "velocity"))
	mux.HandleFunc("POST /datasets/{id}/analyses", MetricsMiddleware(s.analysisHandler.HandleSubmit, "analyses"))
	mux.HandleFunc("GET /analyses/{job_id}", MetricsMiddleware(s.analysisHandler.HandleGetJob, "analysis"))
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

// writeServiceError translates service sentinels into HTTP statuses.
// Unclassified errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrInvalidDataset), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		log.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(WrapKind(op, ErrInternal, err)),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
