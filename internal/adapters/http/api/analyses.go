package api

import (
	"net/http"

	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/pkg/logger"
)

// AnalysisHandler handles synchronous and queued velocity analyses.
type AnalysisHandler struct {
	deps AnalysisDependencies
	log  logger.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(deps AnalysisDependencies, log logger.Logger) *AnalysisHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalysisHandler{deps: deps, log: log}
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// HandleVelocity handles POST /datasets/{id}/velocity requests. The optional
// body is a Filter.
func (h *AnalysisHandler) HandleVelocity(w http.ResponseWriter, r *http.Request) {
	const op = "api.velocity"
	var f model.Filter
	if err := decodeBody(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Analyze(r.Context(), r.PathValue("id"), f)
	if err != nil {
		writeServiceError(w, r, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSubmit handles POST /datasets/{id}/analyses requests.
func (h *AnalysisHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_analysis"
	var f model.Filter
	if err := decodeBody(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	id, err := h.deps.SubmitJob(r.Context(), r.PathValue("id"), f)
	if err != nil {
		writeServiceError(w, r, h.log, op, err)
		return
	}
	w.Header().Set("Location", "/analyses/"+id)
	writeJSON(w, http.StatusAccepted, submitResponse{JobID: id, Status: string(model.JobQueued)})
}

// HandleGetJob handles GET /analyses/{job_id} requests.
func (h *AnalysisHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"
	rec, err := h.deps.Job(r.Context(), r.PathValue("job_id"))
	if err != nil {
		writeServiceError(w, r, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
