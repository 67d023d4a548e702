package api

import (
	"net/http"

	service "github.com/okian/hirepulse/internal/app"
	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/pkg/logger"
)

// DatasetsHandler handles dataset requests.
type DatasetsHandler struct {
	deps DatasetDependencies
	log  logger.Logger
}

// NewDatasetsHandler creates a new datasets handler.
func NewDatasetsHandler(deps DatasetDependencies, log logger.Logger) *DatasetsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DatasetsHandler{deps: deps, log: log}
}

type createResponse struct {
	ID      string               `json:"id"`
	Dataset model.DatasetSummary `json:"dataset"`
}

// HandleCreate handles POST /datasets requests.
func (h *DatasetsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_dataset"
	var ds model.Dataset
	if err := decodeBody(w, r, &ds); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sum, err := h.deps.ImportDataset(r.Context(), &ds, service.SourceAPI)
	if err != nil {
		writeServiceError(w, r, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{ID: sum.ID, Dataset: sum})
}

// HandleList handles GET /datasets requests.
func (h *DatasetsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_datasets"
	list, err := h.deps.ListDatasets(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, op, err)
		return
	}
	if list == nil {
		list = []model.DatasetSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /datasets/{id} requests.
func (h *DatasetsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dataset"
	sum, err := h.deps.GetDataset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.log, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleDelete handles DELETE /datasets/{id} requests.
func (h *DatasetsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_dataset"
	if err := h.deps.DeleteDataset(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.log, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
