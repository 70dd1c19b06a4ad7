package api

import (
	"net/http"

	"github.com/ashaboard/ashaboard/pkg/dataset"
)

type workerRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Village string `json:"village"`
}

type updateWorkerRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.ListWorkers())
}

func (h *Handler) handleCreateWorker(w http.ResponseWriter, r *http.Request) {
	var req workerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	worker, err := h.reg.AddWorker(dataset.Worker{
		ID:      req.ID,
		Name:    req.Name,
		Status:  dataset.WorkerStatus(req.Status),
		Village: req.Village,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	h.logger.Info("worker added", "worker", worker.ID)
	writeJSON(w, http.StatusCreated, worker)
}

func (h *Handler) handleUpdateWorker(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("workerID")

	var req updateWorkerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	worker, err := h.reg.SetWorkerStatus(workerID, dataset.WorkerStatus(req.Status))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}
