package api

import (
	"net/http"

	"github.com/ashaboard/ashaboard/internal/registry"
	"github.com/ashaboard/ashaboard/pkg/ranking"
)

type caseRequest struct {
	ID          string `json:"id"`
	PatientName string `json:"patientName"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Issue       string `json:"issue"`
	WorkerID    string `json:"workerId"`
	Status      string `json:"status"`
	Date        string `json:"date"`
	Village     string `json:"village"`
}

type updateCaseRequest struct {
	Status string `json:"status"`
}

// handleListCases serves GET /api/cases?village=&status=.
func (h *Handler) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := registry.CaseFilter{Village: q.Get("village")}
	if v := q.Get("status"); v != "" {
		status, err := ranking.ParseCaseStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}
	writeJSON(w, http.StatusOK, h.reg.ListCases(filter))
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.reg.GetCase(r.PathValue("caseID"))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req caseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.reg.AddCase(ranking.Case{
		ID:          req.ID,
		PatientName: req.PatientName,
		Age:         req.Age,
		Gender:      ranking.Gender(req.Gender),
		Issue:       req.Issue,
		WorkerID:    req.WorkerID,
		Status:      ranking.CaseStatus(req.Status),
		Date:        req.Date,
		Village:     req.Village,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	h.logger.Info("case recorded", "case", c.ID, "village", c.Village, "status", c.Status)
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")

	var req updateCaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	c, err := h.reg.UpdateCaseStatus(caseID, ranking.CaseStatus(req.Status))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("caseID")

	if err := h.reg.RemoveCase(caseID); err != nil {
		writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
