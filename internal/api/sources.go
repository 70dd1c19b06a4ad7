package api

import (
	"net/http"

	"github.com/ashaboard/ashaboard/pkg/ranking"
	"github.com/ashaboard/ashaboard/pkg/water"
)

type sourceRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	LastTested string `json:"lastTested"`
	Location   string `json:"location"`
	Village    string `json:"village"`
}

type updateSourceRequest struct {
	Status string `json:"status"`
}

type sourceResponse struct {
	ranking.WaterSource
	LatestReading *water.Reading    `json:"latestReading,omitempty"`
	Assessment    *water.Assessment `json:"assessment,omitempty"`
}

type classifyResponse struct {
	Assessment   water.Assessment     `json:"assessment"`
	SourceStatus ranking.SourceStatus `json:"sourceStatus"`
}

func (h *Handler) handleListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.ListSources())
}

func (h *Handler) handleGetSource(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("sourceID")

	src, err := h.reg.GetSource(sourceID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	resp := sourceResponse{WaterSource: src}
	if reading, ok := h.reg.LatestReading(sourceID); ok {
		a := water.Classify(reading)
		resp.LatestReading = &reading
		resp.Assessment = &a
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	src, err := h.reg.AddSource(ranking.WaterSource{
		ID:         req.ID,
		Name:       req.Name,
		Status:     ranking.SourceStatus(req.Status),
		LastTested: req.LastTested,
		Location:   req.Location,
		Village:    req.Village,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	h.logger.Info("water source added", "source", src.ID, "village", src.Village)
	writeJSON(w, http.StatusCreated, src)
}

func (h *Handler) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("sourceID")

	var req updateSourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	src, err := h.reg.UpdateSourceStatus(sourceID, ranking.SourceStatus(req.Status))
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (h *Handler) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("sourceID")

	if err := h.reg.RemoveSource(sourceID); err != nil {
		writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleRecordReading applies a field test to a source. The response carries
// the updated source and the assessment that produced its status.
func (h *Handler) handleRecordReading(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("sourceID")

	var reading water.Reading
	if !decodeJSON(w, r, &reading) {
		return
	}

	src, a, err := h.reg.RecordReading(sourceID, reading)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	h.logger.Info("reading recorded", "source", src.ID, "quality", a.Overall)
	writeJSON(w, http.StatusOK, sourceResponse{WaterSource: src, Assessment: &a})
}

// handleClassify grades a reading without touching the registry.
func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	var reading water.Reading
	if !decodeJSON(w, r, &reading) {
		return
	}
	reading.Normalize()
	if err := reading.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := water.Classify(reading)
	writeJSON(w, http.StatusOK, classifyResponse{Assessment: a, SourceStatus: a.SourceStatus()})
}
