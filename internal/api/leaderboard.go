package api

import (
	"net/http"
	"strconv"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.reg.Version(),
	})
}

// handleLeaderboard serves GET /api/leaderboard?limit=N.
func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.board.Current().Top(limit))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.Summary())
}

type villageResponse struct {
	Village     string                `json:"village"`
	Rank        int                   `json:"rank,omitempty"` // 0 when the village carries no risk
	Score       int                   `json:"score"`
	Patients    int                   `json:"patients"`
	WaterIssues int                   `json:"waterIssues"`
	Cases       []ranking.Case        `json:"cases"`
	Sources     []ranking.WaterSource `json:"sources"`
}

// handleVillage serves the drill-down behind a leaderboard row. Village
// names match exactly, the same way the ranking groups them.
func (h *Handler) handleVillage(w http.ResponseWriter, r *http.Request) {
	village := r.PathValue("village")

	snap := h.reg.Snapshot()
	resp := villageResponse{
		Village: village,
		Cases:   []ranking.Case{},
		Sources: []ranking.WaterSource{},
	}
	for _, c := range snap.Cases {
		if c.Village == village {
			resp.Cases = append(resp.Cases, c)
		}
	}
	for _, s := range snap.Sources {
		if s.Village == village {
			resp.Sources = append(resp.Sources, s)
		}
	}
	if len(resp.Cases) == 0 && len(resp.Sources) == 0 {
		writeError(w, http.StatusNotFound, "unknown village "+village)
		return
	}

	for _, e := range h.board.Current().Entries {
		if e.Village == village {
			resp.Rank = e.Rank
			resp.Score = e.Score
			resp.Patients = e.Patients
			resp.WaterIssues = e.WaterIssues
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
