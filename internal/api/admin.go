package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/ashaboard/ashaboard/pkg/dataset"
)

// importMaxBytes bounds an uncompressed dataset import.
const importMaxBytes = 32 << 20

type replaceResponse struct {
	Status  string `json:"status"`
	Version uint64 `json:"version"`
	Workers int    `json:"workers"`
	Cases   int    `json:"cases"`
	Sources int    `json:"sources"`
}

// handleReload re-reads the configured seed source and replaces the registry
// contents with it.
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusConflict, "no seed source configured")
		return
	}

	ds, err := h.loader.Load(r.Context())
	if err != nil {
		h.logger.Error("seed reload failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to load seed data: "+err.Error())
		return
	}
	h.replace(w, ds, "reloaded")
}

// handleImport replaces the registry contents with a dataset posted in the
// body. JSON is the default; application/yaml (or x-yaml) bodies are decoded
// as YAML. Gzip-compressed bodies are accepted.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid gzip body: "+err.Error())
			return
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, importMaxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if len(data) > importMaxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "dataset too large")
		return
	}

	format := dataset.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = dataset.FormatYAML
	}
	ds, err := dataset.Decode(data, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.replace(w, ds, "imported")
}

func (h *Handler) replace(w http.ResponseWriter, ds *dataset.Dataset, status string) {
	if err := h.reg.Replace(ds); err != nil {
		writeRegistryError(w, err)
		return
	}

	snap := h.reg.Snapshot()
	h.logger.Info("registry replaced",
		"how", status,
		"version", snap.Version,
		"workers", len(snap.Workers),
		"cases", len(snap.Cases),
		"sources", len(snap.Sources))
	writeJSON(w, http.StatusOK, replaceResponse{
		Status:  status,
		Version: snap.Version,
		Workers: len(snap.Workers),
		Cases:   len(snap.Cases),
		Sources: len(snap.Sources),
	})
}
