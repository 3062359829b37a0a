package scrape

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/internal/model"
)

// Handler serves GET /scrape?query= from a single source, normally
// PortExaminer. Fetch failures surface as 502; degrading is left to clients.
type Handler struct {
	source Source
}

// NewHandler creates a Handler backed by src.
func NewHandler(src Source) *Handler {
	return &Handler{source: src}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Query parameter is required"})
		return
	}

	leads, err := h.source.Search(r.Context(), query)
	if err != nil {
		zap.L().Warn("scrape: endpoint fetch failed",
			zap.String("source", h.source.Name()),
			zap.String("query", query),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}

	results := make([]model.ManifestRecord, 0, len(leads))
	for _, l := range leads {
		results = append(results, model.ManifestRecordFromLead(l))
	}
	writeJSON(w, http.StatusOK, ScrapeResponse{Results: results})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("scrape: write response", zap.Error(err))
	}
}
