package sources

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/jobradar/core/pkg/database"
	"github.com/jobradar/core/pkg/logger"
	"github.com/jobradar/core/pkg/models/api"
)

// Handler serves the per-source store breakdown for operators
type Handler struct {
	store  *database.Store
	logger *logger.Logger
}

// NewHandler creates a new sources handler
func NewHandler(store *database.Store, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log,
	}
}

// List handles the /api/sources endpoint: active job counts per source
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	counts, err := h.store.CountActiveBySource(r.Context())
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "sources_query_failed").
			Str("endpoint", "/api/sources").
			Msg("Failed to query source counts")
		http.Error(w, "Failed to query source counts", http.StatusInternalServerError)
		return
	}

	response := api.SourcesResponse{
		Sources:   make([]api.SourceCountResponse, 0, len(counts)),
		Timestamp: time.Now(),
	}
	for source, count := range counts {
		response.Sources = append(response.Sources, api.SourceCountResponse{
			Source:     source,
			ActiveJobs: count,
		})
		response.TotalJobs += count
	}
	sort.Slice(response.Sources, func(i, j int) bool {
		return response.Sources[i].Source < response.Sources[j].Source
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error().
			Err(err).
			Str("action", "sources_encode_failed").
			Str("endpoint", "/api/sources").
			Msg("Failed to encode sources response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	h.logger.Debug().
		Str("action", "sources_list").
		Str("endpoint", "/api/sources").
		Int("source_count", len(response.Sources)).
		Dur("duration", time.Since(start)).
		Msg("Sources listing completed")
}
