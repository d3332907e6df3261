package api

import (
	"net/http"

	"github.com/seenimoa/housingdash/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config    *config.Config   `json:"config"`
	Endpoints config.Endpoints `json:"endpoints"`
}

// handleGetConfig returns the running configuration. The API key is
// excluded via its json:"-" tag.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		writeError(w, http.StatusInternalServerError, "configuration not loaded")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:    s.cfg,
			Endpoints: s.cfg.Dashboard.Endpoints(),
		},
	})
}

// handleGetConfigKeys returns the masked status of the API key.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}
