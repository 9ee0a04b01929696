package handlers

import "net/http"

// GetOpportunities implements GET /api/opportunities: the bounded in-memory
// opportunity history (last 1000, oldest evicted first).
func (h *EngineHandler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.History().Opportunities())
}
