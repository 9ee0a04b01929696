package handlers

import "net/http"

// GetStatus implements GET /api/status: the EngineStatus snapshot.
func (h *EngineHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Status())
}
