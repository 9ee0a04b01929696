package handlers

import "net/http"

// GetPortfolio implements GET /api/portfolio: the last-refreshed balance
// snapshot per venue, not a live REST call per request.
func (h *EngineHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Portfolio())
}
