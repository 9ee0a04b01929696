package handlers

import "net/http"

// GetPrices implements GET /api/prices: the full Price Cache snapshot,
// one entry per (venue, pair) currently tracked.
func (h *EngineHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Cache().Snapshot())
}
