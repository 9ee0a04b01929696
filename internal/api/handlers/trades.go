package handlers

import "net/http"

// GetTrades implements GET /api/trades: every TradeResult produced since
// process start (unbounded: trade history persistence across restarts is
// a non-goal, but this run's in-memory log is not capped).
func (h *EngineHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.History().Trades())
}
