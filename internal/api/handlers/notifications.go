package handlers

import "net/http"

// GetNotifications implements GET /api/notifications: the bounded
// in-memory operator-notification log (risk rejections, failed trades,
// partial fills), oldest evicted first.
func (h *EngineHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.History().Notifications())
}
