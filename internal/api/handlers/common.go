// Package handlers implements the control API's HTTP handlers:
// read-only views over the engine's cache/history/status, plus the single
// partial-update endpoint for live config.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"arbitrage/internal/bot"
	"arbitrage/internal/config"
)

// EngineHandler is the shared receiver for every read-only endpoint; each
// handler method below is a thin projection over one of the Engine's
// exposed views.
type EngineHandler struct {
	engine *bot.Engine
	cfg    *config.Holder
	logger *zap.Logger
}

func NewEngineHandler(engine *bot.Engine, cfg *config.Holder, logger *zap.Logger) *EngineHandler {
	return &EngineHandler{engine: engine, cfg: cfg, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent at this point; nothing left to do but
		// let the client see a truncated body.
		return
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
