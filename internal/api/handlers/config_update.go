package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"arbitrage/internal/config"
	"arbitrage/internal/models"
)

// configUpdateRequest mirrors POST /api/config's request body:
// every field is optional, and an absent field leaves that setting
// unchanged. Decimal fields arrive as JSON strings so a client can send
// "0.15" without float round-off.
type configUpdateRequest struct {
	MinSpreadPct   *string `json:"min_spread_pct"`
	MaxTradeQty    *string `json:"max_trade_qty"`
	SimulationMode *bool   `json:"simulation_mode"`
	ScanIntervalMs *uint64 `json:"scan_interval_ms"`
}

// UpdateConfig implements POST /api/config.
func (h *EngineHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	update, err := toPartialUpdate(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := h.cfg.Apply(update)

	n := h.engine.History().RecordNotification(models.Notification{
		Type:     models.NotificationTypeConfigReload,
		Severity: models.SeverityInfo,
		Message:  "live config updated via POST /api/config",
	})
	h.engine.Fanout().PublishNotification(n)

	// Echo back only the live-tunable settings; the full Config carries
	// exchange credentials and must never leave the process.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"min_spread_pct":   cfg.Engine.MinSpreadPct.String(),
		"max_trade_qty":    cfg.Trading.MaxTradeQty.String(),
		"simulation_mode":  cfg.Engine.SimulationMode,
		"scan_interval_ms": cfg.Engine.ScanIntervalMs,
	})
}

func toPartialUpdate(req configUpdateRequest) (config.PartialUpdate, error) {
	var update config.PartialUpdate

	if req.MinSpreadPct != nil {
		v, err := decimal.NewFromString(*req.MinSpreadPct)
		if err != nil {
			return update, err
		}
		update.MinSpreadPct = &v
	}
	if req.MaxTradeQty != nil {
		v, err := decimal.NewFromString(*req.MaxTradeQty)
		if err != nil {
			return update, err
		}
		update.MaxTradeQty = &v
	}
	update.SimulationMode = req.SimulationMode
	update.ScanIntervalMs = req.ScanIntervalMs
	return update, nil
}
