package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EngineStatus is a point-in-time snapshot of engine liveness and counters,
// exposed on GET /api/status and as the first frame of every /ws connection.
// Assembled on demand from the executor's counters and the cache's key set;
// it is not maintained incrementally on the hot path.
type EngineStatus struct {
	Running           bool
	SimulationMode    bool
	Uptime            time.Duration
	ConnectedVenues   []string
	TrackedPairs      int
	TickersProcessed  int64
	OpportunitiesSeen int64
	TradesExecuted    int64
	TotalProfit       decimal.Decimal
	DailyLoss         decimal.Decimal
	LastTradeAt       *time.Time
}

type statusWire struct {
	Running           bool       `json:"running"`
	SimulationMode    bool       `json:"simulation_mode"`
	UptimeSeconds     float64    `json:"uptime_seconds"`
	ConnectedVenues   []string   `json:"connected_venues"`
	TrackedPairs      int        `json:"tracked_pairs"`
	TickersProcessed  int64      `json:"tickers_processed"`
	OpportunitiesSeen int64      `json:"opportunities_seen"`
	TradesExecuted    int64      `json:"trades_executed"`
	TotalProfit       string     `json:"total_profit"`
	DailyLoss         string     `json:"daily_loss"`
	LastTradeAt       *time.Time `json:"last_trade_at,omitempty"`
}

func (s EngineStatus) MarshalJSON() ([]byte, error) {
	return marshalJSON(statusWire{
		Running:           s.Running,
		SimulationMode:    s.SimulationMode,
		UptimeSeconds:     s.Uptime.Seconds(),
		ConnectedVenues:   s.ConnectedVenues,
		TrackedPairs:      s.TrackedPairs,
		TickersProcessed:  s.TickersProcessed,
		OpportunitiesSeen: s.OpportunitiesSeen,
		TradesExecuted:    s.TradesExecuted,
		TotalProfit:       s.TotalProfit.String(),
		DailyLoss:         s.DailyLoss.String(),
		LastTradeAt:       s.LastTradeAt,
	})
}

// WsMessage is the tagged envelope used on the /ws control-plane stream.
type WsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	WsMessageTypeTicker       = "ticker"
	WsMessageTypeOpportunity  = "opportunity"
	WsMessageTypeTrade        = "trade"
	WsMessageTypeStatus       = "status"
	WsMessageTypeNotification = "notification"
)
