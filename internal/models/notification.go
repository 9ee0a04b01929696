package models

import "time"

// Notification is a loggable/broadcastable event about engine activity,
// independent of the ticker/opportunity/trade event streams: used for
// things an operator should notice (risk rejections, both-legs-failed and
// partially filled trades, config reloads) without replaying the full tick
// stream. NotificationTypeReconnect is declared but not emitted; reconnects
// only increment a metric.
type Notification struct {
	ID        int64                  `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Severity  string                 `json:"severity"`
	Venue     string                 `json:"venue,omitempty"`
	Pair      string                 `json:"pair,omitempty"`
	Message   string                 `json:"message"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// Notification types.
const (
	NotificationTypeReconnect    = "RECONNECT"
	NotificationTypeRiskRejected = "RISK_REJECTED"
	NotificationTypeTradeFailed  = "TRADE_FAILED"
	NotificationTypePartialFill  = "PARTIAL_FILL"
	NotificationTypeConfigReload = "CONFIG_RELOAD"
)

// Severity levels.
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)
