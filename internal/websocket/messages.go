package websocket

import "arbitrage/internal/models"

// Factory helpers that wrap a domain payload into the tagged envelope
// {"type": "...", "data": ...}. The envelope itself is
// models.WsMessage; these just pin down its Type constant per payload.

func newTickerMessage(t models.Ticker) models.WsMessage {
	return models.WsMessage{Type: models.WsMessageTypeTicker, Data: t}
}

func newOpportunityMessage(o models.ArbitrageOpportunity) models.WsMessage {
	return models.WsMessage{Type: models.WsMessageTypeOpportunity, Data: o}
}

func newTradeMessage(t models.TradeResult) models.WsMessage {
	return models.WsMessage{Type: models.WsMessageTypeTrade, Data: t}
}

func newStatusMessage(s models.EngineStatus) models.WsMessage {
	return models.WsMessage{Type: models.WsMessageTypeStatus, Data: s}
}

func newNotificationMessage(n models.Notification) models.WsMessage {
	return models.WsMessage{Type: models.WsMessageTypeNotification, Data: n}
}
