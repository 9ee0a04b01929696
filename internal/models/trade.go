package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus is the outcome of executing a paired buy/sell.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusFilled    TradeStatus = "filled"
	TradeStatusPartial   TradeStatus = "partial_fill"
	TradeStatusFailed    TradeStatus = "failed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// TradeResult is the record of one executed (or attempted) paired order.
// Created once by the executor and immutable thereafter.
type TradeResult struct {
	ID            string
	OpportunityID string
	Pair          TradingPair
	BuyVenue      Venue
	SellVenue     Venue
	BuyPrice      decimal.Decimal
	SellPrice     decimal.Decimal
	Quantity      decimal.Decimal
	GrossProfit   decimal.Decimal
	Fees          decimal.Decimal
	NetProfit     decimal.Decimal
	Status        TradeStatus
	ExecutedAt    time.Time
}

type tradeWire struct {
	ID            string    `json:"id"`
	OpportunityID string    `json:"opportunity_id"`
	Pair          string    `json:"pair"`
	BuyVenue      string    `json:"buy_venue"`
	SellVenue     string    `json:"sell_venue"`
	BuyPrice      string    `json:"buy_price"`
	SellPrice     string    `json:"sell_price"`
	Quantity      string    `json:"quantity"`
	GrossProfit   string    `json:"gross_profit"`
	Fees          string    `json:"fees"`
	NetProfit     string    `json:"net_profit"`
	Status        string    `json:"status"`
	ExecutedAt    time.Time `json:"executed_at"`
}

func (t TradeResult) MarshalJSON() ([]byte, error) {
	return marshalJSON(tradeWire{
		ID:            t.ID,
		OpportunityID: t.OpportunityID,
		Pair:          t.Pair.String(),
		BuyVenue:      t.BuyVenue.String(),
		SellVenue:     t.SellVenue.String(),
		BuyPrice:      t.BuyPrice.String(),
		SellPrice:     t.SellPrice.String(),
		Quantity:      t.Quantity.String(),
		GrossProfit:   t.GrossProfit.String(),
		Fees:          t.Fees.String(),
		NetProfit:     t.NetProfit.String(),
		Status:        string(t.Status),
		ExecutedAt:    t.ExecutedAt,
	})
}
