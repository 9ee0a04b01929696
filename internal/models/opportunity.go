package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArbitrageOpportunity is a detected cross-venue price dislocation. Created
// once by the detector and immutable thereafter.
type ArbitrageOpportunity struct {
	ID              string
	Pair            TradingPair
	BuyVenue        Venue
	SellVenue       Venue
	BuyPrice        decimal.Decimal
	SellPrice       decimal.Decimal
	SpreadPct       decimal.Decimal
	NetSpreadPct    decimal.Decimal
	PotentialProfit decimal.Decimal
	Quantity        decimal.Decimal
	DetectedAt      time.Time
	IsActionable    bool
}

type opportunityWire struct {
	ID              string    `json:"id"`
	Pair            string    `json:"pair"`
	BuyVenue        string    `json:"buy_venue"`
	SellVenue       string    `json:"sell_venue"`
	BuyPrice        string    `json:"buy_price"`
	SellPrice       string    `json:"sell_price"`
	SpreadPct       string    `json:"spread_pct"`
	NetSpreadPct    string    `json:"net_spread_pct"`
	PotentialProfit string    `json:"potential_profit"`
	Quantity        string    `json:"quantity"`
	DetectedAt      time.Time `json:"detected_at"`
	IsActionable    bool      `json:"is_actionable"`
}

func (o ArbitrageOpportunity) MarshalJSON() ([]byte, error) {
	return marshalJSON(opportunityWire{
		ID:              o.ID,
		Pair:            o.Pair.String(),
		BuyVenue:        o.BuyVenue.String(),
		SellVenue:       o.SellVenue.String(),
		BuyPrice:        o.BuyPrice.String(),
		SellPrice:       o.SellPrice.String(),
		SpreadPct:       o.SpreadPct.String(),
		NetSpreadPct:    o.NetSpreadPct.String(),
		PotentialProfit: o.PotentialProfit.String(),
		Quantity:        o.Quantity.String(),
		DetectedAt:      o.DetectedAt,
		IsActionable:    o.IsActionable,
	})
}
