package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is the latest known top-of-book quote for a (venue, pair). All
// prices are fixed-point decimal, never float64, so fee and spread
// arithmetic is exact and reproducible.
type Ticker struct {
	Venue     Venue
	Pair      TradingPair
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Last      decimal.Decimal
	Volume24h decimal.Decimal
	Timestamp time.Time
}

// Valid reports whether both sides of the quote are strictly positive, the
// minimum bar for a Ticker to be usable in spread evaluation.
func (t Ticker) Valid() bool {
	return t.Bid.IsPositive() && t.Ask.IsPositive()
}

// tickerWire is the JSON shape sent over /ws and returned by /api/prices.
type tickerWire struct {
	Venue     string    `json:"venue"`
	Pair      string    `json:"pair"`
	Bid       string    `json:"bid"`
	Ask       string    `json:"ask"`
	Last      string    `json:"last"`
	Volume24h string    `json:"volume_24h"`
	Timestamp time.Time `json:"timestamp"`
}

func (t Ticker) MarshalJSON() ([]byte, error) {
	return marshalJSON(tickerWire{
		Venue:     t.Venue.String(),
		Pair:      t.Pair.String(),
		Bid:       t.Bid.String(),
		Ask:       t.Ask.String(),
		Last:      t.Last.String(),
		Volume24h: t.Volume24h.String(),
		Timestamp: t.Timestamp,
	})
}
