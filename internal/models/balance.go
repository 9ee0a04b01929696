package models

import "github.com/shopspring/decimal"

// ExchangeBalance is a per-asset balance snapshot. Only read via REST, on a
// slow timer, never on the hot path.
type ExchangeBalance struct {
	Venue  Venue
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
	Total  decimal.Decimal
}

type balanceWire struct {
	Venue  string `json:"venue"`
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
	Total  string `json:"total"`
}

func (b ExchangeBalance) MarshalJSON() ([]byte, error) {
	return marshalJSON(balanceWire{
		Venue:  b.Venue.String(),
		Asset:  b.Asset,
		Free:   b.Free.String(),
		Locked: b.Locked.String(),
		Total:  b.Total.String(),
	})
}
