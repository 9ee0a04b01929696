package models

import "strings"

// TradingPair is a (base, quote) asset pair, e.g. BTC/USDT. The in-memory
// representation stays venue-agnostic; each Connector renders it to its own
// wire symbol.
type TradingPair struct {
	Base  string
	Quote string
}

// NewTradingPair uppercases both legs so callers never have to normalize.
func NewTradingPair(base, quote string) TradingPair {
	return TradingPair{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote)}
}

// ParseTradingPair parses "BASE/QUOTE" form, the shape used in config's
// trading.pairs list.
func ParseTradingPair(s string) (TradingPair, bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TradingPair{}, false
	}
	return NewTradingPair(parts[0], parts[1]), true
}

func (p TradingPair) String() string {
	return p.Base + "/" + p.Quote
}

// Symbol renders the venue-specific wire symbol. Both supported venues today
// use the concatenated form (BTCUSDT), but the mapping is kept per-venue so a
// future venue with a different convention only needs a case added here.
func (p TradingPair) Symbol(v Venue) string {
	switch v {
	case VenueBybit, VenueBitget:
		return p.Base + p.Quote
	default:
		return p.Base + p.Quote
	}
}
