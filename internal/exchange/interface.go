// Package exchange implements the streaming connector abstraction: one
// concrete type per venue (Bybit, Bitget), each exposing the same
// capability set so the detector and executor never branch on venue.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"
	"arbitrage/internal/models"
)

// OrderSide is the side of a placed order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType is the order type used for the paired dispatch.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Connector is the capability set a venue integration must provide. Both
// Bybit and Bitget implement it; the detector and executor hold only this
// interface, never a concrete venue type.
type Connector interface {
	Venue() models.Venue

	// SubscribeTicker starts (or reuses) the streaming subscription for pair
	// and returns a channel of Tickers. The subscription runs for the
	// process lifetime; call sites never unsubscribe. Lazy: the underlying
	// socket is only dialed on the first call.
	SubscribeTicker(ctx context.Context, pair models.TradingPair) (<-chan models.Ticker, error)

	// GetTicker is the REST fallback: synchronous, with the context's
	// deadline enforced.
	GetTicker(ctx context.Context, pair models.TradingPair) (models.Ticker, error)

	PlaceOrder(ctx context.Context, pair models.TradingPair, side OrderSide, typ OrderType, qty, limitPrice decimal.Decimal) (string, error)

	GetBalances(ctx context.Context) ([]models.ExchangeBalance, error)

	// FeePct is the per-venue taker fee as a percentage, e.g. 0.1 for 0.1%.
	FeePct() decimal.Decimal

	Close() error
}
