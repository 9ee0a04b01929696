package bot

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"arbitrage/internal/exchange"
	"arbitrage/internal/models"
)

// fakeConnector is a minimal exchange.Connector stand-in for executor
// tests: PlaceOrder either always succeeds or always fails, matching the
// single-dimension failure injection the executor's dispatch logic needs to
// be exercised: a partial fill when exactly one leg fails.
type fakeConnector struct {
	venue      models.Venue
	fee        decimal.Decimal
	failOrders bool
	placed     int
	ticks      chan models.Ticker
}

func newFakeConnector(v models.Venue, fee decimal.Decimal, failOrders bool) *fakeConnector {
	return &fakeConnector{
		venue:      v,
		fee:        fee,
		failOrders: failOrders,
		ticks:      make(chan models.Ticker, 16),
	}
}

func (f *fakeConnector) Venue() models.Venue { return f.venue }

// SubscribeTicker hands back the test-feedable channel so engine tests can
// drive the full subscription->detector->executor pipeline.
func (f *fakeConnector) SubscribeTicker(ctx context.Context, pair models.TradingPair) (<-chan models.Ticker, error) {
	return f.ticks, nil
}

func (f *fakeConnector) GetTicker(ctx context.Context, pair models.TradingPair) (models.Ticker, error) {
	return models.Ticker{}, nil
}

func (f *fakeConnector) PlaceOrder(ctx context.Context, pair models.TradingPair, side exchange.OrderSide, typ exchange.OrderType, qty, limitPrice decimal.Decimal) (string, error) {
	f.placed++
	if f.failOrders {
		return "", errors.New("fake order rejected")
	}
	return "fake-order-id", nil
}

func (f *fakeConnector) GetBalances(ctx context.Context) ([]models.ExchangeBalance, error) {
	return nil, nil
}

func (f *fakeConnector) FeePct() decimal.Decimal { return f.fee }

func (f *fakeConnector) Close() error { return nil }
