package bot

import "arbitrage/internal/models"

// fanoutBufferSize approximates "unbounded" without the unbounded
// goroutine-backed queue's complexity: generous enough that a slow consumer
// only drops under sustained backpressure, never on a normal burst.
const fanoutBufferSize = 8192

// Fanout is the event fan-out: channels for tickers, opportunities, trades
// and notifications, drained by forwarder tasks into whatever external
// observer plumbing the caller wires up (the websocket hub, for this
// repository). A full buffer never blocks the producer (the detector and
// executor must keep running even if every /ws client vanished), so a send
// that can't complete immediately is dropped and counted rather than
// retried.
type Fanout struct {
	Tickers       chan models.Ticker
	Opportunities chan models.ArbitrageOpportunity
	Trades        chan models.TradeResult
	Notifications chan models.Notification
}

// NewFanout builds a Fanout with its channels pre-allocated.
func NewFanout() *Fanout {
	return &Fanout{
		Tickers:       make(chan models.Ticker, fanoutBufferSize),
		Opportunities: make(chan models.ArbitrageOpportunity, fanoutBufferSize),
		Trades:        make(chan models.TradeResult, fanoutBufferSize),
		Notifications: make(chan models.Notification, fanoutBufferSize),
	}
}

func (f *Fanout) PublishTicker(t models.Ticker) {
	select {
	case f.Tickers <- t:
	default:
		RecordBufferOverflow("ticker")
	}
}

func (f *Fanout) PublishOpportunity(o models.ArbitrageOpportunity) {
	select {
	case f.Opportunities <- o:
	default:
		RecordBufferOverflow("opportunity")
	}
}

func (f *Fanout) PublishTrade(t models.TradeResult) {
	select {
	case f.Trades <- t:
	default:
		RecordBufferOverflow("trade")
	}
}

func (f *Fanout) PublishNotification(n models.Notification) {
	select {
	case f.Notifications <- n:
	default:
		RecordBufferOverflow("notification")
	}
}
