package bot

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"arbitrage/internal/config"
	"arbitrage/internal/models"
)

// VenueFees looks up a venue's taker fee percentage. The detector never
// talks to a Connector directly for this; it's handed a resolved map at
// construction so it stays free of any I/O.
type VenueFees map[models.Venue]decimal.Decimal

// ArbitrageDetector: on every incoming Ticker it writes
// through to the Price Cache, publishes to the ticker fan-out, and for
// every other venue already holding a Ticker for the same pair evaluates
// both buy/sell directions. It is stateless across ticks beyond its read of
// the cache: there is no debouncing, no coalescing, and no awaits inside
// the per-tick evaluation; concurrency comes from the many subscription
// tasks feeding it, not from anything inside this type.
type ArbitrageDetector struct {
	cache   *PriceCache
	cfg     *config.Holder
	fees    VenueFees
	venues  []models.Venue
	fanout  *Fanout
	toExec  chan<- models.ArbitrageOpportunity
	history *History
	logger  *zap.Logger
	seq     int64
}

// NewArbitrageDetector builds a detector over venues (the set of venues the
// engine holds a live Connector for). toExec is the executor's input
// channel; fanout is the external observer plumbing.
func NewArbitrageDetector(cache *PriceCache, cfg *config.Holder, fees VenueFees, venues []models.Venue, toExec chan<- models.ArbitrageOpportunity, fanout *Fanout, history *History, logger *zap.Logger) *ArbitrageDetector {
	return &ArbitrageDetector{
		cache:   cache,
		cfg:     cfg,
		fees:    fees,
		venues:  venues,
		fanout:  fanout,
		toExec:  toExec,
		history: history,
		logger:  logger,
	}
}

// OnTicker is called by a subscription's forwarding goroutine for every
// Ticker it receives. It never blocks: its channel sends into the large
// fan-out buffers and the executor queue are non-blocking, and when a buffer
// is full the new event is dropped (the oldest queued events are kept). It
// never calls out to a Connector.
func (d *ArbitrageDetector) OnTicker(t models.Ticker) {
	start := time.Now()
	d.cache.Put(t)
	d.fanout.PublishTicker(t)
	d.history.RecordTicker()
	RecordTickerProcessed(t.Venue.String(), t.Pair.String())

	cfg := d.cfg.Get()
	qty := cfg.Trading.MaxTradeQty
	minSpread := cfg.Engine.MinSpreadPct
	buyFee := d.fees[t.Venue]

	for _, other := range d.venues {
		if other == t.Venue {
			continue
		}
		opp, ok := d.cache.Get(other, t.Pair)
		if !ok {
			continue
		}
		sellFee := d.fees[other]

		// Crossed quotes (bid > ask on one venue) are not filtered; both directions are still evaluated.
		// Direction 1: buy on t.Venue at its ask, sell on other at its bid.
		if o, emit := directionOpportunity(t.Pair, t.Venue, other, t.Ask, opp.Bid, buyFee, sellFee, qty, minSpread, time.Now(), d.nextID); emit {
			d.emit(o)
			RecordDetectionLatency(time.Since(start))
		}
		// Direction 2: buy on other at its ask, sell on t.Venue at its bid.
		if o, emit := directionOpportunity(t.Pair, other, t.Venue, opp.Ask, t.Bid, sellFee, buyFee, qty, minSpread, time.Now(), d.nextID); emit {
			d.emit(o)
			RecordDetectionLatency(time.Since(start))
		}
	}
}

func (d *ArbitrageDetector) emit(o models.ArbitrageOpportunity) {
	d.fanout.PublishOpportunity(o)
	d.history.RecordOpportunity(o)
	RecordOpportunity(o.Pair.String(), o.IsActionable)
	select {
	case d.toExec <- o:
	default:
		d.logger.Warn("executor queue full, dropping opportunity", zap.String("pair", o.Pair.String()))
	}
}

// nextID mints a monotonically increasing opportunity ID. It's a plain
// counter, not a UUID; good enough for a process-lifetime identifier and
// it avoids pulling in a UUID generator for a hot-path allocation.
func (d *ArbitrageDetector) nextID() string {
	n := atomic.AddInt64(&d.seq, 1)
	return "opp-" + time.Now().UTC().Format("20060102T150405.000000000") + "-" + strconv.FormatInt(n, 10)
}
