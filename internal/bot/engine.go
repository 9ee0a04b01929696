// Package bot implements the arbitrage engine: the price cache, the
// arbitrage detector, the order executor and the event fan-out, wired
// together by Engine.
package bot

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"arbitrage/internal/config"
	"arbitrage/internal/exchange"
	"arbitrage/internal/models"
)

// portfolioRefreshInterval controls how often GetBalances is polled per
// venue. GET /api/portfolio serves the last-refreshed snapshot rather than
// making a live REST call per request; a balance check is not on anyone's
// hot path and need not cost a round trip per poll.
const portfolioRefreshInterval = 30 * time.Second

// Engine owns the engine's long-lived goroutines: one subscription
// forwarder per (connector, pair), the executor's consume loop, and the
// portfolio refresh loop. The detector itself never blocks and runs inline on the
// subscription goroutine that received the tick.
type Engine struct {
	cfg        *config.Holder
	connectors map[models.Venue]exchange.Connector
	cache      *PriceCache
	fanout     *Fanout
	history    *History
	detector   *ArbitrageDetector
	executor   *OrderExecutor
	logger     *zap.Logger

	toExec chan models.ArbitrageOpportunity

	portfolioMu sync.RWMutex
	portfolio   map[string][]models.ExchangeBalance

	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// toExecBufferSize bounds the detector->executor handoff. The executor
// consumes strictly one opportunity at a time, so this is sized to
// absorb a burst across many pairs without the detector ever blocking on a
// slow trade dispatch.
const toExecBufferSize = 256

// NewEngine builds an Engine from a resolved connector set. The pairs to
// subscribe on every connector are passed to Start.
func NewEngine(cfg *config.Holder, connectors map[models.Venue]exchange.Connector, logger *zap.Logger) *Engine {
	fanout := NewFanout()
	history := NewHistory()
	cache := NewPriceCache()
	toExec := make(chan models.ArbitrageOpportunity, toExecBufferSize)

	venues := make([]models.Venue, 0, len(connectors))
	fees := make(VenueFees, len(connectors))
	for v, c := range connectors {
		venues = append(venues, v)
		fees[v] = c.FeePct()
	}

	detector := NewArbitrageDetector(cache, cfg, fees, venues, toExec, fanout, history, logger)
	executor := NewOrderExecutor(cfg, connectors, fanout, history, logger)

	return &Engine{
		cfg:        cfg,
		connectors: connectors,
		cache:      cache,
		fanout:     fanout,
		history:    history,
		detector:   detector,
		executor:   executor,
		logger:     logger,
		toExec:     toExec,
		portfolio:  make(map[string][]models.ExchangeBalance),
	}
}

// Start subscribes to every pair on every connector and begins the
// executor loop. It returns once every subscription has been established
// or has failed; a failed subscription is logged and skipped, and Start
// still returns nil.
func (e *Engine) Start(ctx context.Context, pairs []models.TradingPair) error {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.startedAt = time.Now()

	for venue, conn := range e.connectors {
		for _, pair := range pairs {
			ticks, err := conn.SubscribeTicker(runCtx, pair)
			if err != nil {
				e.logger.Error("subscribe failed",
					zap.String("venue", venue.String()),
					zap.String("pair", pair.String()),
					zap.Error(err))
				continue
			}
			e.wg.Add(1)
			go e.forward(runCtx, ticks)
		}
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.executor.Run(runCtx, e.toExec)
	}()

	e.refreshPortfolio(runCtx)
	e.wg.Add(1)
	go e.portfolioLoop(runCtx)

	return nil
}

// portfolioLoop refreshes the cached balance snapshot on a timer until ctx
// is cancelled.
func (e *Engine) portfolioLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(portfolioRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refreshPortfolio(ctx)
		}
	}
}

func (e *Engine) refreshPortfolio(ctx context.Context) {
	next := make(map[string][]models.ExchangeBalance, len(e.connectors))
	for venue, conn := range e.connectors {
		balances, err := conn.GetBalances(ctx)
		if err != nil {
			e.logger.Warn("balance refresh failed", zap.String("venue", venue.String()), zap.Error(err))
			continue
		}
		next[venue.String()] = balances
	}
	e.portfolioMu.Lock()
	e.portfolio = next
	e.portfolioMu.Unlock()
}

// forward pumps one subscription's Ticker channel into the detector until
// ctx is cancelled or the channel closes (a terminal disconnect the venue's
// own reconnect loop could not recover from).
func (e *Engine) forward(ctx context.Context, ticks <-chan models.Ticker) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-ticks:
			if !ok {
				return
			}
			e.detector.OnTicker(t)
		}
	}
}

// Stop cancels every subscription/executor goroutine, waits for them to
// exit, then closes every connector.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	for _, conn := range e.connectors {
		if err := conn.Close(); err != nil {
			e.logger.Warn("error closing connector", zap.Error(err))
		}
	}
}

// Fanout exposes the engine's event fan-out so the websocket hub can drain
// it without reaching into engine internals.
func (e *Engine) Fanout() *Fanout { return e.fanout }

// Cache exposes the price cache for GET /api/prices and for seeding newly
// connected /ws clients.
func (e *Engine) Cache() *PriceCache { return e.cache }

// History exposes opportunity/trade history for GET /api/opportunities and
// GET /api/trades.
func (e *Engine) History() *History { return e.history }

// Status assembles an EngineStatus snapshot for GET /api/status and the
// periodic /ws status push.
func (e *Engine) Status() models.EngineStatus {
	cfg := e.cfg.Get()
	counters := e.history.Snapshot()

	venues := make([]string, 0, len(e.connectors))
	for v := range e.connectors {
		venues = append(venues, v.String())
	}
	sort.Strings(venues)

	var uptime time.Duration
	if !e.startedAt.IsZero() {
		uptime = time.Since(e.startedAt)
	}

	return models.EngineStatus{
		Running:           e.cancel != nil,
		SimulationMode:    cfg.Engine.SimulationMode,
		Uptime:            uptime,
		ConnectedVenues:   venues,
		TrackedPairs:      len(cfg.Trading.Pairs),
		TickersProcessed:  counters.TickersProcessed,
		OpportunitiesSeen: counters.OpportunitiesSeen,
		TradesExecuted:    counters.TradesExecuted,
		TotalProfit:       counters.TotalProfit,
		DailyLoss:         e.executor.risk.currentDailyLoss(),
		LastTradeAt:       counters.LastTradeAt,
	}
}

// Portfolio returns the last-refreshed balance snapshot for GET
// /api/portfolio. See portfolioRefreshInterval.
func (e *Engine) Portfolio() map[string][]models.ExchangeBalance {
	e.portfolioMu.RLock()
	defer e.portfolioMu.RUnlock()
	out := make(map[string][]models.ExchangeBalance, len(e.portfolio))
	for venue, balances := range e.portfolio {
		out[venue] = balances
	}
	return out
}
