package bot

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"arbitrage/internal/config"
	"arbitrage/internal/exchange"
	"arbitrage/internal/models"
)

// OrderExecutor consumes Opportunities strictly in FIFO channel order, one
// at a time; there is no interleaving of paired-order dispatch across
// opportunities, even though the two legs of a single dispatch run
// concurrently.
type OrderExecutor struct {
	cfg        *config.Holder
	connectors map[models.Venue]exchange.Connector
	fanout     *Fanout
	history    *History
	risk       riskGate
	logger     *zap.Logger

	lastTradeMu   sync.Mutex
	lastTradeTime time.Time

	seq int64
}

func NewOrderExecutor(cfg *config.Holder, connectors map[models.Venue]exchange.Connector, fanout *Fanout, history *History, logger *zap.Logger) *OrderExecutor {
	return &OrderExecutor{
		cfg:        cfg,
		connectors: connectors,
		fanout:     fanout,
		history:    history,
		logger:     logger,
	}
}

// Run drains in until ctx is cancelled or the channel closes. It never
// retries a failed order and never terminates on a single failed trade;
// only ctx cancellation or a closed channel ends the loop.
func (e *OrderExecutor) Run(ctx context.Context, in <-chan models.ArbitrageOpportunity) {
	for {
		select {
		case <-ctx.Done():
			return
		case opp, ok := <-in:
			if !ok {
				return
			}
			e.process(ctx, opp)
		}
	}
}

func (e *OrderExecutor) process(ctx context.Context, opp models.ArbitrageOpportunity) {
	if !opp.IsActionable {
		return
	}

	cfg := e.cfg.Get()

	if reason := e.risk.check(cfg.Risk, opp.Quantity); reason != "" {
		RecordRiskRejection(reason)
		e.notify(models.NotificationTypeRiskRejected, models.SeverityWarn, "", opp.Pair.String(),
			"risk check rejected opportunity: "+reason)
		return
	}

	if reason, skip := e.checkCooldown(cfg.Risk.CooldownDuration()); skip {
		_ = reason // cooldown skips are silent, not logged as rejections; the operator expects bursts
		return
	}

	var result models.TradeResult
	var err error
	if cfg.Engine.SimulationMode {
		result = e.simulate(opp)
	} else {
		result, err = e.executeLive(ctx, cfg, opp)
		if err != nil {
			e.logger.Error("both legs failed", zap.String("opportunity_id", opp.ID), zap.Error(err))
			e.notify(models.NotificationTypeTradeFailed, models.SeverityError, "", opp.Pair.String(),
				"both legs failed: "+err.Error())
			return
		}
		if result.Status == models.TradeStatusPartial {
			e.notify(models.NotificationTypePartialFill, models.SeverityWarn, "", opp.Pair.String(),
				"only one leg filled for opportunity "+opp.ID)
		}
	}

	e.recordResult(result)
	RecordExecutionLatency(time.Since(opp.DetectedAt))
}

// notify records n in history and publishes it to the fan-out so connected
// /ws clients see it without polling GET /api/notifications.
func (e *OrderExecutor) notify(notifType, severity, venue, pair, message string) {
	n := e.history.RecordNotification(models.Notification{
		Type:     notifType,
		Severity: severity,
		Venue:    venue,
		Pair:     pair,
		Message:  message,
	})
	e.fanout.PublishNotification(n)
}

func (e *OrderExecutor) checkCooldown(cooldown time.Duration) (reason string, skip bool) {
	e.lastTradeMu.Lock()
	defer e.lastTradeMu.Unlock()
	if !e.lastTradeTime.IsZero() && time.Since(e.lastTradeTime) < cooldown {
		return "cooldown", true
	}
	return "", false
}

func (e *OrderExecutor) nextTradeID() string {
	n := atomic.AddInt64(&e.seq, 1)
	return "trade-" + time.Now().UTC().Format("20060102T150405.000000000") + "-" + strconv.FormatInt(n, 10)
}

// simulate synthesizes a Filled TradeResult without calling any venue,
// computing gross/fees/net from the Opportunity's own prices, exactly
// what a live Filled trade would also record.
func (e *OrderExecutor) simulate(opp models.ArbitrageOpportunity) models.TradeResult {
	return tradeFromOpportunity(e.nextTradeID(), opp, models.TradeStatusFilled)
}

// executeLive resolves the buy/sell Connectors and dispatches both legs
// concurrently. Both ok -> Filled. Exactly one ok ->
// PartialFill (profit accounting still uses the Opportunity's intended
// prices, not the single filled leg's realized price: a known,
// intentionally unhedged hazard, see DESIGN.md). Both failed -> error, no
// TradeResult produced.
func (e *OrderExecutor) executeLive(ctx context.Context, cfg *config.Config, opp models.ArbitrageOpportunity) (models.TradeResult, error) {
	buyConn, okBuy := e.connectors[opp.BuyVenue]
	sellConn, okSell := e.connectors[opp.SellVenue]
	if !okBuy || !okSell {
		return models.TradeResult{}, errNoConnector
	}

	orderType := exchange.OrderTypeMarket
	if cfg.Trading.OrderType == "limit" {
		orderType = exchange.OrderTypeLimit
	}

	var buyErr, sellErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, buyErr = buyConn.PlaceOrder(ctx, opp.Pair, exchange.SideBuy, orderType, opp.Quantity, opp.BuyPrice)
	}()
	go func() {
		defer wg.Done()
		_, sellErr = sellConn.PlaceOrder(ctx, opp.Pair, exchange.SideSell, orderType, opp.Quantity, opp.SellPrice)
	}()
	wg.Wait()

	switch {
	case buyErr == nil && sellErr == nil:
		return tradeFromOpportunity(e.nextTradeID(), opp, models.TradeStatusFilled), nil
	case buyErr != nil && sellErr != nil:
		return models.TradeResult{}, errBothLegsFailed
	default:
		return tradeFromOpportunity(e.nextTradeID(), opp, models.TradeStatusPartial), nil
	}
}

func (e *OrderExecutor) recordResult(t models.TradeResult) {
	e.history.RecordTrade(t)
	e.fanout.PublishTrade(t)
	RecordTrade(t.Pair.String(), string(t.Status))

	if t.NetProfit.Sign() < 0 {
		e.risk.recordLoss(t.NetProfit.Neg())
	}

	e.lastTradeMu.Lock()
	e.lastTradeTime = t.ExecutedAt
	e.lastTradeMu.Unlock()
}

// tradeFromOpportunity computes gross/fees/net the same way the Opportunity
// itself was priced: gross = qty*(sell-buy); fees = qty*buy*buyFee% +
// qty*sell*sellFee%; net = gross - fees. The Opportunity doesn't carry the
// two fee percentages forward, but its own PotentialProfit was computed
// with this identical formula, so it is reused directly as NetProfit.
func tradeFromOpportunity(id string, opp models.ArbitrageOpportunity, status models.TradeStatus) models.TradeResult {
	gross := opp.Quantity.Mul(opp.SellPrice.Sub(opp.BuyPrice))
	net := opp.PotentialProfit
	fees := gross.Sub(net)

	return models.TradeResult{
		ID:            id,
		OpportunityID: opp.ID,
		Pair:          opp.Pair,
		BuyVenue:      opp.BuyVenue,
		SellVenue:     opp.SellVenue,
		BuyPrice:      opp.BuyPrice,
		SellPrice:     opp.SellPrice,
		Quantity:      opp.Quantity,
		GrossProfit:   gross,
		Fees:          fees,
		NetProfit:     net,
		Status:        status,
		ExecutedAt:    time.Now(),
	}
}

var (
	errNoConnector    = errExecutor("no connector for one or both venues")
	errBothLegsFailed = errExecutor("both legs failed")
)

type errExecutor string

func (e errExecutor) Error() string { return string(e) }
