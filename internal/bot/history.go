package bot

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"arbitrage/internal/models"
)

// maxOpportunityHistory bounds the in-memory opportunity log to the last
// 1000 opportunities. Trade history is intentionally unbounded within the
// process lifetime: there is no persistence across restarts, and no cap
// on how many trades one run may accumulate.
const maxOpportunityHistory = 1000

// maxNotificationHistory bounds the operator-notification log the same way
// opportunities are bounded: recent activity matters, the full run history
// does not need to live in memory forever.
const maxNotificationHistory = 500

// History holds the immutable-after-creation records the control API reads
// (GET /api/opportunities, GET /api/trades, GET /api/status) plus the
// counters the executor updates on every TradeResult.
type History struct {
	mu sync.RWMutex

	opportunities []models.ArbitrageOpportunity
	trades        []models.TradeResult
	notifications []models.Notification

	tickersProcessed  int64
	opportunitiesSeen int64
	tradesExecuted    int64
	totalProfit       decimal.Decimal
	lastTradeAt       *time.Time

	notificationSeq int64
}

func NewHistory() *History {
	return &History{}
}

func (h *History) RecordTicker() {
	h.mu.Lock()
	h.tickersProcessed++
	h.mu.Unlock()
}

// RecordOpportunity appends o to the bounded ring, dropping the oldest
// entry once the cap is reached.
func (h *History) RecordOpportunity(o models.ArbitrageOpportunity) {
	h.mu.Lock()
	h.opportunitiesSeen++
	h.opportunities = append(h.opportunities, o)
	if len(h.opportunities) > maxOpportunityHistory {
		h.opportunities = h.opportunities[len(h.opportunities)-maxOpportunityHistory:]
	}
	h.mu.Unlock()
}

// RecordTrade appends t and folds its net profit into the running total.
func (h *History) RecordTrade(t models.TradeResult) {
	h.mu.Lock()
	h.tradesExecuted++
	h.trades = append(h.trades, t)
	h.totalProfit = h.totalProfit.Add(t.NetProfit)
	at := t.ExecutedAt
	h.lastTradeAt = &at
	h.mu.Unlock()
}

// RecordNotification assigns n an ID and appends it to the bounded ring,
// dropping the oldest entry once the cap is reached.
func (h *History) RecordNotification(n models.Notification) models.Notification {
	n.ID = atomic.AddInt64(&h.notificationSeq, 1)
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	h.mu.Lock()
	h.notifications = append(h.notifications, n)
	if len(h.notifications) > maxNotificationHistory {
		h.notifications = h.notifications[len(h.notifications)-maxNotificationHistory:]
	}
	h.mu.Unlock()

	return n
}

func (h *History) Notifications() []models.Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.Notification, len(h.notifications))
	copy(out, h.notifications)
	return out
}

func (h *History) Opportunities() []models.ArbitrageOpportunity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.ArbitrageOpportunity, len(h.opportunities))
	copy(out, h.opportunities)
	return out
}

func (h *History) Trades() []models.TradeResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.TradeResult, len(h.trades))
	copy(out, h.trades)
	return out
}

// Counters is a point-in-time snapshot used to assemble EngineStatus.
type Counters struct {
	TickersProcessed  int64
	OpportunitiesSeen int64
	TradesExecuted    int64
	TotalProfit       decimal.Decimal
	LastTradeAt       *time.Time
}

func (h *History) Snapshot() Counters {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Counters{
		TickersProcessed:  h.tickersProcessed,
		OpportunitiesSeen: h.opportunitiesSeen,
		TradesExecuted:    h.tradesExecuted,
		TotalProfit:       h.totalProfit,
		LastTradeAt:       h.lastTradeAt,
	}
}
