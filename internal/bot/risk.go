package bot

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"arbitrage/internal/config"
)

// riskGate rejects an Opportunity before it reaches order dispatch. It owns
// the one piece of state the gate itself needs, cumulative daily loss,
// under a short-held mutex; no lock is ever held across the I/O in order
// dispatch.
//
// "Daily" is resolved as a rolling UTC calendar day: the accumulator resets
// the first time it's touched on a new UTC date, rather than running for
// the process's entire lifetime. UTC midnight is the natural reset boundary
// since every venue timestamp elsewhere in this codebase is UTC.
type riskGate struct {
	mu         sync.Mutex
	dailyLoss  decimal.Decimal
	resetOnDay string // YYYY-MM-DD (UTC) the current dailyLoss accrued against
}

// rolloverLocked resets dailyLoss when the UTC date has advanced since the
// last touch. Caller must hold g.mu.
func (g *riskGate) rolloverLocked(now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if g.resetOnDay != day {
		g.resetOnDay = day
		g.dailyLoss = decimal.Zero
	}
}

// check returns an empty reason when the opportunity passes the gate.
func (g *riskGate) check(cfg config.RiskConfig, qty decimal.Decimal) (reject string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rolloverLocked(time.Now())

	if g.dailyLoss.GreaterThanOrEqual(cfg.MaxDailyLoss) {
		return "daily_loss"
	}
	if qty.GreaterThan(cfg.MaxPosition) {
		return "max_position"
	}
	return ""
}

// recordLoss adds loss (already non-negative) to the cumulative daily
// total. Call only when net_profit < 0, with |net_profit|.
func (g *riskGate) recordLoss(loss decimal.Decimal) {
	if loss.Sign() <= 0 {
		return
	}
	g.mu.Lock()
	g.rolloverLocked(time.Now())
	g.dailyLoss = g.dailyLoss.Add(loss)
	g.mu.Unlock()
}

func (g *riskGate) currentDailyLoss() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked(time.Now())
	return g.dailyLoss
}
