package bot

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arbitrage/internal/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// TestEvaluateSpread_PositiveSpread exercises a basic positive spread: venues A
// and B both at 0.1% fee, qty 0.01, A quoting 50000/50010 and B quoting
// 50200/50210.
func TestEvaluateSpread_PositiveSpread(t *testing.T) {
	res, ok := evaluateSpread(d("50010"), d("50200"), d("0.1"), d("0.1"), d("0.01"))
	if !ok {
		t.Fatal("expected ok=true for two positive prices")
	}

	wantSpread := d("0.3799")
	if diff := res.spreadPct.Sub(wantSpread).Abs(); diff.GreaterThan(d("0.0001")) {
		t.Errorf("spreadPct = %s, want ~%s", res.spreadPct, wantSpread)
	}

	wantNet := d("0.1799")
	if diff := res.netSpreadPct.Sub(wantNet).Abs(); diff.GreaterThan(d("0.0001")) {
		t.Errorf("netSpreadPct = %s, want ~%s", res.netSpreadPct, wantNet)
	}

	wantProfit := d("0.8979")
	if diff := res.potentialProfit.Sub(wantProfit).Abs(); diff.GreaterThan(d("0.0001")) {
		t.Errorf("potentialProfit = %s, want ~%s", res.potentialProfit, wantProfit)
	}
}

// TestEvaluateSpread_NonPositivePrices: a zero price on either
// side must skip the direction entirely, never emit a zeroed result.
func TestEvaluateSpread_NonPositivePrices(t *testing.T) {
	cases := []struct {
		name      string
		buy, sell decimal.Decimal
	}{
		{"zero buy", decimal.Zero, d("50000")},
		{"zero sell", d("50000"), decimal.Zero},
		{"negative buy", d("-1"), d("50000")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := evaluateSpread(tc.buy, tc.sell, d("0.1"), d("0.1"), d("0.01")); ok {
				t.Errorf("expected ok=false for %s", tc.name)
			}
		})
	}
}

// TestEvaluateSpread_NetSpreadMonotonicity asserts
// net_spread_pct + buy_fee_pct + sell_fee_pct == spread_pct.
func TestEvaluateSpread_NetSpreadMonotonicity(t *testing.T) {
	res, ok := evaluateSpread(d("100"), d("105"), d("0.2"), d("0.3"), d("1"))
	if !ok {
		t.Fatal("expected ok=true")
	}
	reconstructed := res.netSpreadPct.Add(d("0.2")).Add(d("0.3"))
	if !reconstructed.Equal(res.spreadPct) {
		t.Errorf("net + fees = %s, want spreadPct %s", reconstructed, res.spreadPct)
	}
}

// TestDirectionOpportunity_EmissionGate: emission
// requires net_spread_pct strictly greater than min_spread_pct.
func TestDirectionOpportunity_EmissionGate(t *testing.T) {
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	newID := func() string { return "test-id" }
	now := time.Now()

	// min_spread_pct = 0.1, net ~0.1794 -> emitted.
	if _, ok := directionOpportunity(pair, models.VenueBybit, models.VenueBitget,
		d("50010"), d("50200"), d("0.1"), d("0.1"), d("0.01"), d("0.1"), now, newID); !ok {
		t.Error("expected emission at min_spread_pct=0.1")
	}

	// Same prices, min_spread_pct = 0.5 -> net (~0.1799) does not clear -> no emission.
	if _, ok := directionOpportunity(pair, models.VenueBybit, models.VenueBitget,
		d("50010"), d("50200"), d("0.1"), d("0.1"), d("0.01"), d("0.5"), now, newID); ok {
		t.Error("expected no emission at min_spread_pct=0.5")
	}
}

// TestDirectionOpportunity_Actionability: is_actionable
// holds iff net_spread_pct > 0, independent of the emission threshold.
func TestDirectionOpportunity_Actionability(t *testing.T) {
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	newID := func() string { return "test-id" }
	now := time.Now()

	// min_spread_pct set below zero so a marginally-positive net spread is
	// emitted, letting us check IsActionable directly against a known-good
	// net spread.
	opp, ok := directionOpportunity(pair, models.VenueBybit, models.VenueBitget,
		d("50010"), d("50200"), d("0.1"), d("0.1"), d("0.01"), d("-1"), now, newID)
	if !ok {
		t.Fatal("expected emission")
	}
	if !opp.IsActionable {
		t.Error("expected IsActionable=true for positive net spread")
	}

	// A net spread that clears a negative threshold but is itself
	// non-positive must be emitted-but-not-actionable.
	opp2, ok := directionOpportunity(pair, models.VenueBybit, models.VenueBitget,
		d("50000"), d("50000"), d("0.1"), d("0.1"), d("0.01"), d("-1"), now, newID)
	if !ok {
		t.Fatal("expected emission for flat spread under a negative threshold")
	}
	if opp2.IsActionable {
		t.Error("expected IsActionable=false for non-positive net spread")
	}
}

// TestDirectionOpportunity_ReverseDirection asserts the reverse direction is
// evaluated symmetrically.
func TestDirectionOpportunity_ReverseDirection(t *testing.T) {
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	newID := func() string { return "test-id" }
	now := time.Now()

	// Buy on B at 50010, sell on A at 50300.
	opp, ok := directionOpportunity(pair, models.VenueBitget, models.VenueBybit,
		d("50010"), d("50300"), d("0.1"), d("0.1"), d("0.01"), d("0.1"), now, newID)
	if !ok {
		t.Fatal("expected emission for the reverse direction")
	}
	if opp.BuyVenue != models.VenueBitget || opp.SellVenue != models.VenueBybit {
		t.Errorf("got buy=%s sell=%s, want buy=bitget sell=bybit", opp.BuyVenue, opp.SellVenue)
	}
}
