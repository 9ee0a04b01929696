package bot

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"arbitrage/internal/config"
	"arbitrage/internal/models"
)

func newTestDetector(minSpreadPct string) (*ArbitrageDetector, *PriceCache, chan models.ArbitrageOpportunity, *Fanout, *History) {
	cache := NewPriceCache()
	cfg := config.NewHolder(&config.Config{
		Engine:  config.EngineConfig{MinSpreadPct: d(minSpreadPct)},
		Trading: config.TradingConfig{MaxTradeQty: d("0.01")},
	})
	fees := VenueFees{models.VenueBybit: d("0.1"), models.VenueBitget: d("0.1")}
	venues := []models.Venue{models.VenueBybit, models.VenueBitget}
	toExec := make(chan models.ArbitrageOpportunity, 16)
	fanout := NewFanout()
	history := NewHistory()
	det := NewArbitrageDetector(cache, cfg, fees, venues, toExec, fanout, history, zap.NewNop())
	return det, cache, toExec, fanout, history
}

// TestDetector_BasicPositiveSpread feeds venue A
// then B should publish one Opportunity buying on A and selling on B.
func TestDetector_BasicPositiveSpread(t *testing.T) {
	det, _, toExec, _, history := newTestDetector("0.1")
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}

	det.OnTicker(models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("50000"), Ask: d("50010"), Timestamp: time.Now()})
	// No opposite-venue price cached yet: nothing should be emitted.
	select {
	case o := <-toExec:
		t.Fatalf("unexpected opportunity before a second venue published: %+v", o)
	default:
	}

	det.OnTicker(models.Ticker{Venue: models.VenueBitget, Pair: pair, Bid: d("50200"), Ask: d("50210"), Timestamp: time.Now()})

	select {
	case o := <-toExec:
		if o.BuyVenue != models.VenueBybit || o.SellVenue != models.VenueBitget {
			t.Errorf("expected buy bybit/sell bitget, got buy=%s sell=%s", o.BuyVenue, o.SellVenue)
		}
		if !o.BuyPrice.Equal(d("50010")) || !o.SellPrice.Equal(d("50200")) {
			t.Errorf("expected buy@50010 sell@50200, got buy@%s sell@%s", o.BuyPrice, o.SellPrice)
		}
		if !o.IsActionable {
			t.Error("expected IsActionable=true")
		}
	case <-time.After(time.Second):
		t.Fatal("expected an opportunity once both venues have published")
	}

	if history.Snapshot().OpportunitiesSeen == 0 {
		t.Error("expected history to record the opportunity")
	}
}

// TestDetector_SubThreshold asserts that the same prices with a higher
// min_spread_pct suppresses emission.
func TestDetector_SubThreshold(t *testing.T) {
	det, _, toExec, _, _ := newTestDetector("0.5")
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}

	det.OnTicker(models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("50000"), Ask: d("50010")})
	det.OnTicker(models.Ticker{Venue: models.VenueBitget, Pair: pair, Bid: d("50200"), Ask: d("50210")})

	select {
	case o := <-toExec:
		t.Fatalf("expected no opportunity below the emission threshold, got %+v", o)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestDetector_ZeroQuote asserts a venue publishing bid=ask=0 never
// produces an opportunity against it.
func TestDetector_ZeroQuote(t *testing.T) {
	det, _, toExec, _, _ := newTestDetector("0.1")
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}

	det.OnTicker(models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("0"), Ask: d("0")})
	det.OnTicker(models.Ticker{Venue: models.VenueBitget, Pair: pair, Bid: d("50000"), Ask: d("50010")})

	select {
	case o := <-toExec:
		t.Fatalf("expected no opportunity against a zero-priced venue, got %+v", o)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestDetector_OnlyOneVenue: no comparison is possible with a single
// venue's data cached.
func TestDetector_OnlyOneVenue(t *testing.T) {
	det, _, toExec, _, _ := newTestDetector("0.1")
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}

	det.OnTicker(models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("50000"), Ask: d("50010")})

	select {
	case o := <-toExec:
		t.Fatalf("expected no opportunity with only one venue publishing, got %+v", o)
	case <-time.After(100 * time.Millisecond):
	}
}

// TestDetector_WriteThroughBeforeCompare ensures the detector's own tick
// also updates the cache before comparison (write-through happens even on
// the very first tick for a pair).
func TestDetector_WriteThroughBeforeCompare(t *testing.T) {
	det, cache, _, _, _ := newTestDetector("0.1")
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}

	det.OnTicker(models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("50000"), Ask: d("50010")})

	got, ok := cache.Get(models.VenueBybit, pair)
	if !ok || !got.Ask.Equal(d("50010")) {
		t.Error("expected the cache to reflect the just-processed tick")
	}
}
