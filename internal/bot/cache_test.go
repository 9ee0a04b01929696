package bot

import (
	"sync"
	"testing"
	"time"

	"arbitrage/internal/models"
)

// TestPriceCache_PutGet asserts cache freshness: after Put(T), Get
// returns T until superseded.
func TestPriceCache_PutGet(t *testing.T) {
	c := NewPriceCache()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	tk := models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("50000"), Ask: d("50010"), Timestamp: time.Now()}

	c.Put(tk)
	got, ok := c.Get(models.VenueBybit, pair)
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if !got.Bid.Equal(tk.Bid) || !got.Ask.Equal(tk.Ask) {
		t.Errorf("got %+v, want %+v", got, tk)
	}
}

func TestPriceCache_Miss(t *testing.T) {
	c := NewPriceCache()
	if _, ok := c.Get(models.VenueBybit, models.TradingPair{Base: "ETH", Quote: "USDT"}); ok {
		t.Error("expected cache miss for unwritten key")
	}
}

// TestPriceCache_LastWriteWins: a later Put for the same key overwrites the
// earlier one, even with an earlier wall-clock timestamp; the cache does
// not enforce monotonicity.
func TestPriceCache_LastWriteWins(t *testing.T) {
	c := NewPriceCache()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}

	older := models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("100"), Ask: d("101"), Timestamp: time.Now()}
	newer := models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("200"), Ask: d("201"), Timestamp: time.Now().Add(-time.Hour)}

	c.Put(older)
	c.Put(newer)

	got, _ := c.Get(models.VenueBybit, pair)
	if !got.Bid.Equal(d("200")) {
		t.Errorf("expected the later Put (bid=200) to win regardless of its older timestamp, got bid=%s", got.Bid)
	}
}

// TestPriceCache_IndependentKeys: distinct (venue, pair) keys never clobber
// each other.
func TestPriceCache_IndependentKeys(t *testing.T) {
	c := NewPriceCache()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}

	c.Put(models.Ticker{Venue: models.VenueBybit, Pair: pair, Bid: d("100"), Ask: d("101")})
	c.Put(models.Ticker{Venue: models.VenueBitget, Pair: pair, Bid: d("200"), Ask: d("201")})

	bybit, _ := c.Get(models.VenueBybit, pair)
	bitget, _ := c.Get(models.VenueBitget, pair)
	if !bybit.Bid.Equal(d("100")) || !bitget.Bid.Equal(d("200")) {
		t.Errorf("expected venues to be tracked independently, got bybit=%s bitget=%s", bybit.Bid, bitget.Bid)
	}
}

func TestPriceCache_Snapshot(t *testing.T) {
	c := NewPriceCache()
	c.Put(models.Ticker{Venue: models.VenueBybit, Pair: models.TradingPair{Base: "BTC", Quote: "USDT"}, Bid: d("1"), Ask: d("2")})
	c.Put(models.Ticker{Venue: models.VenueBitget, Pair: models.TradingPair{Base: "ETH", Quote: "USDT"}, Bid: d("1"), Ask: d("2")})

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Errorf("expected 2 entries in snapshot, got %d", len(snap))
	}
}

// TestPriceCache_ConcurrentAccess exercises the many-writer, many-reader
// pattern of the hot path: writers are per-subscription tasks, the detector
// reads on every tick. The race detector, not an assertion, is the real
// check here.
func TestPriceCache_ConcurrentAccess(t *testing.T) {
	c := NewPriceCache()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Put(models.Ticker{Venue: models.Venue(n % 2), Pair: pair, Bid: d("1"), Ask: d("2")})
				c.Get(models.Venue(n % 2), pair)
				c.Snapshot()
			}
		}(i)
	}
	wg.Wait()
}
