package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"arbitrage/internal/models"
)

func newTestBybit() *Bybit {
	return NewBybit("test-key", "test-secret", decimal.NewFromFloat(0.1), zap.NewNop())
}

// registerBybitSub wires a symbol's channel and pair directly, bypassing
// SubscribeTicker so no socket is ever dialed.
func registerBybitSub(b *Bybit, pair models.TradingPair) chan models.Ticker {
	symbol := pair.Symbol(models.VenueBybit)
	ch := make(chan models.Ticker, 16)
	b.subMu.Lock()
	b.subscribed[symbol] = ch
	b.pairs[symbol] = pair
	b.subMu.Unlock()
	return ch
}

func TestBybit_Sign(t *testing.T) {
	b := newTestBybit()
	got := b.sign("1700000000000", "category=spot&symbol=BTCUSDT")
	want := "0048edf42c4979197cec265d4f090ffe6c30d7dec8782e4e6a26b51c2703cbf9"
	if got != want {
		t.Errorf("sign() = %s, want %s", got, want)
	}
}

func TestBybit_HandleMessage_FullFrame(t *testing.T) {
	b := newTestBybit()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	ch := registerBybitSub(b, pair)

	b.handleMessage([]byte(`{
		"topic": "tickers.BTCUSDT",
		"data": {"symbol":"BTCUSDT","bid1Price":"50000","ask1Price":"50010","lastPrice":"50005","volume24h":"1234.5"}
	}`))

	select {
	case tk := <-ch:
		if tk.Venue != models.VenueBybit {
			t.Errorf("venue = %s, want bybit", tk.Venue)
		}
		if tk.Pair != pair {
			t.Errorf("pair = %s, want %s", tk.Pair, pair)
		}
		if !tk.Bid.Equal(decimal.NewFromInt(50000)) || !tk.Ask.Equal(decimal.NewFromInt(50010)) {
			t.Errorf("bid/ask = %s/%s, want 50000/50010", tk.Bid, tk.Ask)
		}
	default:
		t.Fatal("expected a ticker to be emitted")
	}
}

// TestBybit_HandleMessage_DeltaFrames: delta frames omit fields; the
// connector must carry the last-known bid/ask forward and only update the
// sides present in the current frame.
func TestBybit_HandleMessage_DeltaFrames(t *testing.T) {
	b := newTestBybit()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	ch := registerBybitSub(b, pair)

	b.handleMessage([]byte(`{"topic":"tickers.BTCUSDT","data":{"symbol":"BTCUSDT","bid1Price":"50000","ask1Price":"50010"}}`))
	<-ch

	// Delta carrying only a new ask: bid must persist.
	b.handleMessage([]byte(`{"topic":"tickers.BTCUSDT","data":{"symbol":"BTCUSDT","ask1Price":"50020"}}`))

	select {
	case tk := <-ch:
		if !tk.Bid.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("expected last-known bid 50000 carried forward, got %s", tk.Bid)
		}
		if !tk.Ask.Equal(decimal.NewFromInt(50020)) {
			t.Errorf("expected updated ask 50020, got %s", tk.Ask)
		}
	default:
		t.Fatal("expected a ticker from the delta frame")
	}
}

// TestBybit_HandleMessage_LastPriceFallback: when no bid/ask has ever been
// seen, lastPrice stands in for both sides so detection is not stalled by
// the first frame.
func TestBybit_HandleMessage_LastPriceFallback(t *testing.T) {
	b := newTestBybit()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	ch := registerBybitSub(b, pair)

	b.handleMessage([]byte(`{"topic":"tickers.BTCUSDT","data":{"symbol":"BTCUSDT","lastPrice":"50005"}}`))

	select {
	case tk := <-ch:
		if !tk.Bid.Equal(decimal.NewFromInt(50005)) || !tk.Ask.Equal(decimal.NewFromInt(50005)) {
			t.Errorf("expected symmetric lastPrice fallback, got bid=%s ask=%s", tk.Bid, tk.Ask)
		}
	default:
		t.Fatal("expected a ticker via the lastPrice fallback")
	}
}

// TestBybit_HandleMessage_SuppressesInvalid: a frame that leaves both sides
// non-positive must not emit anything.
func TestBybit_HandleMessage_SuppressesInvalid(t *testing.T) {
	b := newTestBybit()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	ch := registerBybitSub(b, pair)

	b.handleMessage([]byte(`{"topic":"tickers.BTCUSDT","data":{"symbol":"BTCUSDT","bid1Price":"not-a-number"}}`))

	select {
	case tk := <-ch:
		t.Fatalf("expected suppression for an unusable frame, got %+v", tk)
	default:
	}
}

// TestBybit_HandleMessage_IgnoresControlFrames: subscription confirmations
// and pong echoes must never reach the ticker channel.
func TestBybit_HandleMessage_IgnoresControlFrames(t *testing.T) {
	b := newTestBybit()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	ch := registerBybitSub(b, pair)

	b.handleMessage([]byte(`{"op":"subscribe","success":true,"conn_id":"abc"}`))
	b.handleMessage([]byte(`{"op":"pong"}`))
	b.handleMessage([]byte(`not json at all`))

	select {
	case tk := <-ch:
		t.Fatalf("expected control frames to be filtered, got %+v", tk)
	default:
	}
}

func TestBybit_HandleMessage_UnsubscribedSymbol(t *testing.T) {
	b := newTestBybit()
	// No subscription registered at all; must not panic.
	b.handleMessage([]byte(`{"topic":"tickers.ETHUSDT","data":{"symbol":"ETHUSDT","bid1Price":"3000","ask1Price":"3001"}}`))
}
