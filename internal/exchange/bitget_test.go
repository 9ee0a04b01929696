package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"arbitrage/internal/models"
)

func newTestBitget() *Bitget {
	return NewBitget("test-key", "test-secret", "test-pass", decimal.NewFromFloat(0.1), zap.NewNop())
}

func registerBitgetSub(b *Bitget, pair models.TradingPair) chan models.Ticker {
	symbol := pair.Symbol(models.VenueBitget)
	ch := make(chan models.Ticker, 16)
	b.subMu.Lock()
	b.subscribed[symbol] = ch
	b.pairs[symbol] = pair
	b.subMu.Unlock()
	return ch
}

func TestBitget_Sign(t *testing.T) {
	b := newTestBitget()
	got := b.sign("1700000000000", "GET", "/api/v2/spot/account/assets", "")
	want := "NWgiyXfUwDZ1wyMDarowE42SSc2pILk98Lup40soRJY="
	if got != want {
		t.Errorf("sign() = %s, want %s", got, want)
	}
}

func TestBitget_HandleMessage_CurrentFields(t *testing.T) {
	b := newTestBitget()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	ch := registerBitgetSub(b, pair)

	b.handleMessage([]byte(`{
		"arg": {"instType":"SPOT","channel":"ticker","instId":"BTCUSDT"},
		"data": [{"bidPr":"50200","askPr":"50210","lastPr":"50205","baseVolume":"987.6"}]
	}`))

	select {
	case tk := <-ch:
		if tk.Venue != models.VenueBitget || tk.Pair != pair {
			t.Errorf("venue/pair = %s/%s, want bitget/%s", tk.Venue, tk.Pair, pair)
		}
		if !tk.Bid.Equal(decimal.NewFromInt(50200)) || !tk.Ask.Equal(decimal.NewFromInt(50210)) {
			t.Errorf("bid/ask = %s/%s, want 50200/50210", tk.Bid, tk.Ask)
		}
	default:
		t.Fatal("expected a ticker to be emitted")
	}
}

// TestBitget_HandleMessage_LegacyAliases: frames using the older field
// names (bestBid/bestAsk/last/baseVol) must still parse.
func TestBitget_HandleMessage_LegacyAliases(t *testing.T) {
	b := newTestBitget()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	ch := registerBitgetSub(b, pair)

	b.handleMessage([]byte(`{
		"arg": {"instType":"SPOT","channel":"ticker","instId":"BTCUSDT"},
		"data": [{"bestBid":"50200","bestAsk":"50210","last":"50205","baseVol":"987.6"}]
	}`))

	select {
	case tk := <-ch:
		if !tk.Bid.Equal(decimal.NewFromInt(50200)) || !tk.Ask.Equal(decimal.NewFromInt(50210)) {
			t.Errorf("bid/ask = %s/%s, want 50200/50210 via legacy aliases", tk.Bid, tk.Ask)
		}
	default:
		t.Fatal("expected a ticker from the legacy-alias frame")
	}
}

func TestBitget_HandleMessage_IgnoresControlFrames(t *testing.T) {
	b := newTestBitget()
	pair := models.TradingPair{Base: "BTC", Quote: "USDT"}
	ch := registerBitgetSub(b, pair)

	b.handleMessage([]byte(`{"event":"subscribe","arg":{"instType":"SPOT","channel":"ticker","instId":"BTCUSDT"}}`))
	b.handleMessage([]byte(`{"arg":{"channel":"trade","instId":"BTCUSDT"},"data":[{}]}`))

	select {
	case tk := <-ch:
		t.Fatalf("expected control/off-channel frames to be filtered, got %+v", tk)
	default:
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "fallback"); got != "fallback" {
		t.Errorf("firstNonEmpty = %q, want fallback", got)
	}
	if got := firstNonEmpty("primary", "fallback"); got != "primary" {
		t.Errorf("firstNonEmpty = %q, want primary", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty = %q, want empty", got)
	}
}
