package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"arbitrage/internal/models"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zap.NewNop()
}

func TestNewHub(t *testing.T) {
	hub := NewHub(testLogger(t))
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestOriginChecker_Check(t *testing.T) {
	checker := &originChecker{
		allowed: map[string]struct{}{
			"http://localhost:3000": {},
			"https://example.com":   {},
		},
	}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"https://example.com", true},
		{"http://evil.com", false},
		{"http://localhost:8080", false},
	}

	for _, tt := range tests {
		if got := checker.Check(tt.origin); got != tt.want {
			t.Errorf("Check(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOriginChecker_AllowAll(t *testing.T) {
	checker := &originChecker{allowAll: true}

	origins := []string{
		"http://localhost:3000",
		"https://evil.com",
		"http://anything.example.org",
	}
	for _, origin := range origins {
		if !checker.Check(origin) {
			t.Errorf("allowAll=true but Check(%q) = false", origin)
		}
	}
}

func TestHub_BroadcastTicker(t *testing.T) {
	hub := NewHub(testLogger(t))
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, clientSendBufferSize), logger: testLogger(t)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	tk := models.Ticker{
		Venue:     models.VenueBybit,
		Pair:      models.TradingPair{Base: "BTC", Quote: "USDT"},
		Bid:       decimal.NewFromInt(50000),
		Ask:       decimal.NewFromInt(50010),
		Timestamp: time.Now(),
	}
	hub.BroadcastTicker(tk)

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("expected non-empty encoded message")
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast did not reach client")
	}
}

func TestHub_SeedOnConnect(t *testing.T) {
	hub := NewHub(testLogger(t))
	seeded := false
	hub.Seed = func() []models.WsMessage {
		seeded = true
		return []models.WsMessage{{Type: models.WsMessageTypeStatus, Data: models.EngineStatus{}}}
	}
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, clientSendBufferSize), logger: testLogger(t)}
	hub.register <- client

	select {
	case <-client.send:
		if !seeded {
			t.Error("expected Seed to have been invoked")
		}
	case <-time.After(time.Second):
		t.Fatal("seed message never arrived")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub(testLogger(t))
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte), logger: testLogger(t)} // unbuffered, no reader
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastTicker(models.Ticker{Venue: models.VenueBybit, Pair: models.TradingPair{Base: "BTC", Quote: "USDT"}})
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("expected slow client to be dropped, got %d clients", hub.ClientCount())
	}
}

func TestHub_ConcurrentOperations(t *testing.T) {
	hub := NewHub(testLogger(t))
	go hub.Run()

	var wg sync.WaitGroup
	const goroutines = 10
	const operations = 200

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				hub.BroadcastTicker(models.Ticker{Venue: models.VenueBybit, Pair: models.TradingPair{Base: "BTC", Quote: "USDT"}})
			}
		}(i)
	}

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				_ = hub.ClientCount()
			}
		}()
	}

	wg.Wait()
}
