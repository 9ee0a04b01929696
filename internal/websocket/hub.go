package websocket

import (
	"bytes"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"arbitrage/internal/models"
)

// jsonBufferPool avoids an allocation per broadcast for the common case of
// many clients sharing one encoded message.
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub is the control-plane's /ws fan-out: every connected client receives
// every message broadcast through it. Its Broadcast* helpers wrap each
// Ticker, Opportunity, Trade, status or Notification in a models.WsMessage
// envelope before encoding; Seed returns messages already wrapped.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *zap.Logger

	// Seed, if set, is called once per newly registered client (from the
	// Run goroutine, so it must not block) to build the connect-time
	// snapshot: current status, then one ticker per cached
	// (venue, pair).
	Seed func() []models.WsMessage
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run is the Hub's single goroutine; it owns the clients map and must be
// started once with `go hub.Run()` before any client connects.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.seedClient(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var slow []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}

			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				h.logger.Warn("dropped slow websocket clients", zap.Int("count", len(slow)))
			}
		}
	}
}

func (h *Hub) seedClient(client *Client) {
	if h.Seed == nil {
		return
	}
	for _, msg := range h.Seed() {
		data, err := encode(msg)
		if err != nil {
			h.logger.Warn("failed to encode seed message", zap.Error(err))
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client send buffer full during seed, dropping")
		}
	}
}

func encode(v interface{}) ([]byte, error) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer jsonBufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (h *Hub) broadcastMessage(msg models.WsMessage) {
	data, err := encode(msg)
	if err != nil {
		h.logger.Warn("failed to encode websocket message", zap.Error(err))
		return
	}
	h.broadcast <- data
}

// BroadcastTicker, BroadcastOpportunity, BroadcastTrade and
// BroadcastNotification are called by the single fan-out forwarder
// goroutine, which drains all four Fanout channels; BroadcastStatus is
// called by the periodic status push.
func (h *Hub) BroadcastTicker(t models.Ticker)                    { h.broadcastMessage(newTickerMessage(t)) }
func (h *Hub) BroadcastOpportunity(o models.ArbitrageOpportunity) { h.broadcastMessage(newOpportunityMessage(o)) }
func (h *Hub) BroadcastTrade(t models.TradeResult)                { h.broadcastMessage(newTradeMessage(t)) }
func (h *Hub) BroadcastStatus(s models.EngineStatus)              { h.broadcastMessage(newStatusMessage(s)) }
func (h *Hub) BroadcastNotification(n models.Notification)        { h.broadcastMessage(newNotificationMessage(n)) }

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
