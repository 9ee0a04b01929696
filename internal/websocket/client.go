package websocket

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds an inbound client frame. Clients only send
	// ping/close control frames in this protocol, so this is generous
	// headroom rather than a tuned limit.
	maxMessageSize = 65536

	clientSendBufferSize = 512
)

// originChecker does an O(1) allow-list lookup against ALLOWED_ORIGINS
// (comma-separated). An empty or "*" value allows everything, which is the
// default for local/dev use.
type originChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

var defaultOriginChecker = newOriginChecker(os.Getenv("ALLOWED_ORIGINS"))

func newOriginChecker(env string) *originChecker {
	oc := &originChecker{allowed: make(map[string]struct{})}
	if env == "" || env == "*" {
		oc.allowAll = true
		return oc
	}
	for _, origin := range strings.Split(env, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			oc.allowed[origin] = struct{}{}
		}
	}
	return oc
}

func (oc *originChecker) Check(origin string) bool {
	if origin == "" {
		return true // non-browser clients (curl, scripts, server-to-server)
	}
	if oc.allowAll {
		return true
	}
	_, ok := oc.allowed[origin]
	return ok
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return defaultOriginChecker.Check(r.Header.Get("Origin"))
	},
	EnableCompression: true,
}

// Client is one /ws connection. It has two goroutines: readPump drains
// client frames (only meaningful for pong/close here), writePump drains
// the Hub-fed send channel and pings on an idle timer.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	logger *zap.Logger
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		// Inbound frames carry no commands in this protocol; only
		// ping/pong and close matter, both handled by gorilla/websocket
		// and the pong handler above.
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

		drainLoop:
			for {
				select {
				case msg, ok := <-c.send:
					if !ok {
						break drainLoop
					}
					w.Write([]byte{'\n'})
					w.Write(msg)
				default:
					break drainLoop
				}
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades an HTTP request to a websocket connection, registers the
// new Client with hub and starts its pumps. Mount as the handler for /ws.
// One connection per call is not a hot path, so each gets a freshly
// allocated send channel rather than a pooled one; reusing a channel the
// Hub may have closed on disconnect would risk a send on a closed channel.
func ServeWS(hub *Hub, logger *zap.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		hub:    hub,
		logger: logger,
		send:   make(chan []byte, clientSendBufferSize),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
