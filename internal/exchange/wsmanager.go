package exchange

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// backoffFloor is the fixed reconnect delay mandated by the design: no
// exponential escalation, a flat 1-second floor so one bad pair's reconnect
// storm can never starve the others.
const backoffFloor = 1 * time.Second

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 10 * time.Second
)

// heartbeatWriter writes one liveness frame on the given connection. Bybit
// writes a JSON {"op":"ping"} frame; Bitget writes the literal text "ping".
type heartbeatWriter func(conn *websocket.Conn) error

// WSManagerConfig parameterizes a WSManager for one venue's public stream.
type WSManagerConfig struct {
	ExchangeName      string
	URL               string
	HeartbeatInterval time.Duration
	Heartbeat         heartbeatWriter
}

// WSManager drives a single venue WebSocket connection through
// DISCONNECTED -> CONNECTING -> SUBSCRIBING -> RECEIVING -> BACKOFF -> ...
// with a fixed 1s backoff floor, per-venue heartbeat cadence, and
// subscription replay on reconnect. One manager is shared by every pair
// subscribed on a venue's public stream; the venue multiplexes symbols
// over a single socket, so the reconnect/heartbeat lifecycle is naturally
// per-connection rather than per-pair, even though the state machine in the
// design doc is drawn per (connector, pair).
type WSManager struct {
	cfg    WSManagerConfig
	logger *zap.Logger

	state int32 // atomic ConnState

	connMu sync.RWMutex
	conn   *websocket.Conn

	heartbeatCancel context.CancelFunc
	heartbeatMu     sync.Mutex

	subsMu sync.RWMutex
	subs   []interface{}

	onMessage func([]byte)
	cbMu      sync.RWMutex

	closeCh   chan struct{}
	closeOnce sync.Once
}

func NewWSManager(cfg WSManagerConfig, logger *zap.Logger) *WSManager {
	return &WSManager{
		cfg:     cfg,
		logger:  logger,
		closeCh: make(chan struct{}),
	}
}

func (m *WSManager) SetOnMessage(fn func([]byte)) {
	m.cbMu.Lock()
	m.onMessage = fn
	m.cbMu.Unlock()
}

func (m *WSManager) State() ConnState {
	return ConnState(atomic.LoadInt32(&m.state))
}

func (m *WSManager) setState(s ConnState) {
	prev := ConnState(atomic.SwapInt32(&m.state, int32(s)))
	if prev != s && !CanTransition(prev, s) {
		m.logger.Debug("unexpected connection state transition",
			zap.String("venue", m.cfg.ExchangeName),
			zap.String("from", prev.String()),
			zap.String("to", s.String()))
	}
}

// AddSubscription records a subscribe frame to be replayed on every
// (re)connect, and sends it immediately if already connected.
func (m *WSManager) AddSubscription(frame interface{}) error {
	m.subsMu.Lock()
	m.subs = append(m.subs, frame)
	m.subsMu.Unlock()

	if m.State() == StateReceiving {
		return m.send(frame)
	}
	return nil
}

// Connect starts the connect/receive loop in a background goroutine and
// returns at once; dialing, subscribing, heartbeats and every reconnect via
// the BACKOFF loop happen on that goroutine. It fails only when the manager
// has already been closed.
func (m *WSManager) Connect(ctx context.Context) error {
	select {
	case <-m.closeCh:
		return fmt.Errorf("%s: manager closed", m.cfg.ExchangeName)
	default:
	}

	go m.runLoop(ctx)
	return nil
}

func (m *WSManager) runLoop(ctx context.Context) {
	for {
		select {
		case <-m.closeCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := m.connectOnce(ctx); err != nil {
			m.logger.Warn("connect failed, entering backoff",
				zap.String("venue", m.cfg.ExchangeName), zap.Error(err))
			m.setState(StateBackoff)
			RecordReconnect(m.cfg.ExchangeName)
			select {
			case <-time.After(backoffFloor):
			case <-m.closeCh:
				return
			case <-ctx.Done():
				return
			}
			continue
		}

		// RECEIVING until the read pump returns (socket closed/errored).
		m.readPump(ctx)

		select {
		case <-m.closeCh:
			return
		case <-ctx.Done():
			return
		default:
		}
		m.setState(StateBackoff)
		RecordReconnect(m.cfg.ExchangeName)
		select {
		case <-time.After(backoffFloor):
		case <-m.closeCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *WSManager) connectOnce(parent context.Context) error {
	m.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(parent, connectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: connectTimeout}
	conn, _, err := dialer.DialContext(dialCtx, m.cfg.URL, nil)
	if err != nil {
		return newErr(m.cfg.ExchangeName, ErrConnection, "dial failed", err)
	}

	m.connMu.Lock()
	m.conn = conn
	m.connMu.Unlock()

	m.setState(StateSubscribing)

	subCtx, subCancel := context.WithTimeout(parent, subscribeTimeout)
	defer subCancel()
	if err := m.resubscribe(subCtx); err != nil {
		conn.Close()
		return newErr(m.cfg.ExchangeName, ErrWebSocket, "subscribe failed", err)
	}

	m.setState(StateReceiving)
	m.startHeartbeat()
	m.logger.Info("connected", zap.String("venue", m.cfg.ExchangeName))
	return nil
}

func (m *WSManager) resubscribe(ctx context.Context) error {
	m.subsMu.RLock()
	frames := make([]interface{}, len(m.subs))
	copy(frames, m.subs)
	m.subsMu.RUnlock()

	for _, f := range frames {
		if err := m.send(f); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (m *WSManager) startHeartbeat() {
	m.heartbeatMu.Lock()
	defer m.heartbeatMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	m.heartbeatCancel = cancel

	go func() {
		ticker := time.NewTicker(m.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.closeCh:
				return
			case <-ticker.C:
				if m.State() != StateReceiving {
					return
				}
				m.connMu.RLock()
				conn := m.conn
				m.connMu.RUnlock()
				if conn == nil || m.cfg.Heartbeat == nil {
					continue
				}
				if err := m.cfg.Heartbeat(conn); err != nil {
					m.logger.Warn("heartbeat write failed", zap.String("venue", m.cfg.ExchangeName), zap.Error(err))
					return
				}
			}
		}
	}()
}

func (m *WSManager) stopHeartbeat() {
	m.heartbeatMu.Lock()
	if m.heartbeatCancel != nil {
		m.heartbeatCancel()
		m.heartbeatCancel = nil
	}
	m.heartbeatMu.Unlock()
}

func (m *WSManager) readPump(ctx context.Context) {
	defer m.stopHeartbeat()

	m.connMu.RLock()
	conn := m.conn
	m.connMu.RUnlock()
	if conn == nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			m.connMu.Lock()
			if m.conn != nil {
				m.conn.Close()
				m.conn = nil
			}
			m.connMu.Unlock()
			return
		}

		// Literal ping/pong text frames (Bitget). Answer a ping with a
		// pong; never hand either to the ticker parser.
		if body := string(msg); body == "ping" || body == "pong" {
			if body == "ping" {
				m.send("pong")
			}
			continue
		}

		m.cbMu.RLock()
		cb := m.onMessage
		m.cbMu.RUnlock()
		if cb != nil {
			cb(msg)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (m *WSManager) send(v interface{}) error {
	m.connMu.RLock()
	conn := m.conn
	m.connMu.RUnlock()
	if conn == nil {
		return fmt.Errorf("%s: not connected", m.cfg.ExchangeName)
	}
	if s, ok := v.(string); ok {
		return conn.WriteMessage(websocket.TextMessage, []byte(s))
	}
	return conn.WriteJSON(v)
}

// Send exposes send for venue connectors that need to push an ad hoc frame
// (e.g. a late subscription) outside of AddSubscription's replay list.
func (m *WSManager) Send(v interface{}) error {
	return m.send(v)
}

func (m *WSManager) Close() error {
	m.closeOnce.Do(func() {
		close(m.closeCh)
	})
	m.stopHeartbeat()
	m.connMu.Lock()
	defer m.connMu.Unlock()
	if m.conn != nil {
		err := m.conn.Close()
		m.conn = nil
		return err
	}
	return nil
}
