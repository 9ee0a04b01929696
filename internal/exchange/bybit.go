package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"arbitrage/internal/models"
	"arbitrage/pkg/ratelimit"
	"arbitrage/pkg/retry"
)

// json is jsoniter's standard-library-compatible codec. The connector's hot
// path decodes every inbound frame into a typed struct of optional string
// fields before it knows whether it's a ticker delta or a control echo
// (there is no dynamic-tree parse), so parser throughput matters here in a
// way it doesn't for the REST paths below.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	bybitBaseURL    = "https://api.bybit.com"
	bybitWSPublic   = "wss://stream.bybit.com/v5/public/spot"
	bybitRecvWindow = "5000"
	bybitCategory   = "spot"
)

// Bybit is the spot-market Connector for Bybit's v5 API.
type Bybit struct {
	apiKey    string
	secretKey string
	feePct    decimal.Decimal

	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	logger     *zap.Logger

	ws *WSManager

	subMu       sync.Mutex
	subscribed  map[string]chan models.Ticker
	pairs       map[string]models.TradingPair // wire symbol -> pair, for inbound frame routing
	lastTickers map[string]models.Ticker      // last-known bid/ask per symbol, deltas may omit one side
	lastMu      sync.RWMutex
}

func NewBybit(apiKey, secretKey string, feePct decimal.Decimal, logger *zap.Logger) *Bybit {
	return &Bybit{
		apiKey:      apiKey,
		secretKey:   secretKey,
		feePct:      feePct,
		httpClient:  GetGlobalHTTPClient().GetClient(),
		limiter:     ratelimit.NewRateLimiter(10, 20),
		logger:      logger,
		subscribed:  make(map[string]chan models.Ticker),
		pairs:       make(map[string]models.TradingPair),
		lastTickers: make(map[string]models.Ticker),
	}
}

func (b *Bybit) Venue() models.Venue { return models.VenueBybit }

func (b *Bybit) FeePct() decimal.Decimal { return b.feePct }

// sign is the v5 HMAC-SHA256 hex signature: timestamp + apiKey + recvWindow + payload.
func (b *Bybit) sign(timestamp, payload string) string {
	message := timestamp + b.apiKey + bybitRecvWindow + payload
	h := hmac.New(sha256.New, []byte(b.secretKey))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

func (b *Bybit) doRequest(ctx context.Context, method, endpoint string, params map[string]string, signed bool) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody, reqURL string
	if method == http.MethodGet {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		reqBody = query.Encode()
		reqURL = bybitBaseURL + endpoint
		if reqBody != "" {
			reqURL += "?" + reqBody
		}
	} else {
		reqURL = bybitBaseURL + endpoint
		if len(params) > 0 {
			jsonBytes, _ := json.Marshal(params)
			reqBody = string(jsonBytes)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, strings.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if signed {
		timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
		signature := b.sign(timestamp, reqBody)
		req.Header.Set("X-BAPI-API-KEY", b.apiKey)
		req.Header.Set("X-BAPI-SIGN", signature)
		req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
		req.Header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, newErr("bybit", ErrConnection, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newErr("bybit", ErrConnection, "read body failed", err)
	}

	var base struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
	}
	if err := json.Unmarshal(body, &base); err != nil {
		return nil, newErr("bybit", ErrParse, "malformed envelope", err)
	}
	if base.RetCode != 0 {
		return nil, newErr("bybit", ErrAPI, fmt.Sprintf("retCode=%d retMsg=%s", base.RetCode, base.RetMsg), nil)
	}

	return body, nil
}

// doRequestRetryable wraps doRequest for the non-order REST paths, which are
// safe to retry on transient network failure. Order placement never goes
// through this path.
func (b *Bybit) doRequestRetryable(ctx context.Context, method, endpoint string, params map[string]string, signed bool) ([]byte, error) {
	return retry.DoWithResult(ctx, func() ([]byte, error) {
		return b.doRequest(ctx, method, endpoint, params, signed)
	}, retry.NetworkConfig())
}

func (b *Bybit) GetTicker(ctx context.Context, pair models.TradingPair) (models.Ticker, error) {
	symbol := pair.Symbol(models.VenueBybit)
	params := map[string]string{"category": bybitCategory, "symbol": symbol}

	body, err := b.doRequestRetryable(ctx, http.MethodGet, "/v5/market/tickers", params, false)
	if err != nil {
		return models.Ticker{}, err
	}

	var resp struct {
		Result struct {
			List []struct {
				Symbol    string `json:"symbol"`
				Bid1Price string `json:"bid1Price"`
				Ask1Price string `json:"ask1Price"`
				LastPrice string `json:"lastPrice"`
				Volume24h string `json:"volume24h"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Ticker{}, newErr("bybit", ErrParse, "ticker decode failed", err)
	}
	if len(resp.Result.List) == 0 {
		return models.Ticker{}, newErr("bybit", ErrInvalidPair, "no ticker for "+symbol, nil)
	}

	t := resp.Result.List[0]
	bid, _ := decimal.NewFromString(t.Bid1Price)
	ask, _ := decimal.NewFromString(t.Ask1Price)
	last, _ := decimal.NewFromString(t.LastPrice)
	vol, _ := decimal.NewFromString(t.Volume24h)

	return models.Ticker{
		Venue:     models.VenueBybit,
		Pair:      pair,
		Bid:       bid,
		Ask:       ask,
		Last:      last,
		Volume24h: vol,
		Timestamp: time.Now(),
	}, nil
}

func (b *Bybit) SubscribeTicker(ctx context.Context, pair models.TradingPair) (<-chan models.Ticker, error) {
	symbol := pair.Symbol(models.VenueBybit)

	b.subMu.Lock()
	if ch, ok := b.subscribed[symbol]; ok {
		b.subMu.Unlock()
		return ch, nil
	}
	ch := make(chan models.Ticker, 64)
	b.subscribed[symbol] = ch
	b.pairs[symbol] = pair
	b.subMu.Unlock()

	if b.ws == nil {
		b.ws = NewWSManager(WSManagerConfig{
			ExchangeName:      "bybit",
			URL:               bybitWSPublic,
			HeartbeatInterval: 20 * time.Second,
			Heartbeat: func(conn *websocket.Conn) error {
				return conn.WriteJSON(map[string]string{"op": "ping"})
			},
		}, b.logger)
		b.ws.SetOnMessage(b.handleMessage)
		if err := b.ws.Connect(ctx); err != nil {
			return nil, err
		}
	}

	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": []string{"tickers." + symbol},
	}
	if err := b.ws.AddSubscription(subMsg); err != nil {
		b.logger.Warn("bybit subscribe send deferred to next connect", zap.Error(err))
	}

	return ch, nil
}

func (b *Bybit) handleMessage(message []byte) {
	var msg struct {
		Topic string `json:"topic"`
		Data  struct {
			Symbol    string `json:"symbol"`
			Bid1Price string `json:"bid1Price"`
			Ask1Price string `json:"ask1Price"`
			LastPrice string `json:"lastPrice"`
			Volume24h string `json:"volume24h"`
		} `json:"data"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if !strings.HasPrefix(msg.Topic, "tickers.") {
		return
	}
	symbol := msg.Data.Symbol

	b.subMu.Lock()
	ch, ok := b.subscribed[symbol]
	pair := b.pairs[symbol]
	b.subMu.Unlock()
	if !ok {
		return
	}

	b.lastMu.Lock()
	last := b.lastTickers[symbol]

	if v, err := decimal.NewFromString(msg.Data.Bid1Price); err == nil && msg.Data.Bid1Price != "" {
		last.Bid = v
	}
	if v, err := decimal.NewFromString(msg.Data.Ask1Price); err == nil && msg.Data.Ask1Price != "" {
		last.Ask = v
	}
	if v, err := decimal.NewFromString(msg.Data.LastPrice); err == nil && msg.Data.LastPrice != "" {
		last.Last = v
	}
	if v, err := decimal.NewFromString(msg.Data.Volume24h); err == nil && msg.Data.Volume24h != "" {
		last.Volume24h = v
	}
	// A tick delta can omit both sides of the book; fall back to last trade
	// price so a momentarily one-sided update still yields a usable quote.
	if last.Bid.IsZero() {
		last.Bid = last.Last
	}
	if last.Ask.IsZero() {
		last.Ask = last.Last
	}
	last.Venue = models.VenueBybit
	last.Pair = pair
	last.Timestamp = time.Now()
	b.lastTickers[symbol] = last
	b.lastMu.Unlock()

	// Suppress emission until both sides of the quote are strictly
	// positive; an unparseable or never-seen side must not reach the
	// detector as a zero price.
	if !last.Valid() {
		return
	}

	select {
	case ch <- last:
	default:
	}
}

func (b *Bybit) PlaceOrder(ctx context.Context, pair models.TradingPair, side OrderSide, typ OrderType, qty, limitPrice decimal.Decimal) (string, error) {
	symbol := pair.Symbol(models.VenueBybit)

	bybitSide := "Buy"
	if side == SideSell {
		bybitSide = "Sell"
	}
	orderType := "Market"
	if typ == OrderTypeLimit {
		orderType = "Limit"
	}

	params := map[string]string{
		"category":    bybitCategory,
		"symbol":      symbol,
		"side":        bybitSide,
		"orderType":   orderType,
		"qty":         qty.String(),
		"timeInForce": "IOC",
	}
	if typ == OrderTypeLimit {
		params["price"] = limitPrice.String()
	}

	// Order placement is never retried: a transient error after the venue
	// already accepted the order would risk a double fill.
	body, err := b.doRequest(ctx, http.MethodPost, "/v5/order/create", params, true)
	if err != nil {
		return "", newErr("bybit", ErrOrderFailed, "place order failed", err)
	}

	var resp struct {
		Result struct {
			OrderId string `json:"orderId"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newErr("bybit", ErrParse, "order response decode failed", err)
	}
	return resp.Result.OrderId, nil
}

func (b *Bybit) GetBalances(ctx context.Context) ([]models.ExchangeBalance, error) {
	params := map[string]string{"accountType": "UNIFIED"}
	body, err := b.doRequestRetryable(ctx, http.MethodGet, "/v5/account/wallet-balance", params, true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result struct {
			List []struct {
				Coin []struct {
					Coin          string `json:"coin"`
					WalletBalance string `json:"walletBalance"`
					Locked        string `json:"locked"`
					Equity        string `json:"equity"`
				} `json:"coin"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newErr("bybit", ErrParse, "balance decode failed", err)
	}

	var out []models.ExchangeBalance
	if len(resp.Result.List) == 0 {
		return out, nil
	}
	for _, c := range resp.Result.List[0].Coin {
		total, _ := decimal.NewFromString(c.WalletBalance)
		locked, _ := decimal.NewFromString(c.Locked)
		free := total.Sub(locked)
		out = append(out, models.ExchangeBalance{
			Venue:  models.VenueBybit,
			Asset:  c.Coin,
			Free:   free,
			Locked: locked,
			Total:  total,
		})
	}
	return out, nil
}

func (b *Bybit) Close() error {
	if b.ws != nil {
		return b.ws.Close()
	}
	return nil
}
