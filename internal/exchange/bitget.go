package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"arbitrage/internal/models"
	"arbitrage/pkg/ratelimit"
	"arbitrage/pkg/retry"
)

const (
	bitgetBaseURL     = "https://api.bitget.com"
	bitgetWSPublic    = "wss://ws.bitget.com/v2/ws/public"
	bitgetProductType = "SPOT"
)

// Bitget is the spot-market Connector for Bitget's v2 API.
type Bitget struct {
	apiKey     string
	secretKey  string
	passphrase string
	feePct     decimal.Decimal

	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	logger     *zap.Logger

	ws *WSManager

	subMu       sync.Mutex
	subscribed  map[string]chan models.Ticker
	pairs       map[string]models.TradingPair
	lastTickers map[string]models.Ticker
	lastMu      sync.RWMutex
}

func NewBitget(apiKey, secretKey, passphrase string, feePct decimal.Decimal, logger *zap.Logger) *Bitget {
	return &Bitget{
		apiKey:      apiKey,
		secretKey:   secretKey,
		passphrase:  passphrase,
		feePct:      feePct,
		httpClient:  GetGlobalHTTPClient().GetClient(),
		limiter:     ratelimit.NewRateLimiter(10, 20),
		logger:      logger,
		subscribed:  make(map[string]chan models.Ticker),
		pairs:       make(map[string]models.TradingPair),
		lastTickers: make(map[string]models.Ticker),
	}
}

func (b *Bitget) Venue() models.Venue { return models.VenueBitget }

func (b *Bitget) FeePct() decimal.Decimal { return b.feePct }

// sign is the v2 HMAC-SHA256 base64 signature: timestamp + METHOD + path + body.
func (b *Bitget) sign(timestamp, method, requestPath, body string) string {
	message := timestamp + method + requestPath + body
	h := hmac.New(sha256.New, []byte(b.secretKey))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (b *Bitget) doRequest(ctx context.Context, method, endpoint string, params map[string]string, signed bool) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody, reqURL, signPath string
	if method == http.MethodGet {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		queryStr := query.Encode()
		reqURL = bitgetBaseURL + endpoint
		signPath = endpoint
		if queryStr != "" {
			reqURL += "?" + queryStr
			signPath += "?" + queryStr
		}
	} else {
		reqURL = bitgetBaseURL + endpoint
		signPath = endpoint
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
		signature := b.sign(timestamp, method, signPath, reqBody)
		req.Header.Set("ACCESS-KEY", b.apiKey)
		req.Header.Set("ACCESS-SIGN", signature)
		req.Header.Set("ACCESS-TIMESTAMP", timestamp)
		req.Header.Set("ACCESS-PASSPHRASE", b.passphrase)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, newErr("bitget", ErrConnection, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newErr("bitget", ErrConnection, "read body failed", err)
	}

	var base struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &base); err != nil {
		return nil, newErr("bitget", ErrParse, "malformed envelope", err)
	}
	if base.Code != "00000" {
		return nil, newErr("bitget", ErrAPI, "code="+base.Code+" msg="+base.Msg, nil)
	}

	return body, nil
}

func (b *Bitget) doRequestRetryable(ctx context.Context, method, endpoint string, params map[string]string, signed bool) ([]byte, error) {
	return retry.DoWithResult(ctx, func() ([]byte, error) {
		return b.doRequest(ctx, method, endpoint, params, signed)
	}, retry.NetworkConfig())
}

func (b *Bitget) GetTicker(ctx context.Context, pair models.TradingPair) (models.Ticker, error) {
	symbol := pair.Symbol(models.VenueBitget)
	params := map[string]string{"symbol": symbol}

	body, err := b.doRequestRetryable(ctx, http.MethodGet, "/api/v2/spot/market/tickers", params, false)
	if err != nil {
		return models.Ticker{}, err
	}

	var resp struct {
		Data []struct {
			Symbol     string `json:"symbol"`
			BidPr      string `json:"bidPr"`
			AskPr      string `json:"askPr"`
			LastPr     string `json:"lastPr"`
			BaseVolume string `json:"baseVolume"`
			// legacy aliases seen on some account tiers
			BestBid string `json:"bestBid"`
			BestAsk string `json:"bestAsk"`
			Last    string `json:"last"`
			BaseVol string `json:"baseVol"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Ticker{}, newErr("bitget", ErrParse, "ticker decode failed", err)
	}
	if len(resp.Data) == 0 {
		return models.Ticker{}, newErr("bitget", ErrInvalidPair, "no ticker for "+symbol, nil)
	}

	t := resp.Data[0]
	bid := firstNonEmpty(t.BidPr, t.BestBid)
	ask := firstNonEmpty(t.AskPr, t.BestAsk)
	last := firstNonEmpty(t.LastPr, t.Last)
	vol := firstNonEmpty(t.BaseVolume, t.BaseVol)

	bidD, _ := decimal.NewFromString(bid)
	askD, _ := decimal.NewFromString(ask)
	lastD, _ := decimal.NewFromString(last)
	volD, _ := decimal.NewFromString(vol)

	return models.Ticker{
		Venue:     models.VenueBitget,
		Pair:      pair,
		Bid:       bidD,
		Ask:       askD,
		Last:      lastD,
		Volume24h: volD,
		Timestamp: time.Now(),
	}, nil
}

// firstNonEmpty returns the first non-empty value, used to accept Bitget's
// legacy field names as fallbacks for the current ones.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (b *Bitget) SubscribeTicker(ctx context.Context, pair models.TradingPair) (<-chan models.Ticker, error) {
	symbol := pair.Symbol(models.VenueBitget)

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
			ExchangeName:      "bitget",
			URL:               bitgetWSPublic,
			HeartbeatInterval: 25 * time.Second,
			Heartbeat: func(conn *websocket.Conn) error {
				return conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			},
		}, b.logger)
		b.ws.SetOnMessage(b.handleMessage)
		if err := b.ws.Connect(ctx); err != nil {
			return nil, err
		}
	}

	subMsg := map[string]interface{}{
		"op": "subscribe",
		"args": []map[string]string{
			{
				"instType": bitgetProductType,
				"channel":  "ticker",
				"instId":   symbol,
			},
		},
	}
	if err := b.ws.AddSubscription(subMsg); err != nil {
		b.logger.Warn("bitget subscribe send deferred to next connect", zap.Error(err))
	}

	return ch, nil
}

func (b *Bitget) handleMessage(message []byte) {
	var msg struct {
		Arg struct {
			Channel string `json:"channel"`
			InstId  string `json:"instId"`
		} `json:"arg"`
		Data []struct {
			BidPr      string `json:"bidPr"`
			AskPr      string `json:"askPr"`
			LastPr     string `json:"lastPr"`
			BaseVolume string `json:"baseVolume"`
			// Legacy aliases some Bitget channel versions still send
			// instead of the fields above.
			BestBid string `json:"bestBid"`
			BestAsk string `json:"bestAsk"`
			Last    string `json:"last"`
			BaseVol string `json:"baseVol"`
		} `json:"data"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}
	if msg.Arg.Channel != "ticker" || len(msg.Data) == 0 {
		return
	}
	symbol := msg.Arg.InstId

	b.subMu.Lock()
	ch, ok := b.subscribed[symbol]
	pair := b.pairs[symbol]
	b.subMu.Unlock()
	if !ok {
		return
	}

	d := msg.Data[0]
	bidStr := firstNonEmpty(d.BidPr, d.BestBid)
	askStr := firstNonEmpty(d.AskPr, d.BestAsk)
	lastStr := firstNonEmpty(d.LastPr, d.Last)
	volStr := firstNonEmpty(d.BaseVolume, d.BaseVol)

	b.lastMu.Lock()
	last := b.lastTickers[symbol]
	if v, err := decimal.NewFromString(bidStr); err == nil && bidStr != "" {
		last.Bid = v
	}
	if v, err := decimal.NewFromString(askStr); err == nil && askStr != "" {
		last.Ask = v
	}
	if v, err := decimal.NewFromString(lastStr); err == nil && lastStr != "" {
		last.Last = v
	}
	if v, err := decimal.NewFromString(volStr); err == nil && volStr != "" {
		last.Volume24h = v
	}
	if last.Bid.IsZero() {
		last.Bid = last.Last
	}
	if last.Ask.IsZero() {
		last.Ask = last.Last
	}
	last.Venue = models.VenueBitget
	last.Pair = pair
	last.Timestamp = time.Now()
	b.lastTickers[symbol] = last
	b.lastMu.Unlock()

	if !last.Valid() {
		return
	}

	select {
	case ch <- last:
	default:
	}
}

func (b *Bitget) PlaceOrder(ctx context.Context, pair models.TradingPair, side OrderSide, typ OrderType, qty, limitPrice decimal.Decimal) (string, error) {
	symbol := pair.Symbol(models.VenueBitget)

	bitgetSide := "buy"
	if side == SideSell {
		bitgetSide = "sell"
	}
	orderType := "market"
	if typ == OrderTypeLimit {
		orderType = "limit"
	}

	params := map[string]string{
		"symbol":    symbol,
		"side":      bitgetSide,
		"orderType": orderType,
		"force":     "ioc",
		"size":      qty.String(),
	}
	if typ == OrderTypeLimit {
		params["price"] = limitPrice.String()
	}

	body, err := b.doRequest(ctx, http.MethodPost, "/api/v2/spot/trade/place-order", params, true)
	if err != nil {
		return "", newErr("bitget", ErrOrderFailed, "place order failed", err)
	}

	var resp struct {
		Data struct {
			OrderId string `json:"orderId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newErr("bitget", ErrParse, "order response decode failed", err)
	}
	return resp.Data.OrderId, nil
}

func (b *Bitget) GetBalances(ctx context.Context) ([]models.ExchangeBalance, error) {
	body, err := b.doRequestRetryable(ctx, http.MethodGet, "/api/v2/spot/account/assets", nil, true)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			Coin      string `json:"coin"`
			Available string `json:"available"`
			Frozen    string `json:"frozen"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newErr("bitget", ErrParse, "balance decode failed", err)
	}

	out := make([]models.ExchangeBalance, 0, len(resp.Data))
	for _, a := range resp.Data {
		free, _ := decimal.NewFromString(a.Available)
		locked, _ := decimal.NewFromString(a.Frozen)
		out = append(out, models.ExchangeBalance{
			Venue:  models.VenueBitget,
			Asset:  a.Coin,
			Free:   free,
			Locked: locked,
			Total:  free.Add(locked),
		})
	}
	return out, nil
}

func (b *Bitget) Close() error {
	if b.ws != nil {
		return b.ws.Close()
	}
	return nil
}
