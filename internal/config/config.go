// Package config loads the engine's configuration from a TOML file (viper),
// falling back to built-in defaults when the file is missing or partial.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the full, immutable configuration snapshot. A reload swaps the
// pointer held by the holder below wholesale rather than mutating fields in
// place, so readers never observe a torn update.
type Config struct {
	Engine    EngineConfig
	Exchanges map[string]ExchangeConfig
	Trading   TradingConfig
	Risk      RiskConfig
}

// EngineConfig holds engine.* keys.
type EngineConfig struct {
	MinSpreadPct   decimal.Decimal
	ScanIntervalMs uint64 // reserved; the detector is purely event-driven and never reads this
	SimulationMode bool
	APIPort        uint16
}

// ExchangeConfig holds exchanges.<venue>.* keys.
type ExchangeConfig struct {
	Enabled    bool
	APIKey     string
	APISecret  string
	Passphrase string // required for Bitget, unused for Bybit
	FeePct     decimal.Decimal
}

// TradingConfig holds trading.* keys.
type TradingConfig struct {
	Pairs       []string
	MaxTradeQty decimal.Decimal
	MinTradeQty decimal.Decimal
	OrderType   string // "market" or "limit"
}

// RiskConfig holds risk.* keys.
type RiskConfig struct {
	MaxPosition         decimal.Decimal
	MaxDailyLoss        decimal.Decimal
	MaxConcurrentTrades uint32 // reserved; the executor is serial today
	TradeCooldownMs     uint64
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			MinSpreadPct:   decimal.NewFromFloat(0.1),
			ScanIntervalMs: 100,
			SimulationMode: true,
			APIPort:        8080,
		},
		Exchanges: map[string]ExchangeConfig{
			"bybit":  {Enabled: true, FeePct: decimal.NewFromFloat(0.1)},
			"bitget": {Enabled: true, FeePct: decimal.NewFromFloat(0.1)},
		},
		Trading: TradingConfig{
			Pairs:       []string{"BTC/USDT"},
			MaxTradeQty: decimal.NewFromFloat(0.01),
			MinTradeQty: decimal.NewFromFloat(0.0001),
			OrderType:   "market",
		},
		Risk: RiskConfig{
			MaxPosition:         decimal.NewFromFloat(0.1),
			MaxDailyLoss:        decimal.NewFromInt(100),
			MaxConcurrentTrades: 3,
			TradeCooldownMs:     1000,
		},
	}
}

// Load reads config.toml from the given path (or the working directory if
// path is ""), applying viper's layered precedence: explicit file values
// override the defaults set below, and ARBITRAGE_-prefixed environment
// variables override the file. A missing file is not an error; it falls
// back to defaults, logged as a warning, matching the original engine's
// config-load semantics.
func Load(path string, logger *zap.Logger) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ARBITRAGE")
	v.AutomaticEnv()

	d := defaults()
	applyDefaultsToViper(v, d)

	cfg := d
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Warn("config file not found, using built-in defaults")
		} else {
			logger.Warn("failed to parse config file, using built-in defaults", zap.Error(err))
			return cfg, nil
		}
	} else {
		parsed, err := fromViper(v, d)
		if err != nil {
			logger.Warn("invalid config values, using built-in defaults", zap.Error(err))
			return cfg, nil
		}
		cfg = parsed
	}

	return cfg, nil
}

func applyDefaultsToViper(v *viper.Viper, d *Config) {
	v.SetDefault("engine.min_spread_pct", d.Engine.MinSpreadPct.String())
	v.SetDefault("engine.scan_interval_ms", d.Engine.ScanIntervalMs)
	v.SetDefault("engine.simulation_mode", d.Engine.SimulationMode)
	v.SetDefault("engine.api_port", d.Engine.APIPort)

	for venue, ex := range d.Exchanges {
		prefix := "exchanges." + venue + "."
		v.SetDefault(prefix+"enabled", ex.Enabled)
		v.SetDefault(prefix+"fee_pct", ex.FeePct.String())
	}

	v.SetDefault("trading.pairs", d.Trading.Pairs)
	v.SetDefault("trading.max_trade_qty", d.Trading.MaxTradeQty.String())
	v.SetDefault("trading.min_trade_qty", d.Trading.MinTradeQty.String())
	v.SetDefault("trading.order_type", d.Trading.OrderType)

	v.SetDefault("risk.max_position", d.Risk.MaxPosition.String())
	v.SetDefault("risk.max_daily_loss", d.Risk.MaxDailyLoss.String())
	v.SetDefault("risk.max_concurrent_trades", d.Risk.MaxConcurrentTrades)
	v.SetDefault("risk.trade_cooldown_ms", d.Risk.TradeCooldownMs)
}

func fromViper(v *viper.Viper, d *Config) (*Config, error) {
	cfg := &Config{
		Exchanges: make(map[string]ExchangeConfig, len(d.Exchanges)),
	}

	minSpread, err := decimal.NewFromString(v.GetString("engine.min_spread_pct"))
	if err != nil {
		return nil, fmt.Errorf("engine.min_spread_pct: %w", err)
	}
	cfg.Engine = EngineConfig{
		MinSpreadPct:   minSpread,
		ScanIntervalMs: v.GetUint64("engine.scan_interval_ms"),
		SimulationMode: v.GetBool("engine.simulation_mode"),
		APIPort:        uint16(v.GetUint("engine.api_port")),
	}

	knownVenues := []string{"bybit", "bitget"}
	for _, venue := range knownVenues {
		prefix := "exchanges." + venue + "."
		feePct, err := decimal.NewFromString(v.GetString(prefix + "fee_pct"))
		if err != nil {
			def := d.Exchanges[venue]
			feePct = def.FeePct
		}
		cfg.Exchanges[venue] = ExchangeConfig{
			Enabled:    v.GetBool(prefix + "enabled"),
			APIKey:     v.GetString(prefix + "api_key"),
			APISecret:  v.GetString(prefix + "api_secret"),
			Passphrase: v.GetString(prefix + "passphrase"),
			FeePct:     feePct,
		}
	}

	maxQty, err := decimal.NewFromString(v.GetString("trading.max_trade_qty"))
	if err != nil {
		return nil, fmt.Errorf("trading.max_trade_qty: %w", err)
	}
	minQty, err := decimal.NewFromString(v.GetString("trading.min_trade_qty"))
	if err != nil {
		return nil, fmt.Errorf("trading.min_trade_qty: %w", err)
	}
	cfg.Trading = TradingConfig{
		Pairs:       v.GetStringSlice("trading.pairs"),
		MaxTradeQty: maxQty,
		MinTradeQty: minQty,
		OrderType:   v.GetString("trading.order_type"),
	}

	maxPos, err := decimal.NewFromString(v.GetString("risk.max_position"))
	if err != nil {
		return nil, fmt.Errorf("risk.max_position: %w", err)
	}
	maxDailyLoss, err := decimal.NewFromString(v.GetString("risk.max_daily_loss"))
	if err != nil {
		return nil, fmt.Errorf("risk.max_daily_loss: %w", err)
	}
	cfg.Risk = RiskConfig{
		MaxPosition:         maxPos,
		MaxDailyLoss:        maxDailyLoss,
		MaxConcurrentTrades: uint32(v.GetUint("risk.max_concurrent_trades")),
		TradeCooldownMs:     v.GetUint64("risk.trade_cooldown_ms"),
	}

	return cfg, nil
}

// Holder provides atomic-reload access to the current Config snapshot under
// a short-held RWMutex: read-mostly access guarded by a read/write lock.
type Holder struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewHolder(cfg *Config) *Holder {
	return &Holder{cfg: cfg}
}

func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

func (h *Holder) Set(cfg *Config) {
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}

// PartialUpdate mirrors POST /api/config's {min_spread_pct?, max_trade_qty?,
// simulation_mode?, scan_interval_ms?} contract: unspecified fields are left
// unchanged. It builds a new snapshot (copy-on-write) and swaps it in.
type PartialUpdate struct {
	MinSpreadPct   *decimal.Decimal
	MaxTradeQty    *decimal.Decimal
	SimulationMode *bool
	ScanIntervalMs *uint64
}

func (h *Holder) Apply(u PartialUpdate) *Config {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := *h.cfg
	if u.MinSpreadPct != nil {
		next.Engine.MinSpreadPct = *u.MinSpreadPct
	}
	if u.SimulationMode != nil {
		next.Engine.SimulationMode = *u.SimulationMode
	}
	if u.ScanIntervalMs != nil {
		next.Engine.ScanIntervalMs = *u.ScanIntervalMs
	}
	if u.MaxTradeQty != nil {
		next.Trading.MaxTradeQty = *u.MaxTradeQty
	}
	h.cfg = &next
	return h.cfg
}

// CooldownDuration converts the raw millisecond count into a
// time.Duration for the executor's cooldown gate.
func (c RiskConfig) CooldownDuration() time.Duration {
	return time.Duration(c.TradeCooldownMs) * time.Millisecond
}
