package exchange

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"arbitrage/internal/config"
)

// SupportedVenues lists the venues this build knows how to construct.
// Extending it is a one-line switch case plus a new Connector
// implementation; every caller only ever holds the Connector interface.
var SupportedVenues = []string{
	"bybit",
	"bitget",
}

// NewConnector builds the Connector for name using its section of the
// exchange config.
func NewConnector(name string, cfg config.ExchangeConfig, logger *zap.Logger) (Connector, error) {
	switch strings.ToLower(name) {
	case "bybit":
		return NewBybit(cfg.APIKey, cfg.APISecret, cfg.FeePct, logger), nil
	case "bitget":
		return NewBitget(cfg.APIKey, cfg.APISecret, cfg.Passphrase, cfg.FeePct, logger), nil
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", name)
	}
}

func IsSupported(name string) bool {
	name = strings.ToLower(name)
	for _, v := range SupportedVenues {
		if name == v {
			return true
		}
	}
	return false
}
