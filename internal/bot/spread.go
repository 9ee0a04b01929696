package bot

import (
	"time"

	"github.com/shopspring/decimal"

	"arbitrage/internal/models"
)

var hundred = decimal.NewFromInt(100)

// spreadResult is the pure arithmetic behind one buy/sell direction,
// computed on fixed-point decimal throughout; binary floating point would
// corrupt both the emission gate and the fee accounting, per the design.
type spreadResult struct {
	spreadPct       decimal.Decimal
	netSpreadPct    decimal.Decimal
	potentialProfit decimal.Decimal
}

// evaluateSpread computes the gross spread, fee-adjusted net spread, and
// potential profit of buying qty at buyPrice and selling it at sellPrice,
// given each side's taker fee percentage. ok is false when either price is
// non-positive; the caller must skip the direction entirely rather than
// emit it with zeroed fields.
func evaluateSpread(buyPrice, sellPrice, buyFeePct, sellFeePct, qty decimal.Decimal) (spreadResult, bool) {
	if buyPrice.Sign() <= 0 || sellPrice.Sign() <= 0 {
		return spreadResult{}, false
	}

	spreadPct := sellPrice.Sub(buyPrice).Div(buyPrice).Mul(hundred)
	netSpreadPct := spreadPct.Sub(buyFeePct).Sub(sellFeePct)

	grossDiff := qty.Mul(sellPrice.Sub(buyPrice))
	buyFee := qty.Mul(buyPrice).Mul(buyFeePct).Div(hundred)
	sellFee := qty.Mul(sellPrice).Mul(sellFeePct).Div(hundred)
	profit := grossDiff.Sub(buyFee).Sub(sellFee)

	return spreadResult{
		spreadPct:       spreadPct,
		netSpreadPct:    netSpreadPct,
		potentialProfit: profit,
	}, true
}

// directionOpportunity builds the ArbitrageOpportunity for buying on
// buyVenue at buyPrice and selling on sellVenue at sellPrice. ok is false
// when the direction is invalid (non-positive price) or doesn't clear
// minSpreadPct. Emission requires net_spread_pct strictly greater than the
// configured threshold, not merely positive.
func directionOpportunity(
	pair models.TradingPair,
	buyVenue, sellVenue models.Venue,
	buyPrice, sellPrice, buyFeePct, sellFeePct, qty, minSpreadPct decimal.Decimal,
	now time.Time,
	newID func() string,
) (models.ArbitrageOpportunity, bool) {
	res, ok := evaluateSpread(buyPrice, sellPrice, buyFeePct, sellFeePct, qty)
	if !ok {
		return models.ArbitrageOpportunity{}, false
	}
	if !res.netSpreadPct.GreaterThan(minSpreadPct) {
		return models.ArbitrageOpportunity{}, false
	}

	return models.ArbitrageOpportunity{
		ID:              newID(),
		Pair:            pair,
		BuyVenue:        buyVenue,
		SellVenue:       sellVenue,
		BuyPrice:        buyPrice,
		SellPrice:       sellPrice,
		SpreadPct:       res.spreadPct,
		NetSpreadPct:    res.netSpreadPct,
		PotentialProfit: res.potentialProfit,
		Quantity:        qty,
		DetectedAt:      now,
		IsActionable:    res.netSpreadPct.Sign() > 0,
	}, true
}
