package autotrade

import (
	"github.com/shopspring/decimal"

	"autotrader/src/model"
)

// PositionSize computes the order quantity from a configuration. Percent
// and risk-based sizing would need an equity snapshot this engine does not
// load, so every size type resolves to the configured fixed value today.
// The result is always capped at MaxPositionSize when that parses.
func PositionSize(cfg *model.AutoTradingConfig) decimal.Decimal {
	base := parseDecimalOr(cfg.PositionSizeValue, decimal.Zero)

	max, err := decimal.NewFromString(cfg.MaxPositionSize)
	if err != nil {
		return base
	}
	if base.GreaterThan(max) {
		return max
	}
	return base
}
