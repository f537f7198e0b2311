package autotrade

import (
	"fmt"

	"github.com/shopspring/decimal"

	"autotrader/src/model"
)

// Defaults applied when a config carries an unparsable numeric string.
const (
	defaultMinSignalStrength = 75
	defaultMaxDailyTrades    = 10
)

// Decision is the outcome of the eligibility pipeline. Reason strings are
// shown verbatim in the audit view, so they are part of the contract.
type Decision struct {
	Should bool   `json:"should"`
	Reason string `json:"reason"`
}

// Evaluate runs the ordered eligibility checks for a signal against a
// user's configuration. The first failing check short-circuits. The caller
// supplies todayExecuted (the number of executed audit rows since local day
// start) so the function stays pure.
func Evaluate(cfg *model.AutoTradingConfig, signal *model.Signal, todayExecuted int64) Decision {
	if !cfg.Enabled {
		return Decision{Should: false, Reason: "Auto-trading disabled"}
	}

	if cfg.ExchangeAccountID == nil {
		return Decision{Should: false, Reason: "No exchange account configured"}
	}

	strength := parseDecimalOr(signal.Strength, decimal.Zero)
	threshold := parseDecimalOr(cfg.MinSignalStrength, decimal.NewFromInt(defaultMinSignalStrength))
	if strength.LessThan(threshold) {
		return Decision{
			Should: false,
			Reason: fmt.Sprintf("Signal strength %s%% below threshold %s%%", strength, threshold),
		}
	}

	if cfg.AllowedSources != nil && !cfg.AllowedSources.Contains(signal.Source) {
		return Decision{Should: false, Reason: fmt.Sprintf("Source %s not allowed", signal.Source)}
	}

	if signal.Side == model.SignalSideLong && !cfg.AllowLong {
		return Decision{Should: false, Reason: "Long positions not allowed"}
	}
	if signal.Side == model.SignalSideShort && !cfg.AllowShort {
		return Decision{Should: false, Reason: "Short positions not allowed"}
	}

	// An empty whitelist means unrestricted, matching the settings UI which
	// stores [] when the user clears the field.
	if len(cfg.AllowedSymbols) > 0 && !cfg.AllowedSymbols.Contains(signal.Symbol) {
		return Decision{Should: false, Reason: fmt.Sprintf("Symbol %s not in whitelist", signal.Symbol)}
	}

	// The blacklist runs after the whitelist: a blocked symbol stays blocked
	// even when whitelisted.
	if cfg.BlockedSymbols.Contains(signal.Symbol) {
		return Decision{Should: false, Reason: fmt.Sprintf("Symbol %s is blocked", signal.Symbol)}
	}

	maxDaily := parseDecimalOr(cfg.MaxDailyTrades, decimal.NewFromInt(defaultMaxDailyTrades))
	if decimal.NewFromInt(todayExecuted).GreaterThanOrEqual(maxDaily) {
		return Decision{Should: false, Reason: "Daily trade limit reached"}
	}

	return Decision{Should: true, Reason: "All checks passed"}
}

// parseDecimalOr parses a numeric string, falling back to def when the
// value is empty or unparsable.
func parseDecimalOr(value string, def decimal.Decimal) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return def
	}
	return parsed
}
