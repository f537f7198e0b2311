package autotrade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotrader/src/model"
)

func uintPtr(v uint) *uint {
	return &v
}

// eligibleConfig returns a config that passes every check for the signal
// produced by pendingSignal.
func eligibleConfig() *model.AutoTradingConfig {
	return &model.AutoTradingConfig{
		UserID:            1,
		Enabled:           true,
		ExchangeAccountID: uintPtr(1),
		MinSignalStrength: "75",
		AllowLong:         true,
		AllowShort:        true,
		PositionSizeType:  model.PositionSizeFixed,
		PositionSizeValue: "0.01",
		MaxPositionSize:   "0.05",
		MaxDailyTrades:    "10",
		OrderType:         model.OrderTypeMarket,
	}
}

func pendingSignal() *model.Signal {
	return &model.Signal{
		ID:       42,
		Source:   "news",
		Symbol:   "BTCUSDT",
		Side:     model.SignalSideLong,
		Strength: "80",
		Status:   model.SignalStatusPending,
	}
}

func TestEvaluatePasses(t *testing.T) {
	decision := Evaluate(eligibleConfig(), pendingSignal(), 0)

	require.True(t, decision.Should)
	require.Equal(t, "All checks passed", decision.Reason)
}

func TestEvaluateChecksInOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *model.AutoTradingConfig, signal *model.Signal)
		reason  string
		current int64
	}{
		{
			name:   "disabled",
			mutate: func(cfg *model.AutoTradingConfig, _ *model.Signal) { cfg.Enabled = false },
			reason: "Auto-trading disabled",
		},
		{
			name:   "no exchange account",
			mutate: func(cfg *model.AutoTradingConfig, _ *model.Signal) { cfg.ExchangeAccountID = nil },
			reason: "No exchange account configured",
		},
		{
			name:   "strength below threshold",
			mutate: func(_ *model.AutoTradingConfig, signal *model.Signal) { signal.Strength = "50" },
			reason: "Signal strength 50% below threshold 75%",
		},
		{
			name:   "unparsable strength treated as zero",
			mutate: func(_ *model.AutoTradingConfig, signal *model.Signal) { signal.Strength = "very strong" },
			reason: "Signal strength 0% below threshold 75%",
		},
		{
			name: "unparsable threshold falls back to 75",
			mutate: func(cfg *model.AutoTradingConfig, signal *model.Signal) {
				cfg.MinSignalStrength = "??"
				signal.Strength = "60"
			},
			reason: "Signal strength 60% below threshold 75%",
		},
		{
			name: "source not allowed",
			mutate: func(cfg *model.AutoTradingConfig, _ *model.Signal) {
				cfg.AllowedSources = model.StringList{"tradingview"}
			},
			reason: "Source news not allowed",
		},
		{
			name:   "long not allowed",
			mutate: func(cfg *model.AutoTradingConfig, _ *model.Signal) { cfg.AllowLong = false },
			reason: "Long positions not allowed",
		},
		{
			name: "short not allowed",
			mutate: func(cfg *model.AutoTradingConfig, signal *model.Signal) {
				cfg.AllowShort = false
				signal.Side = model.SignalSideShort
			},
			reason: "Short positions not allowed",
		},
		{
			name: "not in whitelist",
			mutate: func(cfg *model.AutoTradingConfig, _ *model.Signal) {
				cfg.AllowedSymbols = model.StringList{"ETHUSDT"}
			},
			reason: "Symbol BTCUSDT not in whitelist",
		},
		{
			name: "blocked symbol",
			mutate: func(cfg *model.AutoTradingConfig, _ *model.Signal) {
				cfg.BlockedSymbols = model.StringList{"BTCUSDT"}
			},
			reason: "Symbol BTCUSDT is blocked",
		},
		{
			name:    "daily limit reached",
			mutate:  func(cfg *model.AutoTradingConfig, _ *model.Signal) { cfg.MaxDailyTrades = "2" },
			current: 2,
			reason:  "Daily trade limit reached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := eligibleConfig()
			signal := pendingSignal()
			tt.mutate(cfg, signal)

			decision := Evaluate(cfg, signal, tt.current)

			assert.False(t, decision.Should)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestEvaluateBlacklistOverridesWhitelist(t *testing.T) {
	cfg := eligibleConfig()
	cfg.AllowedSymbols = model.StringList{"ETHUSDT"}
	cfg.BlockedSymbols = model.StringList{"ETHUSDT"}

	signal := pendingSignal()
	signal.Symbol = "ETHUSDT"

	decision := Evaluate(cfg, signal, 0)

	require.False(t, decision.Should)
	require.Equal(t, "Symbol ETHUSDT is blocked", decision.Reason)
}

func TestEvaluateEmptyWhitelistIsUnrestricted(t *testing.T) {
	cfg := eligibleConfig()
	cfg.AllowedSymbols = model.StringList{}

	decision := Evaluate(cfg, pendingSignal(), 0)

	require.True(t, decision.Should)
}

func TestEvaluateNilSourcesAllowsAll(t *testing.T) {
	cfg := eligibleConfig()
	cfg.AllowedSources = nil

	signal := pendingSignal()
	signal.Source = "anything"

	require.True(t, Evaluate(cfg, signal, 0).Should)
}

func TestEvaluateQuotaBoundary(t *testing.T) {
	cfg := eligibleConfig()
	cfg.MaxDailyTrades = "2"

	require.True(t, Evaluate(cfg, pendingSignal(), 1).Should)

	decision := Evaluate(cfg, pendingSignal(), 2)
	require.False(t, decision.Should)
	require.Equal(t, "Daily trade limit reached", decision.Reason)
}

func TestEvaluateUnparsableQuotaDefaultsToTen(t *testing.T) {
	cfg := eligibleConfig()
	cfg.MaxDailyTrades = "unlimited"

	require.True(t, Evaluate(cfg, pendingSignal(), 9).Should)
	require.False(t, Evaluate(cfg, pendingSignal(), 10).Should)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	cfg := eligibleConfig()
	cfg.BlockedSymbols = model.StringList{"BTCUSDT"}
	signal := pendingSignal()

	first := Evaluate(cfg, signal, 3)
	second := Evaluate(cfg, signal, 3)

	require.Equal(t, first, second)
}
