package model

import "time"

// Position sizing strategies. Only the fixed value is honored today:
// percent sizing needs an equity snapshot the engine does not load.
const (
	PositionSizeFixed     = "fixed"
	PositionSizePercent   = "percent"
	PositionSizeRiskBased = "risk_based"
)

// Order types supported when submitting to an exchange.
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// AutoTradingConfig holds one user's risk and automation settings.
// Numeric thresholds are kept as strings exactly as the settings UI
// submits them; parsing (with defaults) happens in the autotrade package.
type AutoTradingConfig struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`

	Enabled           bool  `gorm:"not null;default:false" json:"enabled"`
	ExchangeAccountID *uint `json:"exchange_account_id,omitempty"`

	// Signal filters. A nil list means unrestricted.
	MinSignalStrength string     `gorm:"size:20;default:'75'" json:"min_signal_strength"`
	AllowedSources    StringList `gorm:"type:jsonb" json:"allowed_sources,omitempty"`
	AllowLong         bool       `gorm:"default:true" json:"allow_long"`
	AllowShort        bool       `gorm:"default:true" json:"allow_short"`
	AllowedSymbols    StringList `gorm:"type:jsonb" json:"allowed_symbols,omitempty"`
	BlockedSymbols    StringList `gorm:"type:jsonb" json:"blocked_symbols,omitempty"`

	// Position sizing and protective orders.
	PositionSizeType         string `gorm:"size:20;default:'fixed'" json:"position_size_type"`
	PositionSizeValue        string `gorm:"size:30" json:"position_size_value"`
	MaxPositionSize          string `gorm:"size:30" json:"max_position_size"`
	DefaultStopLossPercent   string `gorm:"size:20" json:"default_stop_loss_percent"`
	DefaultTakeProfitPercent string `gorm:"size:20" json:"default_take_profit_percent"`
	UseStopLoss              bool   `json:"use_stop_loss"`
	UseTakeProfit            bool   `json:"use_take_profit"`

	MaxDailyTrades string `gorm:"size:20;default:'10'" json:"max_daily_trades"`
	OrderType      string `gorm:"size:20;default:'market'" json:"order_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the exact table name used by the dashboard schema.
func (AutoTradingConfig) TableName() string {
	return "auto_trading_configs"
}
