package model

import "time"

// AutoTradingAction constants classify every orchestrator decision.
const (
	AutoTradingActionExecuted = "executed"
	AutoTradingActionSkipped  = "skipped"
	AutoTradingActionError    = "error"
)

// AutoTradingLog is the append-only audit trail of auto-trade decisions.
// Rows are created by the orchestrator only and are never updated or
// deleted; the count of executed rows since day start is also the source
// of truth for the per-user daily quota.
type AutoTradingLog struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	UserID   uint  `gorm:"not null;index:idx_auto_trading_logs_user_action" json:"user_id"`
	SignalID *uint `gorm:"index" json:"signal_id,omitempty"`

	Action  string  `gorm:"size:20;not null;index:idx_auto_trading_logs_user_action" json:"action"`
	Reason  string  `gorm:"size:255;not null" json:"reason"`
	Details JSONMap `gorm:"type:jsonb" json:"details,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AutoTradingLog) TableName() string {
	return "auto_trading_logs"
}
