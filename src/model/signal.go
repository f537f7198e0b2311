package model

import "time"

// Signal sides.
const (
	SignalSideLong  = "long"
	SignalSideShort = "short"
)

// SignalStatus constants represent the lifecycle of an inbound signal.
// This engine only performs the pending -> executed transition; rejected
// and expired belong to the manual approval flow.
const (
	SignalStatusPending  = "pending"
	SignalStatusExecuted = "executed"
	SignalStatusRejected = "rejected"
	SignalStatusExpired  = "expired"
)

// Signal is an inbound trade idea awaiting an execute/skip decision.
type Signal struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Source   string  `gorm:"size:100;index" json:"source"`
	Symbol   string  `gorm:"size:50;index" json:"symbol"`
	Side     string  `gorm:"size:10" json:"side"`
	Strength string  `gorm:"size:20" json:"strength"` // numeric string, 0-100
	Status   string  `gorm:"size:20;default:'pending';index" json:"status"`
	Metadata JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	EntryPrice *string    `gorm:"size:30" json:"entry_price,omitempty"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Signal) TableName() string {
	return "trading_signals"
}
