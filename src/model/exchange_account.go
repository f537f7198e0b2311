package model

import "time"

// ExchangeAccount stores a user's credentials for one exchange.
// API key and secret are encrypted at rest; see the security package.
// Rows are seeded through the addaccount CLI command.
type ExchangeAccount struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	Exchange           string `gorm:"size:50;not null" json:"exchange"`
	APIKeyEncrypted    string `gorm:"column:api_key;type:text" json:"-"`
	APISecretEncrypted string `gorm:"column:api_secret;type:text" json:"-"`

	Enabled bool `gorm:"default:true" json:"enabled"`
	Testnet bool `gorm:"default:false" json:"testnet"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ExchangeAccount) TableName() string {
	return "exchange_accounts"
}
