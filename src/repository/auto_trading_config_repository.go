package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"autotrader/src/database"
	"autotrader/src/model"
)

// AutoTradingConfigRepository handles read/write operations for per-user
// automation configurations.
type AutoTradingConfigRepository struct {
	db *gorm.DB
}

// NewAutoTradingConfigRepository creates a new repository instance using the
// main read/write database.
func NewAutoTradingConfigRepository() *AutoTradingConfigRepository {
	logger.WithField("component", "AutoTradingConfigRepository").
		Info("Creating new AutoTradingConfigRepository with MainDB")

	return &AutoTradingConfigRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or custom sessions/transactions.
func (r *AutoTradingConfigRepository) WithDB(db *gorm.DB) *AutoTradingConfigRepository {
	return &AutoTradingConfigRepository{db: db}
}

// GetByUser fetches the configuration for a user.
// Returns (nil, nil) if the user has none.
func (r *AutoTradingConfigRepository) GetByUser(
	ctx context.Context,
	userID uint,
) (*model.AutoTradingConfig, error) {

	logger.WithFields(map[string]interface{}{
		"repo":    "AutoTradingConfigRepository",
		"op":      "GetByUser",
		"user_id": userID,
	}).Debug("Fetching auto-trading config")

	var cfg model.AutoTradingConfig

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&cfg).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // not found is not an error
		}

		logger.WithFields(map[string]interface{}{
			"repo":    "AutoTradingConfigRepository",
			"op":      "GetByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch auto-trading config")

		return nil, err
	}

	return &cfg, nil
}

// Upsert creates the user's configuration or replaces its settings if one
// already exists for the user.
func (r *AutoTradingConfigRepository) Upsert(
	ctx context.Context,
	cfg *model.AutoTradingConfig,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "AutoTradingConfigRepository",
		"op":      "Upsert",
		"user_id": cfg.UserID,
		"enabled": cfg.Enabled,
	}).Debug("Upserting auto-trading config")

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"enabled",
				"exchange_account_id",
				"min_signal_strength",
				"allowed_sources",
				"allow_long",
				"allow_short",
				"allowed_symbols",
				"blocked_symbols",
				"position_size_type",
				"position_size_value",
				"max_position_size",
				"default_stop_loss_percent",
				"default_take_profit_percent",
				"use_stop_loss",
				"use_take_profit",
				"max_daily_trades",
				"order_type",
				"updated_at",
			}),
		}).
		Create(cfg).Error
}

// ListEnabledUserIDs returns the IDs of every user with auto-trading
// switched on. Used by the dispatcher to fan signals out.
func (r *AutoTradingConfigRepository) ListEnabledUserIDs(ctx context.Context) ([]uint, error) {
	var userIDs []uint

	err := r.db.WithContext(ctx).
		Model(&model.AutoTradingConfig{}).
		Where("enabled = ?", true).
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AutoTradingConfigRepository",
			"op":   "ListEnabledUserIDs",
		}).WithError(err).Error("Failed to list enabled users")

		return nil, err
	}

	return userIDs, nil
}
