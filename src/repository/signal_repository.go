package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autotrader/src/database"
	"autotrader/src/model"
)

// SignalRepository handles inbound trading signals. The engine reads
// pending signals and performs the single pending -> executed transition.
type SignalRepository struct {
	db *gorm.DB
}

func NewSignalRepository() *SignalRepository {
	logger.WithField("component", "SignalRepository").
		Info("Creating new SignalRepository with MainDB")

	return &SignalRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *SignalRepository) WithDB(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Create persists a newly received signal.
func (r *SignalRepository) Create(ctx context.Context, signal *model.Signal) error {
	err := r.db.WithContext(ctx).Create(signal).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "SignalRepository",
			"op":     "Create",
			"symbol": signal.Symbol,
		}).WithError(err).Error("Failed to create signal")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":      "SignalRepository",
		"op":        "Create",
		"signal_id": signal.ID,
		"symbol":    signal.Symbol,
	}).Info("Signal created")

	return nil
}

// FindByID fetches a single signal by its primary ID.
// Returns (nil, nil) if not found.
func (r *SignalRepository) FindByID(ctx context.Context, id uint) (*model.Signal, error) {
	var signal model.Signal

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&signal).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SignalRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch signal by ID")

		return nil, err
	}

	return &signal, nil
}

// FindPendingAfterID fetches pending signals with ID greater than lastID,
// ordered from oldest to newest. This is the dispatcher's incremental
// polling query.
func (r *SignalRepository) FindPendingAfterID(
	ctx context.Context,
	lastID uint,
	limit int,
) ([]model.Signal, error) {

	if limit <= 0 {
		limit = 100 // default safety limit
	}

	var signals []model.Signal

	err := r.db.WithContext(ctx).
		Where("id > ? AND status = ?", lastID, model.SignalStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&signals).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "SignalRepository",
			"op":      "FindPendingAfterID",
			"last_id": lastID,
			"limit":   limit,
		}).WithError(err).Error("Failed to fetch pending signals")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "SignalRepository",
		"op":          "FindPendingAfterID",
		"last_id":     lastID,
		"rows_return": len(signals),
	}).Debug("Pending signals fetched")

	return signals, nil
}

// Update saves the signal's mutated fields after execution.
func (r *SignalRepository) Update(ctx context.Context, signal *model.Signal) error {
	err := r.db.WithContext(ctx).Save(signal).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":      "SignalRepository",
			"op":        "Update",
			"signal_id": signal.ID,
		}).WithError(err).Error("Failed to update signal")

		return err
	}

	return nil
}
