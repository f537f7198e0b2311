package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autotrader/src/database"
	"autotrader/src/model"
)

// AutoTradingLogRepository persists the append-only audit trail. Rows are
// inserted only; there are no update or delete operations on this table.
type AutoTradingLogRepository struct {
	db *gorm.DB
}

func NewAutoTradingLogRepository() *AutoTradingLogRepository {
	logger.WithField("component", "AutoTradingLogRepository").
		Info("Creating new AutoTradingLogRepository with MainDB")

	return &AutoTradingLogRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *AutoTradingLogRepository) WithDB(db *gorm.DB) *AutoTradingLogRepository {
	return &AutoTradingLogRepository{db: db}
}

// Insert appends one decision row.
func (r *AutoTradingLogRepository) Insert(
	ctx context.Context,
	entry *model.AutoTradingLog,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "AutoTradingLogRepository",
		"op":      "Insert",
		"user_id": entry.UserID,
		"action":  entry.Action,
	}).Debug("Appending audit log entry")

	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "AutoTradingLogRepository",
			"op":      "Insert",
			"user_id": entry.UserID,
		}).WithError(err).Error("Failed to append audit log entry")

		return err
	}

	return nil
}

// CountExecutedSince returns how many trades were executed for a user since
// the given instant. This count is the source of truth for the daily quota.
func (r *AutoTradingLogRepository) CountExecutedSince(
	ctx context.Context,
	userID uint,
	since time.Time,
) (int64, error) {

	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.AutoTradingLog{}).
		Where("user_id = ? AND action = ? AND created_at >= ?",
			userID, model.AutoTradingActionExecuted, since).
		Count(&count).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "AutoTradingLogRepository",
			"op":      "CountExecutedSince",
			"user_id": userID,
		}).WithError(err).Error("Failed to count executed trades")

		return 0, err
	}

	return count, nil
}

// LogSearchOptions filters the audit trail for the history view.
type LogSearchOptions struct {
	UserID        uint
	Action        *string
	SignalID      *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// Search returns audit rows matching the options, newest first.
func (r *AutoTradingLogRepository) Search(
	ctx context.Context,
	options LogSearchOptions,
) ([]model.AutoTradingLog, error) {

	query := r.db.WithContext(ctx).
		Model(&model.AutoTradingLog{}).
		Where("user_id = ?", options.UserID)

	if options.Action != nil {
		query = query.Where("action = ?", *options.Action)
	}
	if options.SignalID != nil {
		query = query.Where("signal_id = ?", *options.SignalID)
	}
	if options.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *options.CreatedAfter)
	}
	if options.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *options.CreatedBefore)
	}

	query = query.Order("created_at DESC, id DESC")

	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var rows []model.AutoTradingLog
	if err := query.Find(&rows).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "AutoTradingLogRepository",
			"op":      "Search",
			"user_id": options.UserID,
		}).WithError(err).Error("Failed to search audit log")

		return nil, err
	}

	return rows, nil
}

// Stats summarizes a user's audit trail for the dashboard.
type Stats struct {
	TodayExecuted int64 `json:"today_executed"`
	TotalExecuted int64 `json:"total_executed"`
	TotalSkipped  int64 `json:"total_skipped"`
	TotalErrors   int64 `json:"total_errors"`
}

// GetStats aggregates per-action totals plus the executed count since
// dayStart.
func (r *AutoTradingLogRepository) GetStats(
	ctx context.Context,
	userID uint,
	dayStart time.Time,
) (*Stats, error) {

	type actionCount struct {
		Action string
		Count  int64
	}

	var counts []actionCount
	err := r.db.WithContext(ctx).
		Model(&model.AutoTradingLog{}).
		Select("action, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("action").
		Scan(&counts).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "AutoTradingLogRepository",
			"op":      "GetStats",
			"user_id": userID,
		}).WithError(err).Error("Failed to aggregate audit stats")

		return nil, err
	}

	stats := &Stats{}
	for _, c := range counts {
		switch c.Action {
		case model.AutoTradingActionExecuted:
			stats.TotalExecuted = c.Count
		case model.AutoTradingActionSkipped:
			stats.TotalSkipped = c.Count
		case model.AutoTradingActionError:
			stats.TotalErrors = c.Count
		}
	}

	todayExecuted, err := r.CountExecutedSince(ctx, userID, dayStart)
	if err != nil {
		return nil, err
	}
	stats.TodayExecuted = todayExecuted

	return stats, nil
}
