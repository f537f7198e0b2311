package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autotrader/src/database"
	"autotrader/src/model"
)

// ExchangeAccountRepository resolves exchange accounts. The engine only
// reads these rows; writes come from the account seeding CLI.
type ExchangeAccountRepository struct {
	db *gorm.DB
}

func NewExchangeAccountRepository() *ExchangeAccountRepository {
	logger.WithField("component", "ExchangeAccountRepository").
		Info("Creating new ExchangeAccountRepository with MainDB")

	return &ExchangeAccountRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *ExchangeAccountRepository) WithDB(db *gorm.DB) *ExchangeAccountRepository {
	return &ExchangeAccountRepository{db: db}
}

// Create stores a new exchange account with already-encrypted credentials.
func (r *ExchangeAccountRepository) Create(
	ctx context.Context,
	account *model.ExchangeAccount,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":     "ExchangeAccountRepository",
		"op":       "Create",
		"user_id":  account.UserID,
		"exchange": account.Exchange,
	}).Debug("Creating exchange account")

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "ExchangeAccountRepository",
			"op":      "Create",
			"user_id": account.UserID,
		}).WithError(err).Error("Failed to create exchange account")

		return err
	}

	return nil
}

// Lookup fetches the account by ID, scoped to the owning user so one user
// can never trade through another user's credentials.
// Returns (nil, nil) if no account matches.
func (r *ExchangeAccountRepository) Lookup(
	ctx context.Context,
	accountID, userID uint,
) (*model.ExchangeAccount, error) {

	logger.WithFields(map[string]interface{}{
		"repo":       "ExchangeAccountRepository",
		"op":         "Lookup",
		"account_id": accountID,
		"user_id":    userID,
	}).Debug("Fetching exchange account")

	var account model.ExchangeAccount

	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", accountID, userID).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":       "ExchangeAccountRepository",
			"op":         "Lookup",
			"account_id": accountID,
			"user_id":    userID,
		}).WithError(err).Error("Failed to fetch exchange account")

		return nil, err
	}

	return &account, nil
}
