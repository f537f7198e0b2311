package autotrade

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"autotrader/src/connectors"
	"autotrader/src/model"
	"autotrader/src/security"
	"autotrader/src/utils"
)

// ConfigStore loads a user's automation configuration. Returns (nil, nil)
// when the user has none.
type ConfigStore interface {
	GetByUser(ctx context.Context, userID uint) (*model.AutoTradingConfig, error)
}

// AccountStore resolves exchange accounts. Returns (nil, nil) when no
// account matches.
type AccountStore interface {
	Lookup(ctx context.Context, accountID, userID uint) (*model.ExchangeAccount, error)
}

// AuditStore appends decision rows and derives the daily executed count.
type AuditStore interface {
	Insert(ctx context.Context, entry *model.AutoTradingLog) error
	CountExecutedSince(ctx context.Context, userID uint, since time.Time) (int64, error)
}

// SignalStore persists the one allowed signal mutation (pending -> executed).
type SignalStore interface {
	Update(ctx context.Context, signal *model.Signal) error
}

// TradeNotification is the payload for the best-effort user notification.
type TradeNotification struct {
	Symbol     string
	Side       string
	EntryPrice string
}

// Notifier delivers trade-opened messages. Failures are swallowed by the
// orchestrator and never affect the execution result.
type Notifier interface {
	NotifyTradeOpened(ctx context.Context, userID uint, note TradeNotification) error
}

// DecryptFunc turns an encrypted credential into plaintext.
type DecryptFunc func(ciphertext string) (string, error)

// SubmitterFactory builds an order submitter for a venue.
type SubmitterFactory func(exchange connectors.Exchange, creds connectors.Credentials, testnet bool) (connectors.OrderSubmitter, error)

// Deps bundles the orchestrator's collaborators. Decrypt, NewSubmitter and
// Notifier have production defaults; the stores are required.
type Deps struct {
	Configs      ConfigStore
	Accounts     AccountStore
	Audit        AuditStore
	Signals      SignalStore
	Decrypt      DecryptFunc
	NewSubmitter SubmitterFactory
	Notifier     Notifier
}

// ExecutionResult is returned from every ExecuteAutoTrade path. The engine
// is a hard error boundary: no error or panic ever reaches the caller.
type ExecutionResult struct {
	Executed bool                   `json:"executed"`
	Reason   string                 `json:"reason"`
	OrderID  string                 `json:"order_id,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Orchestrator composes the eligibility pipeline, position sizer, exchange
// adapters and audit log into a single executeAutoTrade operation.
type Orchestrator struct {
	logger *logrus.Entry
	deps   Deps

	locks    *userLocks
	now      func() time.Time
	location *time.Location
}

type noopNotifier struct{}

func (noopNotifier) NotifyTradeOpened(context.Context, uint, TradeNotification) error { return nil }

func NewOrchestrator(logger *logrus.Entry, deps Deps) *Orchestrator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if deps.Decrypt == nil {
		deps.Decrypt = security.DecryptString
	}
	if deps.NewSubmitter == nil {
		deps.NewSubmitter = connectors.NewOrderSubmitter
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}

	return &Orchestrator{
		logger:   logger,
		deps:     deps,
		locks:    newUserLocks(),
		now:      time.Now,
		location: time.Local,
	}
}

// ExecuteAutoTrade decides whether to place a live order for (userID,
// signal), submits it and records the decision. Invocations for the same
// user are serialized so the daily quota cannot be overrun by concurrent
// signals.
func (o *Orchestrator) ExecuteAutoTrade(ctx context.Context, userID uint, signal *model.Signal) (result ExecutionResult) {
	log := o.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"signal_id": signal.ID,
		"symbol":    signal.Symbol,
	})

	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("auto-trade panic: %v", r)
			log.Error(reason)
			o.writeAudit(ctx, userID, signal, model.AutoTradingActionError, reason, nil)
			result = ExecutionResult{Executed: false, Reason: reason}
		}
	}()

	cfg, err := o.deps.Configs.GetByUser(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to load auto-trading config")
		return ExecutionResult{Executed: false, Reason: err.Error()}
	}
	if cfg == nil {
		// Deliberately unlogged: the audit trail records decisions made
		// under a configuration, and there is none.
		log.Debug("No auto-trading config found")
		return ExecutionResult{Executed: false, Reason: "No auto-trading config found"}
	}

	unlock := o.locks.lock(userID)
	defer unlock()

	dayStart := utils.StartOfDay(o.now(), o.location)
	todayExecuted, err := o.deps.Audit.CountExecutedSince(ctx, userID, dayStart)
	if err != nil {
		log.WithError(err).Error("Failed to count today's executed trades")
		o.writeAudit(ctx, userID, signal, model.AutoTradingActionError, err.Error(), nil)
		return ExecutionResult{Executed: false, Reason: err.Error()}
	}

	decision := Evaluate(cfg, signal, todayExecuted)
	if !decision.Should {
		log.WithField("reason", decision.Reason).Info("Signal skipped")
		o.writeAudit(ctx, userID, signal, model.AutoTradingActionSkipped, decision.Reason, nil)
		return ExecutionResult{Executed: false, Reason: decision.Reason}
	}

	account, err := o.deps.Accounts.Lookup(ctx, *cfg.ExchangeAccountID, userID)
	if err != nil {
		log.WithError(err).Error("Failed to look up exchange account")
		o.writeAudit(ctx, userID, signal, model.AutoTradingActionError, err.Error(), nil)
		return ExecutionResult{Executed: false, Reason: err.Error()}
	}
	if account == nil {
		o.writeAudit(ctx, userID, signal, model.AutoTradingActionError, "Exchange account not found", nil)
		return ExecutionResult{Executed: false, Reason: "Exchange account not found"}
	}
	if !account.Enabled {
		o.writeAudit(ctx, userID, signal, model.AutoTradingActionError, "Exchange account disabled", nil)
		return ExecutionResult{Executed: false, Reason: "Exchange account disabled"}
	}

	size := PositionSize(cfg)

	order, err := o.submitOrder(ctx, cfg, account, signal, size)
	if err != nil {
		log.WithError(err).Error("Order submission failed")
		o.writeAudit(ctx, userID, signal, model.AutoTradingActionError, err.Error(), nil)
		return ExecutionResult{Executed: false, Reason: err.Error()}
	}

	entryPrice := order.AvgPrice
	if entryPrice == "" {
		entryPrice = order.Price
	}

	side := sideForSignal(signal)
	executedAt := o.now()

	signal.Status = model.SignalStatusExecuted
	signal.ExecutedAt = &executedAt
	signal.EntryPrice = &entryPrice
	if signal.Metadata == nil {
		signal.Metadata = model.JSONMap{}
	}
	signal.Metadata["autoTraded"] = true
	signal.Metadata["autoTradeConfig"] = map[string]interface{}{
		"position_size_type":  cfg.PositionSizeType,
		"position_size_value": size.String(),
		"order_type":          cfg.OrderType,
		"use_stop_loss":       cfg.UseStopLoss,
		"use_take_profit":     cfg.UseTakeProfit,
	}
	signal.Metadata["executionOrder"] = map[string]interface{}{
		"order_id":  order.OrderID,
		"price":     order.Price,
		"avg_price": order.AvgPrice,
	}

	if err := o.deps.Signals.Update(ctx, signal); err != nil {
		log.WithError(err).Error("Failed to update signal after execution")
		o.writeAudit(ctx, userID, signal, model.AutoTradingActionError, err.Error(), nil)
		return ExecutionResult{Executed: false, Reason: err.Error()}
	}

	details := map[string]interface{}{
		"orderId":  order.OrderID,
		"symbol":   signal.Symbol,
		"side":     side,
		"quantity": size.String(),
		"price":    entryPrice,
	}
	o.writeAudit(ctx, userID, signal, model.AutoTradingActionExecuted, "Auto-trade executed successfully", details)

	if err := o.deps.Notifier.NotifyTradeOpened(ctx, userID, TradeNotification{
		Symbol:     signal.Symbol,
		Side:       side,
		EntryPrice: entryPrice,
	}); err != nil {
		// Best effort only.
		log.WithError(err).Warn("Failed to send trade-opened notification")
	}

	log.WithField("order_id", order.OrderID).Info("Auto-trade executed")

	return ExecutionResult{
		Executed: true,
		Reason:   "Auto-trade executed successfully",
		OrderID:  order.OrderID,
		Details:  details,
	}
}

func (o *Orchestrator) submitOrder(
	ctx context.Context,
	cfg *model.AutoTradingConfig,
	account *model.ExchangeAccount,
	signal *model.Signal,
	size decimal.Decimal,
) (*connectors.OrderResult, error) {

	apiKey, err := o.deps.Decrypt(account.APIKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt API key: %w", err)
	}
	apiSecret, err := o.deps.Decrypt(account.APISecretEncrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt API secret: %w", err)
	}

	exchange, err := connectors.ParseExchange(account.Exchange)
	if err != nil {
		return nil, err
	}

	submitter, err := o.deps.NewSubmitter(exchange, connectors.Credentials{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}, account.Testnet)
	if err != nil {
		return nil, err
	}

	req := connectors.OrderRequest{
		Symbol:   signal.Symbol,
		Side:     sideForSignal(signal),
		Type:     cfg.OrderType,
		Quantity: size,
	}
	if cfg.OrderType == model.OrderTypeLimit {
		price := limitPriceFromSignal(signal)
		if price.IsZero() {
			return nil, fmt.Errorf("limit order requires a price in signal metadata")
		}
		req.Price = price
	}
	if cfg.UseStopLoss {
		req.StopLossPercent = parseDecimalOr(cfg.DefaultStopLossPercent, decimal.Zero)
	}
	if cfg.UseTakeProfit {
		req.TakeProfitPercent = parseDecimalOr(cfg.DefaultTakeProfitPercent, decimal.Zero)
	}

	return submitter.CreateOrder(ctx, req)
}

func (o *Orchestrator) writeAudit(ctx context.Context, userID uint, signal *model.Signal, action, reason string, details map[string]interface{}) {
	entry := &model.AutoTradingLog{
		UserID: userID,
		Action: action,
		Reason: reason,
	}
	if signal != nil && signal.ID != 0 {
		signalID := signal.ID
		entry.SignalID = &signalID
	}
	if len(details) > 0 {
		entry.Details = details
	}

	if err := o.deps.Audit.Insert(ctx, entry); err != nil {
		o.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"action":  action,
		}).Error("Failed to write audit log entry")
	}
}

// limitPriceFromSignal pulls the feed-provided price out of the signal's
// metadata. Limit orders cannot be priced without it; the engine has no
// market-data source of its own.
func limitPriceFromSignal(signal *model.Signal) decimal.Decimal {
	raw, ok := signal.Metadata["price"]
	if !ok {
		return decimal.Zero
	}

	switch v := raw.(type) {
	case string:
		return parseDecimalOr(v, decimal.Zero)
	case float64:
		return decimal.NewFromFloat(v)
	default:
		return decimal.Zero
	}
}

func sideForSignal(signal *model.Signal) string {
	if signal.Side == model.SignalSideShort {
		return connectors.SideSell
	}
	return connectors.SideBuy
}
