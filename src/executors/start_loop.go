package executors

import (
	"context"
	"sync"
	"time"

	"autotrader/src/autotrade"
	"autotrader/src/model"
	"autotrader/src/notifier"
	"autotrader/src/repository"

	logger "github.com/sirupsen/logrus"
)

type signalSource interface {
	FindPendingAfterID(ctx context.Context, lastID uint, limit int) ([]model.Signal, error)
}

type enabledUsers interface {
	ListEnabledUserIDs(ctx context.Context) ([]uint, error)
}

type trader interface {
	ExecuteAutoTrade(ctx context.Context, userID uint, signal *model.Signal) autotrade.ExecutionResult
}

// Dispatcher polls for pending signals and fans them out to every user
// with auto-trading enabled. It tracks the highest signal ID it has seen
// so each tick only picks up new rows.
type Dispatcher struct {
	signals  signalSource
	configs  enabledUsers
	trader   trader
	period   time.Duration
	batch    int
	workers  int
	lastID   uint
	tickFunc func(ctx context.Context) error // seam for tests
}

func NewDispatcher(signals signalSource, configs enabledUsers, trader trader, config Config) *Dispatcher {
	d := &Dispatcher{
		signals: signals,
		configs: configs,
		trader:  trader,
		period:  config.LoopPeriod,
		batch:   config.BatchSize,
		workers: config.Workers,
	}
	if d.workers <= 0 {
		d.workers = 1
	}
	d.tickFunc = d.dispatchPending
	return d
}

// StartLoop builds a dispatcher from the environment and the shared
// database connection and runs it until the context is cancelled.
func StartLoop(ctx context.Context) error {
	config := GetConfig()

	deps := autotrade.Deps{
		Configs:  repository.NewAutoTradingConfigRepository(),
		Accounts: repository.NewExchangeAccountRepository(),
		Audit:    repository.NewAutoTradingLogRepository(),
		Signals:  repository.NewSignalRepository(),
	}
	if tn := notifier.NewTelegramNotifier(); tn != nil {
		deps.Notifier = tn
	}

	dispatcher := NewDispatcher(
		repository.NewSignalRepository(),
		repository.NewAutoTradingConfigRepository(),
		autotrade.NewOrchestrator(nil, deps),
		config,
	)

	return dispatcher.Run(ctx)
}

// Run ticks until the context is cancelled. A tick failure is logged and
// the loop keeps going; transient database errors must not kill the
// dispatcher.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	logger.WithField("period", d.period.String()).Info("signal dispatcher started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("signal dispatcher stopped")
			return nil

		case <-ticker.C:
			if err := d.tickFunc(ctx); err != nil {
				logger.WithError(err).Error("dispatch tick failed")
			}
		}
	}
}

func (d *Dispatcher) dispatchPending(ctx context.Context) error {
	signals, err := d.signals.FindPendingAfterID(ctx, d.lastID, d.batch)
	if err != nil {
		return err
	}
	if len(signals) == 0 {
		return nil
	}

	users, err := d.configs.ListEnabledUserIDs(ctx)
	if err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"signals": len(signals),
		"users":   len(users),
	}).Info("dispatching pending signals")

	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup

	for _, signal := range signals {
		if signal.ID > d.lastID {
			d.lastID = signal.ID
		}
		for _, userID := range users {
			// Each user works on its own copy; the orchestrator mutates
			// the signal (including its metadata map) on success.
			sigCopy := signal
			if signal.Metadata != nil {
				meta := make(model.JSONMap, len(signal.Metadata))
				for k, v := range signal.Metadata {
					meta[k] = v
				}
				sigCopy.Metadata = meta
			}

			wg.Add(1)
			sem <- struct{}{}
			go func(userID uint, sig model.Signal) {
				defer wg.Done()
				defer func() { <-sem }()

				result := d.trader.ExecuteAutoTrade(ctx, userID, &sig)
				logger.WithFields(logger.Fields{
					"user_id":   userID,
					"signal_id": sig.ID,
					"executed":  result.Executed,
					"reason":    result.Reason,
				}).Debug("signal dispatched")
			}(userID, sigCopy)
		}
	}

	wg.Wait()
	return nil
}
