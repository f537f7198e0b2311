package dispatcher

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"autotrader/src/database"
	"autotrader/src/executors"
)

type Dispatcher struct{}

// Start runs the signal dispatch loop until SIGINT/SIGTERM.
func (d *Dispatcher) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	if err := executors.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Dispatch loop exited with error")
		return err
	}

	return nil
}
