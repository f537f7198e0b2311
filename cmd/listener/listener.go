package listener

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"autotrader/src/database"
	"autotrader/src/executors"
)

type Listener struct{}

// Start consumes the websocket signal feed until SIGINT/SIGTERM.
func (l *Listener) Start() error {
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

	if err := executors.StartListener(ctx); err != nil {
		logrus.WithError(err).Error("Signal listener exited with error")
		return err
	}

	return nil
}
