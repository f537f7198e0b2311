package executors

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"autotrader/src/model"
	"autotrader/src/repository"
)

type signalWriter interface {
	Create(ctx context.Context, signal *model.Signal) error
}

// signalFrame is the wire shape of an inbound feed message. Price is the
// feed's quote at signal time; it ends up in the signal metadata where the
// orchestrator prices limit orders from.
type signalFrame struct {
	Source   string                 `json:"source"`
	Symbol   string                 `json:"symbol"`
	Side     string                 `json:"side"`
	Strength string                 `json:"strength"`
	Price    string                 `json:"price,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SignalListener subscribes to an external websocket signal feed and
// persists every valid frame as a pending signal. Execution is left to
// the dispatcher's next tick.
type SignalListener struct {
	url     string
	signals signalWriter
}

func NewSignalListener(url string, signals signalWriter) *SignalListener {
	return &SignalListener{url: url, signals: signals}
}

// StartListener builds a listener from the environment and runs it until
// the context is cancelled.
func StartListener(ctx context.Context) error {
	config := GetConfig()
	if config.SignalFeedURL == "" {
		return errors.New("SIGNAL_FEED_URL not set")
	}

	listener := NewSignalListener(config.SignalFeedURL, repository.NewSignalRepository())
	return listener.Run(ctx)
}

// Run keeps the feed subscription alive, reconnecting with exponential
// backoff after any disconnect.
func (l *SignalListener) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return nil
		}

		err := l.consume(ctx)
		if ctx.Err() != nil {
			logger.Info("signal listener stopped")
			return nil
		}

		logger.WithError(err).Warn("signal feed disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*2))
	}
}

func (l *SignalListener) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.WithField("url", l.url).Info("connected to signal feed")

	conn.SetReadLimit(1 << 20)

	// Unblock ReadMessage on shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame signalFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			logger.WithError(err).Warn("failed to decode signal frame")
			continue
		}
		if frame.Symbol == "" || frame.Side == "" {
			logger.WithFields(logger.Fields{
				"symbol": frame.Symbol,
				"side":   frame.Side,
			}).Warn("dropping incomplete signal frame")
			continue
		}

		metadata := model.JSONMap(frame.Metadata)
		if frame.Price != "" {
			if metadata == nil {
				metadata = model.JSONMap{}
			}
			metadata["price"] = frame.Price
		}

		signal := model.Signal{
			Source:   frame.Source,
			Symbol:   frame.Symbol,
			Side:     frame.Side,
			Strength: frame.Strength,
			Status:   model.SignalStatusPending,
			Metadata: metadata,
		}
		if err := l.signals.Create(ctx, &signal); err != nil {
			logger.WithError(err).Error("failed to persist inbound signal")
			continue
		}

		logger.WithFields(logger.Fields{
			"signal_id": signal.ID,
			"symbol":    signal.Symbol,
			"side":      signal.Side,
		}).Info("signal received")
	}
}
