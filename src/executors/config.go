package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LoopPeriod    time.Duration `envconfig:"DISPATCH_LOOP_PERIOD" default:"15s"`
	BatchSize     int           `envconfig:"DISPATCH_BATCH_SIZE" default:"100"`
	Workers       int           `envconfig:"DISPATCH_WORKERS" default:"4"`
	SignalFeedURL string        `envconfig:"SIGNAL_FEED_URL"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
