package connectors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Exchange identifies a supported trading venue. Adapters are selected
// through the static registry below rather than a string switch, so adding
// a venue means adding a constant and a builder.
type Exchange string

const (
	ExchangeBinance Exchange = "binance"
	ExchangePhemex  Exchange = "phemex"
)

// ErrUnsupportedExchange is returned when no adapter is registered for a venue.
var ErrUnsupportedExchange = errors.New("unsupported exchange")

// Order sides as submitted to adapters. Signals speak long/short, orders
// speak buy/sell; the orchestrator does the translation.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Credentials carries the already-decrypted API credentials for a venue.
type Credentials struct {
	APIKey    string
	APISecret string
}

// OrderRequest describes one order submission. StopLossPercent and
// TakeProfitPercent are relative magnitudes (e.g. "2.5" for 2.5% away from
// the reference price); adapters that need absolute levels derive them from
// Price. Zero values mean "not requested".
type OrderRequest struct {
	Symbol            string
	Side              string // SideBuy or SideSell
	Type              string // model.OrderTypeMarket or model.OrderTypeLimit
	Quantity          decimal.Decimal
	Price             decimal.Decimal // required for limit orders
	StopLossPercent   decimal.Decimal
	TakeProfitPercent decimal.Decimal
}

// OrderResult is the exchange's answer to a submission. Price is the
// quoted/requested price, AvgPrice the average fill price when the venue
// reports one.
type OrderResult struct {
	OrderID  string
	Price    string
	AvgPrice string
}

// OrderSubmitter is the single capability the execution engine needs from
// an exchange.
type OrderSubmitter interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
}

type builderFunc func(creds Credentials, testnet bool) (OrderSubmitter, error)

var registry = map[Exchange]builderFunc{
	ExchangeBinance: newBinanceSubmitter,
	ExchangePhemex:  newPhemexSubmitter,
}

// ParseExchange maps a stored exchange name onto a registered Exchange.
func ParseExchange(name string) (Exchange, error) {
	exchange := Exchange(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[exchange]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedExchange, name)
	}
	return exchange, nil
}

// NewOrderSubmitter builds the adapter registered for the given venue.
func NewOrderSubmitter(exchange Exchange, creds Credentials, testnet bool) (OrderSubmitter, error) {
	builder, ok := registry[exchange]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, exchange)
	}
	return builder(creds, testnet)
}
