package connectors

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"autotrader/src/model"
)

const (
	binanceMainnetURL = "https://api.binance.com"
	binanceTestnetURL = "https://testnet.binance.vision"
)

type binanceSubmitter struct {
	client *binance.Client
}

func newBinanceSubmitter(creds Credentials, testnet bool) (OrderSubmitter, error) {
	// The endpoint is set per client. The package-level binance.UseTestnet
	// switch must stay untouched: submitters for different accounts are
	// built concurrently, and a global would route one account's orders
	// through another account's endpoint.
	client := binance.NewClient(creds.APIKey, creds.APISecret)
	if testnet {
		client.BaseURL = binanceTestnetURL
	} else {
		client.BaseURL = binanceMainnetURL
	}

	return &binanceSubmitter{client: client}, nil
}

func (s *binanceSubmitter) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	side := binance.SideTypeBuy
	if req.Side == SideSell {
		side = binance.SideTypeSell
	}

	svc := s.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Quantity(req.Quantity.String()).
		NewClientOrderID("autotrade-" + uuid.NewString())

	switch req.Type {
	case model.OrderTypeLimit:
		svc = svc.Type(binance.OrderTypeLimit).
			TimeInForce(binance.TimeInForceTypeGTC).
			Price(req.Price.String())
	default:
		svc = svc.Type(binance.OrderTypeMarket)
	}

	// Spot orders carry no attached protective legs; stop-loss and
	// take-profit belong to the dashboard's position management.
	if !req.StopLossPercent.IsZero() || !req.TakeProfitPercent.IsZero() {
		logger.WithFields(map[string]interface{}{
			"connector": "binance",
			"symbol":    req.Symbol,
		}).Debug("Stop-loss/take-profit not attached on spot orders")
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance create order: %w", err)
	}

	result := &OrderResult{
		OrderID: fmt.Sprintf("%d", res.OrderID),
		Price:   res.Price,
	}
	if len(res.Fills) > 0 {
		result.AvgPrice = res.Fills[0].Price
	}

	logger.WithFields(map[string]interface{}{
		"connector": "binance",
		"symbol":    req.Symbol,
		"side":      req.Side,
		"order_id":  result.OrderID,
	}).Info("Order submitted")

	return result, nil
}
