package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"autotrader/src/model"
)

func newTestPhemexSubmitter(baseURL string) *phemexSubmitter {
	return &phemexSubmitter{
		apiKey:    "test-key",
		apiSecret: "test-secret",
		http:      resty.New().SetBaseURL(baseURL),
	}
}

func TestPhemexCreateOrderMarket(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/g-orders", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-phemex-access-token"))
		require.NotEmpty(t, r.Header.Get("x-phemex-request-signature"))
		require.NotEmpty(t, r.Header.Get("x-phemex-request-expiry"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{"orderID":"ord-1","priceRp":"65000","avgPriceRp":"65012.5"}}`))
	}))
	defer server.Close()

	submitter := newTestPhemexSubmitter(server.URL)

	result, err := submitter.CreateOrder(context.Background(), OrderRequest{
		Symbol:            "BTCUSDT",
		Side:              SideBuy,
		Type:              model.OrderTypeMarket,
		Quantity:          decimal.RequireFromString("0.01"),
		StopLossPercent:   decimal.RequireFromString("2"),
		TakeProfitPercent: decimal.RequireFromString("5"),
	})
	require.NoError(t, err)

	require.Equal(t, "ord-1", result.OrderID)
	require.Equal(t, "65000", result.Price)
	require.Equal(t, "65012.5", result.AvgPrice)

	require.Equal(t, "BTCUSDT", gotBody["symbol"])
	require.Equal(t, "Buy", gotBody["side"])
	require.Equal(t, "Market", gotBody["ordType"])
	require.Equal(t, "0.01", gotBody["orderQtyRq"])
	require.NotContains(t, gotBody, "priceRp")
	// Market orders carry no reference price, so percent-based protective
	// levels cannot be anchored and must not be sent.
	require.NotContains(t, gotBody, "stopLossRp")
	require.NotContains(t, gotBody, "takeProfitRp")
}

func TestPhemexProtectiveLevelsAnchoredOnLimitPrice(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{"orderID":"ord-3","priceRp":"100"}}`))
	}))
	defer server.Close()

	submitter := newTestPhemexSubmitter(server.URL)

	_, err := submitter.CreateOrder(context.Background(), OrderRequest{
		Symbol:            "BTCUSDT",
		Side:              SideBuy,
		Type:              model.OrderTypeLimit,
		Quantity:          decimal.RequireFromString("0.01"),
		Price:             decimal.RequireFromString("100"),
		StopLossPercent:   decimal.RequireFromString("2"),
		TakeProfitPercent: decimal.RequireFromString("5"),
	})
	require.NoError(t, err)

	require.Equal(t, "100", gotBody["priceRp"])
	require.Equal(t, "98", gotBody["stopLossRp"])
	require.Equal(t, "105", gotBody["takeProfitRp"])
}

func TestPhemexProtectiveLevelsMirroredForSell(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{"orderID":"ord-4","priceRp":"200"}}`))
	}))
	defer server.Close()

	submitter := newTestPhemexSubmitter(server.URL)

	_, err := submitter.CreateOrder(context.Background(), OrderRequest{
		Symbol:            "ETHUSDT",
		Side:              SideSell,
		Type:              model.OrderTypeLimit,
		Quantity:          decimal.RequireFromString("1"),
		Price:             decimal.RequireFromString("200"),
		StopLossPercent:   decimal.RequireFromString("10"),
		TakeProfitPercent: decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	// Shorts stop out above the entry and take profit below it.
	require.Equal(t, "220", gotBody["stopLossRp"])
	require.Equal(t, "180", gotBody["takeProfitRp"])
}

func TestPhemexCreateOrderLimitSell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Sell", body["side"])
		require.Equal(t, "Limit", body["ordType"])
		require.Equal(t, "2000", body["priceRp"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{"orderID":"ord-2","priceRp":"2000"}}`))
	}))
	defer server.Close()

	submitter := newTestPhemexSubmitter(server.URL)

	result, err := submitter.CreateOrder(context.Background(), OrderRequest{
		Symbol:   "ETHUSDT",
		Side:     SideSell,
		Type:     model.OrderTypeLimit,
		Quantity: decimal.RequireFromString("1.5"),
		Price:    decimal.RequireFromString("2000"),
	})
	require.NoError(t, err)
	require.Equal(t, "ord-2", result.OrderID)
}

func TestPhemexCreateOrderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":11001,"msg":"insufficient balance"}`))
	}))
	defer server.Close()

	submitter := newTestPhemexSubmitter(server.URL)

	_, err := submitter.CreateOrder(context.Background(), OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     SideBuy,
		Type:     model.OrderTypeMarket,
		Quantity: decimal.RequireFromString("0.01"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient balance")
}

func TestSignRequestIsDeterministic(t *testing.T) {
	sigA := signRequest("/g-orders", "", `{"symbol":"BTCUSDT"}`, 1700000000, "secret")
	sigB := signRequest("/g-orders", "", `{"symbol":"BTCUSDT"}`, 1700000000, "secret")
	require.Equal(t, sigA, sigB)

	sigC := signRequest("/g-orders", "", `{"symbol":"BTCUSDT"}`, 1700000000, "other")
	require.NotEqual(t, sigA, sigC)
}
