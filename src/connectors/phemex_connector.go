package connectors

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"autotrader/src/model"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 5 * time.Second

	phemexMainnetURL = "https://api.phemex.com"
	phemexTestnetURL = "https://testnet-api.phemex.com"
)

type phemexSubmitter struct {
	apiKey    string
	apiSecret string
	http      *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

func newPhemexSubmitter(creds Credentials, testnet bool) (OrderSubmitter, error) {
	baseURL := phemexMainnetURL
	if testnet {
		baseURL = phemexTestnetURL
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &phemexSubmitter{
		apiKey:    creds.APIKey,
		apiSecret: creds.APISecret,
		http:      httpClient,
	}, nil
}

func signRequest(path, query, body string, expiry int64, secret string) string {
	base := path
	if query != "" {
		base += query
	}
	base += fmt.Sprintf("%d", expiry)
	if body != "" {
		base += body
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}

// protectiveLevel turns a percent magnitude into an absolute price.
// below picks the side of the reference: a buy's stop-loss and a sell's
// take-profit sit below it, the mirror cases above.
func protectiveLevel(price, percent decimal.Decimal, below bool) decimal.Decimal {
	if percent.IsZero() {
		return decimal.Zero
	}

	offset := price.Mul(percent).Div(decimal.NewFromInt(100))
	if below {
		return price.Sub(offset)
	}
	return price.Add(offset)
}

type phemexAPIResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type phemexOrderData struct {
	OrderID    string `json:"orderID"`
	PriceRp    string `json:"priceRp"`
	AvgPriceRp string `json:"avgPriceRp"`
}

func (c *phemexSubmitter) doRequest(ctx context.Context, method, path, query string, body []byte) (*phemexAPIResponse, error) {
	expiry := time.Now().Add(1 * time.Minute).Unix()

	sig := signRequest(path, query, string(body), expiry, c.apiSecret)

	req := c.http.R().
		SetContext(ctx).
		SetHeader("x-phemex-access-token", c.apiKey).
		SetHeader("x-phemex-request-expiry", fmt.Sprintf("%d", expiry)).
		SetHeader("x-phemex-request-signature", sig)

	if query != "" {
		req = req.SetQueryString(query)
	}
	if body != nil {
		req = req.SetBody(body).SetHeader("Content-Type", "application/json")
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}

	raw := resp.Body()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), string(raw))
	}

	var apiResp phemexAPIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, err
	}

	return &apiResp, nil
}

func (c *phemexSubmitter) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	side := "Buy"
	if req.Side == SideSell {
		side = "Sell"
	}

	ordType := "Market"
	payload := map[string]interface{}{
		"clOrdID":    "autotrade-" + uuid.NewString(),
		"symbol":     req.Symbol,
		"side":       side,
		"orderQtyRq": req.Quantity.String(),
	}
	if req.Type == model.OrderTypeLimit {
		ordType = "Limit"
		payload["priceRp"] = req.Price.String()
	}
	payload["ordType"] = ordType

	// stopLossRp/takeProfitRp are absolute prices; the requested percent
	// magnitudes are anchored on the order price. Market orders carry no
	// reference price, so protective levels are skipped there.
	if !req.StopLossPercent.IsZero() || !req.TakeProfitPercent.IsZero() {
		if req.Price.IsZero() {
			logger.WithFields(map[string]interface{}{
				"connector": "phemex",
				"symbol":    req.Symbol,
			}).Debug("No reference price for protective levels, skipping")
		} else {
			if stopLoss := protectiveLevel(req.Price, req.StopLossPercent, side == "Buy"); !stopLoss.IsZero() {
				payload["stopLossRp"] = stopLoss.String()
			}
			if takeProfit := protectiveLevel(req.Price, req.TakeProfitPercent, side == "Sell"); !takeProfit.IsZero() {
				payload["takeProfitRp"] = takeProfit.String()
			}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, "POST", "/g-orders", "", body)
	if err != nil {
		return nil, fmt.Errorf("phemex create order: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("phemex API error: %s", resp.Msg)
	}

	var data phemexOrderData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("phemex order response: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"connector": "phemex",
		"symbol":    req.Symbol,
		"side":      req.Side,
		"order_id":  data.OrderID,
	}).Info("Order submitted")

	return &OrderResult{
		OrderID:  data.OrderID,
		Price:    data.PriceRp,
		AvgPrice: data.AvgPriceRp,
	}, nil
}
