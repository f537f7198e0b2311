package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"

	"autotrader/src/autotrade"
)

func TestNotifyTradeOpened(t *testing.T) {
	var gotPath, gotText string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotText = r.URL.Query().Get("text")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := &TelegramNotifier{
		token:  "bot-token",
		chatID: "123",
		http:   resty.New().SetBaseURL(server.URL),
	}

	err := n.NotifyTradeOpened(context.Background(), 7, autotrade.TradeNotification{
		Symbol:     "BTCUSDT",
		Side:       "buy",
		EntryPrice: "65000",
	})
	require.NoError(t, err)
	require.Equal(t, "/botbot-token/sendMessage", gotPath)
	require.Contains(t, gotText, "BTCUSDT")
	require.Contains(t, gotText, "65000")
}

func TestNotifyTradeOpenedSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	n := &TelegramNotifier{
		token: "bad",
		http:  resty.New().SetBaseURL(server.URL),
	}

	err := n.NotifyTradeOpened(context.Background(), 7, autotrade.TradeNotification{Symbol: "BTCUSDT"})
	require.Error(t, err)
}
