package connectors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseExchange(t *testing.T) {
	exchange, err := ParseExchange("  Binance ")
	require.NoError(t, err)
	require.Equal(t, ExchangeBinance, exchange)

	exchange, err = ParseExchange("phemex")
	require.NoError(t, err)
	require.Equal(t, ExchangePhemex, exchange)

	_, err = ParseExchange("kraken")
	require.ErrorIs(t, err, ErrUnsupportedExchange)
}

func TestNewOrderSubmitterUnsupported(t *testing.T) {
	_, err := NewOrderSubmitter(Exchange("ftx"), Credentials{}, false)
	require.ErrorIs(t, err, ErrUnsupportedExchange)
}

func TestNewOrderSubmitterBuildsRegisteredAdapters(t *testing.T) {
	for _, exchange := range []Exchange{ExchangeBinance, ExchangePhemex} {
		submitter, err := NewOrderSubmitter(exchange, Credentials{APIKey: "k", APISecret: "s"}, true)
		require.NoError(t, err)
		require.NotNil(t, submitter)
	}
}
