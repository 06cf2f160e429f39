package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/logger/zerolog"
)

const exchangeInfo = `{
  "timezone": "UTC",
  "serverTime": 1717400000000,
  "symbols": [
    {
      "symbol": "BTCUSDT",
      "status": "TRADING",
      "baseAsset": "BTC",
      "quoteAsset": "USDT",
      "quotePrecision": 8,
      "filters": [
        {"filterType": "PRICE_FILTER", "minPrice": "0.01000000", "maxPrice": "1000000.00000000", "tickSize": "0.01000000"}
      ]
    },
    {
      "symbol": "OLDUSDT",
      "status": "BREAK",
      "baseAsset": "OLD",
      "quoteAsset": "USDT",
      "quotePrecision": 8,
      "filters": []
    }
  ]
}`

func newTestSpot(t *testing.T) *Spot {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v3/ping":
			_, _ = w.Write([]byte(`{}`))
		case "/api/v3/exchangeInfo":
			_, _ = w.Write([]byte(exchangeInfo))
		case "/api/v3/ticker/price":
			_, _ = w.Write([]byte(`[{"symbol": "BTCUSDT", "price": "67250.12000000"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	log, err := zerolog.New("error", "", false, false)
	require.NoError(t, err)

	spot, err := NewSpot(context.Background(), log, WithBaseURL(server.URL))
	require.NoError(t, err)
	return spot
}

func TestSpot_FindInstrument(t *testing.T) {
	spot := newTestSpot(t)

	inst, err := spot.FindInstrument(context.Background(), "btcusdt")
	require.NoError(t, err)
	require.Equal(t, "BTCUSDT", inst.Ticker)
	require.Equal(t, Exchange, inst.Exchange)
	require.Equal(t, core.InstrumentKindCurrency, inst.Kind)
	require.Equal(t, int32(2), inst.Precision)

	_, err = spot.FindInstrument(context.Background(), "OLDUSDT")
	require.ErrorIs(t, err, core.ErrInstrumentNotFound)
}

func TestSpot_Prices(t *testing.T) {
	spot := newTestSpot(t)

	quotes, err := spot.Prices(context.Background(), []core.Instrument{
		{ID: 1, Ticker: "BTCUSDT"},
		{ID: 2, Ticker: "GAZP"},
	})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	require.True(t, quotes[0].Price.Valid)
	require.Equal(t, "67250.12", quotes[0].Price.Decimal.String())
	require.False(t, quotes[1].Price.Valid)
}
