package exchange

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricealert/pkg/core"
)

const replay = `time,ticker,price
1700000060,GAZP,101.5
1700000000,GAZP,100
1700000000,sber,250.25
1700000120,GAZP,99
`

func TestCSVSource_Replay(t *testing.T) {
	source, err := ReadCSVSource(strings.NewReader(replay))
	require.NoError(t, err)
	require.Equal(t, []string{"GAZP", "SBER"}, source.Tickers())

	gazp := core.Instrument{ID: 1, Ticker: "GAZP"}
	sber := core.Instrument{ID: 2, Ticker: "SBER"}
	unknown := core.Instrument{ID: 3, Ticker: "YNDX"}

	expected := []string{"100", "101.5", "99", "99"}
	for _, price := range expected {
		quotes, err := source.Prices(context.Background(), []core.Instrument{gazp, sber, unknown})
		require.NoError(t, err)
		require.Len(t, quotes, 3)

		require.True(t, quotes[0].Price.Valid)
		require.True(t, quotes[0].Price.Decimal.Equal(decimal.RequireFromString(price)))
		require.True(t, quotes[1].Price.Decimal.Equal(decimal.RequireFromString("250.25")))
		require.False(t, quotes[2].Price.Valid)
	}
}

func TestCSVSource_FindInstrument(t *testing.T) {
	source, err := ReadCSVSource(strings.NewReader(replay))
	require.NoError(t, err)

	instrument, err := source.FindInstrument(context.Background(), "gazp")
	require.NoError(t, err)
	require.Equal(t, "GAZP", instrument.Ticker)
	require.Equal(t, int32(1), instrument.Precision)

	instrument, err = source.FindInstrument(context.Background(), "SBER")
	require.NoError(t, err)
	require.Equal(t, int32(2), instrument.Precision)

	_, err = source.FindInstrument(context.Background(), "YNDX")
	require.ErrorIs(t, err, core.ErrInstrumentNotFound)
}

func TestCSVSource_WithoutHeader(t *testing.T) {
	source, err := ReadCSVSource(strings.NewReader("2024-01-02T10:00:00Z,GAZP,100\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"GAZP"}, source.Tickers())
}

func TestCSVSource_Errors(t *testing.T) {
	_, err := ReadCSVSource(strings.NewReader(""))
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = ReadCSVSource(strings.NewReader("time,ticker,price\n"))
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = ReadCSVSource(strings.NewReader("time,ticker,price\nyesterday,GAZP,100\n"))
	require.ErrorContains(t, err, "invalid time")

	_, err = ReadCSVSource(strings.NewReader("time,ticker,price\n1700000000,GAZP,abc\n"))
	require.ErrorContains(t, err, "invalid price")
}
