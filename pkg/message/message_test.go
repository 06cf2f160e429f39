package message

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricealert/pkg/command"
	"github.com/raykavin/pricealert/pkg/core"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price     string
		precision int32
		expected  string
	}{
		{"100", 2, "100"},
		{"100.50", 2, "100.5"},
		{"100.456", 2, "100.46"},
		{"100.125", 2, "100.12"},
		{"100.135", 2, "100.14"},
		{"0.000123", 4, "0.0001"},
		{"99.999", 2, "100"},
		{"12.5", 0, "12"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s@%d", tt.price, tt.precision), func(t *testing.T) {
			require.Equal(t, tt.expected, FormatPrice(decimal.RequireFromString(tt.price), tt.precision))
		})
	}
}

func TestFor_FallsBackToDefault(t *testing.T) {
	require.Equal(t, "Добро пожаловать", For("DE").WelcomeNew())
	require.Equal(t, "Welcome", For(core.LocaleEN).WelcomeNew())
}

func TestNotification(t *testing.T) {
	sub := core.Subscription{
		Price:               decimal.NewFromInt(103),
		UserLocale:          core.LocaleEN,
		InstrumentTicker:    "GAZP",
		InstrumentPrecision: 2,
	}
	tick := core.PriceTick{
		Previous: decimal.NewNullDecimal(decimal.NewFromInt(100)),
		Current:  decimal.RequireFromString("106.10"),
	}

	require.Equal(t, "The price of GAZP is 106.1\n⬆️ Subscription triggered at 103", Notification(sub, tick))

	sub.UserLocale = core.LocaleRU
	tick.Previous = decimal.NewNullDecimal(decimal.NewFromInt(110))
	require.Equal(t, "Цена на GAZP составляет 106.1\n⬇️ Сработала подписка на 103", Notification(sub, tick))
}

func TestResult_Add(t *testing.T) {
	result := command.AddResult{
		Instrument: core.Instrument{Ticker: "GAZP", Precision: 2},
		Added:      []decimal.Decimal{decimal.NewFromInt(100), decimal.RequireFromString("105.50")},
		Duplicates: []decimal.Decimal{decimal.NewFromInt(110)},
	}

	require.Equal(t, "OK: 100, 105.5\nERROR: 110", Result(core.LocaleEN, result))
	require.Equal(t, "Успешно добавлено: 100, 105.5\nОшибка (уже существовали): 110", Result(core.LocaleRU, result))

	result.Duplicates = nil
	require.Equal(t, "OK: 100, 105.5", Result(core.LocaleEN, result))

	result.Added = nil
	require.Equal(t, "No price levels given", Result(core.LocaleEN, result))
	require.Equal(t, "Не указаны уровни цен", Result(core.LocaleRU, result))
}

func TestResult_Others(t *testing.T) {
	require.Equal(t, "Removed 3 subscriptions", Result(core.LocaleEN, command.DeleteResult{Deleted: 3}))
	require.Equal(t, "Удалено 0 подписок", Result(core.LocaleRU, command.DeleteResult{}))

	price := command.PriceResult{
		Instrument: core.Instrument{Ticker: "SBER", Precision: 2},
		Price:      decimal.RequireFromString("250.10"),
	}
	require.Equal(t, "Price SBER = 250.1", Result(core.LocaleEN, price))
	require.Equal(t, "Цена SBER = 250.1", Result(core.LocaleRU, price))

	require.Equal(t, "You have no active subscriptions", Result(core.LocaleEN, command.MyResult{}))

	my := command.MyResult{Instruments: []command.InstrumentSubscriptions{
		{Ticker: "GAZP", Precision: 2, Prices: []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(105)}},
		{Ticker: "BTCUSDT", Precision: 4, Prices: []decimal.Decimal{decimal.RequireFromString("0.12345")}},
	}}
	require.Equal(t, "GAZP: 100, 105\nBTCUSDT: 0.1234", Result(core.LocaleEN, my))
}

func TestError(t *testing.T) {
	text, ok := Error(core.LocaleEN, command.ErrUnknownCommand, "owner", "")
	require.True(t, ok)
	require.Equal(t, "Error. Contact the [bot owner](https://t.me/owner)", text)

	text, ok = Error(core.LocaleRU, fmt.Errorf("lookup: %w", core.ErrInstrumentNotFound), "owner", "GAZP")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(text, "Инструмент не найден"))

	text, ok = Error(core.LocaleEN, core.ErrPriceNotFound, "owner", "GAZP")
	require.True(t, ok)
	require.Equal(t, "The price of GAZP is not known yet", text)

	_, ok = Error(core.LocaleEN, errors.New("disk full"), "owner", "")
	require.False(t, ok)
}

func TestSplit(t *testing.T) {
	require.Equal(t, []string{"short"}, Split("short", 10))

	chunks := Split("aaaa\nbbbb\ncccc", 9)
	require.Equal(t, []string{"aaaa\nbbbb", "cccc"}, chunks)

	chunks = Split(strings.Repeat("x", 25), 10)
	require.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunks)

	long := strings.Repeat("строка\n", 1000)
	for _, chunk := range Split(long, MaxLength) {
		require.LessOrEqual(t, len([]rune(chunk)), MaxLength)
	}
}
