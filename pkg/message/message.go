// Package message renders user facing texts for every supported locale
package message

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/raykavin/pricealert/pkg/command"
	"github.com/raykavin/pricealert/pkg/core"
)

const (
	UpSymbol   = "⬆️"
	DownSymbol = "⬇️"

	// DefaultPrecision is used when a price has no instrument precision
	DefaultPrecision int32 = 2
)

// Texts holds the formatting functions of one locale
type Texts struct {
	WelcomeNew         func() string
	WelcomeBack        func() string
	Help               func() string
	LocaleChanged      func() string
	ParseError         func(owner string) string
	InstrumentNotFound func() string
	PriceNotFound      func(ticker string) string
	Added              func(prices []string) string
	Duplicates         func(prices []string) string
	NoPrices           func() string
	Deleted            func(count int) string
	Price              func(ticker, price string) string
	NoSubscriptions    func() string
	Notification       func(ticker, current, level, arrow string) string
}

var catalog = map[core.Locale]Texts{
	core.LocaleRU: ru,
	core.LocaleEN: en,
}

// For returns the texts of a locale, falling back to the default locale
func For(locale core.Locale) Texts {
	if texts, ok := catalog[locale]; ok {
		return texts
	}
	return catalog[core.DefaultLocale]
}

// FormatPrice rounds the price half to even at the given precision and drops
// trailing zeros
func FormatPrice(price decimal.Decimal, precision int32) string {
	return price.RoundBank(precision).String()
}

func formatPrices(prices []decimal.Decimal, precision int32) []string {
	result := make([]string, 0, len(prices))
	for _, price := range prices {
		result = append(result, FormatPrice(price, precision))
	}
	return result
}

// Notification renders the alert sent when a subscription fires
func Notification(sub core.Subscription, tick core.PriceTick) string {
	arrow := DownSymbol
	if tick.Rising() {
		arrow = UpSymbol
	}
	return For(sub.UserLocale).Notification(
		sub.InstrumentTicker,
		FormatPrice(tick.Current, sub.InstrumentPrecision),
		FormatPrice(sub.Price, sub.InstrumentPrecision),
		arrow,
	)
}

// Result renders the reply to an executed command
func Result(locale core.Locale, result command.Result) string {
	texts := For(locale)

	switch r := result.(type) {
	case command.AddResult:
		var lines []string
		precision := r.Instrument.Precision
		if len(r.Added) > 0 {
			lines = append(lines, texts.Added(formatPrices(r.Added, precision)))
		}
		if len(r.Duplicates) > 0 {
			lines = append(lines, texts.Duplicates(formatPrices(r.Duplicates, precision)))
		}
		if len(lines) == 0 {
			return texts.NoPrices()
		}
		return strings.Join(lines, "\n")
	case command.DeleteResult:
		return texts.Deleted(r.Deleted)
	case command.PriceResult:
		return texts.Price(r.Instrument.Ticker, FormatPrice(r.Price, r.Instrument.Precision))
	case command.MyResult:
		if len(r.Instruments) == 0 {
			return texts.NoSubscriptions()
		}
		lines := make([]string, 0, len(r.Instruments))
		for _, inst := range r.Instruments {
			lines = append(lines, inst.Ticker+": "+strings.Join(formatPrices(inst.Prices, inst.Precision), ", "))
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// Error renders the reply to a failed command. ok is false for errors that
// are not meant for the user.
func Error(locale core.Locale, err error, owner string, ticker string) (text string, ok bool) {
	texts := For(locale)

	var parseErr *command.ParseError
	switch {
	case errors.As(err, &parseErr):
		return texts.ParseError(owner), true
	case errors.Is(err, core.ErrInstrumentNotFound):
		return texts.InstrumentNotFound(), true
	case errors.Is(err, core.ErrPriceNotFound):
		return texts.PriceNotFound(ticker), true
	default:
		return "", false
	}
}
