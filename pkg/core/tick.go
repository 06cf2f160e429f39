package core

import (
	"github.com/shopspring/decimal"
)

// Quote is a price observed by a PriceSource
type Quote struct {
	Instrument Instrument
	Price      decimal.NullDecimal
}

// PriceTick is one observed price update for an instrument. Previous is
// invalid when the instrument has never been priced before.
type PriceTick struct {
	Instrument Instrument
	Previous   decimal.NullDecimal
	Current    decimal.Decimal
}

// Range returns the ordered price interval covered by the tick. ok is false
// when the tick has no history or the price did not move.
func (t PriceTick) Range() (low, high decimal.Decimal, ok bool) {
	if !t.Previous.Valid {
		return decimal.Zero, decimal.Zero, false
	}

	low = decimal.Min(t.Previous.Decimal, t.Current)
	high = decimal.Max(t.Previous.Decimal, t.Current)
	if low.Equal(high) {
		return low, high, false
	}
	return low, high, true
}

// Rising reports whether the price went up
func (t PriceTick) Rising() bool {
	return t.Previous.Valid && t.Current.GreaterThan(t.Previous.Decimal)
}

// Notification is a message addressed to a user chat. Markdown marks text
// written with Telegram Markdown; everything else is sent as plain text.
type Notification struct {
	ChatID   int64
	Text     string
	Markdown bool
}
