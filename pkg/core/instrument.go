package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentKind is the asset class of a tradable instrument
type InstrumentKind string

const (
	InstrumentKindEquity   InstrumentKind = "EQUITY"
	InstrumentKindBond     InstrumentKind = "BOND"
	InstrumentKindFuture   InstrumentKind = "FUTURE"
	InstrumentKindCurrency InstrumentKind = "CURRENCY"
	InstrumentKindFund     InstrumentKind = "FUND"
)

// Instrument is a tradable asset that users can subscribe to
type Instrument struct {
	ID        int64          `json:"id" gorm:"primaryKey"`
	Ticker    string         `json:"ticker" gorm:"size:32;uniqueIndex;not null"`
	Exchange  string         `json:"exchange" gorm:"size:64"`
	Kind      InstrumentKind `json:"kind" gorm:"size:16"`
	Precision int32          `json:"precision"`
	CreatedAt time.Time      `json:"created_at"`
}

// Round rounds the price to the instrument precision
func (i Instrument) Round(price decimal.Decimal) decimal.Decimal {
	return price.Round(i.Precision)
}

// NormalizeTicker returns the canonical form of a ticker
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// InstrumentPrice is the last observed price of an instrument
type InstrumentPrice struct {
	InstrumentID int64           `json:"instrument_id" gorm:"primaryKey;autoIncrement:false"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric;not null"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
