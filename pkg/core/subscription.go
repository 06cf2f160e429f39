package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionType controls what happens to a subscription after it fires
type SubscriptionType string

const (
	// SubscriptionTypeAlways fires every time the level is crossed
	SubscriptionTypeAlways SubscriptionType = "ALWAYS"
	// SubscriptionTypeOnetime fires once and is deactivated
	SubscriptionTypeOnetime SubscriptionType = "ONETIME"
	// SubscriptionTypeCrossing fires once per approach, until a sibling level fires
	SubscriptionTypeCrossing SubscriptionType = "CROSSING"
)

// DefaultSubscriptionType is used when a command does not name a type
const DefaultSubscriptionType = SubscriptionTypeAlways

// SubscriptionTypes lists every subscription type in keyword scan order
var SubscriptionTypes = []SubscriptionType{
	SubscriptionTypeAlways,
	SubscriptionTypeOnetime,
	SubscriptionTypeCrossing,
}

func (t SubscriptionType) String() string { return string(t) }

// ParseSubscriptionType converts a keyword into a SubscriptionType
func ParseSubscriptionType(s string) (SubscriptionType, error) {
	for _, t := range SubscriptionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown subscription type %q", s)
}

// Subscription is a price alert registered by a user on an instrument.
// The User* and Instrument* fields are denormalized on read for rendering
// and are never persisted.
type Subscription struct {
	ID               int64            `json:"id" gorm:"primaryKey"`
	UserID           int64            `json:"user_id" gorm:"index;not null"`
	InstrumentID     int64            `json:"instrument_id" gorm:"index;not null"`
	Price            decimal.Decimal  `json:"price" gorm:"type:numeric;not null"`
	Type             SubscriptionType `json:"type" gorm:"size:16;not null;default:ALWAYS"`
	CrossingDisabled bool             `json:"crossing_disabled" gorm:"not null;default:false"`
	Active           bool             `json:"active" gorm:"not null"`
	CreatedAt        time.Time        `json:"created_at"`

	UserChatID          int64  `json:"-" gorm:"->;-:migration"`
	UserLocale          Locale `json:"-" gorm:"->;-:migration"`
	InstrumentTicker    string `json:"-" gorm:"->;-:migration"`
	InstrumentPrecision int32  `json:"-" gorm:"->;-:migration"`
}

// Armed reports whether the subscription is eligible to fire
func (s Subscription) Armed() bool {
	return s.Active && !s.CrossingDisabled
}

// SubscriptionFilter selects subscriptions for deletion. Zero values match
// anything; a nil Prices slice matches every price.
type SubscriptionFilter struct {
	UserID       int64
	InstrumentID int64
	Prices       []decimal.Decimal
}

// Match reports whether the subscription satisfies the filter
func (f SubscriptionFilter) Match(sub Subscription) bool {
	if f.UserID != 0 && sub.UserID != f.UserID {
		return false
	}
	if f.InstrumentID != 0 && sub.InstrumentID != f.InstrumentID {
		return false
	}
	if f.Prices == nil {
		return true
	}
	for _, price := range f.Prices {
		if sub.Price.Equal(price) {
			return true
		}
	}
	return false
}
