package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// Storage gives transactional access to the persisted state. Update runs fn
// in a single read-write transaction: every mutation made through tx is
// committed when fn returns nil and rolled back otherwise.
type Storage interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the set of repositories bound to one transaction
type Tx interface {
	InstrumentRepository
	PriceRepository
	UserRepository
	SubscriptionRepository
}

type InstrumentRepository interface {
	// InstrumentByTicker returns ErrInstrumentNotFound when the ticker is unknown
	InstrumentByTicker(ticker string) (Instrument, error)
	Instruments() ([]Instrument, error)
	CreateInstrument(instrument *Instrument) error
}

type PriceRepository interface {
	// Prices returns the last known price of each instrument that has one
	Prices(instrumentIDs ...int64) (map[int64]decimal.Decimal, error)
	SetPrice(instrumentID int64, price decimal.Decimal) error
}

type UserRepository interface {
	User(id int64) (User, error)
	UserByChatID(chatID int64) (User, error)
	CreateUser(user *User) error
	SetUserLocale(id int64, locale Locale) error
}

type SubscriptionRepository interface {
	// CreateSubscription returns ErrDuplicate when an active subscription with
	// the same user, instrument and price exists
	CreateSubscription(sub *Subscription) error

	// FindCrossing returns the active, not crossing-disabled subscriptions of
	// the instrument with low <= price < high
	FindCrossing(instrumentID int64, low, high decimal.Decimal) ([]Subscription, error)

	// ActiveSubscriptions returns the active subscriptions of a user ordered by creation
	ActiveSubscriptions(userID int64) ([]Subscription, error)

	SetActive(id int64, active bool) error

	// RearmCrossing clears crossing_disabled on every active CROSSING
	// subscription of the user on the instrument
	RearmCrossing(userID, instrumentID int64) error

	DisableCrossing(id int64) error

	DeleteSubscriptions(filter SubscriptionFilter) (int, error)
}
