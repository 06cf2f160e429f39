package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/buntdb"

	"github.com/raykavin/pricealert/pkg/core"
)

const (
	subscriptionIndex = "subscription_id"
	instrumentIndex   = "instrument_id"
)

// BuntStorage implements core.Storage on top of BuntDB. Each record is a JSON
// value; lookups by ticker and chat go through secondary key records.
type BuntStorage struct {
	db *buntdb.DB
}

// FromMemory creates an in-memory storage
func FromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:")
}

// FromFile creates a file-based storage
func FromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage creates a new BuntDB storage instance
func NewBuntStorage(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex(subscriptionIndex, "subscription:*", buntdb.IndexJSON("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	err = db.CreateIndex(instrumentIndex, "instrument:*", buntdb.IndexJSON("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStorage{
		db: db,
	}, nil
}

// Update runs fn in a read-write transaction
func (b *BuntStorage) Update(ctx context.Context, fn func(tx core.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *buntdb.Tx) error {
		return fn(&buntTx{tx: tx})
	})
}

// View runs fn in a read-only transaction
func (b *BuntStorage) View(ctx context.Context, fn func(tx core.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(tx *buntdb.Tx) error {
		return fn(&buntTx{tx: tx})
	})
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

type buntTx struct {
	tx *buntdb.Tx
}

func instrumentKey(id int64) string   { return "instrument:" + strconv.FormatInt(id, 10) }
func tickerKey(ticker string) string  { return "ticker:" + ticker }
func priceKey(id int64) string        { return "price:" + strconv.FormatInt(id, 10) }
func userKey(id int64) string         { return "user:" + strconv.FormatInt(id, 10) }
func chatKey(chatID int64) string     { return "chat:" + strconv.FormatInt(chatID, 10) }
func subscriptionKey(id int64) string { return "subscription:" + strconv.FormatInt(id, 10) }

// nextID increments the sequence of a record kind. The counter lives in the
// transaction, so a rollback gives the ID back.
func (t *buntTx) nextID(kind string) (int64, error) {
	key := "seq:" + kind

	var current int64
	value, err := t.tx.Get(key)
	switch {
	case errors.Is(err, buntdb.ErrNotFound):
	case err != nil:
		return 0, core.NewPersistenceError("next id", err)
	default:
		current, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, core.NewPersistenceError("next id", err)
		}
	}

	current++
	if _, _, err := t.tx.Set(key, strconv.FormatInt(current, 10), nil); err != nil {
		return 0, core.NewPersistenceError("next id", err)
	}
	return current, nil
}

func (t *buntTx) get(key string, target any, notFound error) error {
	value, err := t.tx.Get(key)
	if errors.Is(err, buntdb.ErrNotFound) {
		return notFound
	}
	if err != nil {
		return core.NewPersistenceError("get "+key, err)
	}
	if err := json.Unmarshal([]byte(value), target); err != nil {
		return core.NewPersistenceError("unmarshal "+key, err)
	}
	return nil
}

func (t *buntTx) set(key string, value any) error {
	content, err := json.Marshal(value)
	if err != nil {
		return core.NewPersistenceError("marshal "+key, err)
	}
	if _, _, err := t.tx.Set(key, string(content), nil); err != nil {
		return core.NewPersistenceError("set "+key, err)
	}
	return nil
}

func (t *buntTx) lookupID(key string, notFound error) (int64, error) {
	value, err := t.tx.Get(key)
	if errors.Is(err, buntdb.ErrNotFound) {
		return 0, notFound
	}
	if err != nil {
		return 0, core.NewPersistenceError("get "+key, err)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, core.NewPersistenceError("parse "+key, err)
	}
	return id, nil
}

func (t *buntTx) InstrumentByTicker(ticker string) (core.Instrument, error) {
	id, err := t.lookupID(tickerKey(core.NormalizeTicker(ticker)), core.ErrInstrumentNotFound)
	if err != nil {
		return core.Instrument{}, err
	}

	var instrument core.Instrument
	err = t.get(instrumentKey(id), &instrument, core.ErrInstrumentNotFound)
	return instrument, err
}

func (t *buntTx) Instruments() ([]core.Instrument, error) {
	var (
		instruments []core.Instrument
		decodeErr   error
	)
	err := t.tx.Ascend(instrumentIndex, func(_, value string) bool {
		var instrument core.Instrument
		if decodeErr = json.Unmarshal([]byte(value), &instrument); decodeErr != nil {
			return false
		}
		instruments = append(instruments, instrument)
		return true
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		return nil, core.NewPersistenceError("list instruments", err)
	}
	return instruments, nil
}

func (t *buntTx) CreateInstrument(instrument *core.Instrument) error {
	instrument.Ticker = core.NormalizeTicker(instrument.Ticker)
	if _, err := t.tx.Get(tickerKey(instrument.Ticker)); err == nil {
		return fmt.Errorf("instrument %s: %w", instrument.Ticker, core.ErrDuplicate)
	}

	id, err := t.nextID("instrument")
	if err != nil {
		return err
	}

	instrument.ID = id
	if instrument.CreatedAt.IsZero() {
		instrument.CreatedAt = time.Now().UTC()
	}

	if err := t.set(instrumentKey(id), instrument); err != nil {
		return err
	}
	if _, _, err := t.tx.Set(tickerKey(instrument.Ticker), strconv.FormatInt(id, 10), nil); err != nil {
		return core.NewPersistenceError("set ticker", err)
	}
	return nil
}

func (t *buntTx) Prices(instrumentIDs ...int64) (map[int64]decimal.Decimal, error) {
	prices := make(map[int64]decimal.Decimal, len(instrumentIDs))
	for _, id := range instrumentIDs {
		var price core.InstrumentPrice
		err := t.get(priceKey(id), &price, core.ErrPriceNotFound)
		if errors.Is(err, core.ErrPriceNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		prices[id] = price.Price
	}
	return prices, nil
}

func (t *buntTx) SetPrice(instrumentID int64, price decimal.Decimal) error {
	return t.set(priceKey(instrumentID), core.InstrumentPrice{
		InstrumentID: instrumentID,
		Price:        price,
		UpdatedAt:    time.Now().UTC(),
	})
}

func (t *buntTx) User(id int64) (core.User, error) {
	var user core.User
	err := t.get(userKey(id), &user, core.ErrUserNotFound)
	return user, err
}

func (t *buntTx) UserByChatID(chatID int64) (core.User, error) {
	id, err := t.lookupID(chatKey(chatID), core.ErrUserNotFound)
	if err != nil {
		return core.User{}, err
	}
	return t.User(id)
}

func (t *buntTx) CreateUser(user *core.User) error {
	if _, err := t.tx.Get(chatKey(user.ChatID)); err == nil {
		return core.ErrAlreadyRegistered
	}

	id, err := t.nextID("user")
	if err != nil {
		return err
	}

	user.ID = id
	if user.Locale == "" {
		user.Locale = core.DefaultLocale
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	if err := t.set(userKey(id), user); err != nil {
		return err
	}
	if _, _, err := t.tx.Set(chatKey(user.ChatID), strconv.FormatInt(id, 10), nil); err != nil {
		return core.NewPersistenceError("set chat", err)
	}
	return nil
}

func (t *buntTx) SetUserLocale(id int64, locale core.Locale) error {
	user, err := t.User(id)
	if err != nil {
		return err
	}
	user.Locale = locale
	return t.set(userKey(id), user)
}

// subscriptions returns every stored subscription matching keep, in ID order
func (t *buntTx) subscriptions(keep func(core.Subscription) bool) ([]core.Subscription, error) {
	var (
		subs      []core.Subscription
		decodeErr error
	)
	err := t.tx.Ascend(subscriptionIndex, func(_, value string) bool {
		var sub core.Subscription
		if decodeErr = json.Unmarshal([]byte(value), &sub); decodeErr != nil {
			return false
		}
		if keep(sub) {
			subs = append(subs, sub)
		}
		return true
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		return nil, core.NewPersistenceError("list subscriptions", err)
	}
	return subs, nil
}

// denormalize fills the user and instrument fields used for rendering
func (t *buntTx) denormalize(subs []core.Subscription) error {
	users := make(map[int64]core.User)
	instruments := make(map[int64]core.Instrument)

	for i := range subs {
		user, ok := users[subs[i].UserID]
		if !ok {
			var err error
			if user, err = t.User(subs[i].UserID); err != nil {
				return err
			}
			users[user.ID] = user
		}

		instrument, ok := instruments[subs[i].InstrumentID]
		if !ok {
			if err := t.get(instrumentKey(subs[i].InstrumentID), &instrument, core.ErrInstrumentNotFound); err != nil {
				return err
			}
			instruments[instrument.ID] = instrument
		}

		subs[i].UserChatID = user.ChatID
		subs[i].UserLocale = user.Locale
		subs[i].InstrumentTicker = instrument.Ticker
		subs[i].InstrumentPrecision = instrument.Precision
	}
	return nil
}

func (t *buntTx) CreateSubscription(sub *core.Subscription) error {
	existing, err := t.subscriptions(func(s core.Subscription) bool {
		return s.Active && s.UserID == sub.UserID &&
			s.InstrumentID == sub.InstrumentID && s.Price.Equal(sub.Price)
	})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return core.ErrDuplicate
	}

	id, err := t.nextID("subscription")
	if err != nil {
		return err
	}

	sub.ID = id
	if sub.Type == "" {
		sub.Type = core.DefaultSubscriptionType
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	return t.set(subscriptionKey(id), sub)
}

func (t *buntTx) FindCrossing(instrumentID int64, low, high decimal.Decimal) ([]core.Subscription, error) {
	subs, err := t.subscriptions(func(s core.Subscription) bool {
		return s.InstrumentID == instrumentID && s.Armed() &&
			s.Price.GreaterThanOrEqual(low) && s.Price.LessThan(high)
	})
	if err != nil {
		return nil, err
	}
	return subs, t.denormalize(subs)
}

func (t *buntTx) ActiveSubscriptions(userID int64) ([]core.Subscription, error) {
	subs, err := t.subscriptions(func(s core.Subscription) bool {
		return s.Active && s.UserID == userID
	})
	if err != nil {
		return nil, err
	}
	return subs, t.denormalize(subs)
}

func (t *buntTx) update(id int64, fn func(sub *core.Subscription)) error {
	var sub core.Subscription
	if err := t.get(subscriptionKey(id), &sub, fmt.Errorf("subscription %d not found", id)); err != nil {
		return err
	}
	fn(&sub)
	return t.set(subscriptionKey(id), sub)
}

func (t *buntTx) SetActive(id int64, active bool) error {
	return t.update(id, func(sub *core.Subscription) {
		sub.Active = active
	})
}

func (t *buntTx) RearmCrossing(userID, instrumentID int64) error {
	subs, err := t.subscriptions(func(s core.Subscription) bool {
		return s.Active && s.CrossingDisabled && s.Type == core.SubscriptionTypeCrossing &&
			s.UserID == userID && s.InstrumentID == instrumentID
	})
	if err != nil {
		return err
	}

	for _, sub := range subs {
		sub.CrossingDisabled = false
		if err := t.set(subscriptionKey(sub.ID), sub); err != nil {
			return err
		}
	}
	return nil
}

func (t *buntTx) DisableCrossing(id int64) error {
	return t.update(id, func(sub *core.Subscription) {
		sub.CrossingDisabled = true
	})
}

func (t *buntTx) DeleteSubscriptions(filter core.SubscriptionFilter) (int, error) {
	subs, err := t.subscriptions(filter.Match)
	if err != nil {
		return 0, err
	}

	for _, sub := range subs {
		if _, err := t.tx.Delete(subscriptionKey(sub.ID)); err != nil {
			return 0, core.NewPersistenceError("delete subscription", err)
		}
	}
	return len(subs), nil
}
