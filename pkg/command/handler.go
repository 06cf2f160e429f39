package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/instrument"
)

// Result is the outcome of executing a payload
type Result interface {
	isResult()
}

// AddResult lists the levels created and the ones skipped because an active
// subscription already existed
type AddResult struct {
	Instrument core.Instrument
	Added      []decimal.Decimal
	Duplicates []decimal.Decimal
}

type DeleteResult struct {
	Deleted int
}

type PriceResult struct {
	Instrument core.Instrument
	Price      decimal.Decimal
}

// InstrumentSubscriptions are the active levels of one instrument
type InstrumentSubscriptions struct {
	Ticker    string
	Precision int32
	Prices    []decimal.Decimal
}

// MyResult groups the active subscriptions of a user by ticker in creation order
type MyResult struct {
	Instruments []InstrumentSubscriptions
}

func (AddResult) isResult()    {}
func (DeleteResult) isResult() {}
func (PriceResult) isResult()  {}
func (MyResult) isResult()     {}

// Handler executes parsed commands on behalf of a user
type Handler struct {
	storage     core.Storage
	instruments *instrument.Service
}

func NewHandler(storage core.Storage, instruments *instrument.Service) *Handler {
	return &Handler{
		storage:     storage,
		instruments: instruments,
	}
}

// Execute dispatches the payload to its handler
func (h *Handler) Execute(ctx context.Context, user core.User, payload Payload) (Result, error) {
	switch cmd := payload.(type) {
	case Add:
		return h.Add(ctx, user.ID, cmd)
	case Step:
		return h.Step(ctx, user.ID, cmd)
	case Price:
		return h.Price(ctx, cmd)
	case Delete:
		return h.Delete(ctx, user.ID, cmd)
	case DeleteAll:
		return h.DeleteAll(ctx, user.ID)
	case My:
		return h.My(ctx, user.ID)
	default:
		return nil, fmt.Errorf("unsupported command %T", payload)
	}
}

// Add creates an active subscription per price, rounded to the instrument
// precision. Levels with an existing active subscription are reported as
// duplicates and left untouched.
func (h *Handler) Add(ctx context.Context, userID int64, cmd Add) (AddResult, error) {
	inst, err := h.instruments.GetOrCreate(ctx, cmd.Ticker)
	if err != nil {
		return AddResult{}, err
	}
	return h.subscribe(ctx, userID, inst, cmd.Type, cmd.Prices)
}

// Step behaves like Add over every level of the ladder
func (h *Handler) Step(ctx context.Context, userID int64, cmd Step) (AddResult, error) {
	levels, err := Ladder(cmd.From, cmd.To, cmd.Step)
	if err != nil {
		return AddResult{}, err
	}

	inst, err := h.instruments.GetOrCreate(ctx, cmd.Ticker)
	if err != nil {
		return AddResult{}, err
	}
	return h.subscribe(ctx, userID, inst, cmd.Type, levels)
}

func (h *Handler) subscribe(ctx context.Context, userID int64, inst core.Instrument,
	subType core.SubscriptionType, prices []decimal.Decimal) (AddResult, error) {

	result := AddResult{Instrument: inst}
	err := h.storage.Update(ctx, func(tx core.Tx) error {
		result.Added, result.Duplicates = nil, nil
		for _, price := range prices {
			sub := &core.Subscription{
				UserID:       userID,
				InstrumentID: inst.ID,
				Price:        inst.Round(price),
				Type:         subType,
				Active:       true,
			}

			err := tx.CreateSubscription(sub)
			switch {
			case errors.Is(err, core.ErrDuplicate):
				result.Duplicates = append(result.Duplicates, sub.Price)
			case err != nil:
				return err
			default:
				result.Added = append(result.Added, sub.Price)
			}
		}
		return nil
	})
	if err != nil {
		return AddResult{}, err
	}
	return result, nil
}

// Delete removes the user's subscriptions of one instrument, either at the
// given prices or all of them
func (h *Handler) Delete(ctx context.Context, userID int64, cmd Delete) (DeleteResult, error) {
	inst, err := h.instruments.Lookup(ctx, cmd.Ticker)
	if errors.Is(err, core.ErrInstrumentNotFound) {
		return DeleteResult{}, nil
	}
	if err != nil {
		return DeleteResult{}, err
	}

	filter := core.SubscriptionFilter{UserID: userID, InstrumentID: inst.ID}
	if !cmd.All {
		filter.Prices = lo.Map(cmd.Prices, func(price decimal.Decimal, _ int) decimal.Decimal {
			return inst.Round(price)
		})
	}
	return h.delete(ctx, filter)
}

// DeleteAll removes every subscription of the user
func (h *Handler) DeleteAll(ctx context.Context, userID int64) (DeleteResult, error) {
	return h.delete(ctx, core.SubscriptionFilter{UserID: userID})
}

func (h *Handler) delete(ctx context.Context, filter core.SubscriptionFilter) (DeleteResult, error) {
	var result DeleteResult
	err := h.storage.Update(ctx, func(tx core.Tx) error {
		var err error
		result.Deleted, err = tx.DeleteSubscriptions(filter)
		return err
	})
	return result, err
}

// Price returns the last known price of the instrument. It fails with
// core.ErrInstrumentNotFound or core.ErrPriceNotFound.
func (h *Handler) Price(ctx context.Context, cmd Price) (PriceResult, error) {
	inst, err := h.instruments.Lookup(ctx, cmd.Ticker)
	if err != nil {
		return PriceResult{}, err
	}

	result := PriceResult{Instrument: inst}
	err = h.storage.View(ctx, func(tx core.Tx) error {
		prices, err := tx.Prices(inst.ID)
		if err != nil {
			return err
		}

		price, ok := prices[inst.ID]
		if !ok {
			return core.ErrPriceNotFound
		}
		result.Price = price
		return nil
	})
	if err != nil {
		return PriceResult{}, err
	}
	return result, nil
}

// My lists the user's active subscriptions grouped by ticker
func (h *Handler) My(ctx context.Context, userID int64) (MyResult, error) {
	var subs []core.Subscription
	err := h.storage.View(ctx, func(tx core.Tx) error {
		var err error
		subs, err = tx.ActiveSubscriptions(userID)
		return err
	})
	if err != nil {
		return MyResult{}, err
	}

	byTicker := lo.GroupBy(subs, func(sub core.Subscription) string {
		return sub.InstrumentTicker
	})
	tickers := lo.Uniq(lo.Map(subs, func(sub core.Subscription, _ int) string {
		return sub.InstrumentTicker
	}))

	var result MyResult
	for _, ticker := range tickers {
		group := byTicker[ticker]
		result.Instruments = append(result.Instruments, InstrumentSubscriptions{
			Ticker:    ticker,
			Precision: group[0].InstrumentPrecision,
			Prices: lo.Map(group, func(sub core.Subscription, _ int) decimal.Decimal {
				return sub.Price
			}),
		})
	}
	return result, nil
}
