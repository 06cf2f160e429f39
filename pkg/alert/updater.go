package alert

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/raykavin/pricealert/pkg/core"
)

// Updater stores a batch of quotes and matches the resulting ticks in one
// transaction
type Updater struct {
	storage core.Storage
}

func NewUpdater(storage core.Storage) *Updater {
	return &Updater{storage: storage}
}

// Apply records the quotes as the new last prices and returns the
// notifications of every subscription they crossed. Quotes without a price
// are ignored. Either every price and subscription change is committed or
// none is.
func (u *Updater) Apply(ctx context.Context, quotes []core.Quote) ([]core.Notification, error) {
	var notifications []core.Notification

	err := u.storage.Update(ctx, func(tx core.Tx) error {
		notifications = nil

		ids := make([]int64, 0, len(quotes))
		for _, quote := range quotes {
			ids = append(ids, quote.Instrument.ID)
		}

		previous, err := tx.Prices(ids...)
		if err != nil {
			return err
		}

		ticks := make([]core.PriceTick, 0, len(quotes))
		for _, quote := range quotes {
			if !quote.Price.Valid {
				continue
			}

			tick := core.PriceTick{Instrument: quote.Instrument, Current: quote.Price.Decimal}
			if price, ok := previous[quote.Instrument.ID]; ok {
				tick.Previous = decimal.NewNullDecimal(price)
			}
			ticks = append(ticks, tick)

			if err := tx.SetPrice(quote.Instrument.ID, quote.Price.Decimal); err != nil {
				return err
			}
		}

		notifications, err = Match(tx, ticks...)
		return err
	})
	if err != nil {
		return nil, err
	}

	return notifications, nil
}
