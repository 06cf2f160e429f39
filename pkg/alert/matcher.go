package alert

import (
	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/message"
)

// Match selects the subscriptions crossed by each tick, renders their
// notifications and applies the lifecycle transitions through tx. The caller
// owns the transaction: on error nothing must be committed.
func Match(tx core.Tx, ticks ...core.PriceTick) ([]core.Notification, error) {
	var notifications []core.Notification

	for _, tick := range ticks {
		low, high, ok := tick.Range()
		if !ok {
			continue
		}

		subs, err := tx.FindCrossing(tick.Instrument.ID, low, high)
		if err != nil {
			return nil, err
		}

		for _, sub := range subs {
			notifications = append(notifications, core.Notification{
				ChatID: sub.UserChatID,
				Text:   message.Notification(sub, tick),
			})

			if err := Fire(tx, sub); err != nil {
				return nil, err
			}
		}
	}

	return notifications, nil
}
