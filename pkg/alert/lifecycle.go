package alert

import (
	"fmt"

	"github.com/raykavin/pricealert/pkg/core"
)

// Fire applies the state transition of a subscription that just triggered.
// ALWAYS stays armed, ONETIME is deactivated and CROSSING re-arms every
// CROSSING sibling of the same user and instrument before disabling itself.
func Fire(tx core.Tx, sub core.Subscription) error {
	switch sub.Type {
	case core.SubscriptionTypeAlways:
		return nil
	case core.SubscriptionTypeOnetime:
		return tx.SetActive(sub.ID, false)
	case core.SubscriptionTypeCrossing:
		if err := tx.RearmCrossing(sub.UserID, sub.InstrumentID); err != nil {
			return err
		}
		return tx.DisableCrossing(sub.ID)
	default:
		return fmt.Errorf("subscription %d: unknown type %q", sub.ID, sub.Type)
	}
}
