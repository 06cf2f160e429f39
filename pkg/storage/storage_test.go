package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricealert/pkg/core"
)

func forEachStorage(t *testing.T, test func(t *testing.T, storage core.Storage)) {
	t.Run("buntdb", func(t *testing.T) {
		test(t, newBuntStorage(t))
	})
	t.Run("sql", func(t *testing.T) {
		test(t, newSQLStorage(t))
	})
}

func seed(t *testing.T, storage core.Storage) (core.User, core.Instrument) {
	t.Helper()
	user := core.User{ChatID: 42, Username: "trader"}
	instrument := core.Instrument{Ticker: "gazp", Precision: 2, Kind: core.InstrumentKindEquity}

	err := storage.Update(context.Background(), func(tx core.Tx) error {
		if err := tx.CreateUser(&user); err != nil {
			return err
		}
		return tx.CreateInstrument(&instrument)
	})
	require.NoError(t, err)
	return user, instrument
}

func subscribe(t *testing.T, storage core.Storage, sub core.Subscription) core.Subscription {
	t.Helper()
	sub.Active = true
	err := storage.Update(context.Background(), func(tx core.Tx) error {
		return tx.CreateSubscription(&sub)
	})
	require.NoError(t, err)
	return sub
}

func TestStorage_Instruments(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		_, instrument := seed(t, storage)
		require.Equal(t, int64(1), instrument.ID)
		require.Equal(t, "GAZP", instrument.Ticker)

		err := storage.View(context.Background(), func(tx core.Tx) error {
			found, err := tx.InstrumentByTicker("Gazp")
			require.NoError(t, err)
			require.Equal(t, instrument.ID, found.ID)
			require.Equal(t, int32(2), found.Precision)

			_, err = tx.InstrumentByTicker("SBER")
			require.ErrorIs(t, err, core.ErrInstrumentNotFound)

			all, err := tx.Instruments()
			require.NoError(t, err)
			require.Len(t, all, 1)
			return nil
		})
		require.NoError(t, err)

		err = storage.Update(context.Background(), func(tx core.Tx) error {
			return tx.CreateInstrument(&core.Instrument{Ticker: "GAZP"})
		})
		require.ErrorIs(t, err, core.ErrDuplicate)
	})
}

func TestStorage_Users(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		user, _ := seed(t, storage)
		require.Equal(t, core.LocaleRU, user.Locale)

		err := storage.Update(context.Background(), func(tx core.Tx) error {
			return tx.CreateUser(&core.User{ChatID: 42})
		})
		require.ErrorIs(t, err, core.ErrAlreadyRegistered)

		err = storage.Update(context.Background(), func(tx core.Tx) error {
			return tx.SetUserLocale(user.ID, core.LocaleEN)
		})
		require.NoError(t, err)

		err = storage.View(context.Background(), func(tx core.Tx) error {
			found, err := tx.UserByChatID(42)
			require.NoError(t, err)
			require.Equal(t, core.LocaleEN, found.Locale)

			_, err = tx.UserByChatID(7)
			require.ErrorIs(t, err, core.ErrUserNotFound)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestStorage_Prices(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		_, instrument := seed(t, storage)

		err := storage.Update(context.Background(), func(tx core.Tx) error {
			return tx.SetPrice(instrument.ID, decimal.RequireFromString("101.5"))
		})
		require.NoError(t, err)

		err = storage.View(context.Background(), func(tx core.Tx) error {
			prices, err := tx.Prices(instrument.ID, 99)
			require.NoError(t, err)
			require.Len(t, prices, 1)
			require.True(t, prices[instrument.ID].Equal(decimal.RequireFromString("101.5")))
			return nil
		})
		require.NoError(t, err)
	})
}

func TestStorage_CreateSubscriptionDuplicate(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		user, instrument := seed(t, storage)

		sub := subscribe(t, storage, core.Subscription{
			UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(100),
		})
		require.Equal(t, core.SubscriptionTypeAlways, sub.Type)

		err := storage.Update(context.Background(), func(tx core.Tx) error {
			return tx.CreateSubscription(&core.Subscription{
				UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.RequireFromString("100.00"), Active: true,
			})
		})
		require.ErrorIs(t, err, core.ErrDuplicate)

		// an inactive level can be subscribed again
		err = storage.Update(context.Background(), func(tx core.Tx) error {
			if err := tx.SetActive(sub.ID, false); err != nil {
				return err
			}
			return tx.CreateSubscription(&core.Subscription{
				UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(100), Active: true,
			})
		})
		require.NoError(t, err)
	})
}

func TestStorage_FindCrossingIsHalfOpen(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		user, instrument := seed(t, storage)

		for _, price := range []int64{99, 100, 105, 110} {
			subscribe(t, storage, core.Subscription{
				UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(price),
			})
		}

		err := storage.View(context.Background(), func(tx core.Tx) error {
			subs, err := tx.FindCrossing(instrument.ID, decimal.NewFromInt(100), decimal.NewFromInt(110))
			require.NoError(t, err)
			require.Len(t, subs, 2)
			require.True(t, subs[0].Price.Equal(decimal.NewFromInt(100)))
			require.True(t, subs[1].Price.Equal(decimal.NewFromInt(105)))
			require.Equal(t, int64(42), subs[0].UserChatID)
			require.Equal(t, "GAZP", subs[0].InstrumentTicker)
			require.Equal(t, int32(2), subs[0].InstrumentPrecision)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestStorage_CrossingFlags(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		user, instrument := seed(t, storage)

		first := subscribe(t, storage, core.Subscription{
			UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(100), Type: core.SubscriptionTypeCrossing,
		})
		second := subscribe(t, storage, core.Subscription{
			UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(110), Type: core.SubscriptionTypeCrossing,
		})

		err := storage.Update(context.Background(), func(tx core.Tx) error {
			return tx.DisableCrossing(first.ID)
		})
		require.NoError(t, err)

		err = storage.View(context.Background(), func(tx core.Tx) error {
			subs, err := tx.FindCrossing(instrument.ID, decimal.NewFromInt(0), decimal.NewFromInt(200))
			require.NoError(t, err)
			require.Len(t, subs, 1)
			require.Equal(t, second.ID, subs[0].ID)
			return nil
		})
		require.NoError(t, err)

		err = storage.Update(context.Background(), func(tx core.Tx) error {
			return tx.RearmCrossing(user.ID, instrument.ID)
		})
		require.NoError(t, err)

		err = storage.View(context.Background(), func(tx core.Tx) error {
			subs, err := tx.FindCrossing(instrument.ID, decimal.NewFromInt(0), decimal.NewFromInt(200))
			require.NoError(t, err)
			require.Len(t, subs, 2)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestStorage_DeleteSubscriptions(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		user, instrument := seed(t, storage)

		for _, price := range []int64{100, 105, 110} {
			subscribe(t, storage, core.Subscription{
				UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(price),
			})
		}

		var deleted int
		err := storage.Update(context.Background(), func(tx core.Tx) error {
			var err error
			deleted, err = tx.DeleteSubscriptions(core.SubscriptionFilter{
				UserID:       user.ID,
				InstrumentID: instrument.ID,
				Prices:       []decimal.Decimal{decimal.NewFromInt(105), decimal.NewFromInt(120)},
			})
			return err
		})
		require.NoError(t, err)
		require.Equal(t, 1, deleted)

		err = storage.Update(context.Background(), func(tx core.Tx) error {
			var err error
			deleted, err = tx.DeleteSubscriptions(core.SubscriptionFilter{UserID: user.ID})
			return err
		})
		require.NoError(t, err)
		require.Equal(t, 2, deleted)

		err = storage.View(context.Background(), func(tx core.Tx) error {
			subs, err := tx.ActiveSubscriptions(user.ID)
			require.NoError(t, err)
			require.Empty(t, subs)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestStorage_UpdateRollsBack(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		user, instrument := seed(t, storage)
		failure := errors.New("boom")

		err := storage.Update(context.Background(), func(tx core.Tx) error {
			err := tx.CreateSubscription(&core.Subscription{
				UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(100), Active: true,
			})
			require.NoError(t, err)
			return failure
		})
		require.ErrorIs(t, err, failure)

		subscribe(t, storage, core.Subscription{
			UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(100),
		})

		err = storage.View(context.Background(), func(tx core.Tx) error {
			subs, err := tx.ActiveSubscriptions(user.ID)
			require.NoError(t, err)
			require.Len(t, subs, 1)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestStorage_CanceledContext(t *testing.T) {
	forEachStorage(t, func(t *testing.T, storage core.Storage) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := storage.Update(ctx, func(tx core.Tx) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})
}
