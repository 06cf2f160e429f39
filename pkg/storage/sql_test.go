package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/raykavin/pricealert/pkg/core"
)

func newSQLStorage(t *testing.T) *SQLStorage {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "pricealert.db") + "?_pragma=busy_timeout(5000)"
	storage, err := FromSQL(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestSQLStorage_ActiveLevelIndex(t *testing.T) {
	storage := newSQLStorage(t)
	user, instrument := seed(t, storage)

	level := func() *core.Subscription {
		return &core.Subscription{
			UserID:       user.ID,
			InstrumentID: instrument.ID,
			Price:        decimal.NewFromInt(100),
			Type:         core.SubscriptionTypeAlways,
			Active:       true,
		}
	}

	first := level()
	require.NoError(t, storage.db.Create(first).Error)
	require.Error(t, storage.db.Create(level()).Error)

	// the index only covers active levels
	require.NoError(t, storage.db.Model(first).Update("active", false).Error)
	require.NoError(t, storage.db.Create(level()).Error)
}

func TestSQLStorage_SetPriceUpserts(t *testing.T) {
	storage := newSQLStorage(t)
	_, instrument := seed(t, storage)

	for _, price := range []string{"100", "99.25"} {
		err := storage.Update(context.Background(), func(tx core.Tx) error {
			return tx.SetPrice(instrument.ID, decimal.RequireFromString(price))
		})
		require.NoError(t, err)
	}

	var rows int64
	require.NoError(t, storage.db.Model(&core.InstrumentPrice{}).Count(&rows).Error)
	require.Equal(t, int64(1), rows)

	err := storage.View(context.Background(), func(tx core.Tx) error {
		prices, err := tx.Prices(instrument.ID)
		require.NoError(t, err)
		require.True(t, prices[instrument.ID].Equal(decimal.RequireFromString("99.25")))
		return nil
	})
	require.NoError(t, err)
}

func TestSQLStorage_DeleteWithEmptyPriceList(t *testing.T) {
	storage := newSQLStorage(t)
	user, instrument := seed(t, storage)
	subscribe(t, storage, core.Subscription{
		UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(100),
	})

	var deleted int
	err := storage.Update(context.Background(), func(tx core.Tx) error {
		var err error
		deleted, err = tx.DeleteSubscriptions(core.SubscriptionFilter{
			UserID:       user.ID,
			InstrumentID: instrument.ID,
			Prices:       []decimal.Decimal{},
		})
		return err
	})
	require.NoError(t, err)
	require.Zero(t, deleted)

	err = storage.Update(context.Background(), func(tx core.Tx) error {
		var err error
		deleted, err = tx.DeleteSubscriptions(core.SubscriptionFilter{InstrumentID: instrument.ID})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
}

func TestSQLStorage_RearmOnlyTouchesCrossing(t *testing.T) {
	storage := newSQLStorage(t)
	user, instrument := seed(t, storage)

	always := subscribe(t, storage, core.Subscription{
		UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(90),
	})
	crossing := subscribe(t, storage, core.Subscription{
		UserID: user.ID, InstrumentID: instrument.ID, Price: decimal.NewFromInt(100), Type: core.SubscriptionTypeCrossing,
	})

	err := storage.Update(context.Background(), func(tx core.Tx) error {
		if err := tx.DisableCrossing(always.ID); err != nil {
			return err
		}
		if err := tx.DisableCrossing(crossing.ID); err != nil {
			return err
		}
		return tx.RearmCrossing(user.ID, instrument.ID)
	})
	require.NoError(t, err)

	err = storage.View(context.Background(), func(tx core.Tx) error {
		subs, err := tx.FindCrossing(instrument.ID, decimal.NewFromInt(0), decimal.NewFromInt(200))
		require.NoError(t, err)
		require.Len(t, subs, 1)
		require.Equal(t, crossing.ID, subs[0].ID)
		return nil
	})
	require.NoError(t, err)
}
