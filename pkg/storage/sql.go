package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raykavin/pricealert/pkg/core"
)

const activeLevelIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_active_level
	ON subscriptions (user_id, instrument_id, price) WHERE active`

// SQLStorage implements core.Storage using a SQL database via GORM
type SQLStorage struct {
	db *gorm.DB
}

// FromSQL creates a new SQL storage instance and migrates the schema
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(&core.User{}, &core.Instrument{}, &core.InstrumentPrice{}, &core.Subscription{})
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.Exec(activeLevelIndex).Error; err != nil {
		return nil, fmt.Errorf("failed to create active level index: %w", err)
	}

	return &SQLStorage{
		db: db,
	}, nil
}

// Update runs fn within a database transaction
func (s *SQLStorage) Update(ctx context.Context, fn func(tx core.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&sqlTx{db: tx})
	})
}

// View runs fn within a database transaction. Writes are not prevented.
func (s *SQLStorage) View(ctx context.Context, fn func(tx core.Tx) error) error {
	return s.Update(ctx, fn)
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}

type sqlTx struct {
	db *gorm.DB
}

func (t *sqlTx) InstrumentByTicker(ticker string) (core.Instrument, error) {
	var instrument core.Instrument
	err := t.db.Where("ticker = ?", core.NormalizeTicker(ticker)).First(&instrument).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Instrument{}, core.ErrInstrumentNotFound
	}
	return instrument, core.NewPersistenceError("find instrument", err)
}

func (t *sqlTx) Instruments() ([]core.Instrument, error) {
	var instruments []core.Instrument
	if err := t.db.Order("id").Find(&instruments).Error; err != nil {
		return nil, core.NewPersistenceError("list instruments", err)
	}
	return instruments, nil
}

func (t *sqlTx) CreateInstrument(instrument *core.Instrument) error {
	instrument.Ticker = core.NormalizeTicker(instrument.Ticker)

	var count int64
	if err := t.db.Model(&core.Instrument{}).Where("ticker = ?", instrument.Ticker).Count(&count).Error; err != nil {
		return core.NewPersistenceError("count instruments", err)
	}
	if count > 0 {
		return core.ErrDuplicate
	}
	return core.NewPersistenceError("create instrument", t.db.Create(instrument).Error)
}

func (t *sqlTx) Prices(instrumentIDs ...int64) (map[int64]decimal.Decimal, error) {
	if len(instrumentIDs) == 0 {
		return map[int64]decimal.Decimal{}, nil
	}

	var rows []core.InstrumentPrice
	if err := t.db.Where("instrument_id IN ?", instrumentIDs).Find(&rows).Error; err != nil {
		return nil, core.NewPersistenceError("list prices", err)
	}

	return lo.SliceToMap(rows, func(row core.InstrumentPrice) (int64, decimal.Decimal) {
		return row.InstrumentID, row.Price
	}), nil
}

func (t *sqlTx) SetPrice(instrumentID int64, price decimal.Decimal) error {
	row := core.InstrumentPrice{
		InstrumentID: instrumentID,
		Price:        price,
		UpdatedAt:    time.Now().UTC(),
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instrument_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(&row).Error
	return core.NewPersistenceError("set price", err)
}

func (t *sqlTx) User(id int64) (core.User, error) {
	var user core.User
	err := t.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.User{}, core.ErrUserNotFound
	}
	return user, core.NewPersistenceError("find user", err)
}

func (t *sqlTx) UserByChatID(chatID int64) (core.User, error) {
	var user core.User
	err := t.db.Where("chat_id = ?", chatID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.User{}, core.ErrUserNotFound
	}
	return user, core.NewPersistenceError("find user", err)
}

func (t *sqlTx) CreateUser(user *core.User) error {
	var count int64
	if err := t.db.Model(&core.User{}).Where("chat_id = ?", user.ChatID).Count(&count).Error; err != nil {
		return core.NewPersistenceError("count users", err)
	}
	if count > 0 {
		return core.ErrAlreadyRegistered
	}

	if user.Locale == "" {
		user.Locale = core.DefaultLocale
	}
	return core.NewPersistenceError("create user", t.db.Create(user).Error)
}

func (t *sqlTx) SetUserLocale(id int64, locale core.Locale) error {
	result := t.db.Model(&core.User{}).Where("id = ?", id).Update("locale", locale)
	if result.Error != nil {
		return core.NewPersistenceError("set locale", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (t *sqlTx) CreateSubscription(sub *core.Subscription) error {
	var count int64
	err := t.db.Model(&core.Subscription{}).
		Where("user_id = ? AND instrument_id = ? AND price = ? AND active", sub.UserID, sub.InstrumentID, sub.Price).
		Count(&count).Error
	if err != nil {
		return core.NewPersistenceError("count subscriptions", err)
	}
	if count > 0 {
		return core.ErrDuplicate
	}

	if sub.Type == "" {
		sub.Type = core.DefaultSubscriptionType
	}
	return core.NewPersistenceError("create subscription", t.db.Create(sub).Error)
}

// joined selects subscriptions with their user and instrument fields
func (t *sqlTx) joined() *gorm.DB {
	return t.db.Table("subscriptions AS s").
		Select("s.*, u.chat_id AS user_chat_id, u.locale AS user_locale, " +
			"i.ticker AS instrument_ticker, i.precision AS instrument_precision").
		Joins("JOIN users AS u ON u.id = s.user_id").
		Joins("JOIN instruments AS i ON i.id = s.instrument_id").
		Order("s.id")
}

func (t *sqlTx) FindCrossing(instrumentID int64, low, high decimal.Decimal) ([]core.Subscription, error) {
	var subs []core.Subscription
	err := t.joined().
		Where("s.instrument_id = ? AND s.active AND NOT s.crossing_disabled", instrumentID).
		Where("s.price >= ? AND s.price < ?", low, high).
		Find(&subs).Error
	if err != nil {
		return nil, core.NewPersistenceError("find crossing", err)
	}
	return subs, nil
}

func (t *sqlTx) ActiveSubscriptions(userID int64) ([]core.Subscription, error) {
	var subs []core.Subscription
	err := t.joined().Where("s.user_id = ? AND s.active", userID).Find(&subs).Error
	if err != nil {
		return nil, core.NewPersistenceError("list subscriptions", err)
	}
	return subs, nil
}

func (t *sqlTx) SetActive(id int64, active bool) error {
	err := t.db.Model(&core.Subscription{}).Where("id = ?", id).Update("active", active).Error
	return core.NewPersistenceError("set active", err)
}

func (t *sqlTx) RearmCrossing(userID, instrumentID int64) error {
	err := t.db.Model(&core.Subscription{}).
		Where("user_id = ? AND instrument_id = ? AND type = ? AND active", userID, instrumentID, core.SubscriptionTypeCrossing).
		Update("crossing_disabled", false).Error
	return core.NewPersistenceError("rearm crossing", err)
}

func (t *sqlTx) DisableCrossing(id int64) error {
	err := t.db.Model(&core.Subscription{}).Where("id = ?", id).Update("crossing_disabled", true).Error
	return core.NewPersistenceError("disable crossing", err)
}

func (t *sqlTx) DeleteSubscriptions(filter core.SubscriptionFilter) (int, error) {
	if filter.Prices != nil && len(filter.Prices) == 0 {
		return 0, nil
	}

	query := t.db
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.InstrumentID != 0 {
		query = query.Where("instrument_id = ?", filter.InstrumentID)
	}
	if filter.Prices != nil {
		query = query.Where("price IN ?", filter.Prices)
	}

	result := query.Delete(&core.Subscription{})
	if result.Error != nil {
		return 0, core.NewPersistenceError("delete subscriptions", result.Error)
	}
	return int(result.RowsAffected), nil
}
