// Package pricealert wires the command handlers, the alert worker and the
// Telegram transport into a running price alert bot.
package pricealert

import (
	"context"
	"errors"
	"fmt"

	"github.com/raykavin/pricealert/pkg/alert"
	"github.com/raykavin/pricealert/pkg/command"
	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/instrument"
	"github.com/raykavin/pricealert/pkg/logger"
	"github.com/raykavin/pricealert/pkg/metric"
	"github.com/raykavin/pricealert/pkg/notification"
	"github.com/raykavin/pricealert/pkg/storage"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const defaultDatabase = "pricealert.db"

// Bot answers user commands and delivers price alerts
type Bot struct {
	settings  core.Settings
	storage   core.Storage
	source    core.PriceSource
	finders   []core.InstrumentFinder
	notifiers []core.Notifier
	sender    core.Sender
	telegram  core.NotifierWithStart
	metrics   *metric.Metrics
	log       logger.Logger

	handler    *command.Handler
	dispatcher *notification.Dispatcher
	worker     *alert.Worker
}

// NewBot creates a bot polling prices from source. The source is also used
// to discover instruments when it implements core.InstrumentFinder and no
// finder was given.
func NewBot(settings core.Settings, source core.PriceSource, options ...Option) (*Bot, error) {
	bot := &Bot{
		settings: settings,
		source:   source,
		log:      DefaultLog,
	}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	if err := initializeStorage(bot); err != nil {
		return nil, err
	}

	if bot.metrics == nil {
		bot.metrics = metric.New(nil)
	}

	if len(bot.finders) == 0 {
		if finder, ok := source.(core.InstrumentFinder); ok {
			bot.finders = append(bot.finders, finder)
		}
	}

	instruments := instrument.NewService(bot.storage, bot.log, bot.finders...)
	bot.handler = command.NewHandler(bot.storage, instruments)

	if err := initializeTelegram(bot); err != nil {
		return nil, err
	}
	if bot.sender == nil {
		return nil, errors.New("no message sender: enable telegram or use WithSender")
	}

	bot.dispatcher = notification.NewDispatcher(bot.sender, bot.log,
		notification.WithMessageInterval(settings.Telegram.MessageInterval),
		notification.WithDispatcherMetrics(bot.metrics),
	)

	bot.worker = alert.NewWorker(bot.storage, source, bot.dispatcher, bot.log,
		alert.WithInterval(settings.Interval),
		alert.WithTradingWindow(settings.TradingWindow),
		alert.WithMetrics(bot.metrics),
		alert.WithNotifier(bot),
	)

	return bot, nil
}

// initializeStorage opens the default BuntDB file when no storage was given
func initializeStorage(bot *Bot) error {
	if bot.storage != nil {
		return nil
	}

	var err error
	bot.storage, err = storage.FromFile(defaultDatabase)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", defaultDatabase, err)
	}
	return nil
}

// initializeTelegram creates the Telegram transport, which becomes the
// message sender and an operator notifier
func initializeTelegram(bot *Bot) error {
	if !bot.settings.Telegram.Enabled {
		return nil
	}
	if bot.settings.Telegram.Token == "" {
		return errors.New("telegram is enabled but no token is configured")
	}

	telegram, err := notification.NewTelegram(bot.settings.Telegram, bot)
	if err != nil {
		return err
	}

	bot.telegram = telegram
	if bot.sender == nil {
		bot.sender = telegram
	}
	WithNotifier(telegram)(bot)
	return nil
}

// Worker returns the alert worker
func (b *Bot) Worker() *alert.Worker {
	return b.worker
}

// Storage returns the bot storage
func (b *Bot) Storage() core.Storage {
	return b.storage
}

// Run starts the dispatcher, the alert worker and the Telegram transport and
// blocks until ctx is done
func (b *Bot) Run(ctx context.Context) error {
	b.dispatcher.Start(ctx)
	defer b.dispatcher.Stop()

	b.worker.Start(ctx)
	defer b.worker.Stop()

	if b.telegram != nil {
		b.telegram.Start()
		defer b.telegram.Stop()
	}

	b.log.Info("price alert bot running")
	<-ctx.Done()
	b.log.Info("price alert bot shutting down")
	return nil
}
