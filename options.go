package pricealert

import (
	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/logger"
	"github.com/raykavin/pricealert/pkg/metric"
)

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithStorage sets the storage for the bot, by default it uses a local file called pricealert.db
func WithStorage(storage core.Storage) Option {
	return func(bot *Bot) {
		bot.storage = storage
	}
}

// WithNotifier registers an operator notifier, currently email and telegram are supported
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Bot) {
		bot.notifiers = append(bot.notifiers, notifier)
	}
}

// WithSender sets the transport used to deliver alerts, by default the Telegram bot
func WithSender(sender core.Sender) Option {
	return func(bot *Bot) {
		bot.sender = sender
	}
}

// WithInstrumentFinder adds a source of instruments not yet stored
func WithInstrumentFinder(finders ...core.InstrumentFinder) Option {
	return func(bot *Bot) {
		bot.finders = append(bot.finders, finders...)
	}
}

func WithMetrics(metrics *metric.Metrics) Option {
	return func(bot *Bot) {
		bot.metrics = metrics
	}
}

func WithLogger(log logger.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}

// WithLogLevel sets the log level. eg: logger.DebugLevel, logger.InfoLevel, logger.WarnLevel
func WithLogLevel(level logger.Level) Option {
	return func(bot *Bot) {
		bot.log.SetLevel(level)
	}
}
