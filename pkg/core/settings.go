package core

import (
	"slices"
	"time"
)

// Settings represents the main configuration for the application
type Settings struct {
	Interval      time.Duration    // Cadence of the matching worker
	TradingWindow TradingWindow    // When the price source is polled
	Telegram      TelegramSettings // Telegram bot settings
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Enabled           bool          // Whether the Telegram bot is started
	Token             string        // Telegram bot token
	OwnerUsername     string        // Contact shown in parse error replies
	OperatorChatID    int64         // Chat that receives operator reports, 0 disables it
	ReportParseErrors bool          // Copy unparsed user messages to the operator notifiers
	MessageInterval   time.Duration // Minimum delay between two messages to the same chat
}

// TradingWindow is the UTC time-of-day range and weekdays in which prices are
// polled. A zero window is always open.
type TradingWindow struct {
	From     time.Duration
	To       time.Duration
	Weekdays []time.Weekday
}

// Contains reports whether t falls inside the window
func (w TradingWindow) Contains(t time.Time) bool {
	t = t.UTC()
	if len(w.Weekdays) > 0 && !slices.Contains(w.Weekdays, t.Weekday()) {
		return false
	}

	if w.From == 0 && w.To == 0 {
		return true
	}

	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := t.Sub(midnight)
	return offset >= w.From && offset <= w.To
}
