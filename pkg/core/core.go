package core

import (
	"context"
)

// PriceSource fetches the last traded price for a batch of instruments.
// Instruments without a known price come back with an invalid Price.
type PriceSource interface {
	Prices(ctx context.Context, instruments []Instrument) ([]Quote, error)
}

// InstrumentFinder resolves a ticker that is not yet stored into an instrument
// description. It returns ErrInstrumentNotFound when the ticker is unknown.
type InstrumentFinder interface {
	FindInstrument(ctx context.Context, ticker string) (Instrument, error)
}

// Sender delivers a single text message to a chat.
type Sender interface {
	Send(chatID int64, text string) error
}

// Dispatcher takes ownership of a batch of notifications produced by a
// matching run. Delivery is asynchronous and at-least-once.
type Dispatcher interface {
	Dispatch(notifications ...Notification)
}

type Notifier interface {
	Notify(text string)
	OnError(err error)
}

type NotifierWithStart interface {
	Notifier
	Start()
	Stop()
}

// Message is a text received from a user chat
type Message struct {
	ChatID       int64
	Username     string
	LanguageCode string
	Text         string
}

// MessageHandler answers the messages received by a chat transport
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message) []Notification
}
