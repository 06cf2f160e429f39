// Package notification delivers bot replies, alerts and operator reports
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/message"
)

// Telegram receives user messages over long polling, hands them to a
// core.MessageHandler and sends the replies. It also implements core.Sender
// for the dispatcher and core.Notifier for the operator chat.
type Telegram struct {
	settings core.TelegramSettings
	handler  core.MessageHandler
	client   *tb.Bot
	ctx      context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

// Option is a function that configures a Telegram instance
type Option func(telegram *Telegram)

// WithHandlerTimeout bounds the time spent answering one message
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(t *Telegram) {
		t.timeout = timeout
	}
}

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(settings core.TelegramSettings, handler core.MessageHandler, options ...Option) (*Telegram, error) {
	poller := &tb.LongPoller{Timeout: 10 * time.Second}

	client, err := tb.NewBot(tb.Settings{
		Token:  settings.Token,
		Poller: createMessageMiddleware(poller),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bot := &Telegram{
		settings: settings,
		handler:  handler,
		client:   client,
		ctx:      ctx,
		cancel:   cancel,
		timeout:  30 * time.Second,
	}

	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)
	return bot, nil
}

// createMessageMiddleware drops updates that carry no user message
func createMessageMiddleware(poller *tb.LongPoller) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			return false
		}
		if u.Message.Sender.IsBot {
			log.Warn("ignoring message from bot ", u.Message.Sender.ID)
			return false
		}
		return true
	})
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/start", Description: "Register and show the welcome message"},
		{Text: "/help", Description: "Command examples"},
		{Text: "/lang", Description: "Change language: /lang en, /lang ru"},
	})
}

// registerHandlers routes every text, commands included, to the handler
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/start", bot.onMessage)
	client.Handle("/help", bot.onMessage)
	client.Handle("/lang", bot.onMessage)
	client.Handle(tb.OnText, bot.onMessage)
}

func (t *Telegram) onMessage(m *tb.Message) {
	ctx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()

	msg := core.Message{
		ChatID:       m.Chat.ID,
		Username:     m.Sender.Username,
		LanguageCode: m.Sender.LanguageCode,
		Text:         m.Text,
	}

	for _, reply := range t.handler.HandleMessage(ctx, msg) {
		if err := t.send(reply.ChatID, reply.Text, parseMode(reply.Markdown)); err != nil {
			log.WithError(err).WithField("chat", reply.ChatID).Error("failed to send reply")
		}
	}
}

// Start begins long polling
func (t *Telegram) Start() {
	go t.client.Start()
	log.Info("telegram bot started")
}

// Stop ends long polling and cancels running handlers
func (t *Telegram) Stop() {
	t.client.Stop()
	t.cancel()
}

// Send delivers plain text to a chat, split in several messages when too long
func (t *Telegram) Send(chatID int64, text string) error {
	return t.send(chatID, text, tb.ModeDefault)
}

func parseMode(markdown bool) tb.ParseMode {
	if markdown {
		return tb.ModeMarkdown
	}
	return tb.ModeDefault
}

func (t *Telegram) send(chatID int64, text string, mode tb.ParseMode) error {
	for _, chunk := range message.Split(text, message.MaxLength) {
		if _, err := t.client.Send(&tb.Chat{ID: chatID}, chunk, &tb.SendOptions{ParseMode: mode}); err != nil {
			return fmt.Errorf("telegram send to %d: %w", chatID, err)
		}
	}
	return nil
}

// Notify sends a message to the operator chat, if configured
func (t *Telegram) Notify(text string) {
	if t.settings.OperatorChatID == 0 {
		return
	}
	if err := t.Send(t.settings.OperatorChatID, text); err != nil {
		log.WithError(err).Error("failed to send operator notification")
	}
}

// OnError reports an error to the operator chat
func (t *Telegram) OnError(err error) {
	var sb strings.Builder
	sb.WriteString("🛑 ERROR\n")
	sb.WriteString("-----\n")
	sb.WriteString(err.Error())

	t.Notify(sb.String())
}
