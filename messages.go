package pricealert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raykavin/pricealert/pkg/command"
	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/message"
)

// Chat commands handled outside of the command parser
const (
	startCommand = "/start"
	helpCommand  = "/help"
	langCommand  = "/lang"
)

// HandleMessage answers a message received from a user chat
func (b *Bot) HandleMessage(ctx context.Context, msg core.Message) []core.Notification {
	text := strings.TrimSpace(msg.Text)
	name, arg := splitChatCommand(text)

	switch name {
	case startCommand:
		return b.start(ctx, msg)
	case helpCommand:
		return b.help(ctx, msg)
	case langCommand:
		return b.changeLocale(ctx, msg, arg)
	default:
		return b.execute(ctx, msg, text)
	}
}

// splitChatCommand returns the lower-cased leading /command, without any
// @botname suffix, and the rest of the text
func splitChatCommand(text string) (name, arg string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	name, arg, _ = strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

func reply(msg core.Message, text string) []core.Notification {
	return []core.Notification{{ChatID: msg.ChatID, Text: text}}
}

// markdownReply answers with text that uses Telegram Markdown, such as the
// help and the contact-the-owner link
func markdownReply(msg core.Message, text string) []core.Notification {
	return []core.Notification{{ChatID: msg.ChatID, Text: text, Markdown: true}}
}

// register returns the user of the chat, creating it on first contact
func (b *Bot) register(ctx context.Context, msg core.Message) (user core.User, created bool, err error) {
	user = core.User{
		ChatID:   msg.ChatID,
		Username: msg.Username,
		Locale:   core.ParseLocale(msg.LanguageCode),
	}

	err = b.storage.Update(ctx, func(tx core.Tx) error {
		return tx.CreateUser(&user)
	})
	if err == nil {
		b.log.WithFields(map[string]any{
			"user":   user.ID,
			"chat":   user.ChatID,
			"locale": user.Locale,
		}).Info("user registered")
		return user, true, nil
	}
	if !errors.Is(err, core.ErrAlreadyRegistered) {
		return core.User{}, false, err
	}

	err = b.storage.View(ctx, func(tx core.Tx) error {
		var err error
		user, err = tx.UserByChatID(msg.ChatID)
		return err
	})
	return user, false, err
}

func (b *Bot) start(ctx context.Context, msg core.Message) []core.Notification {
	user, created, err := b.register(ctx, msg)
	if err != nil {
		return b.failure(msg, core.DefaultLocale, err)
	}

	texts := message.For(user.Locale)
	welcome := texts.WelcomeBack()
	if created {
		welcome = texts.WelcomeNew()
	}
	return markdownReply(msg, welcome+"\n\n"+texts.Help())
}

func (b *Bot) help(ctx context.Context, msg core.Message) []core.Notification {
	user, _, err := b.register(ctx, msg)
	if err != nil {
		return b.failure(msg, core.DefaultLocale, err)
	}
	return markdownReply(msg, message.For(user.Locale).Help())
}

// changeLocale handles "/lang en" and "/lang ru"
func (b *Bot) changeLocale(ctx context.Context, msg core.Message, arg string) []core.Notification {
	user, _, err := b.register(ctx, msg)
	if err != nil {
		return b.failure(msg, core.DefaultLocale, err)
	}

	locale := core.Locale(strings.ToUpper(arg))
	if locale != core.LocaleEN && locale != core.LocaleRU {
		return markdownReply(msg, message.For(user.Locale).Help())
	}

	err = b.storage.Update(ctx, func(tx core.Tx) error {
		return tx.SetUserLocale(user.ID, locale)
	})
	if err != nil {
		return b.failure(msg, user.Locale, err)
	}
	return reply(msg, message.For(locale).LocaleChanged())
}

// execute parses and runs a subscription command
func (b *Bot) execute(ctx context.Context, msg core.Message, text string) []core.Notification {
	user, _, err := b.register(ctx, msg)
	if err != nil {
		return b.failure(msg, core.DefaultLocale, err)
	}

	log := b.log.WithFields(map[string]any{
		"user":    user.ID,
		"command": text,
	})

	payload, err := command.Parse(text)
	if err != nil {
		log.WithError(err).Debug("command not parsed")
		b.metrics.ObserveCommand("UNKNOWN", "parse_error")
		if b.settings.Telegram.ReportParseErrors {
			b.Notify(fmt.Sprintf("INCORRECT MESSAGE FROM @%s: %s", msg.Username, text))
		}

		response, _ := message.Error(user.Locale, err, b.settings.Telegram.OwnerUsername, "")
		return markdownReply(msg, response)
	}

	name := string(payload.Command())
	result, err := b.handler.Execute(ctx, user, payload)
	if err != nil {
		response, ok := message.Error(user.Locale, err, b.settings.Telegram.OwnerUsername, tickerOf(payload))
		if !ok {
			b.metrics.ObserveCommand(name, "error")
			return b.failure(msg, user.Locale, err)
		}
		b.metrics.ObserveCommand(name, "rejected")
		if errors.As(err, new(*command.ParseError)) {
			return markdownReply(msg, response)
		}
		return reply(msg, response)
	}

	log.Debug("command executed")
	b.metrics.ObserveCommand(name, "ok")
	return b.answer(msg, message.Result(user.Locale, result))
}

func (b *Bot) answer(msg core.Message, text string) []core.Notification {
	if text == "" {
		return nil
	}
	return reply(msg, text)
}

// failure logs an unexpected error, reports it to the operators and answers
// with the generic error text
func (b *Bot) failure(msg core.Message, locale core.Locale, err error) []core.Notification {
	b.log.WithError(err).WithField("chat", msg.ChatID).Error("failed to handle message")
	b.OnError(err)
	return markdownReply(msg, message.For(locale).ParseError(b.settings.Telegram.OwnerUsername))
}

func tickerOf(payload command.Payload) string {
	switch p := payload.(type) {
	case command.Price:
		return p.Ticker
	case command.Add:
		return p.Ticker
	case command.Step:
		return p.Ticker
	case command.Delete:
		return p.Ticker
	default:
		return ""
	}
}
