package pricealert

// Notify forwards text to every operator notifier
func (b *Bot) Notify(text string) {
	for _, notifier := range b.notifiers {
		notifier.Notify(text)
	}
}

// OnError forwards err to every operator notifier
func (b *Bot) OnError(err error) {
	for _, notifier := range b.notifiers {
		notifier.OnError(err)
	}
}
