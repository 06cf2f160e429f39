package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/logger/zerolog"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []core.Notification
	sentAt   map[int64][]time.Time
	failures map[int64]int
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		sentAt:   make(map[int64][]time.Time),
		failures: make(map[int64]int),
	}
}

func (f *fakeSender) Send(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures[chatID] > 0 {
		f.failures[chatID]--
		return errors.New("telegram is down")
	}
	f.sent = append(f.sent, core.Notification{ChatID: chatID, Text: text})
	f.sentAt[chatID] = append(f.sentAt[chatID], time.Now())
	return nil
}

func (f *fakeSender) messages(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string
	for _, n := range f.sent {
		if n.ChatID == chatID {
			texts = append(texts, n.Text)
		}
	}
	return texts
}

func newDispatcher(t *testing.T, sender core.Sender, options ...DispatcherOption) *Dispatcher {
	t.Helper()
	log, err := zerolog.New("error", "", false, false)
	require.NoError(t, err)

	d := NewDispatcher(sender, log, options...)
	d.Start(context.Background())
	return d
}

func TestDispatcher_KeepsChatOrder(t *testing.T) {
	sender := newFakeSender()
	d := newDispatcher(t, sender, WithMessageInterval(time.Millisecond), WithWorkers(2))

	d.Dispatch(
		core.Notification{ChatID: 1, Text: "a"},
		core.Notification{ChatID: 2, Text: "x"},
		core.Notification{ChatID: 1, Text: "b"},
		core.Notification{ChatID: 1, Text: "c"},
	)
	d.Stop()

	require.Equal(t, []string{"a", "b", "c"}, sender.messages(1))
	require.Equal(t, []string{"x"}, sender.messages(2))
}

func TestDispatcher_SpacesMessagesPerChat(t *testing.T) {
	sender := newFakeSender()
	interval := 20 * time.Millisecond
	d := newDispatcher(t, sender, WithMessageInterval(interval))

	d.Dispatch(
		core.Notification{ChatID: 7, Text: "1"},
		core.Notification{ChatID: 7, Text: "2"},
		core.Notification{ChatID: 7, Text: "3"},
	)
	d.Stop()

	times := sender.sentAt[7]
	require.Len(t, times, 3)
	for i := 1; i < len(times); i++ {
		require.GreaterOrEqual(t, times[i].Sub(times[i-1]), interval-2*time.Millisecond)
	}
}

func TestDispatcher_RetriesFailedSends(t *testing.T) {
	sender := newFakeSender()
	sender.failures[5] = 2
	d := newDispatcher(t, sender, WithMessageInterval(time.Millisecond), WithAttempts(3))

	d.Dispatch(core.Notification{ChatID: 5, Text: "alert"})
	d.Stop()

	require.Equal(t, []string{"alert"}, sender.messages(5))
}

func TestDispatcher_DropsAfterAttempts(t *testing.T) {
	sender := newFakeSender()
	sender.failures[5] = 10
	d := newDispatcher(t, sender, WithMessageInterval(time.Millisecond), WithAttempts(2))

	d.Dispatch(
		core.Notification{ChatID: 5, Text: "lost"},
		core.Notification{ChatID: 6, Text: "kept"},
	)
	d.Stop()

	require.Empty(t, sender.messages(5))
	require.Equal(t, []string{"kept"}, sender.messages(6))
}

func TestDispatcher_FlushesAfterContextCancel(t *testing.T) {
	sender := newFakeSender()
	log, err := zerolog.New("error", "", false, false)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(sender, log, WithMessageInterval(5*time.Millisecond))
	d.Start(ctx)

	d.Dispatch(
		core.Notification{ChatID: 3, Text: "a"},
		core.Notification{ChatID: 3, Text: "b"},
		core.Notification{ChatID: 3, Text: "c"},
	)
	cancel()
	d.Stop()

	require.Equal(t, []string{"a", "b", "c"}, sender.messages(3))
}

func TestDispatcher_DrainTimeoutAbortsDelivery(t *testing.T) {
	sender := newFakeSender()
	sender.failures[4] = 100
	d := newDispatcher(t, sender,
		WithMessageInterval(time.Millisecond),
		WithAttempts(100),
		WithDrainTimeout(20*time.Millisecond),
	)

	d.Dispatch(core.Notification{ChatID: 4, Text: "stuck"})

	start := time.Now()
	d.Stop()
	require.Less(t, time.Since(start), 5*time.Second)
	require.Empty(t, sender.messages(4))
}

func TestPartition(t *testing.T) {
	require.Equal(t, 1, partition(5, 4))
	require.Equal(t, 1, partition(-5, 4))
	require.Equal(t, 0, partition(0, 4))
}
