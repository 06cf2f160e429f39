package notification

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/logger"
	"github.com/raykavin/pricealert/pkg/metric"
)

// Dispatcher delivers notifications in the background. Messages to the same
// chat keep their order and are spaced by at least the configured interval.
// Failed sends are retried with backoff, so a chat may receive a message
// twice.
type Dispatcher struct {
	sender   core.Sender
	log      logger.Logger
	metrics  *metric.Metrics
	interval time.Duration
	attempts int
	drain    time.Duration

	queues []chan core.Notification
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithMessageInterval sets the minimum delay between two messages to a chat
func WithMessageInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.interval = interval
	}
}

// WithWorkers sets the number of delivery goroutines
func WithWorkers(workers int) DispatcherOption {
	return func(d *Dispatcher) {
		if workers > 0 {
			d.queues = make([]chan core.Notification, workers)
		}
	}
}

// WithAttempts sets how many times a message is tried before it is dropped
func WithAttempts(attempts int) DispatcherOption {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
	}
}

// WithDrainTimeout bounds how long Stop waits for queued notifications
func WithDrainTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.drain = timeout
		}
	}
}

func WithDispatcherMetrics(metrics *metric.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

func NewDispatcher(sender core.Sender, log logger.Logger, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:   sender,
		log:      log,
		interval: 500 * time.Millisecond,
		attempts: 5,
		drain:    30 * time.Second,
		queues:   make([]chan core.Notification, 4),
	}

	for _, option := range options {
		option(d)
	}

	if d.metrics == nil {
		d.metrics = metric.New(nil)
	}
	for i := range d.queues {
		d.queues[i] = make(chan core.Notification, 256)
	}

	return d
}

// Start launches the delivery goroutines. Cancelling ctx does not abort
// delivery; queued notifications are flushed by Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, queue := range d.queues {
		d.wg.Add(1)
		go d.deliver(queue)
	}
}

// Stop waits for queued notifications to be delivered. Delivery still pending
// after the drain timeout is aborted.
func (d *Dispatcher) Stop() {
	for _, queue := range d.queues {
		close(queue)
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d.drain):
		d.log.WithField("timeout", d.drain).Warn("notification drain timed out")
		d.cancel()
		<-done
	}
	d.cancel()
}

// Dispatch queues notifications for delivery. It blocks when the queue of a
// chat is full.
func (d *Dispatcher) Dispatch(notifications ...core.Notification) {
	for _, notification := range notifications {
		queue := d.queues[partition(notification.ChatID, len(d.queues))]
		select {
		case queue <- notification:
		case <-d.ctx.Done():
			d.log.WithField("chat", notification.ChatID).Warn("dispatcher stopped, notification dropped")
			d.metrics.ObserveDelivery("dropped")
		}
	}
}

func partition(chatID int64, n int) int {
	if chatID < 0 {
		chatID = -chatID
	}
	return int(chatID % int64(n))
}

func (d *Dispatcher) deliver(queue chan core.Notification) {
	defer d.wg.Done()
	limiters := make(map[int64]*rate.Limiter)

	for notification := range queue {
		limiter, ok := limiters[notification.ChatID]
		if !ok {
			limiter = rate.NewLimiter(rate.Every(d.interval), 1)
			limiters[notification.ChatID] = limiter
		}

		if err := d.send(limiter, notification); err != nil {
			d.log.WithError(err).WithField("chat", notification.ChatID).Error("notification dropped")
			d.metrics.ObserveDelivery("failed")
			continue
		}
		d.metrics.ObserveDelivery("sent")
	}
}

func (d *Dispatcher) send(limiter *rate.Limiter, notification core.Notification) error {
	b := &backoff.Backoff{
		Min:    d.interval,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = limiter.Wait(d.ctx); err != nil {
			return err
		}

		if err = d.sender.Send(notification.ChatID, notification.Text); err == nil {
			return nil
		}

		d.log.WithError(err).WithFields(map[string]any{
			"chat":    notification.ChatID,
			"attempt": attempt,
		}).Warn("notification send failed")

		if attempt < d.attempts {
			select {
			case <-time.After(b.Duration()):
			case <-d.ctx.Done():
				return d.ctx.Err()
			}
		}
	}
	return err
}
