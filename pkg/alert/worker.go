package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/logger"
	"github.com/raykavin/pricealert/pkg/metric"
)

// Status represents the current state of the worker
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// ErrBusy is returned by RunOnce while another run is in progress
var ErrBusy = errors.New("matching run already in progress")

// Worker polls the price source at a fixed cadence, updates the stored
// prices and hands the resulting notifications to the dispatcher. Runs never
// overlap.
type Worker struct {
	storage    core.Storage
	source     core.PriceSource
	dispatcher core.Dispatcher
	updater    *Updater
	log        logger.Logger
	metrics    *metric.Metrics
	breaker    *gobreaker.CircuitBreaker
	notifier   core.Notifier

	interval time.Duration
	window   core.TradingWindow
	now      func() time.Time

	running sync.Mutex
	mu      sync.Mutex
	status  Status
	finish  chan bool
	done    chan struct{}
}

// WorkerOption configures a Worker
type WorkerOption func(*Worker)

// WithInterval sets the cadence of the matching loop. Non-positive values
// keep the default.
func WithInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithTradingWindow(window core.TradingWindow) WorkerOption {
	return func(w *Worker) {
		w.window = window
	}
}

func WithMetrics(metrics *metric.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = metrics
	}
}

// WithNotifier reports failed runs to an operator channel
func WithNotifier(notifier core.Notifier) WorkerOption {
	return func(w *Worker) {
		w.notifier = notifier
	}
}

// WithClock replaces time.Now, used to evaluate the trading window
func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		w.now = now
	}
}

func NewWorker(storage core.Storage, source core.PriceSource, dispatcher core.Dispatcher,
	log logger.Logger, options ...WorkerOption) *Worker {

	w := &Worker{
		storage:    storage,
		source:     source,
		dispatcher: dispatcher,
		updater:    NewUpdater(storage),
		log:        log,
		interval:   15 * time.Second,
		now:        time.Now,
		status:     StatusStopped,
	}

	for _, option := range options {
		option(w)
	}

	if w.metrics == nil {
		w.metrics = metric.New(nil)
	}

	w.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "price-source",
		MaxRequests: 1,
		Timeout:     4 * w.interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			w.log.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	return w
}

// Status returns the current worker status
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Start runs the matching loop in the background until Stop is called or ctx
// is done
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status == StatusRunning {
		return
	}
	w.status = StatusRunning
	w.finish = make(chan bool)
	w.done = make(chan struct{})

	go func(finish chan bool, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := w.RunOnce(ctx); err != nil && !errors.Is(err, ErrBusy) {
					w.notifyError(err)
				}
			case <-finish:
				return
			case <-ctx.Done():
				return
			}
		}
	}(w.finish, w.done)

	w.log.WithField("interval", w.interval.String()).Info("alert worker started")
}

// Stop halts the matching loop and waits for the current run to finish
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.status != StatusRunning {
		w.mu.Unlock()
		return
	}
	w.status = StatusStopped
	finish, done := w.finish, w.done
	w.mu.Unlock()

	close(finish)
	<-done
	w.log.Info("alert worker stopped")
}

// RunOnce performs a single matching run. It returns ErrBusy without doing
// anything when another run is in progress.
func (w *Worker) RunOnce(ctx context.Context) error {
	if !w.running.TryLock() {
		return ErrBusy
	}
	defer w.running.Unlock()

	log := w.log.WithField("run", uuid.NewString())
	if !w.window.Contains(w.now()) {
		log.Debug("outside trading window, skipping run")
		return nil
	}

	start := time.Now()
	quotes, notifications, err := w.run(ctx)
	if err != nil {
		w.metrics.ObserveRun("error", time.Since(start), len(quotes), 0)
		return err
	}
	w.metrics.ObserveRun("ok", time.Since(start), len(quotes), len(notifications))

	if len(notifications) > 0 {
		w.dispatcher.Dispatch(notifications...)
	}

	log.WithFields(map[string]any{
		"quotes":        len(quotes),
		"notifications": len(notifications),
		"elapsed":       time.Since(start).String(),
	}).Debug("matching run finished")

	return nil
}

func (w *Worker) run(ctx context.Context) ([]core.Quote, []core.Notification, error) {
	var instruments []core.Instrument
	err := w.storage.View(ctx, func(tx core.Tx) error {
		var err error
		instruments, err = tx.Instruments()
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list instruments: %w", err)
	}
	if len(instruments) == 0 {
		return nil, nil, nil
	}

	result, err := w.breaker.Execute(func() (interface{}, error) {
		return w.source.Prices(ctx, instruments)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch prices: %w", err)
	}
	quotes := result.([]core.Quote)

	notifications, err := w.updater.Apply(ctx, quotes)
	if err != nil {
		return quotes, nil, fmt.Errorf("apply prices: %w", err)
	}
	return quotes, notifications, nil
}

func (w *Worker) notifyError(err error) {
	w.log.WithError(err).Error("matching run failed")
	if w.notifier != nil {
		w.notifier.OnError(err)
	}
}
