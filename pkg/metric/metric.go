package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors of the alert worker and the bot
type Metrics struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	ticks         prometheus.Counter
	notifications prometheus.Counter
	deliveries    *prometheus.CounterVec
	commands      *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricealert_runs_total",
			Help: "Matching runs by outcome",
		}, []string{"outcome"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricealert_run_seconds",
			Help:    "Time spent in one matching run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricealert_quotes_total",
			Help: "Quotes received from the price source",
		}),
		notifications: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricealert_notifications_total",
			Help: "Notifications produced by matching runs",
		}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricealert_deliveries_total",
			Help: "Messages sent to chats by outcome",
		}, []string{"outcome"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricealert_commands_total",
			Help: "User commands by keyword and outcome",
		}, []string{"command", "outcome"}),
	}
}

// ObserveRun records a finished matching run
func (m *Metrics) ObserveRun(outcome string, elapsed time.Duration, quotes, notifications int) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.ticks.Add(float64(quotes))
	m.notifications.Add(float64(notifications))
}

func (m *Metrics) ObserveDelivery(outcome string) {
	m.deliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCommand(command, outcome string) {
	m.commands.WithLabelValues(command, outcome).Inc()
}
