// Package metrics holds the Prometheus collectors of the simulator service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/efreitasn/simtrade/internal/domain"
)

const namespace = "simtrade"

// Metrics groups every collector. Build it with New against the registry
// that /metrics serves; tests pass a fresh registry.
type Metrics struct {
	CommandsTotal  *prometheus.CounterVec
	CommandLatency *prometheus.HistogramVec
	OrderEvents    *prometheus.CounterVec
	TradesTotal    *prometheus.CounterVec
	Settlements    prometheus.Counter
	Accounts       prometheus.Gauge
	StreamClients  prometheus.Gauge
	StreamDropped  prometheus.Counter
	BridgeMessages *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "commands_total",
				Help:      "Total number of processed commands",
			},
			[]string{"aid", "result"}, // result: ok, error
		),
		CommandLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "command_latency_ms",
				Help:      "Time to run one command against an account in milliseconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"aid"},
		),
		OrderEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "order_events_total",
				Help:      "Total number of order status transitions",
			},
			[]string{"status", "msg"},
		),
		TradesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "trades_total",
				Help:      "Total number of simulated fills",
			},
			[]string{"symbol"},
		),
		Settlements: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "settlements_total",
				Help:      "Total number of account settlements",
			},
		),
		Accounts: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "accounts",
				Help:      "Current number of simulated accounts",
			},
		),
		StreamClients: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "clients",
				Help:      "Current number of connected WebSocket clients",
			},
		),
		StreamDropped: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "dropped_messages_total",
				Help:      "Messages dropped because a client could not keep up",
			},
		),
		BridgeMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bridge",
				Name:      "messages_total",
				Help:      "Total number of messages moved through Redis",
			},
			[]string{"direction"}, // in, out, invalid
		),
	}
}

// Nop returns collectors registered on a private registry, for callers that
// do not expose metrics.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveCommand records one command and its duration.
func (m *Metrics) ObserveCommand(aid string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CommandsTotal.WithLabelValues(aid, result).Inc()
	m.CommandLatency.WithLabelValues(aid).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

// ObserveOrders counts order events and the fills among them.
func (m *Metrics) ObserveOrders(events []domain.Order) {
	for _, o := range events {
		m.OrderEvents.WithLabelValues(string(o.Status), o.LastMsg).Inc()
		if o.LastMsg == domain.MsgFilled {
			m.TradesTotal.WithLabelValues(o.Symbol()).Inc()
		}
	}
}
