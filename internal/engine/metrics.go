package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// Command outcomes recorded by Metrics.
const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"
)

// Metrics bundles instance manager metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CommandsTotal     *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec
	EventsTotal       *prometheus.CounterVec
	LoadsTotal        prometheus.Counter
	ReplayedEvents    prometheus.Counter
	UnloadsTotal      *prometheus.CounterVec
	ResidentInstances prometheus.Gauge
}

// NewMetrics constructs metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wirelessmesh_commands_total",
				Help: "Commands handled by type and outcome",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wirelessmesh_command_duration_seconds",
				Help:    "Command handling latency in seconds, including instance load",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wirelessmesh_events_appended_total",
				Help: "Events appended to the log by type",
			},
			[]string{"type"},
		),
		LoadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wirelessmesh_instance_loads_total",
			Help: "Instances rebuilt from the event log",
		}),
		ReplayedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wirelessmesh_replayed_events_total",
			Help: "Events folded while loading instances",
		}),
		UnloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wirelessmesh_instance_unloads_total",
				Help: "Instances removed from memory by reason",
			},
			[]string{"reason"},
		),
		ResidentInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wirelessmesh_resident_instances",
			Help: "Instances currently held in memory",
		}),
	}
	reg.MustRegister(
		m.CommandsTotal,
		m.CommandDuration,
		m.EventsTotal,
		m.LoadsTotal,
		m.ReplayedEvents,
		m.UnloadsTotal,
		m.ResidentInstances,
	)
	return m
}

func (m *Metrics) observeCommand(command, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeEvents(events []ir.Event) {
	if m == nil {
		return
	}
	for _, evt := range events {
		m.EventsTotal.WithLabelValues(evt.Type).Inc()
	}
}

func (m *Metrics) observeLoad(replayed int) {
	if m == nil {
		return
	}
	m.LoadsTotal.Inc()
	m.ReplayedEvents.Add(float64(replayed))
}

func (m *Metrics) observeUnload(reason string) {
	if m == nil {
		return
	}
	m.UnloadsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) setResident(n int) {
	if m == nil {
		return
	}
	m.ResidentInstances.Set(float64(n))
}
