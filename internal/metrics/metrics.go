// Package metrics holds the daemon's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records command outcomes, channel faults and control loop
// timing. A nil *Collector is valid and records nothing, so callers don't
// need to guard every call site.
type Collector struct {
	commands *prometheus.CounterVec
	faults   *prometheus.CounterVec
	tick     prometheus.Histogram
	state    prometheus.Gauge
}

// New builds a Collector and registers it with reg. A nil reg uses the
// default registerer. Tests pass their own registry to avoid duplicate
// registration panics.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teld",
			Name:      "commands_total",
			Help:      "Commands processed, by command and result code.",
		}, []string{"command", "result"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teld",
			Name:      "mount_faults_total",
			Help:      "Classified hardware channel faults.",
		}, []string{"kind"}),
		tick: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "teld",
			Name:      "tick_duration_seconds",
			Help:      "Control loop tick duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "teld",
			Name:      "state",
			Help:      "Telescope state as its numeric enum value.",
		}),
	}
	reg.MustRegister(c.commands, c.faults, c.tick, c.state)
	return c
}

func (c *Collector) Command(command, result string) {
	if c == nil {
		return
	}
	c.commands.WithLabelValues(command, result).Inc()
}

func (c *Collector) Fault(kind string) {
	if c == nil {
		return
	}
	c.faults.WithLabelValues(kind).Inc()
}

func (c *Collector) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	c.tick.Observe(d.Seconds())
}

func (c *Collector) SetState(state int) {
	if c == nil {
		return
	}
	c.state.Set(float64(state))
}
