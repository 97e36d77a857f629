package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tmp007-go/drivers/tmp007"
)

// Sensor exports the trigger path of one TMP007. It implements
// tmp007.Observer.
type Sensor struct {
	interrupts  prometheus.Counter
	dispatched  *prometheus.CounterVec
	statusFails prometheus.Counter
	temperature prometheus.Gauge
}

var _ tmp007.Observer = (*Sensor)(nil)

func New(reg prometheus.Registerer) *Sensor {
	f := promauto.With(reg)
	return &Sensor{
		interrupts: f.NewCounter(prometheus.CounterOpts{
			Subsystem: "tmp007",
			Name:      "interrupts_total",
			Help:      "ALERT interrupts taken.",
		}),
		dispatched: f.NewCounterVec(prometheus.CounterOpts{
			Subsystem: "tmp007",
			Name:      "dispatch_total",
			Help:      "Trigger handler invocations by trigger type.",
		}, []string{"trigger"}),
		statusFails: f.NewCounter(prometheus.CounterOpts{
			Subsystem: "tmp007",
			Name:      "status_read_errors_total",
			Help:      "Failed STATUS reads in the deferred handler.",
		}),
		temperature: f.NewGauge(prometheus.GaugeOpts{
			Subsystem: "tmp007",
			Name:      "object_temperature_celsius",
			Help:      "Last fetched object temperature.",
		}),
	}
}

func (s *Sensor) Interrupt() { s.interrupts.Inc() }

func (s *Sensor) Dispatched(t tmp007.TriggerType) {
	s.dispatched.WithLabelValues(t.String()).Inc()
}

func (s *Sensor) StatusReadFailed() { s.statusFails.Inc() }

// ObserveTemperature records a fetched sample.
func (s *Sensor) ObserveTemperature(v tmp007.Value) {
	s.temperature.Set(float64(v.Micro()) / 1e6)
}
