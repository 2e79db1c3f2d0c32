package aesctrl

import (
	"time"

	"github.com/lightninglabs/aesctrl/cipherctrl"
	"github.com/lightninglabs/aesctrl/sim"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "aesctrl"

// Metrics holds the Prometheus collectors updated by the engine. A nil
// *Metrics records nothing.
type Metrics struct {
	ticks         prometheus.Counter
	state         prometheus.Gauge
	alerts        prometheus.Counter
	submittedJobs *prometheus.CounterVec
	droppedJobs   *prometheus.CounterVec
	completedJobs *prometheus.CounterVec
	failedJobs    *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	waitTime      prometheus.Histogram
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	kind := []string{"kind"}

	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticks_total",
			Help:      "Number of evaluated controller ticks.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "state",
			Help:      "Encoding of the current controller state.",
		}),
		alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "alerts_total",
			Help:      "Number of times the controller entered Error.",
		}),
		submittedJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_submitted_total",
			Help:      "Number of queued jobs.",
		}, kind),
		droppedJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_dropped_total",
			Help:      "Number of jobs shed by the queue.",
		}, kind),
		completedJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_completed_total",
			Help:      "Number of jobs whose result was handed off.",
		}, kind),
		failedJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_failed_total",
			Help:      "Number of jobs that did not complete.",
		}, kind),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "job_ticks",
			Help:      "Ticks from accept to hand-off.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 10),
		}, kind),
		waitTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "job_duration_seconds",
			Help:      "Wall clock time from submission to result.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	collectors := []prometheus.Collector{
		m.ticks, m.state, m.alerts, m.submittedJobs, m.droppedJobs,
		m.completedJobs, m.failedJobs, m.latency, m.waitTime,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) ticked(state cipherctrl.State) {
	if m == nil {
		return
	}

	m.ticks.Inc()
	m.state.Set(float64(state))
}

func (m *Metrics) alert() {
	if m == nil {
		return
	}

	m.alerts.Inc()
}

func (m *Metrics) submitted(kind cipherctrl.RequestKind) {
	if m == nil {
		return
	}

	m.submittedJobs.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) dropped(kind cipherctrl.RequestKind) {
	if m == nil {
		return
	}

	m.droppedJobs.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) failed(kind cipherctrl.RequestKind) {
	if m == nil {
		return
	}

	m.failedJobs.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) completed(c sim.Completion, elapsed time.Duration) {
	if m == nil {
		return
	}

	kind := c.Kind.String()
	m.completedJobs.WithLabelValues(kind).Inc()
	m.latency.WithLabelValues(kind).Observe(float64(c.Latency()))
	m.waitTime.Observe(elapsed.Seconds())
}
