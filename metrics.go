package corosched

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the scheduler's Prometheus collectors. A nil *Metrics is
// valid everywhere it is used: every recording method below returns early on
// a nil receiver, so a consumer that never calls WithMetrics never touches a
// Prometheus registry.
type Metrics struct {
	ReadyDepth       prometheus.Gauge
	LiveTasks        prometheus.Gauge
	TasksDone        prometheus.Counter
	TasksFailed      prometheus.Counter
	DispatchDuration prometheus.Histogram
}

// NewMetrics registers the scheduler's collectors against reg and returns
// them. Pass nil to register against prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReadyDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "corosched_ready_queue_depth",
			Help: "Number of task ids currently in the ready queue.",
		}),
		LiveTasks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "corosched_live_tasks",
			Help: "Number of tasks currently in the live task table.",
		}),
		TasksDone: factory.NewCounter(prometheus.CounterOpts{
			Name: "corosched_tasks_done_total",
			Help: "Total number of tasks reaped as Finished: a clean Done join, or a Cancel.",
		}),
		TasksFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "corosched_tasks_failed_total",
			Help: "Total number of tasks reaped after a coroutine panic.",
		}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "corosched_dispatch_iteration_seconds",
			Help:    "Wall-clock duration of one dispatch loop iteration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) setReadyDepth(n int) {
	if m == nil {
		return
	}
	m.ReadyDepth.Set(float64(n))
}

func (m *Metrics) setLiveTasks(n int) {
	if m == nil {
		return
	}
	m.LiveTasks.Set(float64(n))
}

func (m *Metrics) recordDone(failed bool) {
	if m == nil {
		return
	}
	if failed {
		m.TasksFailed.Inc()
		return
	}
	m.TasksDone.Inc()
}

func (m *Metrics) observeDispatch(seconds float64) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(seconds)
}
