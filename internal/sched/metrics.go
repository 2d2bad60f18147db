package sched

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects scheduler counters on an injected registry. A nil
// *Metrics is valid everywhere and records nothing.
type Metrics struct {
	Admissions         prometheus.Counter
	AdmissionsRejected prometheus.Counter
	Picks              prometheus.Counter
	Preemptions        prometheus.Counter
	Fallbacks          prometheus.Counter
	Ticks              prometheus.Counter
	Runnable           prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Admissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fairsched",
			Name:      "admissions_total",
			Help:      "Tasks admitted to the active scheduler tier.",
		}),
		AdmissionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fairsched",
			Name:      "admissions_rejected_total",
			Help:      "Admissions refused, e.g. on arena exhaustion.",
		}),
		Picks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fairsched",
			Name:      "picks_total",
			Help:      "Successful pick_next_task dispatches.",
		}),
		Preemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fairsched",
			Name:      "preemptions_total",
			Help:      "Running tasks requeued by a tick decision.",
		}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fairsched",
			Name:      "fallbacks_total",
			Help:      "Tier downgrades taken by the cascade controller.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fairsched",
			Name:      "ticks_total",
			Help:      "Timer ticks delivered to the active tier.",
		}),
		Runnable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fairsched",
			Name:      "runnable_tasks",
			Help:      "Tasks currently queued as runnable.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Admissions, m.AdmissionsRejected, m.Picks,
			m.Preemptions, m.Fallbacks, m.Ticks, m.Runnable,
		)
	}
	return m
}

func (m *Metrics) incAdmission(rejected bool) {
	if m == nil {
		return
	}
	if rejected {
		m.AdmissionsRejected.Inc()
	} else {
		m.Admissions.Inc()
	}
}

func (m *Metrics) incPick() {
	if m == nil {
		return
	}
	m.Picks.Inc()
}

func (m *Metrics) incPreemption() {
	if m == nil {
		return
	}
	m.Preemptions.Inc()
}

func (m *Metrics) incFallback() {
	if m == nil {
		return
	}
	m.Fallbacks.Inc()
}

func (m *Metrics) incTick() {
	if m == nil {
		return
	}
	m.Ticks.Inc()
}

func (m *Metrics) setRunnable(n int) {
	if m == nil {
		return
	}
	m.Runnable.Set(float64(n))
}
