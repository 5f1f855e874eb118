// Package metrics exposes Prometheus counters for the interview engine.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "briefing"

// Collector groups the engine's Prometheus collectors.
type Collector struct {
	llmRequests      *prometheus.CounterVec
	llmDuration      *prometheus.HistogramVec
	parses           *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	duplicates       prometheus.Counter
	sessionsActive   prometheus.Gauge
	sessionsComplete prometheus.Counter
}

// New registers the collectors on reg. A collector already registered under
// the same name is reused, so New may be called more than once per registry.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Text generation requests by outcome.",
		}, []string{"outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of text generation requests including retries.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_total",
			Help:      "Recovery parser results by winning strategy.",
		}, []string{"strategy"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_rejections_total",
			Help:      "Generated questions rejected by the closed-form validator.",
		}, []string{"reason"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Default values substituted for unusable model output.",
		}, []string{"component"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Session state machine transitions.",
		}, []string{"from", "to"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Candidate questions dropped as near-duplicates.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operations_in_flight",
			Help:      "Session operations currently running.",
		}),
		sessionsComplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Sessions that reached the completed step.",
		}),
	}

	c.llmRequests = register(reg, c.llmRequests)
	c.llmDuration = register(reg, c.llmDuration)
	c.parses = register(reg, c.parses)
	c.rejections = register(reg, c.rejections)
	c.fallbacks = register(reg, c.fallbacks)
	c.transitions = register(reg, c.transitions)
	c.duplicates = register(reg, c.duplicates)
	c.sessionsActive = register(reg, c.sessionsActive)
	c.sessionsComplete = register(reg, c.sessionsComplete)
	return c
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) T {
	if err := reg.Register(col); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return col
}

// LLMRequest records one generation call and its total latency.
func (c *Collector) LLMRequest(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.llmRequests.WithLabelValues(outcome).Inc()
	c.llmDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Parsed records which recovery strategy produced a value ("failed" if none).
func (c *Collector) Parsed(strategy string) {
	if c == nil {
		return
	}
	c.parses.WithLabelValues(strategy).Inc()
}

// Rejected records a question failing validation.
func (c *Collector) Rejected(reason string) {
	if c == nil {
		return
	}
	c.rejections.WithLabelValues(reason).Inc()
}

// Fallback records a default substituted by component.
func (c *Collector) Fallback(component string) {
	if c == nil {
		return
	}
	c.fallbacks.WithLabelValues(component).Inc()
}

// Transition records a state change.
func (c *Collector) Transition(from, to string) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(from, to).Inc()
	if to == "completed" {
		c.sessionsComplete.Inc()
	}
}

// DuplicatesDropped adds n dropped candidates.
func (c *Collector) DuplicatesDropped(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.duplicates.Add(float64(n))
}

// OperationStarted marks an operation in flight; call the returned func when done.
func (c *Collector) OperationStarted() func() {
	if c == nil {
		return func() {}
	}
	c.sessionsActive.Inc()
	return c.sessionsActive.Dec
}
