package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_gateway_active_sessions",
		Help: "Number of active call sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_gateway_sessions_total",
		Help: "Total number of call sessions handled",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_gateway_session_duration_seconds",
		Help:    "Duration of call sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Turn metrics
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_turns_total",
		Help: "Total number of dialogue turns executed",
	}, []string{"status"}) // played, cancelled, error, silent

	turnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_gateway_turn_latency_seconds",
		Help:    "Time from end-of-turn to first outbound frame",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	bargeInsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_gateway_barge_ins_total",
		Help: "Total number of playback cancellations triggered by caller speech",
	})

	// Adapter metrics
	adapterRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_adapter_requests_total",
		Help: "Total number of adapter calls",
	}, []string{"adapter", "status"})

	adapterLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_gateway_adapter_latency_seconds",
		Help:    "Adapter call latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	}, []string{"adapter"})

	// Ticket sink metrics
	ticketPosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_ticket_posts_total",
		Help: "Total number of ticket sink submissions",
	}, []string{"status"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	// Audio metrics
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_gateway_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// Metrics tracks metrics for a single call session
type Metrics struct {
	callID    string
	startTime time.Time
	turnStart time.Time
	mu        sync.Mutex
}

// NewCallMetrics creates a new metrics tracker for a call session
func NewCallMetrics(callID string) *Metrics {
	return &Metrics{
		callID:    callID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a call session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a call session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordTurnStart marks the detection of end-of-turn, the point turn latency
// is measured from.
func (m *Metrics) RecordTurnStart() {
	m.mu.Lock()
	m.turnStart = time.Now()
	m.mu.Unlock()
}

// RecordTurnEnd records the outcome of one executed turn.
// Status is one of "played", "cancelled", "error", "silent".
func (m *Metrics) RecordTurnEnd(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.turnStart.IsZero() {
		turnLatency.Observe(time.Since(m.turnStart).Seconds())
		m.turnStart = time.Time{}
	}
	turnsTotal.WithLabelValues(status).Inc()
}

// RecordBargeIn counts a playback cancellation caused by caller speech.
func (m *Metrics) RecordBargeIn() {
	bargeInsTotal.Inc()
}

// RecordAdapterCall records one adapter invocation with its latency.
func (m *Metrics) RecordAdapterCall(adapter string, start time.Time, err error) {
	adapterLatency.WithLabelValues(adapter).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	adapterRequests.WithLabelValues(adapter, status).Inc()
}

// RecordTicketPost records a ticket sink submission outcome.
func (m *Metrics) RecordTicketPost(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	ticketPosts.WithLabelValues(status).Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
