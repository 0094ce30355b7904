// Package metrics provides Prometheus metrics for the terimu story sequencing service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels used for sessions leaving the store.
const (
	EndReasonClosed  = "closed"
	EndReasonExpired = "expired"
)

// Manager manages all Prometheus metrics for the terimu service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Game metrics
	sessionsCreated    prometheus.Counter
	sessionsEnded      *prometheus.CounterVec
	sessionsActive     prometheus.Gauge
	sessionsRejected   prometheus.Counter
	drops              *prometheus.CounterVec
	gesturesDuplicate  prometheus.Counter
	checks             *prometheus.CounterVec
	completions        *prometheus.CounterVec
	completionAttempts prometheus.Histogram

	// Notification metrics
	notifications   *prometheus.CounterVec
	notifyLatency   prometheus.Histogram
	notifyRetries   prometheus.Counter
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueEnqueued   prometheus.Counter
	queueDequeued   prometheus.Counter
	queueRejected   prometheus.Counter
	workerCount     prometheus.Gauge
	workerActive    prometheus.Gauge
	workerLatency   prometheus.Histogram
	storeShards     prometheus.Gauge
	storePerShard   *prometheus.GaugeVec
	storeSweepTime  prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	errorsComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "terimu",
		subsystem:        "storybook",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.sessionsCreated = m.counter("sessions_created_total", "Total number of game sessions started")
	m.sessionsEnded = m.counterVec("sessions_ended_total", "Total number of game sessions removed, by reason", "reason")
	m.sessionsActive = m.gauge("sessions_active", "Current number of open game sessions")
	m.sessionsRejected = m.counter("sessions_rejected_total", "Total number of sessions refused because the store was full")
	m.drops = m.counterVec("drops_total", "Total number of drop gestures, by resulting move", "move")
	m.gesturesDuplicate = m.counter("gestures_duplicate_total", "Total number of replayed gesture ids ignored")
	m.checks = m.counterVec("checks_total", "Total number of completion checks, by verdict", "verdict")
	m.completions = m.counterVec("completions_total", "Total number of games completed, by story", "story")
	m.completionAttempts = m.histogram("completion_attempts", "Checks needed before a game was completed",
		[]float64{1, 2, 3, 5, 8, 13, 21})

	m.notifications = m.counterVec("notifications_total", "Completion notifications, by notifier and outcome", "notifier", "outcome")
	m.notifyLatency = m.histogram("notify_latency_milliseconds", "Completion notification delivery latency in milliseconds", m.histogramBuckets)
	m.notifyRetries = m.counter("notify_retries_total", "Total number of notification delivery retries")

	m.queueSize = m.gauge("queue_size", "Current number of pending completion notifications")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of pending completion notifications")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of notifications enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of notifications dequeued")
	m.queueRejected = m.counter("queue_enqueue_errors_total", "Total number of notifications dropped because the queue was full or closed")

	m.workerCount = m.gauge("worker_count", "Configured number of notification workers")
	m.workerActive = m.gauge("worker_active_count", "Number of workers currently delivering a notification")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets)

	m.storeShards = m.gauge("store_shard_count", "Number of session store shards")
	m.storePerShard = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "store_sessions_per_shard", Help: "Number of sessions held by each shard",
	}, []string{"shard_id"})
	m.storeSweepTime = m.histogram("store_sweep_duration_milliseconds", "Duration of an idle-session sweep in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordSessionCreated counts a new game and bumps the active gauge.
func (m *Manager) RecordSessionCreated() {
	m.sessionsCreated.Inc()
	m.sessionsActive.Inc()
}

// RecordSessionEnded counts a removed game and lowers the active gauge.
func (m *Manager) RecordSessionEnded(reason string) {
	m.sessionsEnded.WithLabelValues(reason).Inc()
	m.sessionsActive.Dec()
}

// RecordSessionRejected counts a refused session.
func (m *Manager) RecordSessionRejected() { m.sessionsRejected.Inc() }

// RecordDrop counts a drop by move name.
func (m *Manager) RecordDrop(move string) { m.drops.WithLabelValues(move).Inc() }

// RecordGestureDuplicate counts a replayed gesture.
func (m *Manager) RecordGestureDuplicate() { m.gesturesDuplicate.Inc() }

// RecordCheck counts a completion check by verdict.
func (m *Manager) RecordCheck(verdict string) { m.checks.WithLabelValues(verdict).Inc() }

// RecordCompletion counts a completed game.
func (m *Manager) RecordCompletion(story string, attempts int) {
	m.completions.WithLabelValues(story).Inc()
	m.completionAttempts.Observe(float64(attempts))
}

// RecordNotification counts a delivery outcome for a notifier.
func (m *Manager) RecordNotification(notifier, outcome string, latencyMs float64) {
	m.notifications.WithLabelValues(notifier, outcome).Inc()
	m.notifyLatency.Observe(latencyMs)
}

// RecordNotifyRetry counts a delivery retry.
func (m *Manager) RecordNotifyRetry() { m.notifyRetries.Inc() }

// Package-level helpers operate on the global manager.

// RecordSessionCreated counts a new game.
func RecordSessionCreated() { globalManager.RecordSessionCreated() }

// RecordSessionEnded counts a removed game.
func RecordSessionEnded(reason string) { globalManager.RecordSessionEnded(reason) }

// RecordSessionRejected counts a refused session.
func RecordSessionRejected() { globalManager.RecordSessionRejected() }

// RecordDrop counts a drop by move name.
func RecordDrop(move string) { globalManager.RecordDrop(move) }

// RecordGestureDuplicate counts a replayed gesture.
func RecordGestureDuplicate() { globalManager.RecordGestureDuplicate() }

// RecordCheck counts a completion check by verdict.
func RecordCheck(verdict string) { globalManager.RecordCheck(verdict) }

// RecordCompletion counts a completed game.
func RecordCompletion(story string, attempts int) { globalManager.RecordCompletion(story, attempts) }

// RecordNotification counts a delivery outcome for a notifier.
func RecordNotification(notifier, outcome string, latencyMs float64) {
	globalManager.RecordNotification(notifier, outcome, latencyMs)
}

// RecordNotifyRetry counts a delivery retry.
func RecordNotifyRetry() { globalManager.RecordNotifyRetry() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueRejected.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// UpdateStoreShardCount sets the number of store shards.
func UpdateStoreShardCount(count int) {
	globalManager.storeShards.Set(float64(count))
}

// UpdateStoreSessionsPerShard sets the session count of one shard.
func UpdateStoreSessionsPerShard(shardID string, count int) {
	globalManager.storePerShard.WithLabelValues(shardID).Set(float64(count))
}

// RecordStoreSweepDuration records the duration of an idle-session sweep.
func RecordStoreSweepDuration(latencyMs float64) {
	globalManager.storeSweepTime.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
