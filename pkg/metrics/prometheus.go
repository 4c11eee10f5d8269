// Package metrics provides Prometheus metrics for the coffee-run race service.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Race lifecycle
	racesStarted     prometheus.Counter
	racesCompleted   *prometheus.CounterVec
	checkpointEvents *prometheus.CounterVec
	laceStalls       prometheus.Counter
	runnerFinishes   prometheus.Counter
	finishTime       prometheus.Histogram
	tickLatency      prometheus.Histogram

	// Sessions
	activeSessions  prometheus.Gauge
	sessionsEvicted *prometheus.CounterVec

	// Frame scheduling
	framesCoalesced        prometheus.Counter
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	workerFramesPerSecond   prometheus.Gauge

	// Snapshot streaming
	streamClients prometheus.Gauge
	streamDropped prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "coffeerun",
		subsystem:        "race",
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.racesStarted = m.counter("races_started_total", "Total number of races started")
	m.racesCompleted = m.counterVec("races_completed_total",
		"Total number of completed races by whether the designated runner came last", "script_held")
	m.checkpointEvents = m.counterVec("checkpoint_events_total", "Checkpoint events fired by label", "event")
	m.laceStalls = m.counter("lace_stalls_total", "Total number of lace stalls")
	m.runnerFinishes = m.counter("runner_finishes_total", "Total number of finish-line crossings")
	m.finishTime = m.histogram("finish_time_seconds", "Runner finish times in seconds",
		[]float64{8, 9, 10, 11, 12, 13, 14, 16, 18, 20, 25, 30})
	m.tickLatency = m.histogram("tick_latency_milliseconds", "Wall time spent inside one engine tick",
		[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})

	m.activeSessions = m.gauge("active_sessions", "Number of race sessions held in memory")
	m.sessionsEvicted = m.counterVec("sessions_evicted_total", "Sessions removed by reason", "reason")

	m.framesCoalesced = m.counter("frames_coalesced_total", "Frames dropped because one was already pending")
	m.queueSize = m.gauge("queue_size", "Current number of pending frames")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum frame queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Frame queue utilization ratio (size / capacity)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of frames enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Total number of frames dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of frame enqueue errors")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds",
		"Time a frame waited in the queue in milliseconds", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Configured number of frame workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of frame workers currently running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Frame processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of frame processing errors")
	m.workerFramesPerSecond = m.gauge("worker_frames_per_second", "Frames processed per second across the pool")

	m.streamClients = m.gauge("stream_clients", "Number of connected snapshot stream clients")
	m.streamDropped = m.counter("stream_dropped_total", "Snapshots dropped for slow stream clients")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Race lifecycle.

// RecordRaceStarted increments the started races counter.
func RecordRaceStarted() {
	globalManager.racesStarted.Inc()
}

// RecordRaceCompleted counts a completed race.
func RecordRaceCompleted(scriptHeld bool) {
	globalManager.racesCompleted.WithLabelValues(strconv.FormatBool(scriptHeld)).Inc()
}

// RecordCheckpointEvent counts a fired checkpoint event by its label.
func RecordCheckpointEvent(label string) {
	globalManager.checkpointEvents.WithLabelValues(label).Inc()
}

// RecordLaceStall counts a lace stall.
func RecordLaceStall() {
	globalManager.laceStalls.Inc()
}

// RecordRunnerFinish counts a crossing and observes its finish time.
func RecordRunnerFinish(seconds float64) {
	globalManager.runnerFinishes.Inc()
	globalManager.finishTime.Observe(seconds)
}

// RecordTickLatency observes one engine tick in milliseconds.
func RecordTickLatency(latencyMs float64) {
	globalManager.tickLatency.Observe(latencyMs)
}

// Sessions.

// UpdateActiveSessions sets the number of sessions in memory.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordSessionEvicted counts a removed session. Reason is "idle" or
// "deleted"; a full store rejects new sessions rather than evicting.
func RecordSessionEvicted(reason string) error {
	switch reason {
	case "idle", "deleted":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, reason)
	}
	globalManager.sessionsEvicted.WithLabelValues(reason).Inc()
	return nil
}

// Frame scheduling.

// RecordFrameCoalesced counts a frame skipped because one was pending.
func RecordFrameCoalesced() {
	globalManager.framesCoalesced.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long a frame waited.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records frame processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateWorkerFramesPerSecond sets the pool throughput.
func UpdateWorkerFramesPerSecond(rate float64) {
	globalManager.workerFramesPerSecond.Set(rate)
}

// Streaming.

// UpdateStreamClients sets the number of connected stream clients.
func UpdateStreamClients(count int) {
	globalManager.streamClients.Set(float64(count))
}

// RecordStreamDropped counts a snapshot dropped for a slow client.
func RecordStreamDropped() {
	globalManager.streamDropped.Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap memory in use in bytes.
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
