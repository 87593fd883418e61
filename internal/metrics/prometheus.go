package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "equitydesk_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "equitydesk_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_agent_calls_total",
			Help: "Total number of agent LLM calls",
		},
		[]string{"agent", "model", "status"}, // status: success|error
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "equitydesk_agent_latency_seconds",
			Help:    "Agent LLM call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"agent", "model"},
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_agent_tokens_total",
			Help: "Total tokens used by agents",
		},
		[]string{"agent", "model", "type"}, // type: input|output
	)

	ModelSwitches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_model_switches_total",
			Help: "Model cascade switches after a switchable provider error",
		},
		[]string{"from", "reason"}, // reason: rate_limit|policy
	)

	// News resolution metrics
	NewsSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_news_searches_total",
			Help: "News backend searches",
		},
		[]string{"backend", "scope", "status"}, // scope: priority|broad
	)

	NewsResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_news_resolutions_total",
			Help: "Completed news resolutions by final state",
		},
		[]string{"outcome"}, // outcome: priority|fallback|failed
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_cache_lookups_total",
			Help: "Backend response cache lookups",
		},
		[]string{"cache", "result"}, // result: hit|miss|error
	)

	// Workflow metrics
	WorkflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_workflow_runs_total",
			Help: "Research workflow runs",
		},
		[]string{"trigger", "status"}, // status: success|failed
	)

	WorkflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "equitydesk_workflow_duration_seconds",
			Help:    "Research workflow duration in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"trigger"},
	)

	// Tool metrics
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"},
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "equitydesk_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"tool"},
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"},
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "equitydesk_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equitydesk_kafka_messages_total",
			Help: "Total Kafka messages published",
		},
		[]string{"topic", "status"},
	)

	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "equitydesk_websocket_connections",
			Help: "Open run progress websocket connections",
		},
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WorkerExecutions, WorkerDuration, WorkerLastRun,
			AgentCalls, AgentLatency, AgentTokens, ModelSwitches,
			NewsSearches, NewsResolutions, CacheLookups,
			WorkflowRuns, WorkflowDuration,
			ToolExecutions, ToolLatency,
			DBQueries, DBQueryDuration,
			KafkaMessages, WebSocketConnections,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, status(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordAgentCall records an agent LLM invocation
func RecordAgentCall(agent, model string, latency time.Duration, inputTokens, outputTokens int, err error) {
	AgentCalls.WithLabelValues(agent, model, status(err)).Inc()
	AgentLatency.WithLabelValues(agent, model).Observe(latency.Seconds())

	if inputTokens > 0 {
		AgentTokens.WithLabelValues(agent, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		AgentTokens.WithLabelValues(agent, model, "output").Add(float64(outputTokens))
	}
}

// RecordModelSwitch records a cascade step away from a model
func RecordModelSwitch(from, reason string) {
	ModelSwitches.WithLabelValues(from, reason).Inc()
}

// RecordNewsSearch records one backend search
func RecordNewsSearch(backend, scope string, err error) {
	NewsSearches.WithLabelValues(backend, scope, status(err)).Inc()
}

// RecordNewsResolution records the terminal state of a resolution
func RecordNewsResolution(outcome string) {
	NewsResolutions.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup records a cache hit, miss or error
func RecordCacheLookup(cache, result string) {
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordWorkflowRun records a completed research workflow
func RecordWorkflowRun(trigger string, duration time.Duration, err error) {
	s := "success"
	if err != nil {
		s = "failed"
	}
	WorkflowRuns.WithLabelValues(trigger, s).Inc()
	WorkflowDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

// RecordToolExecution records a tool execution
func RecordToolExecution(tool string, latency time.Duration, err error) {
	ToolExecutions.WithLabelValues(tool, status(err)).Inc()
	ToolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	DBQueries.WithLabelValues(database, operation, status(err)).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordKafkaMessage records a published event
func RecordKafkaMessage(topic string, err error) {
	KafkaMessages.WithLabelValues(topic, status(err)).Inc()
}
