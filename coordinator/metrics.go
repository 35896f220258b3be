package coordinator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector exposes coordination metrics to Prometheus.
type Collector struct {
	tasksTotal        *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
	subtasksAssigned  prometheus.Counter
	subtasksDropped   prometheus.Counter
	agentFailures     prometheus.Counter
	consensusRounds   *prometheus.CounterVec
	registeredAgents  prometheus.Gauge
	availableAgents   prometheus.Gauge

	logger *zap.Logger
}

// NewCollector creates a collector registered against the given
// registerer. A nil registerer falls back to the default registry.
func NewCollector(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *Collector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(registerer)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.tasksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total number of coordinated tasks",
		},
		[]string{"status"},
	)

	c.taskDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task pipeline duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	c.subtasksAssigned = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subtasks_assigned_total",
			Help:      "Total number of subtasks placed on agents",
		},
	)

	c.subtasksDropped = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subtasks_unassigned_total",
			Help:      "Total number of subtasks with no matching available agent",
		},
	)

	c.agentFailures = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_failures_total",
			Help:      "Total number of agent failures observed",
		},
	)

	c.consensusRounds = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consensus_rounds_total",
			Help:      "Total number of consensus rounds",
		},
		[]string{"outcome"},
	)

	c.registeredAgents = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_agents",
			Help:      "Number of registered agents",
		},
	)

	c.availableAgents = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available_agents",
			Help:      "Number of agents currently accepting work",
		},
	)

	return c
}

// RecordTask records one completed pipeline run.
func (c *Collector) RecordTask(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.tasksTotal.WithLabelValues(status).Inc()
	c.taskDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordAssignment records how many subtasks were placed and dropped in
// one balancing pass.
func (c *Collector) RecordAssignment(assigned, unassigned int) {
	c.subtasksAssigned.Add(float64(assigned))
	c.subtasksDropped.Add(float64(unassigned))
}

// RecordAgentFailure counts an observed agent failure.
func (c *Collector) RecordAgentFailure() {
	c.agentFailures.Inc()
}

// RecordConsensus counts a consensus round by outcome.
func (c *Collector) RecordConsensus(reached bool) {
	outcome := "reached"
	if !reached {
		outcome = "not_reached"
	}
	c.consensusRounds.WithLabelValues(outcome).Inc()
}

// UpdateAgentGauges refreshes the registered and available agent gauges.
func (c *Collector) UpdateAgentGauges(registered, available int) {
	c.registeredAgents.Set(float64(registered))
	c.availableAgents.Set(float64(available))
}
