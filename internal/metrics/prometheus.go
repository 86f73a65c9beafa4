// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the gamification service.
var (
	// Gateway counters.
	XPAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibo_xp_awarded_total",
			Help: "Total XP awarded, by action",
		},
		[]string{"action"},
	)

	LevelUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kibo_level_ups_total",
			Help: "Total number of level-ups",
		},
	)

	AchievementsUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibo_achievements_unlocked_total",
			Help: "Total number of achievements unlocked",
		},
		[]string{"achievement"},
	)

	GatewayCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibo_gateway_calls_total",
			Help: "Total gateway procedure calls",
		},
		[]string{"procedure", "status"},
	)

	GatewayCallDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kibo_gateway_call_duration_seconds",
			Help:    "Time taken by a gateway procedure",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"procedure"},
	)

	// Accessor and cache.
	AccessorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibo_accessor_failures_total",
			Help: "Accessor operations that degraded to a default result",
		},
		[]string{"operation"},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibo_cache_requests_total",
			Help: "Query cache lookups by result",
		},
		[]string{"query", "result"},
	)

	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibo_cache_invalidations_total",
			Help: "Query cache invalidations by query",
		},
		[]string{"query"},
	)

	// Reminders.
	RemindersArmed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kibo_reminders_armed",
			Help: "Current number of armed reminder timers",
		},
	)

	RemindersFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibo_reminders_fired_total",
			Help: "Total reminders fired, by delivery status",
		},
		[]string{"status"},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibo_scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)

	SchedulerLastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kibo_scheduler_last_run_timestamp",
			Help: "Unix timestamp of last scheduler run",
		},
		[]string{"job"},
	)

	SchedulerJobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kibo_scheduler_job_duration_seconds",
			Help:    "Time taken to execute a scheduler job",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~1024s
		},
		[]string{"job"},
	)
)

// RecordXPAwarded records XP granted for an action.
func RecordXPAwarded(action string, amount int) {
	XPAwardedTotal.WithLabelValues(action).Add(float64(amount))
}

// RecordLevelUp records a level-up.
func RecordLevelUp() {
	LevelUpsTotal.Inc()
}

// RecordAchievementUnlocked records an achievement unlock.
func RecordAchievementUnlocked(achievementID string) {
	AchievementsUnlockedTotal.WithLabelValues(achievementID).Inc()
}

// RecordGatewayCall records a gateway procedure outcome and duration.
func RecordGatewayCall(procedure, status string, seconds float64) {
	GatewayCallsTotal.WithLabelValues(procedure, status).Inc()
	GatewayCallDurationSeconds.WithLabelValues(procedure).Observe(seconds)
}

// RecordAccessorFailure records an accessor operation that degraded.
func RecordAccessorFailure(operation string) {
	AccessorFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordCacheHit records a query cache hit.
func RecordCacheHit(query string) {
	CacheRequestsTotal.WithLabelValues(query, "hit").Inc()
}

// RecordCacheMiss records a query cache miss.
func RecordCacheMiss(query string) {
	CacheRequestsTotal.WithLabelValues(query, "miss").Inc()
}

// RecordCacheInvalidation records a cache invalidation.
func RecordCacheInvalidation(query string) {
	CacheInvalidationsTotal.WithLabelValues(query).Inc()
}

// SetRemindersArmed sets the number of armed reminder timers.
func SetRemindersArmed(count int) {
	RemindersArmed.Set(float64(count))
}

// RecordReminderFired records a fired reminder.
func RecordReminderFired(status string) {
	RemindersFiredTotal.WithLabelValues(status).Inc()
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(job, status string) {
	SchedulerJobsRunTotal.WithLabelValues(job, status).Inc()
}

// SetSchedulerLastRun sets the timestamp of the last scheduler run.
func SetSchedulerLastRun(job string) {
	SchedulerLastRunTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// ObserveSchedulerJobDuration observes the duration of a scheduler job.
func ObserveSchedulerJobDuration(job string, seconds float64) {
	SchedulerJobDurationSeconds.WithLabelValues(job).Observe(seconds)
}
