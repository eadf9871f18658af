// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Session lifecycle and classification
// - Enforcement signals and sink deliveries
// - Block-break ingestion
// - Offender store maintenance and weight reloads

var (
	// Session Metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orewatch_sessions_active",
			Help: "Current number of live mining sessions",
		},
	)

	SessionsEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orewatch_sessions_evicted_total",
			Help: "Total number of mining sessions removed",
		},
		[]string{"reason"}, // "idle", "purge"
	)

	BlocksClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orewatch_blocks_classified_total",
			Help: "Total number of block breaks classified",
		},
		[]string{"category", "outcome"},
	)

	SuspicionAdded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orewatch_suspicion_added",
			Help:    "Suspicion added per scored ore encounter",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 80, 120},
		},
	)

	// Sweep Metrics
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orewatch_sweep_duration_seconds",
			Help:    "Duration of decay sweeps in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	SweepSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orewatch_sweep_sessions",
			Help: "Sessions visited by the most recent decay sweep",
		},
	)

	// Enforcement Metrics
	EnforcementSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orewatch_enforcement_signals_total",
			Help: "Total number of enforcement signals emitted",
		},
		[]string{"manual"},
	)

	EnforcementDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orewatch_enforcement_deliveries_total",
			Help: "Total number of enforcement deliveries per sink",
		},
		[]string{"sink", "result"}, // result: "success", "error", "dropped"
	)

	EnforcementDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orewatch_enforcement_delivery_duration_seconds",
			Help:    "Duration of enforcement deliveries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	// Ingest Metrics
	IngestMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orewatch_ingest_messages_total",
			Help: "Total number of block-break messages consumed",
		},
		[]string{"result"}, // "classified", "invalid", "error"
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orewatch_ingest_duration_seconds",
			Help:    "Time to decode and classify one message",
			Buckets: []float64{.00005, .0001, .0005, .001, .005, .01, .05},
		},
	)

	// Maintenance Metrics
	WeightReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orewatch_weight_reloads_total",
			Help: "Total number of weight configuration reloads",
		},
		[]string{"result"},
	)

	WeightErrors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orewatch_weight_errors",
			Help: "Weight entries disabled by the most recent load",
		},
	)

	StoreGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orewatch_store_gc_runs_total",
			Help: "Total number of offender store value-log GC runs",
		},
		[]string{"result"}, // "rewritten", "noop", "error"
	)

	OffenderRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orewatch_offender_records_total",
			Help: "Total number of offenses written to the offender store",
		},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orewatch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orewatch_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	FeedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orewatch_feed_clients",
			Help: "Current number of connected live feed clients",
		},
	)
)

// SetActiveSessions records the registry size.
func SetActiveSessions(n int) {
	SessionsActive.Set(float64(n))
}

// RecordSessionsEvicted counts removed sessions.
func RecordSessionsEvicted(reason string, n int) {
	if n <= 0 {
		return
	}
	SessionsEvicted.WithLabelValues(reason).Add(float64(n))
}

// RecordClassification counts one classified block break.
func RecordClassification(category, outcome string) {
	BlocksClassified.WithLabelValues(category, outcome).Inc()
}

// RecordSuspicionAdded observes one scored ore encounter.
func RecordSuspicionAdded(weight float64) {
	SuspicionAdded.Observe(weight)
}

// RecordSweep records one decay sweep.
func RecordSweep(duration time.Duration, sessions int) {
	SweepDuration.Observe(duration.Seconds())
	SweepSessions.Set(float64(sessions))
}

// RecordEnforcementSignal counts one emitted signal.
func RecordEnforcementSignal(manual bool) {
	EnforcementSignals.WithLabelValues(strconv.FormatBool(manual)).Inc()
}

// RecordEnforcementDelivery records one sink delivery.
func RecordEnforcementDelivery(sink string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EnforcementDeliveries.WithLabelValues(sink, result).Inc()
	EnforcementDeliveryDuration.WithLabelValues(sink).Observe(duration.Seconds())
}

// RecordEnforcementDropped counts a signal that could not be queued.
func RecordEnforcementDropped(sink string) {
	EnforcementDeliveries.WithLabelValues(sink, "dropped").Inc()
}

// RecordIngestMessage records one consumed message.
func RecordIngestMessage(result string, duration time.Duration) {
	IngestMessages.WithLabelValues(result).Inc()
	IngestDuration.Observe(duration.Seconds())
}

// RecordWeightReload records a weight load and how many entries it disabled.
func RecordWeightReload(err error, disabled int) {
	if err != nil {
		WeightReloads.WithLabelValues("error").Inc()
		return
	}
	WeightReloads.WithLabelValues("success").Inc()
	WeightErrors.Set(float64(disabled))
}

// RecordStoreGC records one value-log GC attempt.
func RecordStoreGC(result string) {
	StoreGCRuns.WithLabelValues(result).Inc()
}

// RecordOffense counts one offender store write.
func RecordOffense() {
	OffenderRecords.Inc()
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetFeedClients records the live feed client count.
func SetFeedClients(n int) {
	FeedClients.Set(float64(n))
}
