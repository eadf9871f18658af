// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

/*
Package metrics provides Prometheus instrumentation for OreWatch.

All collectors are registered with the default registry through promauto
and exported by the API server on /metrics.

# Metric Families

Sessions:
  - orewatch_sessions_active: live mining sessions
  - orewatch_sessions_evicted_total{reason}: idle evictions and purges
  - orewatch_blocks_classified_total{category,outcome}
  - orewatch_suspicion_added: suspicion per scored ore

Sweeps:
  - orewatch_sweep_duration_seconds
  - orewatch_sweep_sessions

Enforcement:
  - orewatch_enforcement_signals_total{manual}
  - orewatch_enforcement_deliveries_total{sink,result}
  - orewatch_enforcement_delivery_duration_seconds{sink}

Ingest:
  - orewatch_ingest_messages_total{result}
  - orewatch_ingest_duration_seconds

Maintenance:
  - orewatch_weight_reloads_total{result}, orewatch_weight_errors
  - orewatch_store_gc_runs_total{result}, orewatch_offender_records_total

API:
  - orewatch_api_requests_total{method,route,status}
  - orewatch_api_request_duration_seconds{method,route}
  - orewatch_feed_clients

# Example Queries

	# Signals per minute
	rate(orewatch_enforcement_signals_total[1m]) * 60

	# Webhook failure ratio
	rate(orewatch_enforcement_deliveries_total{sink="webhook",result="error"}[5m])
	  / rate(orewatch_enforcement_deliveries_total{sink="webhook"}[5m])
*/
package metrics
