// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

/*
Package api provides the operational HTTP surface using the Chi router.

Routes:

	GET    /healthz                        liveness
	GET    /readyz                         readiness (registered checks)
	GET    /metrics                        Prometheus scrape
	GET    /api/v1/engine                  engine counters
	GET    /api/v1/sessions                {count, enabled}
	DELETE /api/v1/sessions                purge every session
	GET    /api/v1/sessions/{player}       session snapshot
	DELETE /api/v1/sessions/{player}       purge one session
	POST   /api/v1/players/{player}/flag   manual enforcement signal
	GET    /api/v1/offenders               offender records
	DELETE /api/v1/offenders               absolve everyone
	GET    /api/v1/offenders/{player}      one offender record
	DELETE /api/v1/offenders/{player}      absolve one player
	GET    /api/v1/feed                    live enforcement websocket

Every JSON response uses the APIResponse envelope:

	{"success":true,"data":{...},"meta":{"request_id":"...","timestamp":"...","duration_ms":0}}

Routes under /api/v1 are rate limited per client IP with go-chi/httprate
and counted in orewatch_api_requests_total by route pattern. There is no
authentication; bind the listener to an operator network.
*/
package api
