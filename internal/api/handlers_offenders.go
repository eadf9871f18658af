// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/orewatch/internal/enforcement"
	"github.com/tomtom215/orewatch/internal/logging"
)

// OffendersList handles GET /api/v1/offenders.
func (h *Handler) OffendersList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.offenders == nil {
		rw.ServiceUnavailable("offender store not configured")
		return
	}
	records, err := h.offenders.List(r.Context())
	if err != nil {
		rw.StoreError(err)
		return
	}
	if records == nil {
		records = []enforcement.OffenderRecord{}
	}
	rw.Success(records)
}

// OffenderGet handles GET /api/v1/offenders/{player}.
func (h *Handler) OffenderGet(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.offenders == nil {
		rw.ServiceUnavailable("offender store not configured")
		return
	}
	player, ok := playerParam(rw, r)
	if !ok {
		return
	}
	rec, err := h.offenders.Get(r.Context(), player)
	switch {
	case errors.Is(err, enforcement.ErrOffenderNotFound):
		rw.NotFound("no offender record for player")
	case err != nil:
		rw.StoreError(err)
	default:
		rw.Success(rec)
	}
}

// OffenderAbsolve handles DELETE /api/v1/offenders/{player}.
func (h *Handler) OffenderAbsolve(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.offenders == nil {
		rw.ServiceUnavailable("offender store not configured")
		return
	}
	player, ok := playerParam(rw, r)
	if !ok {
		return
	}
	err := h.offenders.Delete(r.Context(), player)
	switch {
	case errors.Is(err, enforcement.ErrOffenderNotFound):
		rw.NotFound("no offender record for player")
	case err != nil:
		rw.StoreError(err)
	default:
		logging.Ctx(r.Context()).Info().Str("player", player).Msg("offender absolved via API")
		rw.Success(PurgeResult{Removed: 1})
	}
}

// OffendersPurge handles DELETE /api/v1/offenders.
func (h *Handler) OffendersPurge(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.offenders == nil {
		rw.ServiceUnavailable("offender store not configured")
		return
	}
	n, err := h.offenders.Purge(r.Context())
	if err != nil {
		rw.StoreError(err)
		return
	}
	logging.Ctx(r.Context()).Info().Int("records", n).Msg("all offenders absolved via API")
	rw.Success(PurgeResult{Removed: n})
}

// Feed handles GET /api/v1/feed.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		NewResponseWriter(w, r).ServiceUnavailable("live feed disabled")
		return
	}
	h.feed.ServeWS(w, r)
}
