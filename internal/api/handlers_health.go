// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

const readinessTimeout = 2 * time.Second

// LiveStatus is the body of /healthz.
type LiveStatus struct {
	Alive         bool    `json:"alive"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Sessions      int     `json:"sessions"`
	FeedClients   int     `json:"feed_clients"`
}

// ReadyStatus is the body of /readyz.
type ReadyStatus struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// HealthLive handles GET /healthz. It succeeds whenever the process can
// serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	status := LiveStatus{
		Alive:         true,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Sessions:      h.engine.Registry().Len(),
	}
	if h.feed != nil {
		status.FeedClients = h.feed.GetClientCount()
	}
	NewResponseWriter(w, r).Success(status)
}

// HealthReady handles GET /readyz. Every registered check must pass.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := ReadyStatus{Ready: true, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status.Ready = false
			status.Checks[name] = err.Error()
			continue
		}
		status.Checks[name] = "ok"
	}

	rw := NewResponseWriter(w, r)
	if !status.Ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "not ready", status)
		return
	}
	rw.Success(status)
}
