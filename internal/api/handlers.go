// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/orewatch/internal/enforcement"
	"github.com/tomtom215/orewatch/internal/heuristics"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 * 1024

// Engine is the slice of heuristics.Engine the API drives.
type Engine interface {
	Registry() *heuristics.Registry
	Enabled() bool
	Metrics() heuristics.EngineMetrics
	Flag(ctx context.Context, player, reason string) error
	Purge(player string) bool
	PurgeAll() int
}

// OffenderStore is the offender record surface used for absolution.
type OffenderStore interface {
	Get(ctx context.Context, player string) (*enforcement.OffenderRecord, error)
	List(ctx context.Context) ([]enforcement.OffenderRecord, error)
	Delete(ctx context.Context, player string) error
	Purge(ctx context.Context) (int, error)
}

// Feed serves the live enforcement websocket.
type Feed interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	GetClientCount() int
}

// ReadinessCheck reports whether a dependency is ready. A nil error means
// ready.
type ReadinessCheck func(ctx context.Context) error

// Handler holds the HTTP handlers and their dependencies. Offenders and
// feed are optional.
type Handler struct {
	engine    Engine
	offenders OffenderStore
	feed      Feed
	checks    map[string]ReadinessCheck
	startTime time.Time
}

// NewHandler creates a handler. offenders and feed may be nil.
func NewHandler(engine Engine, offenders OffenderStore, feed Feed) *Handler {
	return &Handler{
		engine:    engine,
		offenders: offenders,
		feed:      feed,
		checks:    make(map[string]ReadinessCheck),
		startTime: time.Now(),
	}
}

// AddReadinessCheck registers a named check consulted by /readyz. Call
// before serving.
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}
