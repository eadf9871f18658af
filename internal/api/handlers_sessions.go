// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/validation"
)

// SessionCount is the body of GET /api/v1/sessions.
type SessionCount struct {
	Count   int  `json:"count"`
	Enabled bool `json:"enabled"`
}

// PurgeResult reports how many sessions or records were removed.
type PurgeResult struct {
	Removed int `json:"removed"`
}

// FlagRequest is the body of POST /api/v1/players/{player}/flag.
type FlagRequest struct {
	Player string `json:"-" validate:"playerid"`
	Reason string `json:"reason" validate:"required,max=256"`
}

// SessionsCount handles GET /api/v1/sessions.
func (h *Handler) SessionsCount(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(SessionCount{
		Count:   h.engine.Registry().Len(),
		Enabled: h.engine.Enabled(),
	})
}

// SessionGet handles GET /api/v1/sessions/{player}.
func (h *Handler) SessionGet(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	player, ok := playerParam(rw, r)
	if !ok {
		return
	}
	snap, found := h.engine.Registry().Snapshot(player)
	if !found {
		rw.NotFound("no active mining session for player")
		return
	}
	rw.Success(snap)
}

// SessionDelete handles DELETE /api/v1/sessions/{player}.
func (h *Handler) SessionDelete(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	player, ok := playerParam(rw, r)
	if !ok {
		return
	}
	if !h.engine.Purge(player) {
		rw.NotFound("no active mining session for player")
		return
	}
	logging.Ctx(r.Context()).Info().Str("player", player).Msg("session purged via API")
	rw.Success(PurgeResult{Removed: 1})
}

// SessionsPurge handles DELETE /api/v1/sessions.
func (h *Handler) SessionsPurge(w http.ResponseWriter, r *http.Request) {
	n := h.engine.PurgeAll()
	logging.Ctx(r.Context()).Info().Int("sessions", n).Msg("all sessions purged via API")
	NewResponseWriter(w, r).Success(PurgeResult{Removed: n})
}

// FlagPlayer handles POST /api/v1/players/{player}/flag. The signal is
// delivered asynchronously, so success is 202.
func (h *Handler) FlagPlayer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req FlagRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	req.Player = chi.URLParam(r, "player")

	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError("invalid flag request", verr.Details())
		return
	}

	if err := h.engine.Flag(r.Context(), req.Player, req.Reason); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	rw.Accepted(map[string]string{"player": req.Player, "reason": req.Reason})
}

// EngineStats handles GET /api/v1/engine.
func (h *Handler) EngineStats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.Metrics())
}

func playerParam(rw *ResponseWriter, r *http.Request) (string, bool) {
	player := chi.URLParam(r, "player")
	if !validation.ValidPlayerID(player) {
		rw.BadRequest("invalid player id")
		return "", false
	}
	return player, true
}

// decodeJSONBody decodes a bounded JSON body into dst, rejecting unknown
// fields.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return ErrRequestTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return errors.New("malformed JSON body")
		}
	}
	return nil
}
