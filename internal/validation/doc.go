// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

// Package validation wraps go-playground/validator v10 with a shared
// instance and the OreWatch-specific tags.
//
// Custom tags:
//   - playerid: non-empty, at most 64 bytes, no whitespace, control
//     characters or slashes (player ids are used as URL path segments)
//   - natsurl: empty, or a nats://, tls://, ws:// or wss:// URL with a host
//
// Example:
//
//	type flagRequest struct {
//	    Reason string `json:"reason" validate:"required,max=256"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Details())
//	    return
//	}
package validation
