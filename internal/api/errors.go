// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package api

import "errors"

// ErrRequestTooLarge is returned when a request body exceeds maxBodyBytes.
var ErrRequestTooLarge = errors.New("request body too large")
