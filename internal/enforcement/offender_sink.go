// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package enforcement

import (
	"context"
	"fmt"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
)

// OffenderRecorder is the part of OffenderStore the sink needs.
type OffenderRecorder interface {
	RecordOffense(ctx context.Context, sig heuristics.Signal) (OffenderRecord, error)
}

// OffenderSink records every signal as an offense.
type OffenderSink struct {
	store OffenderRecorder
}

// NewOffenderSink creates a sink writing to store.
func NewOffenderSink(store OffenderRecorder) *OffenderSink {
	return &OffenderSink{store: store}
}

// Name returns the notifier name.
func (n *OffenderSink) Name() string { return "offenders" }

// Enabled reports whether a store is attached.
func (n *OffenderSink) Enabled() bool { return n.store != nil }

// Send records the offense and logs first-time offenders.
func (n *OffenderSink) Send(ctx context.Context, sig heuristics.Signal) error {
	rec, err := n.store.RecordOffense(ctx, sig)
	if err != nil {
		return fmt.Errorf("record offense for %s: %w", sig.Player, err)
	}
	if rec.Offenses == 1 {
		logging.Ctx(ctx).Info().
			Str("player", sig.Player).
			Float64("suspicion", sig.Suspicion).
			Msg("first offense recorded")
	}
	return nil
}
