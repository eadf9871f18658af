// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package enforcement

import (
	"context"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
)

// Notifier delivers enforcement signals to one sink.
type Notifier interface {
	// Send delivers a signal. It may block up to the dispatcher timeout.
	Send(ctx context.Context, sig heuristics.Signal) error

	// Name returns the sink name used in logs and metrics.
	Name() string

	// Enabled reports whether the sink should receive signals.
	Enabled() bool
}

// LogNotifier writes every signal to the structured log.
type LogNotifier struct{}

// NewLogNotifier creates a log sink.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Name returns the notifier name.
func (n *LogNotifier) Name() string { return "log" }

// Enabled always returns true.
func (n *LogNotifier) Enabled() bool { return true }

// Send logs the signal at warn level.
func (n *LogNotifier) Send(ctx context.Context, sig heuristics.Signal) error {
	evt := logging.Ctx(ctx).Warn().
		Str("player", sig.Player).
		Float64("suspicion", sig.Suspicion).
		Float64("threshold", sig.Threshold).
		Bool("manual", sig.Manual).
		Time("at", sig.Timestamp)
	if sig.Material != "" {
		evt = evt.Str("material", string(sig.Material))
	}
	if sig.Location != nil {
		evt = evt.Str("location", sig.Location.String())
	}
	if sig.Reason != "" {
		evt = evt.Str("reason", sig.Reason)
	}
	evt.Msg("enforcement signal")
	return nil
}

// Broadcaster pushes signals to live subscribers.
type Broadcaster interface {
	BroadcastSignal(sig heuristics.Signal)
}

// FeedNotifier forwards signals to a Broadcaster such as the websocket hub.
type FeedNotifier struct {
	broadcaster Broadcaster
}

// NewFeedNotifier wraps b as a notifier.
func NewFeedNotifier(b Broadcaster) *FeedNotifier {
	return &FeedNotifier{broadcaster: b}
}

// Name returns the notifier name.
func (n *FeedNotifier) Name() string { return "feed" }

// Enabled reports whether a broadcaster is attached.
func (n *FeedNotifier) Enabled() bool { return n.broadcaster != nil }

// Send broadcasts the signal. Delivery to slow clients is best effort.
func (n *FeedNotifier) Send(_ context.Context, sig heuristics.Signal) error {
	if n.broadcaster != nil {
		n.broadcaster.BroadcastSignal(sig)
	}
	return nil
}
