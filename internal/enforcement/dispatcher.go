// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package enforcement

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/metrics"
)

// DispatcherConfig sizes the delivery pool.
type DispatcherConfig struct {
	// Workers is the maximum number of concurrent deliveries.
	// Default: 4
	Workers int

	// QueueSize bounds pending deliveries. Signals beyond it are dropped.
	// Non-positive values select the default.
	// Default: 1024
	QueueSize int

	// SendTimeout bounds a single notifier call.
	// Default: 15s
	SendTimeout time.Duration
}

// DefaultDispatcherConfig returns production defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:     4,
		QueueSize:   1024,
		SendTimeout: 15 * time.Second,
	}
}

// DispatcherStats counts delivery outcomes.
type DispatcherStats struct {
	Signals   int64 `json:"signals"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Dispatcher fans enforcement signals out to notifiers on a bounded pond
// pool. It implements heuristics.Enforcer: Enforce never blocks, and each
// notifier sees a signal at most once, in no particular order.
type Dispatcher struct {
	cfg  DispatcherConfig
	pool pond.Pool

	mu        sync.RWMutex
	notifiers []Notifier

	ctx    context.Context
	cancel context.CancelFunc

	stopped   atomic.Bool
	signals   atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

var _ heuristics.Enforcer = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher delivering to notifiers.
func NewDispatcher(cfg DispatcherConfig, notifiers ...Notifier) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:       cfg,
		pool:      pond.NewPool(cfg.Workers, pond.WithQueueSize(cfg.QueueSize)),
		notifiers: append([]Notifier(nil), notifiers...),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// AddNotifier registers another sink.
func (d *Dispatcher) AddNotifier(n Notifier) {
	d.mu.Lock()
	d.notifiers = append(d.notifiers, n)
	d.mu.Unlock()
}

// Notifiers returns the names of the enabled sinks.
func (d *Dispatcher) Notifiers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		if n.Enabled() {
			names = append(names, n.Name())
		}
	}
	return names
}

// Enforce queues one delivery per enabled notifier. Signals arriving after
// Stop, or when the queue is full, are dropped and counted.
func (d *Dispatcher) Enforce(sig heuristics.Signal) {
	d.signals.Add(1)

	d.mu.RLock()
	notifiers := make([]Notifier, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	d.mu.RUnlock()

	for _, n := range notifiers {
		if d.stopped.Load() {
			d.drop(n, sig, "dispatcher stopped")
			continue
		}
		n := n
		if _, ok := d.pool.TrySubmit(func() { d.deliver(n, sig) }); !ok {
			d.drop(n, sig, "queue full")
		}
	}
}

func (d *Dispatcher) deliver(n Notifier, sig heuristics.Signal) {
	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.SendTimeout)
	defer cancel()
	ctx = logging.ContextWithNewCorrelationID(ctx)

	start := time.Now()
	err := n.Send(ctx, sig)
	metrics.RecordEnforcementDelivery(n.Name(), time.Since(start), err)
	if err != nil {
		d.failed.Add(1)
		logging.Ctx(ctx).Error().Err(err).
			Str("notifier", n.Name()).
			Str("player", sig.Player).
			Msg("failed to deliver enforcement signal")
		return
	}
	d.delivered.Add(1)
}

func (d *Dispatcher) drop(n Notifier, sig heuristics.Signal, reason string) {
	d.dropped.Add(1)
	metrics.RecordEnforcementDropped(n.Name())
	logging.Warn().
		Str("notifier", n.Name()).
		Str("player", sig.Player).
		Str("reason", reason).
		Msg("enforcement signal dropped")
}

// Stats returns delivery counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Signals:   d.signals.Load(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Stop waits for queued deliveries to finish and rejects new ones.
// In-flight sends keep their own timeout.
func (d *Dispatcher) Stop() {
	if !d.stopped.CompareAndSwap(false, true) {
		return
	}
	d.pool.StopAndWait()
	d.cancel()
}
