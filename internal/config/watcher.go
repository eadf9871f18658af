// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/metrics"
)

const reloadDebounce = 100 * time.Millisecond

// WeightWatcher serves the current weight table and swaps it when the
// config file changes. It implements heuristics.WeightProvider.
//
// Only the heuristics section is hot-reloaded. A reload that fails to
// parse keeps the previous table.
type WeightWatcher struct {
	path  string
	table atomic.Pointer[heuristics.WeightTable]

	mu       sync.Mutex
	onReload []func(HeuristicsConfig)
}

// NewWeightWatcher builds a watcher for path seeded from initial. An empty
// path serves the initial table forever.
func NewWeightWatcher(path string, initial HeuristicsConfig) *WeightWatcher {
	w := &WeightWatcher{path: path}
	w.apply(initial)
	return w
}

// Table returns the current weight table.
func (w *WeightWatcher) Table() *heuristics.WeightTable {
	return w.table.Load()
}

// Path returns the watched file.
func (w *WeightWatcher) Path() string {
	return w.path
}

// OnReload registers fn to run after every successful reload.
func (w *WeightWatcher) OnReload(fn func(HeuristicsConfig)) {
	w.mu.Lock()
	w.onReload = append(w.onReload, fn)
	w.mu.Unlock()
}

// Reload re-reads the config file and swaps the table.
func (w *WeightWatcher) Reload() error {
	if w.path == "" {
		return errors.New("no config file to reload")
	}
	cfg, err := LoadFile(w.path)
	if err != nil {
		metrics.RecordWeightReload(err, 0)
		logging.Warn().Err(err).Str("path", w.path).Msg("Weight reload failed, keeping previous table")
		return fmt.Errorf("reload %s: %w", w.path, err)
	}
	w.apply(cfg.Heuristics)

	w.mu.Lock()
	callbacks := append([]func(HeuristicsConfig){}, w.onReload...)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg.Heuristics)
	}

	logging.Info().Str("path", w.path).Msg("Heuristic weights reloaded")
	return nil
}

func (w *WeightWatcher) apply(h HeuristicsConfig) {
	table, problems := h.Table()
	for _, p := range problems {
		logging.Warn().Err(p).Msg("Heuristic configuration problem")
	}
	w.table.Store(table)
	metrics.RecordWeightReload(nil, len(problems))
}

// RunWithContext watches the config file's directory until ctx is done.
// Editors often replace files instead of writing them, so the directory
// is watched and events are filtered by name.
func (w *WeightWatcher) RunWithContext(ctx context.Context) error {
	if w.path == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				_ = w.Reload() //nolint:errcheck // logged in Reload
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.Warn().Err(err).Str("path", w.path).Msg("Config watcher error")
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (w *WeightWatcher) String() string {
	return "weight-watcher"
}
