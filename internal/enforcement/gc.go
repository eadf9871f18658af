// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package enforcement

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/metrics"
)

// GCScheduler runs value-log GC on the offender store on a cron schedule.
type GCScheduler struct {
	cron         *cron.Cron
	store        *OffenderStore
	discardRatio float64
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debug().Fields(keysAndValues).Str("component", "cron").Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.Error().Err(err).Fields(keysAndValues).Str("component", "cron").Msg(msg)
}

// NewGCScheduler registers the GC job. schedule uses the six-field
// (seconds-first) cron syntax, e.g. "0 */10 * * * *".
func NewGCScheduler(store *OffenderStore, schedule string, discardRatio float64) (*GCScheduler, error) {
	logger := cronLogger{}
	s := &GCScheduler{
		cron:         cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(logger))),
		store:        store,
		discardRatio: discardRatio,
	}
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("schedule offender store gc %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce performs one GC pass.
func (s *GCScheduler) RunOnce() {
	if err := s.store.RunGC(s.discardRatio); err != nil {
		metrics.RecordStoreGC("error")
		logging.Warn().Err(err).Msg("offender store gc failed")
		return
	}
	metrics.RecordStoreGC("success")
}

// Start begins running the schedule.
func (s *GCScheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job.
func (s *GCScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunWithContext runs the schedule until ctx is done.
func (s *GCScheduler) RunWithContext(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *GCScheduler) String() string {
	return "offender-gc"
}
