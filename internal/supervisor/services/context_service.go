// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package services

import (
	"context"
	"fmt"
)

// ContextRunner is any component with a context-bound run loop.
//
// Satisfied by:
//   - *heuristics.Sweeper
//   - *websocket.Hub
//   - *config.WeightWatcher
//   - *enforcement.GCScheduler
//   - *ingest.Router
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// ContextService wraps a ContextRunner as a supervised service. The
// runner's own RunWithContext already follows the suture contract, so
// Serve delegates and supplies a name.
type ContextService struct {
	runner ContextRunner
	name   string
}

// NewContextService wraps runner. An empty name falls back to the
// runner's String method when it has one.
func NewContextService(name string, runner ContextRunner) *ContextService {
	if name == "" {
		if s, ok := runner.(fmt.Stringer); ok {
			name = s.String()
		} else {
			name = fmt.Sprintf("%T", runner)
		}
	}
	return &ContextService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *ContextService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logs.
func (s *ContextService) String() string {
	return s.name
}
