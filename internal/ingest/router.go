// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// RouterConfig holds the watermill router settings.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers when closing.
	CloseTimeout time.Duration

	// Retry configuration. MaxRetries 0 disables the middleware.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// ThrottlePerSecond caps handled messages per second. 0 disables.
	ThrottlePerSecond int64

	// PoisonQueueTopic receives messages that still fail after retries.
	// Used only when a poison publisher is supplied.
	PoisonQueueTopic string
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0,
		PoisonQueueTopic:     "orewatch.poison",
	}
}

// SubscriberFactory opens a subscriber for one router run. A watermill
// router closes its subscribers on shutdown, so every run needs a new one.
type SubscriberFactory func() (message.Subscriber, error)

type route struct {
	name    string
	topic   string
	handler message.NoPublishHandlerFunc
}

// Router runs consumer handlers on a fresh watermill router per run, which
// makes it restartable under a supervisor.
type Router struct {
	config        RouterConfig
	newSubscriber SubscriberFactory
	poisonPub     message.Publisher
	logger        watermill.LoggerAdapter

	mu      sync.Mutex
	routes  []route
	running atomic.Bool
	ready   chan struct{}
}

// NewRouter creates a router. poison may be nil to disable the poison
// queue.
func NewRouter(cfg RouterConfig, newSubscriber SubscriberFactory, poison message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if newSubscriber == nil {
		return nil, errors.New("subscriber factory is required")
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = DefaultRouterConfig().CloseTimeout
	}
	return &Router{
		config:        cfg,
		newSubscriber: newSubscriber,
		poisonPub:     poison,
		logger:        logger,
		ready:         make(chan struct{}),
	}, nil
}

// AddConsumerHandler registers a handler for topic. Handlers take effect
// on the next run.
func (r *Router) AddConsumerHandler(name, topic string, handler message.NoPublishHandlerFunc) {
	r.mu.Lock()
	r.routes = append(r.routes, route{name: name, topic: topic, handler: handler})
	r.mu.Unlock()
}

func (r *Router) build() (*message.Router, error) {
	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: r.config.CloseTimeout}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// The poison queue wraps retries so only exhausted messages are diverted.
	wmRouter.AddMiddleware(middleware.Recoverer)

	if r.poisonPub != nil && r.config.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(r.poisonPub, r.config.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	if r.config.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      r.config.RetryMaxRetries,
			InitialInterval: r.config.RetryInitialInterval,
			MaxInterval:     r.config.RetryMaxInterval,
			Multiplier:      r.config.RetryMultiplier,
			Logger:          r.logger,
		}
		wmRouter.AddMiddleware(retry.Middleware)
	}

	if r.config.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(r.config.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	r.mu.Lock()
	routes := append([]route(nil), r.routes...)
	r.mu.Unlock()
	if len(routes) == 0 {
		return nil, errors.New("no handlers registered")
	}

	for _, rt := range routes {
		sub, err := r.newSubscriber()
		if err != nil {
			return nil, fmt.Errorf("open subscriber for %s: %w", rt.name, err)
		}
		wmRouter.AddConsumerHandler(rt.name, rt.topic, sub, rt.handler)
	}
	return wmRouter, nil
}

// RunWithContext builds a router and runs it until ctx is done.
func (r *Router) RunWithContext(ctx context.Context) error {
	wmRouter, err := r.build()
	if err != nil {
		return err
	}

	r.mu.Lock()
	ready := r.ready
	r.mu.Unlock()

	go func() {
		select {
		case <-wmRouter.Running():
			r.running.Store(true)
			r.mu.Lock()
			select {
			case <-ready:
			default:
				close(ready)
			}
			r.mu.Unlock()
		case <-ctx.Done():
		}
	}()

	runErr := wmRouter.Run(ctx)
	r.running.Store(false)

	r.mu.Lock()
	r.ready = make(chan struct{})
	r.mu.Unlock()

	if runErr != nil {
		return fmt.Errorf("router run: %w", runErr)
	}
	return ctx.Err()
}

// Ready is closed once the current run has started its handlers.
func (r *Router) Ready() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// IsRunning reports whether handlers are active.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// String implements fmt.Stringer for supervisor logs.
func (r *Router) String() string {
	return "ingest-router"
}
