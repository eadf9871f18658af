// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package enforcement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
)

// WebhookConfig configures the generic webhook notifier.
type WebhookConfig struct {
	URL     string
	Headers map[string]string

	// Timeout bounds one HTTP request.
	// Default: 10s
	Timeout time.Duration

	// RatePerSecond and Burst shape outgoing requests. A zero rate
	// disables limiting.
	RatePerSecond float64
	Burst         int

	// FailureThreshold consecutive failures open the breaker for
	// BreakerTimeout.
	// Default: 5 and 30s
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

// WebhookPayload is the JSON body posted to the endpoint.
type WebhookPayload struct {
	Signal    heuristics.Signal `json:"signal"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source"`
}

// WebhookNotifier posts signals to an HTTP endpoint behind a rate limiter
// and a circuit breaker.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[interface{}]

	mu      sync.RWMutex
	headers map[string]string
	enabled bool
}

// NewWebhookNotifier creates a webhook sink. It is enabled iff URL is set.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	threshold := cfg.FailureThreshold
	return &WebhookNotifier{
		url:     cfg.URL,
		headers: headers,
		enabled: cfg.URL != "",
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
			Name:        "enforcement-webhook",
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("webhook circuit breaker state changed")
			},
		}),
	}
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string { return "webhook" }

// Enabled reports whether the notifier is configured and switched on.
func (n *WebhookNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.url != ""
}

// SetEnabled switches delivery on or off.
func (n *WebhookNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	n.enabled = enabled
	n.mu.Unlock()
}

// BreakerState returns the circuit breaker state name.
func (n *WebhookNotifier) BreakerState() string {
	return n.breaker.State().String()
}

// Send posts one signal. It waits for the rate limiter and fails fast
// while the breaker is open.
func (n *WebhookNotifier) Send(ctx context.Context, sig heuristics.Signal) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit: %w", err)
	}

	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.post(ctx, sig)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("webhook unavailable: %w", err)
	}
	return err
}

func (n *WebhookNotifier) post(ctx context.Context, sig heuristics.Signal) error {
	body, err := json.Marshal(WebhookPayload{
		Signal:    sig,
		EventType: "enforcement_signal",
		Timestamp: time.Now().UTC(),
		Source:    "orewatch",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	n.mu.RLock()
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}
	n.mu.RUnlock()

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
