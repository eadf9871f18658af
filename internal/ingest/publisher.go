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

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher publishes block breaks on a subject pattern. It also satisfies
// message.Publisher so it can back the router's poison queue.
type Publisher struct {
	publisher message.Publisher
	subject   string

	mu     sync.RWMutex
	closed bool
}

var _ message.Publisher = (*Publisher)(nil)

// NewPublisher wraps pub. subject is a pattern as accepted by SubjectFor.
func NewPublisher(pub message.Publisher, subject string) *Publisher {
	return &Publisher{publisher: pub, subject: subject}
}

// PublishBlockBreak encodes b and publishes it with a fresh message id.
func (p *Publisher) PublishBlockBreak(ctx context.Context, b heuristics.BlockBreak) error {
	payload, err := EncodeBlockBreak(b)
	if err != nil {
		return err
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("player", b.Player)
	msg.Metadata.Set("material", string(b.Material))
	msg.SetContext(ctx)

	if err := p.Publish(SubjectFor(p.subject, b.Player), msg); err != nil {
		return fmt.Errorf("publish block break %s: %w", msg.UUID, err)
	}
	return nil
}

// Publish forwards messages to the underlying publisher.
func (p *Publisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	return p.publisher.Publish(topic, msgs...)
}

// Close closes the underlying publisher once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
