// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

// ErrInvalidEvent marks payloads that can never be classified. Such
// messages are acked and counted, never redelivered.
var ErrInvalidEvent = errors.New("invalid block break event")

// BlockBreakEvent is the wire form of a block break.
//
//	{"player":"Steve","material":"diamond_ore","x":10,"y":-58,"z":33,
//	 "biome":"plains","timestamp":"2026-01-02T15:04:05Z","bypass":false}
type BlockBreakEvent struct {
	Player    string    `json:"player"`
	Material  string    `json:"material"`
	X         *int      `json:"x"`
	Y         *int      `json:"y"`
	Z         *int      `json:"z"`
	Biome     string    `json:"biome,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Bypass    bool      `json:"bypass"`
}

// DecodeBlockBreak parses a wire event. Tags are normalized and a missing
// timestamp becomes the current time.
func DecodeBlockBreak(data []byte) (heuristics.BlockBreak, error) {
	return decodeBlockBreak(data, time.Now())
}

func decodeBlockBreak(data []byte, receivedAt time.Time) (heuristics.BlockBreak, error) {
	var ev BlockBreakEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return heuristics.BlockBreak{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	player := strings.TrimSpace(ev.Player)
	if player == "" {
		return heuristics.BlockBreak{}, fmt.Errorf("%w: missing player", ErrInvalidEvent)
	}
	material := heuristics.NormalizeMaterial(ev.Material)
	if material == "" {
		return heuristics.BlockBreak{}, fmt.Errorf("%w: missing material", ErrInvalidEvent)
	}
	if ev.X == nil || ev.Y == nil || ev.Z == nil {
		return heuristics.BlockBreak{}, fmt.Errorf("%w: missing coordinate", ErrInvalidEvent)
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = receivedAt
	}

	return heuristics.BlockBreak{
		Player:    player,
		Material:  material,
		Location:  heuristics.Coordinate{X: *ev.X, Y: *ev.Y, Z: *ev.Z},
		Biome:     heuristics.NormalizeBiome(ev.Biome),
		Timestamp: ts,
		Bypass:    ev.Bypass,
	}, nil
}

// EncodeBlockBreak renders a block break in wire form.
func EncodeBlockBreak(b heuristics.BlockBreak) ([]byte, error) {
	x, y, z := b.Location.X, b.Location.Y, b.Location.Z
	data, err := json.Marshal(BlockBreakEvent{
		Player:    b.Player,
		Material:  string(b.Material),
		X:         &x,
		Y:         &y,
		Z:         &z,
		Biome:     string(b.Biome),
		Timestamp: b.Timestamp,
		Bypass:    b.Bypass,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal block break: %w", err)
	}
	return data, nil
}

// SubjectFor returns the subject a player's events are published on. A
// pattern ending in ">" gets the player as its last token; any other
// pattern is used as-is.
func SubjectFor(pattern, player string) string {
	if !strings.HasSuffix(pattern, ">") {
		return pattern
	}
	return strings.TrimSuffix(pattern, ">") + subjectToken(player)
}

// subjectToken maps characters that are not valid inside a NATS subject
// token to '_'.
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
