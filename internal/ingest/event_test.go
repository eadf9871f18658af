// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/orewatch/internal/heuristics"
)

func TestDecodeBlockBreak(t *testing.T) {
	t.Parallel()

	received := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	data := []byte(`{"player":" Steve ","material":"minecraft:Diamond_Ore","x":10,"y":-58,"z":33,
		"biome":"minecraft:Plains","timestamp":"2026-01-02T15:04:05Z","bypass":true}`)

	got, err := decodeBlockBreak(data, received)
	if err != nil {
		t.Fatalf("decodeBlockBreak() error = %v", err)
	}

	if got.Player != "Steve" {
		t.Errorf("Player = %q, want Steve", got.Player)
	}
	if got.Material != heuristics.Material("diamond_ore") {
		t.Errorf("Material = %q, want diamond_ore", got.Material)
	}
	if got.Biome != heuristics.Biome("plains") {
		t.Errorf("Biome = %q, want plains", got.Biome)
	}
	want := heuristics.Coordinate{X: 10, Y: -58, Z: 33}
	if got.Location != want {
		t.Errorf("Location = %v, want %v", got.Location, want)
	}
	if !got.Timestamp.Equal(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)) {
		t.Errorf("Timestamp = %v", got.Timestamp)
	}
	if !got.Bypass {
		t.Error("Bypass = false, want true")
	}
}

func TestDecodeBlockBreak_ZeroTimestampUsesReceiveTime(t *testing.T) {
	t.Parallel()

	received := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got, err := decodeBlockBreak([]byte(`{"player":"Alex","material":"stone","x":0,"y":0,"z":0}`), received)
	if err != nil {
		t.Fatalf("decodeBlockBreak() error = %v", err)
	}
	if !got.Timestamp.Equal(received) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, received)
	}
}

func TestDecodeBlockBreak_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"player":`},
		{"missing player", `{"material":"stone","x":1,"y":2,"z":3}`},
		{"blank player", `{"player":"   ","material":"stone","x":1,"y":2,"z":3}`},
		{"missing material", `{"player":"Steve","x":1,"y":2,"z":3}`},
		{"prefix only material", `{"player":"Steve","material":"minecraft:","x":1,"y":2,"z":3}`},
		{"missing y", `{"player":"Steve","material":"stone","x":1,"z":3}`},
		{"wrong type", `{"player":"Steve","material":"stone","x":"one","y":2,"z":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeBlockBreak([]byte(tt.data))
			if !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("DecodeBlockBreak() error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestEncodeBlockBreak_Decodes(t *testing.T) {
	t.Parallel()

	in := heuristics.BlockBreak{
		Player:    "Steve",
		Material:  "gold_ore",
		Location:  heuristics.Coordinate{X: -4, Y: 0, Z: 9},
		Biome:     "badlands",
		Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
	data, err := EncodeBlockBreak(in)
	if err != nil {
		t.Fatalf("EncodeBlockBreak() error = %v", err)
	}
	out, err := DecodeBlockBreak(data)
	if err != nil {
		t.Fatalf("DecodeBlockBreak() error = %v", err)
	}
	if out.Location != in.Location || out.Material != in.Material || !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
}

func TestSubjectFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		player  string
		want    string
	}{
		{"orewatch.blocks.>", "Steve", "orewatch.blocks.Steve"},
		{"orewatch.blocks.>", "a.b c", "orewatch.blocks.a_b_c"},
		{"orewatch.blocks.>", "", "orewatch.blocks._"},
		{"orewatch.blocks.>", "x*>", "orewatch.blocks.x__"},
		{"blocks", "Steve", "blocks"},
	}

	for _, tt := range tests {
		if got := SubjectFor(tt.pattern, tt.player); got != tt.want {
			t.Errorf("SubjectFor(%q, %q) = %q, want %q", tt.pattern, tt.player, got, tt.want)
		}
	}
}
