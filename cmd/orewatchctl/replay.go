// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/orewatch/internal/config"
	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/ingest"
	"github.com/tomtom215/orewatch/internal/logging"
)

// maxLineBytes bounds one JSONL record.
const maxLineBytes = 1 << 20

// ReplaySummary is the result of an offline replay.
type ReplaySummary struct {
	Events   int               `json:"events"`
	Invalid  int               `json:"invalid"`
	Outcomes map[string]int    `json:"outcomes"`
	Signals  []SignalledPlayer `json:"signals"`
}

// SignalledPlayer aggregates the signals one player received.
type SignalledPlayer struct {
	Player        string  `json:"player"`
	Signals       int     `json:"signals"`
	PeakSuspicion float64 `json:"peak_suspicion"`
	LastMaterial  string  `json:"last_material,omitempty"`
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay a JSONL block-break capture",
		Long: `Replay feeds every line of FILE (one block-break event per line)
through an in-process heuristics engine and prints the outcome counts and
the players that would have been signalled.

With --nats, the events are published to JetStream instead, where a
running server will score them.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
	cmd.Flags().String("config", "", "Config file providing heuristics weights and thresholds")
	cmd.Flags().String("nats", "", "Publish events to this NATS URL instead of scoring locally")
	cmd.Flags().String("subject", "orewatch.blocks.>", "Subject pattern used with --nats")
	cmd.Flags().Bool("json", false, "Print the summary as JSON")
	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	natsURL, _ := cmd.Flags().GetString("nats")
	subject, _ := cmd.Flags().GetString("subject")
	asJSON, _ := cmd.Flags().GetBool("json")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if natsURL != "" {
		published, invalid, err := publishEvents(ctx, f, natsURL, subject)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %d events to %s (%d invalid lines skipped)\n", published, natsURL, invalid)
		return nil
	}

	weights := heuristics.NewStaticWeights(nil)
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		table, problems := cfg.Heuristics.Table()
		for _, p := range problems {
			logging.Warn().Err(p).Msg("Heuristics setting ignored")
		}
		weights = heuristics.NewStaticWeights(table)
	}

	summary, err := replayEvents(ctx, f, weights)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

// replayEvents scores every event in r on a fresh engine.
func replayEvents(ctx context.Context, r io.Reader, weights heuristics.WeightProvider) (*ReplaySummary, error) {
	var (
		mu        sync.Mutex
		signalled = make(map[string]*SignalledPlayer)
	)
	enforcer := heuristics.EnforcerFunc(func(sig heuristics.Signal) {
		mu.Lock()
		defer mu.Unlock()
		sp, ok := signalled[sig.Player]
		if !ok {
			sp = &SignalledPlayer{Player: sig.Player}
			signalled[sig.Player] = sp
		}
		sp.Signals++
		if sig.Suspicion > sp.PeakSuspicion {
			sp.PeakSuspicion = sig.Suspicion
		}
		sp.LastMaterial = string(sig.Material)
	})
	engine := heuristics.NewEngine(heuristics.NewRegistry(), weights, enforcer)

	summary := &ReplaySummary{Outcomes: make(map[string]int)}
	err := scanEvents(r, func(line int, ev heuristics.BlockBreak, decodeErr error) error {
		summary.Events++
		if decodeErr != nil {
			summary.Invalid++
			logging.Debug().Err(decodeErr).Int("line", line).Msg("Skipping invalid event")
			return nil
		}
		outcome, err := engine.Classify(ctx, ev)
		if err != nil {
			summary.Invalid++
			logging.Debug().Err(err).Int("line", line).Msg("Event rejected by engine")
			return nil
		}
		summary.Outcomes[outcome.String()]++
		return nil
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	for _, sp := range signalled {
		summary.Signals = append(summary.Signals, *sp)
	}
	mu.Unlock()
	sort.Slice(summary.Signals, func(i, j int) bool {
		return summary.Signals[i].PeakSuspicion > summary.Signals[j].PeakSuspicion
	})
	return summary, nil
}

// publishEvents sends every valid event in r to JetStream.
func publishEvents(ctx context.Context, r io.Reader, url, subject string) (published, invalid int, err error) {
	pub, err := ingest.NewNATSPublisher(url, logging.NewWatermillLogger())
	if err != nil {
		return 0, 0, err
	}
	publisher := ingest.NewPublisher(pub, subject)
	defer func() {
		if cerr := publisher.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = scanEvents(r, func(line int, ev heuristics.BlockBreak, decodeErr error) error {
		if decodeErr != nil {
			invalid++
			logging.Warn().Err(decodeErr).Int("line", line).Msg("Skipping invalid event")
			return nil
		}
		if err := publisher.PublishBlockBreak(ctx, ev); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		published++
		return nil
	})
	return published, invalid, err
}

// scanEvents decodes r line by line. Blank lines and lines starting with
// '#' are skipped.
func scanEvents(r io.Reader, fn func(line int, ev heuristics.BlockBreak, decodeErr error) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		ev, err := ingest.DecodeBlockBreak(raw)
		if err := fn(line, ev, err); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event file: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, s *ReplaySummary) {
	fmt.Fprintf(w, "events:   %d\n", s.Events)
	fmt.Fprintf(w, "invalid:  %d\n", s.Invalid)
	for _, o := range []heuristics.Outcome{heuristics.OutcomeCreated, heuristics.OutcomeUpdated, heuristics.OutcomeNoOp} {
		fmt.Fprintf(w, "%-9s %d\n", o.String()+":", s.Outcomes[o.String()])
	}

	if len(s.Signals) == 0 {
		fmt.Fprintln(w, "\nno players signalled")
		return
	}

	fmt.Fprintf(w, "\n%d players signalled:\n", len(s.Signals))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tSIGNALS\tPEAK\tLAST MATERIAL")
	for _, sp := range s.Signals {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%s\n", sp.Player, sp.Signals, sp.PeakSuspicion, sp.LastMaterial)
	}
	_ = tw.Flush()
}
