// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

// Package main provides orewatchctl, the OreWatch admin CLI.
//
// Commands:
//
//	orewatchctl replay events.jsonl                 # score a capture offline
//	orewatchctl replay events.jsonl --nats URL      # publish it to JetStream
//	orewatchctl offenders list --data-dir DIR
//	orewatchctl offenders absolve PLAYER --data-dir DIR
//	orewatchctl offenders purge --data-dir DIR
//
// The offenders commands open the badger store directly, so the server
// must not be running against the same directory.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/orewatch/internal/logging"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orewatchctl",
		Short: "OreWatch admin CLI",
		Long: `orewatchctl is the offline companion to the OreWatch server.

It replays captured block-break events through the heuristics engine and
maintains the offender record store.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level, _ := cmd.Flags().GetString("log-level")
			initLogging(level, cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orewatchctl v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newOffendersCmd())

	return rootCmd
}

func initLogging(level string, out io.Writer) {
	if !logging.ValidLevel(level) {
		level = "warn"
	}
	logging.Init(logging.Config{
		Level:     level,
		Format:    "console",
		Timestamp: true,
		Output:    out,
	})
}
