// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package main

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/orewatch/internal/enforcement"
	"github.com/tomtom215/orewatch/internal/validation"
)

func newOffendersCmd() *cobra.Command {
	offendersCmd := &cobra.Command{
		Use:   "offenders",
		Short: "Offline maintenance of the offender store",
	}
	offendersCmd.PersistentFlags().String("data-dir", "", "Offender store directory (enforcement.store_path)")
	_ = offendersCmd.MarkPersistentFlagRequired("data-dir")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List offender records",
		Args:  cobra.NoArgs,
		RunE:  runOffendersList,
	}
	listCmd.Flags().Bool("json", false, "Print records as JSON")
	offendersCmd.AddCommand(listCmd)

	offendersCmd.AddCommand(&cobra.Command{
		Use:   "absolve PLAYER",
		Short: "Delete one player's offender record",
		Args:  cobra.ExactArgs(1),
		RunE:  runOffendersAbsolve,
	})

	offendersCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every offender record",
		Args:  cobra.NoArgs,
		RunE:  runOffendersPurge,
	})

	return offendersCmd
}

func openStore(cmd *cobra.Command) (*enforcement.OffenderStore, error) {
	dir, _ := cmd.Flags().GetString("data-dir")
	if dir == "" {
		return nil, errors.New("--data-dir is required")
	}
	store, err := enforcement.OpenOffenderStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open offender store %s: %w", dir, err)
	}
	return store, nil
}

func runOffendersList(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastOffense.After(records[j].LastOffense)
	})

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "no offender records")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tOFFENSES\tMANUAL\tLAST SUSPICION\tLAST OFFENSE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\t%s\n",
			r.Player, r.Offenses, r.ManualFlags, r.LastSuspicion, r.LastOffense.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runOffendersAbsolve(cmd *cobra.Command, args []string) error {
	player := args[0]
	if !validation.ValidPlayerID(player) {
		return fmt.Errorf("invalid player id %q", player)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), player); err != nil {
		if errors.Is(err, enforcement.ErrOffenderNotFound) {
			return fmt.Errorf("no offender record for %s", player)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "absolved %s\n", player)
	return nil
}

func runOffendersPurge(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Purge(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d offender records\n", n)
	return nil
}
