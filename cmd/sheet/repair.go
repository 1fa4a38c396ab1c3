package main

import (
	"bufio"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot"
	"github.com/KirkDiggler/rpg-sheet/internal/validation"
)

var (
	repairStrict bool
	repairYes    bool
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Drop unreadable characters from the stored roster",
	Long: `repair reads the stored roster one character at a time and drops every
entry that no longer decodes. With --strict, characters that fail validation
are dropped too. The repaired roster is written back and broadcast.`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().BoolVar(&repairStrict, "strict", false, "also drop characters that fail validation")
	repairCmd.Flags().BoolVarP(&repairYes, "yes", "y", false, "write the repair without asking")
}

func runRepair(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.adapter.Get(ctx, cfg.Store.Key)
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Fprintf(out, "nothing stored under %q\n", cfg.Store.Key)
		return nil
	}

	var check func(*sw5e.Character) error
	if repairStrict {
		check = validation.New().Validate
	}
	state, report, err := snapshot.Repair(snap, check)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "checked %d characters, dropping %d\n", len(report.Kept)+len(report.Dropped), len(report.Dropped))
	if !report.Changed() {
		fmt.Fprintln(out, "no repair needed")
		return nil
	}

	keys := make([]string, 0, len(report.Dropped))
	for key := range report.Dropped {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(out, "  - %s: %s\n", key, report.Dropped[key])
	}
	renamed := slices.Sorted(maps.Keys(report.Renamed))
	for _, key := range renamed {
		fmt.Fprintf(out, "  ~ %s: stored as %q, id reset to its key\n", key, report.Renamed[key])
	}

	if !repairYes {
		fmt.Fprint(out, "\nWrite the repaired roster? (yes/no): ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Fprintln(out, "aborted - no changes made")
			return nil
		}
	}

	repaired, err := snapshot.New(*state, a.clock.Now())
	if err != nil {
		return err
	}
	if err := a.adapter.Set(ctx, cfg.Store.Key, repaired); err != nil {
		return err
	}
	fmt.Fprintf(out, "repaired %q: %d characters kept\n", cfg.Store.Key, len(report.Kept))
	return nil
}
