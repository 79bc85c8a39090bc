// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/conjoin/internal/history"
	"github.com/pdiddy/conjoin/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded merge results",
	Long: `History lists the groups processed by earlier dir and zip runs, newest
first. Filter by status (merged, empty, incomplete, skipped, failed) or by
run ID, or export the entries as YAML with --yaml.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum number of entries (default 20)")
	historyCmd.Flags().String("status", "", "only show entries with this status")
	historyCmd.Flags().String("run", "", "only show entries of this run ID")
	historyCmd.Flags().Bool("yaml", false, "print entries as YAML")
	historyCmd.Flags().String("history-dir", "", "directory holding history.db")

	rootCmd.AddCommand(historyCmd)
}

var validStatuses = []types.GroupStatus{
	types.GroupMerged, types.GroupEmpty, types.GroupIncomplete, types.GroupSkipped, types.GroupFailed,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := types.HistoryConfig{
		Dir:   viper.GetString("history.dir"),
		Limit: viper.GetInt("history.limit"),
	}
	if dir, _ := cmd.Flags().GetString("history-dir"); dir != "" {
		cfg.Dir = dir
	}
	if cfg.Dir == "" {
		return fmt.Errorf("no history directory configured (use --history-dir)")
	}

	q, err := historyQuery(cmd)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return store.ExportYAML(ctx, os.Stdout, q)
	}

	entries, err := store.List(ctx, q)
	if err != nil {
		return err
	}
	formatHistory(os.Stdout, entries)
	return nil
}

func historyQuery(cmd *cobra.Command) (history.Query, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")
	runID, _ := cmd.Flags().GetString("run")

	q := history.Query{Limit: limit, RunID: runID}
	if status != "" {
		q.Status = types.GroupStatus(strings.ToLower(status))
		valid := false
		for _, s := range validStatuses {
			if q.Status == s {
				valid = true
				break
			}
		}
		if !valid {
			return q, fmt.Errorf("unknown status %q", status)
		}
	}
	return q, nil
}

func formatHistory(w io.Writer, entries []types.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history entries.")
		return
	}

	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-10s  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, e.Name)
		switch {
		case e.Output != "":
			fmt.Fprintf(w, "    --> %s (%d pages)\n", e.Output, e.Pages)
		case len(e.Missing) > 0:
			fmt.Fprintf(w, "    missing: %s\n", strings.Join(e.Missing, ", "))
		case e.Message != "":
			fmt.Fprintf(w, "    %s\n", e.Message)
		}
		fmt.Fprintf(w, "    run %s\n", e.RunID)
	}
	fmt.Fprintf(w, "\n%d entries\n", len(entries))
}
