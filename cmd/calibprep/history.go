// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/iwatake2222/InferenceHelper/internal/catalog"
	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List preparation runs recorded in the catalog",
	Long: `History reads the SQLite catalog written when --catalog is set and lists
recent runs, newest first. Use --run with a run ID to show its samples.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Int64("run", 0, "show samples of a single run")
	historyCmd.Flags().String("format", "table", "output format: table, yaml, or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("catalog")
	if path == "" {
		return fmt.Errorf("no catalog configured: pass --catalog or set catalog in calibprep.yaml")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetInt64("run")
	format, _ := cmd.Flags().GetString("format")

	store, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []types.Run
	if runID != 0 {
		run, err := store.Run(cmd.Context(), runID)
		if err != nil {
			return err
		}
		runs = []types.Run{run}
	} else {
		runs, err = store.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}
	}

	return formatHistory(cmd.OutOrStdout(), runs, format)
}

func formatHistory(w io.Writer, runs []types.Run, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case "yaml":
		return yaml.NewEncoder(w).Encode(runs)
	case "table", "":
	default:
		return fmt.Errorf("unsupported format %q: use table, yaml, or json", format)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-20s  %-9s  %-10s  %-6s  %s\n",
		"ID", "Started", "Size", "Filter", "Images", "Input -> Output")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range runs {
		fmt.Fprintf(w, "%-5d  %-20s  %-9s  %-10s  %-6d  %s -> %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%dx%d", r.Width, r.Height), r.Filter, r.Count,
			r.InputDir, r.OutputDir)
		for _, s := range r.Samples {
			fmt.Fprintf(w, "       %-24s %4dx%-4d  %s\n", s.Name, s.SourceWidth, s.SourceHeight, s.Source)
		}
	}
	return nil
}
