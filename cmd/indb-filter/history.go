package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ousamg/indb-filter/internal/duckdb"
	"github.com/ousamg/indb-filter/internal/stats"
)

var errNoHistory = errors.New("no history database configured (set --history, history.path or INDB_FILTER_HISTORY_PATH)")

func newHistoryCmd() *cobra.Command {
	var (
		limit     int
		input     string
		clearRuns bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous filter runs",
		Long:  "List filter runs recorded in the DuckDB history database.",
		Example: `  indb-filter history --history ~/.indb-filter/history.duckdb
  indb-filter history --limit 5
  indb-filter history --input inDB.vcf.gz
  indb-filter history --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("history.path")
			if path == "" {
				return &usageError{err: errNoHistory}
			}
			if clearRuns {
				return runHistoryClear(cmd.OutOrStdout(), path)
			}
			if limit <= 0 {
				return &usageError{err: fmt.Errorf("--limit must be positive, got %d", limit)}
			}
			return runHistory(cmd.OutOrStdout(), path, input, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&input, "input", "", "Only show runs over this input file")
	cmd.Flags().BoolVar(&clearRuns, "clear", false, "Delete every recorded run")
	cmd.MarkFlagsMutuallyExclusive("clear", "input")

	return cmd
}

func runHistory(w io.Writer, path, input string, limit int) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []duckdb.Run
	if input != "" {
		runs, err = store.RunsForInput(input)
		if len(runs) > limit {
			runs = runs[len(runs)-limit:]
		}
	} else {
		runs, err = store.RecentRuns(limit)
	}
	if err != nil {
		return err
	}

	return writeRuns(w, runs)
}

func runHistoryClear(w io.Writer, path string) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ClearRuns()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Removed %d runs from %s\n", n, path)
	return err
}

// writeRuns prints runs as an aligned table.
func writeRuns(w io.Writer, runs []duckdb.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tINPUT\tOUTPUT\tSEEN\tPASSED\tSHARED\tTHRESHOLD\tAF\tTIME")
	for _, r := range runs {
		out := r.Output
		if r.DryRun {
			out = "(dry run)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%d\t%g\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Input.Path,
			out,
			r.Metrics.Seen,
			r.Metrics.Passed,
			stats.Percent(r.Metrics.Passed, r.Metrics.Total()),
			r.Threshold,
			r.AFMax,
			stats.FormatDuration(r.Elapsed),
		)
	}
	return tw.Flush()
}
