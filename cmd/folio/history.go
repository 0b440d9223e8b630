package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/internal/journal"
	"github.com/mesh-intelligence/folio/pkg/types"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past runs from the run journal",
		Long: `History lists recent reconcile and prune runs, newest first. Given a run id it
shows every action that run took.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.openJournal()
			if err != nil {
				return sysError(err)
			}
			defer j.Close()

			if len(args) == 1 {
				return showRun(cmd, a, j, args[0])
			}

			runs, err := j.Runs(limit)
			if err != nil {
				return sysError(err)
			}
			if a.jsonMode {
				if runs == nil {
					runs = []*types.Report{}
				}
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 for all)")
	return cmd
}

func showRun(cmd *cobra.Command, a *app, j *journal.Journal, runID string) error {
	run, err := j.Run(runID)
	if errors.Is(err, journal.ErrRunNotFound) {
		return userError(err)
	}
	if err != nil {
		return sysError(err)
	}
	if a.jsonMode {
		return writeJSON(cmd, run)
	}
	printReport(cmd.OutOrStdout(), run)
	return nil
}

func renderRuns(runs []*types.Report) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		mode := ""
		if r.DryRun {
			mode = "dry run"
		}
		rows = append(rows, []string{
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Deleted),
			strconv.Itoa(r.Warnings),
			strconv.Itoa(r.Errors),
			mode,
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Updated", "Deleted", "Warnings", "Errors", "Mode"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}
