package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReport writes the run summary followed by the action list.
func printReport(w io.Writer, r *types.Report) {
	title := "Summary"
	if r.DryRun {
		title = "Summary (dry run, nothing written)"
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, renderTable(
		[]string{"Run", "Records", "Updated", "Deleted", "Warnings", "Errors", "Catalog written"},
		[][]string{{
			r.RunID,
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Deleted),
			strconv.Itoa(r.Warnings),
			strconv.Itoa(r.Errors),
			yesNo(r.CatalogWritten),
		}},
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	if len(r.Actions) == 0 {
		return
	}
	fmt.Fprintln(w, renderActions(r.Actions))
}

func renderActions(actions []types.Action) string {
	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, []string{string(a.Kind), a.Record, a.Path, a.Detail})
	}
	return renderTable([]string{"Action", "Record", "Path", "Detail"}, rows, nil)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
