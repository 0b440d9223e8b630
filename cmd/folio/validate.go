package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/internal/audit"
	"github.com/mesh-intelligence/folio/internal/catalog"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check catalog records for structural problems",
		Long: `Validate checks every record for a unique non-empty name, well-formed coords
and tags, and an image path that exists. Images not in the preferred format
are reported as warnings. Exits with status 1 if any error is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return userError(err)
			}
			cat, err := catalog.Load(a.cfg.CatalogPath())
			if err != nil {
				return err
			}

			res := audit.Validate(a.cfg, cat.Records)
			for _, f := range res.Findings {
				ev := a.log.Warn()
				if f.Severity == audit.SeverityError {
					ev = a.log.Error()
				}
				ev.Str("record", f.Record).Str("field", f.Field).Msg(f.Message)
			}

			if a.jsonMode {
				if err := writeJSON(cmd, res); err != nil {
					return err
				}
			} else {
				printFindings(cmd, res)
			}

			if !res.OK() {
				return userError(fmt.Errorf("validation failed: %d errors, %d warnings", res.Errors(), res.Warnings()))
			}
			return nil
		},
	}
}

func printFindings(cmd *cobra.Command, res *audit.Result) {
	out := cmd.OutOrStdout()
	if len(res.Findings) > 0 {
		rows := make([][]string, 0, len(res.Findings))
		for _, f := range res.Findings {
			rows = append(rows, []string{string(f.Severity), strconv.Itoa(f.Index), f.Record, f.Field, f.Message})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Severity", "Item", "Record", "Field", "Message"},
			rows,
			[]columnAlignment{alignLeft, alignRight},
		))
	}
	fmt.Fprintf(out, "Validated %d records: %d errors, %d warnings\n", res.Records, res.Errors(), res.Warnings())
}
