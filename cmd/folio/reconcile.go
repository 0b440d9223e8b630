package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/internal/assets"
)

func newReconcileCmd(a *app) *cobra.Command {
	var (
		dryRun    bool
		backup    bool
		noJournal bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Resolve, convert, rewrite, and sweep catalog images",
		Long: `Reconcile resolves every record's image against the project root, falling
back to a same-named file in the asset directory. Images not yet in the
preferred format are converted and their records rewritten. The catalog is
saved once if anything changed, then asset files no record references are
deleted.

Example:
  folio reconcile --project-root ~/site
  folio reconcile --dry-run --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("backup") {
				a.cfg.Backup = backup
			}

			conv, err := a.newConverter(a.cfg.Format)
			if err != nil {
				return userError(err)
			}

			rec := assets.NewReconciler(a.cfg, conv, assets.Options{DryRun: dryRun, Backup: a.cfg.Backup})
			report, runErr := rec.Run(cmd.Context())
			a.record(report, a.cfg.Journal && !noJournal)
			if runErr != nil {
				return runErr
			}

			if a.jsonMode {
				return writeJSON(cmd, report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing anything")
	cmd.Flags().BoolVar(&backup, "backup", false, "copy the catalog to <catalog>.bak before rewriting it")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record this run in the run journal")
	return cmd
}
