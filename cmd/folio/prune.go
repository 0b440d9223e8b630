package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/internal/audit"
)

func newPruneCmd(a *app) *cobra.Command {
	var (
		dryRun    bool
		backup    bool
		noJournal bool
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Clear image references that point at missing files",
		Long: `Prune clears the image field of every record whose path does not exist under
the project root. It does not look for files with other extensions and never
touches the asset directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("backup") {
				a.cfg.Backup = backup
			}
			report, err := audit.Prune(cmd.Context(), a.cfg, audit.PruneOptions{DryRun: dryRun, Backup: a.cfg.Backup})
			a.record(report, a.cfg.Journal && !noJournal)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return writeJSON(cmd, report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be cleared without writing the catalog")
	cmd.Flags().BoolVar(&backup, "backup", false, "copy the catalog to <catalog>.bak before rewriting it")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record this run in the run journal")
	return cmd
}
