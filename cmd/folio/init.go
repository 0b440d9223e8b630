package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/folio/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml and create the run journal",
		Long: `Init writes config.yaml into the configuration directory from the current
settings (flags, FOLIO_* environment, defaults) unless the file already
exists, then creates the run journal in the data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := configFile{
				Config:    a.cfg,
				LogLevel:  a.v.GetString(cfgKeyLogLevel),
				LogFormat: a.v.GetString(cfgKeyLogFormat),
			}
			wrote, err := writeDefaultConfig(a.configDir, file)
			if err != nil {
				return sysError(err)
			}

			j, err := a.openJournal()
			if err != nil {
				return sysError(fmt.Errorf("initialize journal: %w", err))
			}
			dbPath := j.Path()
			if err := j.Close(); err != nil {
				return sysError(fmt.Errorf("close journal: %w", err))
			}

			out := cmd.OutOrStdout()
			cfgPath := paths.ConfigFile(a.configDir)
			if wrote {
				fmt.Fprintf(out, "Wrote %s\n", cfgPath)
			} else {
				fmt.Fprintf(out, "Kept existing %s\n", cfgPath)
			}
			fmt.Fprintf(out, "Journal at %s\n", dbPath)
			return nil
		},
	}
}
