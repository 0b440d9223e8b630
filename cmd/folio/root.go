package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/folio/internal/assets"
	"github.com/mesh-intelligence/folio/internal/imagecodec"
	"github.com/mesh-intelligence/folio/internal/journal"
	"github.com/mesh-intelligence/folio/internal/logging"
	"github.com/mesh-intelligence/folio/internal/paths"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// app carries global flag values and the state PersistentPreRunE resolves
// for the subcommands.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool

	v   *viper.Viper
	cfg types.Config
	log zerolog.Logger

	// newConverter builds the image converter for a format.
	newConverter func(format string) (assets.Converter, error)
}

func newApp() *app {
	return &app{
		v:   newViper(),
		log: logging.Nop,
		newConverter: func(format string) (assets.Converter, error) {
			return imagecodec.New(format)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "folio",
		Short: "Keep a portfolio catalog and its image directory in sync",
		Long: `folio reconciles a JSON catalog of project records with a directory of
image assets: it resolves each record's image, converts it to the preferred
format, rewrites the reference, and deletes files nothing references.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory for the run journal (default: platform data dir)")
	pf.BoolVar(&a.jsonMode, "json", false, "output as JSON")
	pf.String("project-root", "", "project root that image paths are joined to (default: current directory)")
	pf.String("catalog", "", "catalog path, relative to the project root")
	pf.String("asset-dir", "", "asset directory, relative to the project root")
	pf.String("mount", "", "web path prefix written into rewritten image fields")
	pf.String("format", "", "preferred image format: webp, png, jpeg")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: auto, console, json")

	for key, flag := range map[string]string{
		cfgKeyProjectRoot: "project-root",
		cfgKeyCatalog:     "catalog",
		cfgKeyAssetDir:    "asset-dir",
		cfgKeyMount:       "mount",
		cfgKeyFormat:      "format",
		cfgKeyLogLevel:    "log-level",
		cfgKeyLogFormat:   "log-format",
	} {
		// BindPFlag only fails for a nil flag.
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(newReconcileCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newPruneCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// setup resolves the config directory, reads config.yaml, and builds the
// logger and the run configuration.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	if err := readConfig(a.v, configDir); err != nil {
		return userError(err)
	}

	a.log = logging.New(logging.Config{
		Level:  a.v.GetString(cfgKeyLogLevel),
		Format: a.v.GetString(cfgKeyLogFormat),
		Output: cmd.ErrOrStderr(),
	})
	cmd.SetContext(logging.WithLogger(cmd.Context(), &a.log))

	cfg, err := buildConfig(a.v)
	if err != nil {
		return userError(err)
	}
	a.cfg = cfg
	return nil
}

// resolveDataDir returns the journal directory: --data-dir, then data_dir in
// config.yaml, then FOLIO_DATA_DIR, then the platform default.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.dataDir, a.cfg.DataDir)
}

// openJournal opens the run journal.
func (a *app) openJournal() (*journal.Journal, error) {
	dir, err := a.resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	return journal.Open(dir)
}

// record stores report in the journal when journaling is enabled. Journal
// failures never fail the command.
func (a *app) record(report *types.Report, enabled bool) {
	if !enabled || report == nil {
		return
	}
	j, err := a.openJournal()
	if err != nil {
		a.log.Warn().Err(err).Msg("run journal unavailable")
		return
	}
	defer j.Close()
	if err := j.Record(report); err != nil {
		a.log.Warn().Err(err).Str(logging.FieldRunID, report.RunID).Msg("failed to record run")
	}
}
