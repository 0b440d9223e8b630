package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/folio/internal/fileutil"
	"github.com/mesh-intelligence/folio/internal/paths"
	"github.com/mesh-intelligence/folio/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "FOLIO"

	cfgKeyProjectRoot = "project_root"
	cfgKeyCatalog     = "catalog"
	cfgKeyAssetDir    = "asset_dir"
	cfgKeyMount       = "mount"
	cfgKeyFormat      = "format"
	cfgKeyBackup      = "backup"
	cfgKeyJournal     = "journal"
	cfgKeyDataDir     = "data_dir"
	cfgKeyLogLevel    = "log_level"
	cfgKeyLogFormat   = "log_format"
)

// configFile is the structure written to config.yaml by folio init.
type configFile struct {
	types.Config `yaml:",inline"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

// newViper returns a viper instance with every key defaulted and FOLIO_*
// environment variables enabled.
func newViper() *viper.Viper {
	v := viper.New()
	d := types.DefaultConfig("")
	v.SetDefault(cfgKeyProjectRoot, "")
	v.SetDefault(cfgKeyCatalog, d.Catalog)
	v.SetDefault(cfgKeyAssetDir, d.AssetDir)
	v.SetDefault(cfgKeyMount, d.Mount)
	v.SetDefault(cfgKeyFormat, d.Format)
	v.SetDefault(cfgKeyBackup, d.Backup)
	v.SetDefault(cfgKeyJournal, d.Journal)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, "auto")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// readConfig reads config.yaml from configDir into v. A missing file is not
// an error.
func readConfig(v *viper.Viper, configDir string) error {
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// buildConfig decodes the merged viper settings into a types.Config. An empty
// project root falls back to the working directory.
func buildConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, fmt.Errorf("resolve project root: %w", err)
		}
		cfg.ProjectRoot = wd
	}
	return cfg, nil
}

// writeDefaultConfig writes config.yaml into configDir unless one exists.
// It reports whether a file was written.
func writeDefaultConfig(configDir string, cfg configFile) (bool, error) {
	path := paths.ConfigFile(configDir)
	if fileutil.Exists(path) {
		return false, nil
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# folio configuration. Relative paths are resolved against project_root.\n")
	if err := fileutil.WriteFileAtomic(path, append(header, data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
