// Package config loads phpack's settings from phpack.yaml, PHPACK_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/harshul/phpack/internal/apperr"
	"github.com/harshul/phpack/internal/ports"
)

// EnvPrefix prefixes every environment override, e.g. PHPACK_PHP_BINARY.
const EnvPrefix = "PHPACK"

// FileName is the config file looked up in the working directory.
const FileName = "phpack"

// Config holds the application settings.
type Config struct {
	PHPBinary       string `mapstructure:"php_binary"`
	ComposerBinary  string `mapstructure:"composer_binary"`
	StagingRoot     string `mapstructure:"staging_root"`
	ProjectsRoot    string `mapstructure:"projects_root"`
	StoreFile       string `mapstructure:"store_file"`
	PortRangeStart  uint16 `mapstructure:"port_range_start"`
	PortRangeEnd    uint16 `mapstructure:"port_range_end"`
	CopyConcurrency int    `mapstructure:"copy_concurrency"`
	LogLevel        string `mapstructure:"log_level"`
	Verbose         bool   `mapstructure:"verbose"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("php_binary", "php")
	v.SetDefault("composer_binary", "composer")
	v.SetDefault("staging_root", "./build")
	v.SetDefault("projects_root", "./projects")
	v.SetDefault("store_file", "./.phpack/projects.yaml")
	v.SetDefault("port_range_start", ports.DefaultRangeStart)
	v.SetDefault("port_range_end", ports.DefaultRangeEnd)
	v.SetDefault("copy_concurrency", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("verbose", false)
}

// Load reads configuration into v. An explicit file must exist; otherwise
// phpack.yaml in dir is optional. It returns the file used, if any.
func Load(v *viper.Viper, file, dir string) (Config, string, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, "", apperr.Wrap(apperr.InvalidConfig, "load config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", apperr.Wrap(apperr.InvalidConfig, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.PortRangeEnd <= c.PortRangeStart {
		return apperr.New(apperr.InvalidConfig, "load config",
			"port range %d-%d is empty", c.PortRangeStart, c.PortRangeEnd)
	}
	if c.CopyConcurrency < 0 {
		return apperr.New(apperr.InvalidConfig, "load config", "copy_concurrency must not be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return apperr.Wrap(apperr.InvalidConfig, "load config", fmt.Errorf("log_level: %w", err))
	}
	return nil
}

// PortRange returns the configured probe range.
func (c Config) PortRange() ports.Range {
	return ports.Range{Start: c.PortRangeStart, End: c.PortRangeEnd}
}

// Level returns the log level, forced to debug when Verbose is set.
func (c Config) Level() log.Level {
	if c.Verbose {
		return log.DebugLevel
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
