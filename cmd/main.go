package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harshul/phpack/internal/apperr"
	"github.com/harshul/phpack/internal/config"
	"github.com/harshul/phpack/internal/devserver"
	"github.com/harshul/phpack/internal/interpreter"
	"github.com/harshul/phpack/internal/provisioner"
	"github.com/harshul/phpack/internal/store"
	"github.com/harshul/phpack/internal/ui"
)

// Version information (can be set at build time)
var (
	version = "0.1.0"
)

var (
	cfgFile  string
	verbose  bool
	settings config.Config
	logger   = log.NewWithOptions(os.Stderr, log.Options{Prefix: "phpack"})
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phpack",
	Short: "Preview and package PHP web projects as desktop-launchable bundles",
	Long: `phpack imports PHP projects, detects their framework, runs local
preview servers and packages them into per-platform launcher bundles.

Usage:
  phpack import <dir>     Classify a project and optionally save it
  phpack serve <dir>...   Run php preview servers until interrupted
  phpack build <id>       Stage a project into ./build/<id>
  phpack doctor [dir]     Check php, composer and a project's dependencies`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./phpack.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		importCmd,
		projectsCmd,
		depsCmd,
		installCmd,
		serveCmd,
		portCmd,
		buildCmd,
		doctorCmd,
	)
}

// loadSettings reads phpack.yaml and PHPACK_* variables and configures the
// logger before any command runs.
func loadSettings(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, used, err := config.Load(v, cfgFile, cwd)
	if err != nil {
		return err
	}
	settings = cfg

	logger.SetLevel(cfg.Level())
	logger.SetReportTimestamp(cfg.Verbose)
	logger.SetTimeFormat(time.Kitchen)
	if used != "" {
		logger.Debug("using config file", "path", used)
	}
	return nil
}

func newPHP() *interpreter.PHP {
	return interpreter.New(settings.PHPBinary)
}

func newComposer() *provisioner.Composer {
	c := provisioner.New(settings.ComposerBinary, logger)
	c.Output = os.Stdout
	return c
}

func newStore() *store.File {
	return store.Open(settings.StoreFile)
}

// newResolver looks projects up in the store first and falls back to
// projects_root/<id>.
func newResolver() store.Resolver {
	return store.Chain{newStore(), store.Convention{Root: settings.ProjectsRoot}}
}

func newController(output func(port uint16) io.Writer) *devserver.Controller {
	return devserver.New(devserver.Options{
		Runtime:   newPHP(),
		Range:     settings.PortRange(),
		OutputFor: output,
		Logger:    logger,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if kind := apperr.KindOf(err); kind != "" {
			logger.Debug("command failed", "kind", kind)
		}
		ui.Error(err.Error())
		os.Exit(1)
	}
}
