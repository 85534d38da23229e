package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harshul/phpack/internal/blueprint"
	"github.com/harshul/phpack/internal/build"
	"github.com/harshul/phpack/internal/ui"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <project-id>",
	Short: "Package a project into per-platform launcher bundles",
	Long: `The build command stages a project under <staging_root>/<project-id>:

  app/        a copy of the project's sources
  runtime/    php.conf describing the php runtime used
  dist/<os>/  a launcher script per target platform

The project id is looked up in the project store (see "phpack import --save")
and then under projects_root. Each build starts from a clean staging tree.

With --archive, each platform's launcher is packed together with app/ and
runtime/ into <output_dir>/<name>-<version>-<platform>.tar.<zst|xz>.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd.Flags())
}

func addBuildFlags(fs *pflag.FlagSet) {
	fs.StringP("file", "f", "", "Build configuration YAML file")
	fs.StringSlice("platform", nil, "Target platforms ("+fmt.Sprint(blueprint.Platforms)+")")
	fs.String("name", "", "Application name")
	fs.String("app-version", "", "Application version")
	fs.Uint16("server-port", 0, "Port the launchers serve on")
	fs.String("output-dir", "", "Directory archives are written to")
	fs.String("archive", "", "Also pack each platform into output_dir (zst or xz)")
	fs.Bool("no-tui", false, "Disable the progress view (use plain output)")
}

func buildConfig(cmd *cobra.Command) (blueprint.BuildConfig, error) {
	cfg := blueprint.Defaults()
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		var err error
		if cfg, err = blueprint.Read(file); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("platform") {
		cfg.TargetPlatforms, _ = flags.GetStringSlice("platform")
	}
	if flags.Changed("name") {
		cfg.AppName, _ = flags.GetString("name")
	}
	if flags.Changed("app-version") {
		cfg.AppVersion, _ = flags.GetString("app-version")
	}
	if flags.Changed("server-port") {
		cfg.ServerPort, _ = flags.GetUint16("server-port")
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	return cfg, cfg.Validate()
}

// unsupportedPlatforms returns the tags in platforms no launcher exists for.
func unsupportedPlatforms(platforms []string) []string {
	var unknown []string
	for _, p := range platforms {
		if !blueprint.IsSupported(p) {
			unknown = append(unknown, p)
		}
	}
	return unknown
}

func runBuild(cmd *cobra.Command, args []string) error {
	projectID := args[0]
	noTUI, _ := cmd.Flags().GetBool("no-tui")

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	var format build.ArchiveFormat
	if name, _ := cmd.Flags().GetString("archive"); name != "" {
		if format, err = build.ParseArchiveFormat(name); err != nil {
			return err
		}
	}
	for _, platform := range unsupportedPlatforms(cfg.TargetPlatforms) {
		ui.Warn(fmt.Sprintf("unknown platform %q; the build will fail when it reaches the launchers (known: %s)",
			platform, strings.Join(blueprint.Platforms, ", ")))
	}
	if _, fallback := cfg.LauncherPort(); fallback {
		ui.Warn("server_port is not set; launchers will use window_width as the port")
	}

	opts := build.Options{
		StagingRoot: settings.StagingRoot,
		Resolver:    newResolver(),
		Runtime:     newPHP(),
		Concurrency: settings.CopyConcurrency,
		Logger:      logger,
	}

	var res *build.Result
	if noTUI {
		opts.Observer = ui.PlainObserver(cmd.OutOrStdout())
		res, err = build.New(opts).Build(cmd.Context(), projectID, cfg)
	} else {
		res, err = buildWithProgress(cmd.Context(), opts, projectID, cfg)
	}
	if err != nil {
		return err
	}

	ui.Success(fmt.Sprintf("Built %s in %s (%d files)", projectID, res.Elapsed.Round(time.Millisecond), res.FilesCopied))
	for _, platform := range cfg.TargetPlatforms {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", platform, res.Launchers[platform])
	}
	if format == "" {
		return nil
	}

	opts.Observer = nil
	archives, err := build.New(opts).Archive(cmd.Context(), res, cfg, format)
	if err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Packed %d archive(s) into %s", len(archives), cfg.OutputDir))
	for _, platform := range cfg.TargetPlatforms {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", platform, archives[platform])
	}
	return nil
}

// buildWithProgress runs the pipeline behind the bubbletea progress view.
func buildWithProgress(ctx context.Context, opts build.Options, projectID string, cfg blueprint.BuildConfig) (*build.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := ui.NewBuildModel(projectID)
	opts.Observer = m.Observe
	if !settings.Verbose {
		// Log lines would tear the progress view.
		opts.Logger = log.New(io.Discard)
	}
	p := build.New(opts)

	go func() {
		res, err := p.Build(ctx, projectID, cfg)
		m.Finish(res, err)
	}()

	if _, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, err
	}
	if m.Canceled() {
		return nil, errors.New("build canceled")
	}
	res, err := m.Result()
	if res == nil && err == nil {
		return nil, errors.New("build interrupted")
	}
	return res, err
}
