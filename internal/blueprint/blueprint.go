package blueprint

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/harshul/phpack/internal/apperr"
)

// Platform tags accepted in target_platforms.
const (
	WindowsX64 = "windows-x64"
	MacOSX64   = "macos-x64"
	MacOSArm64 = "macos-arm64"
	LinuxX64   = "linux-x64"
)

// Platforms lists every supported platform tag.
var Platforms = []string{WindowsX64, MacOSX64, MacOSArm64, LinuxX64}

// BuildConfig describes one packaging run.
type BuildConfig struct {
	TargetPlatforms []string `yaml:"target_platforms" json:"target_platforms"`
	AppName         string   `yaml:"app_name" json:"app_name"`
	AppVersion      string   `yaml:"app_version" json:"app_version"`
	AppIcon         *string  `yaml:"app_icon,omitempty" json:"app_icon,omitempty"`
	WindowWidth     uint32   `yaml:"window_width" json:"window_width"`
	WindowHeight    uint32   `yaml:"window_height" json:"window_height"`
	// ServerPort is the port the launchers serve on. Zero falls back to
	// WindowWidth.
	ServerPort uint16 `yaml:"server_port,omitempty" json:"server_port,omitempty"`
	PHPVersion string `yaml:"php_version" json:"php_version"`
	OutputDir  string `yaml:"output_dir" json:"output_dir"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() BuildConfig {
	return BuildConfig{
		TargetPlatforms: []string{WindowsX64},
		AppName:         "My PHP App",
		AppVersion:      "1.0.0",
		WindowWidth:     1200,
		WindowHeight:    800,
		PHPVersion:      "8.2",
		OutputDir:       "./dist",
	}
}

// IsSupported reports whether platform is a known tag.
func IsSupported(platform string) bool {
	for _, p := range Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// LauncherPort returns the port launchers should serve on. The second result
// is true when the port came from WindowWidth because ServerPort is unset.
func (c BuildConfig) LauncherPort() (uint32, bool) {
	if c.ServerPort != 0 {
		return uint32(c.ServerPort), false
	}
	return c.WindowWidth, true
}

// launcherUnsafe are characters that cmd.exe or bash would interpret when
// app_name is substituted into a launcher script.
const launcherUnsafe = "\"'`$%&|;<>^!"

// Validate checks the fields the pipeline depends on. Platform tags are not
// checked here; the launcher stage reports them as UnsupportedPlatform.
func (c BuildConfig) Validate() error {
	const op = "validate build config"

	var problems []string
	if strings.TrimSpace(c.AppName) == "" {
		problems = append(problems, "app_name is required")
	} else if strings.ContainsAny(c.AppName, `/\`) || c.AppName == "." || c.AppName == ".." {
		problems = append(problems, fmt.Sprintf("app_name %q must be a plain file name", c.AppName))
	} else if strings.ContainsAny(c.AppName, launcherUnsafe) {
		problems = append(problems, fmt.Sprintf("app_name %q must not contain any of %s", c.AppName, launcherUnsafe))
	}

	// These end up as lines of runtime/php.conf.
	for _, f := range []struct{ key, value string }{
		{"app_name", c.AppName},
		{"app_version", c.AppVersion},
		{"output_dir", c.OutputDir},
	} {
		switch {
		case strings.TrimSpace(f.value) == "":
		case strings.IndexFunc(f.value, unicode.IsControl) >= 0:
			problems = append(problems, fmt.Sprintf("%s %q must not contain control characters", f.key, f.value))
		case f.value != strings.TrimSpace(f.value):
			problems = append(problems, fmt.Sprintf("%s %q must not start or end with whitespace", f.key, f.value))
		}
	}
	if c.WindowWidth == 0 && c.ServerPort == 0 {
		problems = append(problems, "window_width or server_port must be set")
	}
	if c.WindowWidth > 65535 && c.ServerPort == 0 {
		problems = append(problems, fmt.Sprintf("window_width %d cannot be used as a port; set server_port", c.WindowWidth))
	}

	if len(problems) > 0 {
		return apperr.New(apperr.InvalidConfig, op, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// Write writes the config as a YAML file.
func Write(path string, cfg BuildConfig) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Read loads a YAML build config. Missing keys keep their Defaults value.
func Read(path string) (BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BuildConfig{}, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BuildConfig{}, apperr.Wrap(apperr.InvalidConfig, "read build config", err)
	}

	if cfg.AppName == "" {
		return BuildConfig{}, apperr.New(apperr.InvalidConfig, "read build config", "missing app_name")
	}

	return cfg, nil
}
