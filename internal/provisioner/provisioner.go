package provisioner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harshul/phpack/internal/apperr"
)

// DefaultComposer is the composer executable looked up on PATH.
const DefaultComposer = "composer"

// InstallArgs are passed to composer for a production install.
var InstallArgs = []string{"install", "--no-dev", "--optimize-autoloader"}

// Composer runs the composer package manager.
type Composer struct {
	Binary string
	// Output receives composer's stdout while installing. Nil discards it.
	Output io.Writer
	Logger *log.Logger
}

// New returns a Composer for binary, defaulting to "composer".
func New(binary string, logger *log.Logger) *Composer {
	if binary == "" {
		binary = DefaultComposer
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Composer{Binary: binary, Logger: logger}
}

// CheckResult describes whether composer can be used.
type CheckResult struct {
	IsAvailable bool
	Version     string
	InstallHint string
}

// Check runs `composer --version`.
func (c *Composer) Check(ctx context.Context) CheckResult {
	out, err := exec.CommandContext(ctx, c.Binary, "--version").Output()
	if err != nil {
		return CheckResult{
			InstallHint: "composer is required. Install it from https://getcomposer.org/download/ and make sure it is on PATH.",
		}
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return CheckResult{IsAvailable: true, Version: strings.TrimSpace(line)}
}

// InstallDependencies runs `composer install --no-dev --optimize-autoloader`
// in projectPath. A project without composer.json fails with InvalidPath; a
// missing composer with ToolUnavailable; a failed install with InstallFailed
// carrying composer's stderr.
func (c *Composer) InstallDependencies(ctx context.Context, projectPath string) error {
	const op = "install dependencies"

	if _, err := os.Stat(filepath.Join(projectPath, "composer.json")); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.New(apperr.InvalidPath, op, "no composer.json in %s", projectPath)
		}
		return apperr.Wrap(apperr.InvalidPath, op, err)
	}

	check := c.Check(ctx)
	if !check.IsAvailable {
		return &apperr.Error{Kind: apperr.ToolUnavailable, Op: op, Err: fmt.Errorf("%s --version failed", c.Binary), Detail: check.InstallHint}
	}
	c.Logger.Debug("composer found", "version", check.Version)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Binary, InstallArgs...)
	cmd.Dir = projectPath
	cmd.Stdout = c.Output
	cmd.Stderr = &stderr

	c.Logger.Info("running composer", "dir", projectPath, "args", strings.Join(InstallArgs, " "))
	if err := cmd.Run(); err != nil {
		return &apperr.Error{Kind: apperr.InstallFailed, Op: op, Err: err, Detail: strings.TrimSpace(stderr.String())}
	}

	c.Logger.Info("dependencies installed", "dir", projectPath)
	return nil
}

// IsInstalled reports whether the project's vendor autoloader exists.
func IsInstalled(projectPath string) bool {
	_, err := os.Stat(filepath.Join(projectPath, "vendor", "autoload.php"))
	return err == nil
}
