// Package interpreter wraps the external php binary: availability and version
// probes, the loaded-extension listing, and the built-in web server command.
package interpreter

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/harshul/phpack/internal/apperr"
)

// DefaultBinary is the php executable looked up on PATH.
const DefaultBinary = "php"

// PHP invokes a php binary.
type PHP struct {
	Binary string
}

// New returns a PHP for binary, defaulting to "php".
func New(binary string) *PHP {
	if binary == "" {
		binary = DefaultBinary
	}
	return &PHP{Binary: binary}
}

// Path returns the resolved location of the binary.
func (p *PHP) Path() (string, error) {
	path, err := exec.LookPath(p.Binary)
	if err != nil {
		return "", apperr.Wrap(apperr.RuntimeUnavailable, "locate php", err)
	}
	return path, nil
}

// Check runs `php --version` and returns its first line.
func (p *PHP) Check(ctx context.Context) (string, error) {
	out, err := p.run(ctx, "probe php version", "--version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), nil
}

// Version returns the bare PHP_VERSION string, e.g. "8.3.4".
func (p *PHP) Version(ctx context.Context) (string, error) {
	out, err := p.run(ctx, "probe php version", "-r", "echo PHP_VERSION;")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Extensions returns the raw `php -m` listing.
func (p *PHP) Extensions(ctx context.Context) (string, error) {
	return p.run(ctx, "list php extensions", "-m")
}

// ServeCommand builds `php -S addr -t docroot`. The command is not started.
func (p *PHP) ServeCommand(addr, docroot string) *exec.Cmd {
	return exec.Command(p.Binary, "-S", addr, "-t", docroot)
}

func (p *PHP) run(ctx context.Context, op string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, p.Binary, args...)
	output, err := cmd.Output()
	if err != nil {
		e := &apperr.Error{Kind: apperr.RuntimeUnavailable, Op: op, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.Detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return "", e
	}
	return string(output), nil
}
