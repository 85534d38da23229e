// Package devserver starts and stops local php preview servers, one per port,
// and keeps the shared port registry in step with the processes it spawns.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/harshul/phpack/internal/apperr"
	"github.com/harshul/phpack/internal/ports"
	"github.com/harshul/phpack/internal/secrets"
)

// Host is the interface preview servers bind to.
const Host = "localhost"

// Runtime is the part of the php interpreter the controller needs.
type Runtime interface {
	Check(ctx context.Context) (string, error)
	ServeCommand(addr, docroot string) *exec.Cmd
}

// Options configures a Controller.
type Options struct {
	Runtime  Runtime
	Registry *ports.Registry
	// Range is probed by FindAvailablePort. Zero means ports.DefaultRange.
	Range ports.Range
	// Output receives the servers' stdout and stderr. Nil discards it.
	Output io.Writer
	// OutputFor, when set, picks the writer per server and wins over Output.
	OutputFor func(port uint16) io.Writer
	Logger    *log.Logger
}

// Controller manages preview server processes.
type Controller struct {
	runtime   Runtime
	registry  *ports.Registry
	portRange ports.Range
	output    func(port uint16) io.Writer
	logger    *log.Logger
}

// Handle describes a started server.
type Handle struct {
	Port        uint16
	PID         int
	URL         string
	ProjectPath string
	StartedAt   time.Time
}

// New returns a Controller. A nil Registry gets a fresh one.
func New(opts Options) *Controller {
	if opts.Registry == nil {
		opts.Registry = ports.NewRegistry()
	}
	if opts.Range == (ports.Range{}) {
		opts.Range = ports.DefaultRange
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.OutputFor == nil {
		w := opts.Output
		opts.OutputFor = func(uint16) io.Writer { return w }
	}
	return &Controller{
		runtime:   opts.Runtime,
		registry:  opts.Registry,
		portRange: opts.Range,
		output:    opts.OutputFor,
		logger:    opts.Logger,
	}
}

// Registry returns the registry the controller records servers in.
func (c *Controller) Registry() *ports.Registry {
	return c.registry
}

// Start spawns `php -S localhost:<port> -t <projectPath>` detached from the
// caller and records its pid under port.
func (c *Controller) Start(ctx context.Context, projectPath string, port uint16) (Handle, error) {
	const op = "start server"

	if c.registry.Contains(port) {
		return Handle{}, apperr.New(apperr.PortInUse, op, "port %d already has a server", port)
	}

	info, err := os.Stat(projectPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Handle{}, apperr.New(apperr.InvalidPath, op, "%s does not exist", projectPath)
		}
		return Handle{}, apperr.Wrap(apperr.InvalidPath, op, err)
	}
	if !info.IsDir() {
		return Handle{}, apperr.New(apperr.InvalidPath, op, "%s is not a directory", projectPath)
	}

	if _, err := c.runtime.Check(ctx); err != nil {
		return Handle{}, err
	}

	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return Handle{}, apperr.Wrap(apperr.InvalidPath, op, err)
	}

	addr := ports.Address(Host, port)
	cmd := c.runtime.ServeCommand(addr, abs)
	cmd.Dir = abs
	if vars, err := secrets.Load(abs); err != nil {
		c.logger.Warn("ignoring unreadable dotenv", "root", abs, "err", err)
	} else if len(vars) > 0 {
		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		cmd.Env = secrets.Environ(cmd.Env, vars)
	}
	out := c.output(port)
	cmd.Stdout = out
	cmd.Stderr = out
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return Handle{}, apperr.Wrap(apperr.RuntimeUnavailable, op, err)
	}
	pid := cmd.Process.Pid

	if err := c.registry.Reserve(port, pid); err != nil {
		// Another caller won the port while we were spawning.
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return Handle{}, err
	}

	go c.wait(cmd, port, pid)

	c.logger.Info("server started", "port", port, "pid", pid, "root", abs)
	return Handle{
		Port:        port,
		PID:         pid,
		URL:         "http://" + addr,
		ProjectPath: abs,
		StartedAt:   time.Now(),
	}, nil
}

// wait reaps the server process so Reconcile can see it is gone.
func (c *Controller) wait(cmd *exec.Cmd, port uint16, pid int) {
	err := cmd.Wait()
	if owner, ok := c.registry.Lookup(port); ok && owner == pid {
		c.logger.Warn("server exited while registered", "port", port, "pid", pid, "err", err)
		return
	}
	c.logger.Debug("server exited", "port", port, "pid", pid)
}

// Stop removes port from the registry and kills its process. The entry stays
// released even when the kill fails.
func (c *Controller) Stop(port uint16) error {
	const op = "stop server"

	pid, ok := c.registry.Release(port)
	if !ok {
		return apperr.New(apperr.NotFound, op, "no server on port %d", port)
	}

	if err := kill(pid); err != nil {
		c.logger.Error("could not kill server", "port", port, "pid", pid, "err", err)
		return &apperr.Error{Kind: apperr.KillFailed, Op: op, Err: err, Detail: fmt.Sprintf("pid %d on port %d", pid, port)}
	}

	c.logger.Info("server stopped", "port", port, "pid", pid)
	return nil
}

// StopAll stops every registered server and joins the failures.
func (c *Controller) StopAll() error {
	var errs []error
	for _, e := range c.registry.Entries() {
		if err := c.Stop(e.Port); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status reports whether port is registered. It does not probe the process.
func (c *Controller) Status(port uint16) bool {
	return c.registry.Contains(port)
}

// FindAvailablePort returns the first bindable port in the configured range.
func (c *Controller) FindAvailablePort() (uint16, error) {
	return ports.FindAvailablePortIn(c.portRange)
}

// Reconcile releases entries whose process no longer exists and returns their
// ports.
func (c *Controller) Reconcile() []uint16 {
	var released []uint16
	for _, e := range c.registry.Entries() {
		alive, err := process.PidExists(int32(e.PID))
		if err != nil || alive {
			continue
		}
		if c.registry.ReleaseIf(e.Port, e.PID) {
			c.logger.Info("released stale server", "port", e.Port, "pid", e.PID)
			released = append(released, e.Port)
		}
	}
	return released
}

// kill terminates the server and anything it forked, such as the workers
// php starts when PHP_CLI_SERVER_WORKERS is set.
func kill(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	killChildren(p)
	if err := p.Kill(); err != nil {
		return err
	}
	killGroup(pid)
	return nil
}

func killChildren(p *process.Process) {
	children, err := p.Children()
	if err != nil {
		return
	}
	for _, c := range children {
		killChildren(c)
		_ = c.Kill()
	}
}
