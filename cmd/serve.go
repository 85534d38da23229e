package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/harshul/phpack/internal/devserver"
	"github.com/harshul/phpack/internal/ports"
	"github.com/harshul/phpack/internal/ui"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <dir>...",
	Short: "Run php preview servers until interrupted",
	Long: `The serve command starts "php -S localhost:<port> -t <dir>" for each
directory, each on its own port, and keeps them running until you press
Ctrl+C. All servers are stopped on exit.

Servers that exit on their own are dropped from the table.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Uint16P("port", "p", 0, "Port for the first directory (0 = first free port)")
	serveCmd.Flags().Duration("check-interval", 2*time.Second, "How often to look for servers that exited")
	serveCmd.Flags().Bool("open", false, "Open each server in the default browser")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	first, _ := cmd.Flags().GetUint16("port")
	interval, _ := cmd.Flags().GetDuration("check-interval")
	open, _ := cmd.Flags().GetBool("open")

	mux := ui.NewLogMux(cmd.OutOrStdout())
	ctrl := newController(func(port uint16) io.Writer {
		return mux.Writer(fmt.Sprint(port))
	})
	defer func() {
		if err := ctrl.StopAll(); err != nil {
			ui.Warn(err.Error())
		}
		mux.Flush()
	}()

	rng := settings.PortRange()
	next := rng.Start
	var handles []devserver.Handle

	for i, dir := range args {
		port := first
		if i > 0 || port == 0 {
			// The registry's own ports are not excluded by the probe, and a
			// freshly spawned server may not be listening yet.
			p, err := ports.FindAvailablePortIn(ports.Range{Start: next, End: rng.End})
			if err != nil {
				return err
			}
			port = p
		}
		if port >= next {
			next = port + 1
		}

		h, err := ctrl.Start(ctx, dir, port)
		if err != nil {
			return fmt.Errorf("%s: %w", dir, err)
		}
		handles = append(handles, h)
		ui.Success(fmt.Sprintf("Serving %s at %s", dir, h.URL))
		if open {
			if err := browser.OpenURL(h.URL); err != nil {
				logger.Warn("could not open browser", "url", h.URL, "err", err)
			}
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.ServerTable(handles))
	fmt.Fprintln(cmd.OutOrStdout(), ui.HostSummary(ui.GetResourceStats()))
	ui.Info("Press Ctrl+C to stop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout())
			ui.Info("Stopping servers...")
			return nil
		case <-ticker.C:
			released := ctrl.Reconcile()
			for _, port := range released {
				ui.Warn(fmt.Sprintf("Server on port %d exited", port))
			}
			if len(released) > 0 && ctrl.Registry().Len() == 0 {
				return errors.New("all servers exited")
			}
		}
	}
}
