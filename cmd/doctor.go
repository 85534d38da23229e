package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/phpack/internal/doctor"
	"github.com/harshul/phpack/internal/thermal"
	"github.com/harshul/phpack/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [dir]",
	Short: "Check php, composer and a project's dependencies",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir string
		if len(args) == 1 {
			dir = args[0]
		}

		d := doctor.Diagnose(cmd.Context(), dir, newPHP(), newComposer())
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderDiagnosis(d))

		hw := thermal.DetectHardware()
		logger.Debug("host", "hardware", thermal.FormatHardwareInfo(hw),
			"copy_workers", thermal.OptimalConcurrency(hw, settings.CopyConcurrency))

		if !d.Healthy {
			return fmt.Errorf("%d issue(s) found", len(d.Issues))
		}
		return nil
	},
}
