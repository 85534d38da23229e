package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/phpack/internal/analyzer"
	"github.com/harshul/phpack/internal/ui"
)

var depsCmd = &cobra.Command{
	Use:   "deps <dir>",
	Short: "List well-known packages a project's composer.json mentions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := analyzer.ListDependencies(args[0])
		if err != nil {
			return err
		}
		if len(deps) == 0 {
			ui.Info("No known dependencies found")
			return nil
		}
		for _, d := range deps {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	},
}

var installCmd = &cobra.Command{
	Use:   "install <dir>",
	Short: "Run composer install --no-dev --optimize-autoloader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newComposer().InstallDependencies(cmd.Context(), args[0]); err != nil {
			return err
		}
		ui.Success("Dependencies installed")
		return nil
	},
}
