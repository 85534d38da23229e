package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/phpack/internal/ports"
)

var portCmd = &cobra.Command{
	Use:   "port",
	Short: "Print the first free port in the configured range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		port, err := ports.FindAvailablePortIn(settings.PortRange())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), port)
		return nil
	},
}
