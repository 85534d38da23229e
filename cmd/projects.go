package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harshul/phpack/internal/ui"
)

// projectsCmd lists stored projects
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List imported projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		recs, err := newStore().List()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderProjects(recs))
		return nil
	},
}

var projectsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Forget an imported project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := newStore()
		rec, err := st.Get(args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && isatty.IsTerminal(os.Stdin.Fd()) {
			ok, err := ui.Confirm(os.Stdin, cmd.OutOrStdout(), "Remove "+rec.Name+"?", rec.Path+" is left untouched")
			if err != nil {
				return err
			}
			if !ok {
				ui.Info("Kept project " + args[0])
				return nil
			}
		}

		if err := st.Delete(args[0]); err != nil {
			return err
		}
		ui.Success("Removed project " + args[0])
		return nil
	},
}

func init() {
	projectsRmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	projectsCmd.AddCommand(projectsRmCmd)
}
