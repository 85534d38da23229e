package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/phpack/internal/analyzer"
	"github.com/harshul/phpack/internal/ui"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Detect a project's framework and entry file",
	Long: `The import command inspects a directory, detects which PHP framework
or CMS it uses and resolves the front controller a web server should run.

With --save the record is stored so that "phpack build <id>" can find the
project's sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("save", false, "Store the project record")
	importCmd.Flags().Bool("json", false, "Print the record as JSON")
}

func runImport(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")
	asJSON, _ := cmd.Flags().GetBool("json")

	rec, err := analyzer.ImportProject(args[0])
	if err != nil {
		return err
	}
	logger.Debug("classified project", "path", rec.Path, "framework", rec.Framework, "entry", rec.EntryFile)

	if save {
		s := newStore()
		if err := s.Save(rec); err != nil {
			return fmt.Errorf("failed to save project: %w", err)
		}
		logger.Info("project saved", "id", rec.ID, "store", s.Path())
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Fprint(cmd.OutOrStdout(), ui.RenderProject(rec))
	if save {
		ui.Success("Saved. Build it with: phpack build " + rec.ID)
	}
	return nil
}
