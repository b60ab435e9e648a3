package cmd

import (
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/spf13/cobra"
)

var previewFlags pageFlags

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Load a CSV/TSV/XLSX file and show its head rows and column kinds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPage(cmd, args[0], &previewFlags, session.PageUpload)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().BoolVar(&previewFlags.jsonOut, "json", false, "print the preview as JSON")
}

// runPage loads path and dispatches each page in order against the same session.
func runPage(cmd *cobra.Command, path string, f *pageFlags, order ...session.Page) error {
	s, wf, err := openSession(path)
	if err != nil {
		return err
	}
	d := pages(cmd.OutOrStdout(), wf, f)
	for _, p := range order {
		if err := d.Dispatch(cmd.Context(), p, s); err != nil {
			return err
		}
	}
	return nil
}
