package cmd

import (
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	runFlags pageFlags
	runPages []string
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Walk several pages in order against one loaded dataset",
	Long: `Runs the upload, EDA and training pages in the given order on the same session, so
cleaning done on the EDA page is what training sees.`,
	Example: `  tabloom run data.csv --pages upload,eda,train --missing mean --dedup -t label`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("missing") {
			runFlags.missing = cfg.MissingStrategy
		}
		order := make([]session.Page, 0, len(runPages))
		for _, name := range runPages {
			p, err := session.ParsePage(name)
			if err != nil {
				return err
			}
			order = append(order, p)
		}
		flags := runFlags
		return runPage(cmd, args[0], &flags, order...)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceVar(&runPages, "pages", []string{"upload", "eda", "train"}, "pages to run in order: upload|eda|train")
	bindPrepFlags(runCmd, &runFlags)
	bindEDAFlags(runCmd, &runFlags)
	bindTrainFlags(runCmd, &runFlags)
}
