package cmd

import (
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/spf13/cobra"
)

var trainFlags pageFlags

var trainCmd = &cobra.Command{
	Use:   "train <file>",
	Short: "Train a model on a target column and score it on a 20% holdout",
	Long: `Encodes categorical columns, splits the rows, optionally standardizes the features,
fits the chosen model and prints accuracy with a classification report, or MSE and R².`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("missing") {
			trainFlags.missing = cfg.MissingStrategy
		}
		return runPage(cmd, args[0], &trainFlags, session.PageTraining)
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	bindPrepFlags(trainCmd, &trainFlags)
	bindTrainFlags(trainCmd, &trainFlags)
	trainCmd.Flags().BoolVar(&trainFlags.jsonOut, "json", false, "print the run as JSON")
}

func bindTrainFlags(c *cobra.Command, f *pageFlags) {
	c.Flags().StringVarP(&f.target, "target", "t", "", "target column")
	c.Flags().StringVar(&f.task, "task", "classification", "task: classification|regression")
	c.Flags().StringVarP(&f.model, "model", "m", "random-forest", "model: random-forest|linear|svm (svm is a linear-kernel SVC/SVR, not RBF)")
	c.Flags().BoolVar(&f.scale, "scale", false, "standardize features with the training rows' mean and deviation")
	c.Flags().StringVar(&f.scatter, "scatter", "", "regression: write actual vs predicted PNG to this path")
}
