package cmd

import (
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/spf13/cobra"
)

var edaFlags pageFlags

var edaCmd = &cobra.Command{
	Use:   "eda <file>",
	Short: "Clean a dataset and summarize its columns, correlations and distributions",
	Long: `Reports missing values, applies the chosen missing-value strategy and optional
deduplication, then prints a Markdown summary. Use --hist and --heatmap to write charts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("missing") {
			edaFlags.missing = cfg.MissingStrategy
		}
		return runPage(cmd, args[0], &edaFlags, session.PageEDA)
	},
}

func init() {
	rootCmd.AddCommand(edaCmd)
	bindPrepFlags(edaCmd, &edaFlags)
	bindEDAFlags(edaCmd, &edaFlags)
	edaCmd.Flags().BoolVar(&edaFlags.jsonOut, "json", false, "print the results as JSON")
}

func bindPrepFlags(c *cobra.Command, f *pageFlags) {
	c.Flags().StringVar(&f.missing, "missing", "none", "missing values: none|mean|median|drop")
	c.Flags().BoolVar(&f.dedup, "dedup", false, "remove duplicate rows")
}

func bindEDAFlags(c *cobra.Command, f *pageFlags) {
	c.Flags().StringVar(&f.column, "column", "", "column to build a histogram for (default: first column)")
	c.Flags().IntVar(&f.bins, "bins", 0, "histogram bins for numeric columns (default from config)")
	c.Flags().StringVar(&f.hist, "hist", "", "write the histogram of --column as PNG to this path")
	c.Flags().StringVar(&f.heatmap, "heatmap", "", "write the correlation heatmap as PNG to this path")
	c.Flags().StringVarP(&f.report, "output", "o", "", "write the Markdown summary to this path")
}
