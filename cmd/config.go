package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/tabloom-cli/internal/config"
	"github.com/KaramelBytes/tabloom-cli/internal/prep"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TabLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "test_size: %.2f\n", cfg.TestSize)
		fmt.Fprintf(out, "random_seed: %d\n", cfg.RandomSeed)
		fmt.Fprintf(out, "head_rows: %d\n", cfg.HeadRows)
		fmt.Fprintf(out, "missing_strategy: %s\n", cfg.MissingStrategy)
		fmt.Fprintf(out, "hist_bins: %d\n", cfg.HistBins)
		fmt.Fprintf(out, "forest_trees: %d\n", cfg.ForestTrees)
		if cfg.ForestMaxDepth > 0 {
			fmt.Fprintf(out, "forest_max_depth: %d\n", cfg.ForestMaxDepth)
		}
		fmt.Fprintf(out, "forest_min_split: %d\n", cfg.ForestMinSplit)
		fmt.Fprintf(out, "logistic_c: %.3f\n", cfg.LogisticC)
		fmt.Fprintf(out, "svm_c: %.3f\n", cfg.SVMC)
		fmt.Fprintf(out, "svr_epsilon: %.3f\n", cfg.SVREpsilon)
		fmt.Fprintf(out, "max_iterations: %d\n", cfg.MaxIterations)
		fmt.Fprintf(out, "chart_width: %d\n", cfg.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", cfg.ChartHeight)
		fmt.Fprintf(out, "server_addr: %s\n", cfg.ServerAddr)
		fmt.Fprintf(out, "session_ttl_min: %d\n", cfg.SessionTTLMin)
		fmt.Fprintf(out, "max_upload_mb: %d\n", cfg.MaxUploadMB)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := *cfg
		if err := setKey(&c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&c, cfgFile); err != nil {
			return err
		}
		*cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	atof := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float for %s: %v", key, val)
		}
		return f, nil
	}
	var err error
	switch key {
	case "test_size":
		c.TestSize, err = atof()
	case "random_seed":
		var i int
		i, err = atoi()
		c.RandomSeed = int64(i)
	case "head_rows":
		c.HeadRows, err = atoi()
	case "missing_strategy":
		var s prep.Strategy
		if s, err = prep.ParseStrategy(val); err == nil {
			c.MissingStrategy = string(s)
		}
	case "hist_bins":
		c.HistBins, err = atoi()
	case "forest_trees":
		c.ForestTrees, err = atoi()
	case "forest_max_depth":
		c.ForestMaxDepth, err = atoi()
	case "forest_min_split":
		c.ForestMinSplit, err = atoi()
	case "logistic_c":
		c.LogisticC, err = atof()
	case "svm_c":
		c.SVMC, err = atof()
	case "svr_epsilon":
		c.SVREpsilon, err = atof()
	case "max_iterations":
		c.MaxIterations, err = atoi()
	case "chart_width":
		c.ChartWidth, err = atoi()
	case "chart_height":
		c.ChartHeight, err = atoi()
	case "server_addr":
		c.ServerAddr = val
	case "session_ttl_min":
		c.SessionTTLMin, err = atoi()
	case "max_upload_mb":
		c.MaxUploadMB, err = atoi()
	case "log_level":
		c.LogLevel = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
