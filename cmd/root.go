package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/tabloom-cli/internal/config"
	"github.com/KaramelBytes/tabloom-cli/internal/logging"
	"github.com/KaramelBytes/tabloom-cli/internal/parser"
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/KaramelBytes/tabloom-cli/internal/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile    string
	debug      bool
	logLevel   string
	delimiter  string
	sheetName  string
	sheetIndex int

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tabloom",
	Short: "TabLoom CLI: explore a table and train a baseline model on it",
	Long: `TabLoom loads a CSV or Excel file, cleans missing values and duplicates, summarizes
the columns with charts, and trains a random forest, linear or SVM model on a target column.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet-name", "", "XLSX: sheet name to load")
	rootCmd.PersistentFlags().IntVar(&sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if logger, err = logging.New(level, debug); err != nil {
		return err
	}
	return nil
}

func parserOptions() (parser.Options, error) {
	opt := parser.Options{SheetName: sheetName, SheetIndex: sheetIndex}
	switch delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", delimiter)
	}
	return opt, nil
}

// openSession loads path into a fresh session, the CLI equivalent of the upload page.
func openSession(path string) (*session.Session, *workflow.Workflow, error) {
	opt, err := parserOptions()
	if err != nil {
		return nil, nil, err
	}
	s := session.New()
	if _, err := s.LoadFile(path, opt); err != nil {
		return nil, nil, err
	}
	return s, workflow.New(cfg, logger), nil
}
