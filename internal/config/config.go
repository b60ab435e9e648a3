package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Workflow
	TestSize        float64 `mapstructure:"test_size" yaml:"test_size"`
	RandomSeed      int64   `mapstructure:"random_seed" yaml:"random_seed"`
	HeadRows        int     `mapstructure:"head_rows" yaml:"head_rows"`
	MissingStrategy string  `mapstructure:"missing_strategy" yaml:"missing_strategy"`
	HistBins        int     `mapstructure:"hist_bins" yaml:"hist_bins"`

	// Estimators
	ForestTrees    int     `mapstructure:"forest_trees" yaml:"forest_trees"`
	ForestMaxDepth int     `mapstructure:"forest_max_depth" yaml:"forest_max_depth"`
	ForestMinSplit int     `mapstructure:"forest_min_split" yaml:"forest_min_split"`
	LogisticC      float64 `mapstructure:"logistic_c" yaml:"logistic_c"`
	SVMC           float64 `mapstructure:"svm_c" yaml:"svm_c"`
	SVREpsilon     float64 `mapstructure:"svr_epsilon" yaml:"svr_epsilon"`
	MaxIterations  int     `mapstructure:"max_iterations" yaml:"max_iterations"`

	// Charts
	ChartWidth  int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int `mapstructure:"chart_height" yaml:"chart_height"`

	// HTTP surface
	ServerAddr    string `mapstructure:"server_addr" yaml:"server_addr"`
	SessionTTLMin int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	MaxUploadMB   int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Global {
	return &Global{
		TestSize:        0.2,
		RandomSeed:      42,
		HeadRows:        5,
		MissingStrategy: "none",
		HistBins:        20,
		ForestTrees:     100,
		ForestMinSplit:  2,
		LogisticC:       1.0,
		SVMC:            1.0,
		SVREpsilon:      0.1,
		MaxIterations:   200,
		ChartWidth:      900,
		ChartHeight:     500,
		ServerAddr:      ":8080",
		SessionTTLMin:   60,
		MaxUploadMB:     32,
		LogLevel:        "info",
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".tabloom")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABLOOM")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("test_size", d.TestSize)
	v.SetDefault("random_seed", d.RandomSeed)
	v.SetDefault("head_rows", d.HeadRows)
	v.SetDefault("missing_strategy", d.MissingStrategy)
	v.SetDefault("hist_bins", d.HistBins)
	v.SetDefault("forest_trees", d.ForestTrees)
	v.SetDefault("forest_max_depth", d.ForestMaxDepth)
	v.SetDefault("forest_min_split", d.ForestMinSplit)
	v.SetDefault("logistic_c", d.LogisticC)
	v.SetDefault("svm_c", d.SVMC)
	v.SetDefault("svr_epsilon", d.SVREpsilon)
	v.SetDefault("max_iterations", d.MaxIterations)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("session_ttl_min", d.SessionTTLMin)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("log_level", d.LogLevel)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".tabloom"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the workflow cannot run with.
func (c *Global) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("invalid test_size %v: must be in (0,1)", c.TestSize)
	}
	if c.HeadRows < 0 {
		return fmt.Errorf("invalid head_rows %d", c.HeadRows)
	}
	if c.ForestTrees <= 0 {
		return fmt.Errorf("invalid forest_trees %d", c.ForestTrees)
	}
	if c.ForestMinSplit < 2 {
		return fmt.Errorf("invalid forest_min_split %d: must be >= 2", c.ForestMinSplit)
	}
	if c.LogisticC <= 0 || c.SVMC <= 0 {
		return fmt.Errorf("regularization constants must be positive")
	}
	if c.SVREpsilon < 0 {
		return fmt.Errorf("invalid svr_epsilon %v", c.SVREpsilon)
	}
	if c.HistBins <= 0 {
		return fmt.Errorf("invalid hist_bins %d", c.HistBins)
	}
	if c.SessionTTLMin <= 0 || c.MaxUploadMB <= 0 {
		return fmt.Errorf("session_ttl_min and max_upload_mb must be positive")
	}
	return nil
}
