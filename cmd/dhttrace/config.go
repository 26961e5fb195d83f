package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	dhttrace "go-dhttrace"
)

const envPrefix = "DHTTRACE"

// Config is the merged configuration of one command: defaults, optional
// config file, DHTTRACE_* environment variables, then flags.
type Config struct {
	Model     string        `mapstructure:"model"`
	Pointers  string        `mapstructure:"pointers"`
	Output    string        `mapstructure:"output"`
	Format    string        `mapstructure:"format"`
	Detector  string        `mapstructure:"detector"`
	Seeds     []string      `mapstructure:"seeds"`
	MaxLines  int           `mapstructure:"max-lines"`
	DB        string        `mapstructure:"db"`
	Table     string        `mapstructure:"table"`
	Trace     string        `mapstructure:"trace"`
	TraceFile string        `mapstructure:"trace-file"`
	Checker   string        `mapstructure:"checker"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Verbose   bool          `mapstructure:"verbose"`
}

// loadConfig reads the configuration for cmd. Flags that were not set fall
// back to the environment, the config file and finally the flag default.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	var vip = viper.New()

	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if file := vip.GetString("config"); file != "" {
		vip.SetConfigFile(file)
		if err := vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	var conf Config
	if err := vip.Unmarshal(&conf, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	conf.Seeds = trimAll(conf.Seeds)
	return &conf, nil
}

func trimAll(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// requireModel fails with ErrMissingModel when no model path is configured.
func (c *Config) requireModel() error {
	if c.Model == "" {
		return dhttrace.ErrMissingModel
	}
	return nil
}

// newLogger writes text logs to stderr, at debug level when verbose.
func (c *Config) newLogger() *slog.Logger {
	var level = slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// analyzerOptions maps the configuration onto analyzer options.
func (c *Config) analyzerOptions(logger *slog.Logger) ([]dhttrace.Option, error) {
	var detector, err = dhttrace.LookupRingDetector(c.Detector)
	if err != nil {
		return nil, err
	}

	return []dhttrace.Option{
		dhttrace.WithLogger(logger),
		dhttrace.WithMaxLines(c.MaxLines),
		dhttrace.WithSeedMembers(c.Seeds...),
		dhttrace.WithRingDetector(detector),
	}, nil
}
