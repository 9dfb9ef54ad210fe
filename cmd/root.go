// Package cmd provides the command-line interface of patterndoc.
//
// Configuration System:
//
//	Settings are resolved from several sources with clear precedence:
//	1. Command-line flags (--source, --target, --port, ...) - highest priority
//	2. Environment variables (PATTERNDOC_SOURCE_DIR, PATTERNDOC_SERVER_PORT, ...)
//	3. Configuration file (--config, PATTERNDOC_CONFIG_FILE or .patterndoc.yml)
//	4. Built-in defaults - lowest priority
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/conneroisu/patterndoc/internal/config"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigFileEnv names a config file when --config is not given.
const ConfigFileEnv = "PATTERNDOC_CONFIG_FILE"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "patterndoc",
	Short: "Generate HTML documentation from XML pattern definitions",
	Long: `patterndoc turns a directory tree of XML pattern definitions into a
browsable documentation site: one page per pattern, a dataflow diagram
rendered with Graphviz, and an index listing every pattern grouped by
directory.

Quick Start:
  patterndoc generate                       Generate ./patterns-doc from ./patterns
  patterndoc generate -s defs -t site       Use other source and target directories
  patterndoc list                           List discovered patterns
  patterndoc serve --open                   Preview the site with live reload
  patterndoc doctor                         Check the environment

Command Aliases:
  generate (build, g), list (ls, l), serve (s), watch (w)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .patterndoc.yml, can also use "+ConfigFileEnv+")")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig selects the config file and enables environment overrides.
//
// Config file priority (highest to lowest):
//  1. --config flag
//  2. PATTERNDOC_CONFIG_FILE environment variable
//  3. .patterndoc.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(ConfigFileEnv); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".patterndoc")
	}

	config.BindEnvironment()

	// A missing config file is fine, defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig binds the command's flags and loads the configuration.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	if err := bindFlags(cmd, bindings); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger creates the stderr logger configured by cfg.
func newLogger(cfg *config.Config) *logging.SlogLogger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

// commandContext returns the context of cmd, Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
