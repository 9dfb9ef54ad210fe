// Package config provides configuration management for patterndoc using
// Viper for loading from files, environment variables and command-line
// flags.
//
// Settings cover the pattern source tree, the generated documentation
// output, the Graphviz layout tool, the change watcher, the preview server
// and logging. Environment overrides use the PATTERNDOC_ prefix with
// sections separated by underscores (PATTERNDOC_SOURCE_DIR,
// PATTERNDOC_GRAPHVIZ_ENABLED, ...).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default values mirror the layout the documentation tool was first used
// with: patterns/ next to patterns-doc/.
const (
	DefaultSourceDir      = "./patterns"
	DefaultTargetDir      = "./patterns-doc"
	DefaultExtension      = ".xml"
	DefaultIndexFile      = "index.html"
	DefaultPageExtension  = ".html"
	DefaultImageExtension = ".png"
	DefaultDotCommand     = "dot"
	DefaultDotFormat      = "png"
	DefaultDPI            = 74
	DefaultDebounce       = 300 * time.Millisecond
	DefaultServerHost     = "localhost"
	DefaultServerPort     = 8090
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "PATTERNDOC"

// keys lists every configuration key so that environment overrides reach
// Unmarshal even when no config file mentions the key.
var keys = []string{
	"source.dir", "source.extension", "source.exclude_patterns",
	"output.dir", "output.index", "output.page_extension", "output.image_extension",
	"output.clean", "output.strict",
	"graphviz.enabled", "graphviz.command", "graphviz.format", "graphviz.dpi", "graphviz.timeout",
	"watch.debounce",
	"server.host", "server.port", "server.live_reload",
	"log.level", "log.format",
}

type Config struct {
	Source   SourceConfig   `mapstructure:"source" yaml:"source" json:"source"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Graphviz GraphvizConfig `mapstructure:"graphviz" yaml:"graphviz" json:"graphviz"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch" json:"watch"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Log      LogConfig      `mapstructure:"log" yaml:"log" json:"log"`
}

// SourceConfig describes where pattern definitions are read from.
type SourceConfig struct {
	Dir             string   `mapstructure:"dir" yaml:"dir" json:"dir"`
	Extension       string   `mapstructure:"extension" yaml:"extension" json:"extension"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns" json:"exclude_patterns"`
}

// OutputConfig describes the generated documentation tree.
type OutputConfig struct {
	Dir            string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Index          string `mapstructure:"index" yaml:"index" json:"index"`
	PageExtension  string `mapstructure:"page_extension" yaml:"page_extension" json:"page_extension"`
	ImageExtension string `mapstructure:"image_extension" yaml:"image_extension" json:"image_extension"`
	Clean          bool   `mapstructure:"clean" yaml:"clean" json:"clean"`
	Strict         bool   `mapstructure:"strict" yaml:"strict" json:"strict"`
}

// GraphvizConfig controls the external diagram layout tool.
type GraphvizConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Command string        `mapstructure:"command" yaml:"command" json:"command"`
	Format  string        `mapstructure:"format" yaml:"format" json:"format"`
	DPI     int           `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

type ServerConfig struct {
	Host       string `mapstructure:"host" yaml:"host" json:"host"`
	Port       int    `mapstructure:"port" yaml:"port" json:"port"`
	LiveReload bool   `mapstructure:"live_reload" yaml:"live_reload" json:"live_reload"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

func envKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// BindEnvironment enables PATTERNDOC_<SECTION>_<OPTION> overrides on the
// global viper instance.
func BindEnvironment() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer())
	viper.AutomaticEnv()
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}
}

// Load builds the configuration from the global viper instance, applies
// defaults for everything left unset and validates the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Source.Dir == "" {
		config.Source.Dir = DefaultSourceDir
	}
	if config.Source.Extension == "" {
		config.Source.Extension = DefaultExtension
	}
	if viper.IsSet("source.exclude_patterns") && len(config.Source.ExcludePatterns) == 0 {
		config.Source.ExcludePatterns = viper.GetStringSlice("source.exclude_patterns")
	}

	if config.Output.Dir == "" {
		config.Output.Dir = DefaultTargetDir
	}
	if config.Output.Index == "" {
		config.Output.Index = DefaultIndexFile
	}
	if config.Output.PageExtension == "" {
		config.Output.PageExtension = DefaultPageExtension
	}
	if config.Output.ImageExtension == "" {
		config.Output.ImageExtension = DefaultImageExtension
	}

	// Diagrams are on unless explicitly disabled.
	if !viper.IsSet("graphviz.enabled") {
		config.Graphviz.Enabled = true
	}
	if config.Graphviz.Command == "" {
		config.Graphviz.Command = DefaultDotCommand
	}
	if config.Graphviz.Format == "" {
		config.Graphviz.Format = DefaultDotFormat
	}
	if config.Graphviz.DPI == 0 {
		config.Graphviz.DPI = DefaultDPI
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = DefaultDebounce
	}

	if config.Server.Host == "" {
		config.Server.Host = DefaultServerHost
	}
	if config.Server.Port == 0 {
		config.Server.Port = DefaultServerPort
	}
	if !viper.IsSet("server.live_reload") {
		config.Server.LiveReload = true
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// IndexPath returns the path of the table of contents document.
func (c *Config) IndexPath() string {
	return joinPath(c.Output.Dir, c.Output.Index)
}
