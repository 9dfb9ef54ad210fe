package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:  "defaults",
			setup: func() { viper.Reset() },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultSourceDir, cfg.Source.Dir)
				assert.Equal(t, ".xml", cfg.Source.Extension)
				assert.Equal(t, DefaultTargetDir, cfg.Output.Dir)
				assert.Equal(t, "index.html", cfg.Output.Index)
				assert.True(t, cfg.Graphviz.Enabled)
				assert.Equal(t, "dot", cfg.Graphviz.Command)
				assert.Equal(t, 74, cfg.Graphviz.DPI)
				assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
				assert.True(t, cfg.Server.LiveReload)
				assert.Equal(t, "info", cfg.Log.Level)
			},
		},
		{
			name: "custom paths and disabled diagrams",
			setup: func() {
				viper.Reset()
				viper.Set("source.dir", "../patterns")
				viper.Set("source.exclude_patterns", []string{"*.bak.xml"})
				viper.Set("output.dir", "build/doc")
				viper.Set("graphviz.enabled", false)
				viper.Set("graphviz.timeout", "5s")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "../patterns", cfg.Source.Dir)
				assert.Equal(t, []string{"*.bak.xml"}, cfg.Source.ExcludePatterns)
				assert.Equal(t, "build/doc", cfg.Output.Dir)
				assert.False(t, cfg.Graphviz.Enabled)
				assert.Equal(t, 5*time.Second, cfg.Graphviz.Timeout)
				assert.Equal(t, filepath.Join("build/doc", "index.html"), cfg.IndexPath())
			},
		},
		{
			name: "extension without dot",
			setup: func() {
				viper.Reset()
				viper.Set("source.extension", "xml")
			},
			expectError: true,
		},
		{
			name: "shell metacharacters in layout command",
			setup: func() {
				viper.Reset()
				viper.Set("graphviz.command", "dot; rm -rf /")
			},
			expectError: true,
		},
		{
			name: "port out of range",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 70000)
			},
			expectError: true,
		},
		{
			name: "unknown log level",
			setup: func() {
				viper.Reset()
				viper.Set("log.level", "chatty")
			},
			expectError: true,
		},
		{
			name: "undecodable port",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", "not-a-port")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer viper.Reset()

			cfg, err := Load()
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".patterndoc.yml")
	content := `source:
  dir: ./defs
  extension: .utql
output:
  dir: ./site
  strict: true
graphviz:
  dpi: 96
server:
  port: 9000
  live_reload: false
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	viper.Reset()
	defer viper.Reset()
	viper.SetConfigFile(file)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./defs", cfg.Source.Dir)
	assert.Equal(t, ".utql", cfg.Source.Extension)
	assert.Equal(t, "./site", cfg.Output.Dir)
	assert.True(t, cfg.Output.Strict)
	assert.Equal(t, 96, cfg.Graphviz.DPI)
	assert.True(t, cfg.Graphviz.Enabled)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.Server.LiveReload)
}

// TestLoadWithEnvironment tests loading config with environment variables
func TestLoadWithEnvironment(t *testing.T) {
	t.Setenv("PATTERNDOC_SOURCE_DIR", "/srv/patterns")
	t.Setenv("PATTERNDOC_GRAPHVIZ_ENABLED", "false")

	viper.Reset()
	defer viper.Reset()
	BindEnvironment()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/patterns", cfg.Source.Dir)
	assert.False(t, cfg.Graphviz.Enabled)
}

func TestValidateExtension(t *testing.T) {
	assert.NoError(t, validateExtension(".xml"))
	assert.Error(t, validateExtension("."))
	assert.Error(t, validateExtension("xml"))
	assert.Error(t, validateExtension("./x"))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath("../patterns"))
	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath("patterns;rm"))
	assert.Error(t, validatePath("$(HOME)/patterns"))
}
