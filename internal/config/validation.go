package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/conneroisu/patterndoc/internal/logging"
)

// dangerousChars are rejected in paths and in the layout tool command, which
// is executed directly and must never reach a shell.
var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateSourceConfig(&config.Source); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if err := validateOutputConfig(&config.Output); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := validateGraphvizConfig(&config.Graphviz); err != nil {
		return fmt.Errorf("graphviz config: %w", err)
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log config: format must be text or json, got %q", config.Log.Format)
	}

	return nil
}

func validateSourceConfig(config *SourceConfig) error {
	if err := validatePath(config.Dir); err != nil {
		return fmt.Errorf("invalid dir '%s': %w", config.Dir, err)
	}
	if err := validateExtension(config.Extension); err != nil {
		return fmt.Errorf("extension: %w", err)
	}
	for _, pattern := range config.ExcludePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}
	return nil
}

func validateOutputConfig(config *OutputConfig) error {
	if err := validatePath(config.Dir); err != nil {
		return fmt.Errorf("invalid dir '%s': %w", config.Dir, err)
	}
	if strings.ContainsAny(config.Index, `/\`) {
		return fmt.Errorf("index must be a file name, got %q", config.Index)
	}
	if err := validateExtension(config.PageExtension); err != nil {
		return fmt.Errorf("page_extension: %w", err)
	}
	if err := validateExtension(config.ImageExtension); err != nil {
		return fmt.Errorf("image_extension: %w", err)
	}
	return nil
}

func validateGraphvizConfig(config *GraphvizConfig) error {
	if strings.TrimSpace(config.Command) == "" {
		return fmt.Errorf("command cannot be empty")
	}
	for _, char := range dangerousChars {
		if strings.Contains(config.Command, char) {
			return fmt.Errorf("command contains dangerous character: %s", char)
		}
	}
	if strings.ContainsAny(config.Format, " /\\") || config.Format == "" {
		return fmt.Errorf("invalid output format %q", config.Format)
	}
	if config.DPI < 1 || config.DPI > 1200 {
		return fmt.Errorf("dpi %d is not in valid range 1-1200", config.DPI)
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			return fmt.Errorf("host contains dangerous character: %s", char)
		}
	}

	return nil
}

func validateExtension(ext string) error {
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return fmt.Errorf("must start with '.' and name a suffix, got %q", ext)
	}
	if strings.ContainsAny(ext, `/\`) {
		return fmt.Errorf("must not contain path separators, got %q", ext)
	}
	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func joinPath(dir, name string) string {
	return filepath.Join(dir, name)
}
