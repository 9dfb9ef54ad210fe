package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag to configuration key bindings shared by several commands.
var (
	sourceBindings = map[string]string{
		"source":    "source.dir",
		"extension": "source.extension",
	}
	targetBindings = map[string]string{
		"target": "output.dir",
	}
	serverBindings = map[string]string{
		"host": "server.host",
		"port": "server.port",
	}
)

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("source", "s", "", "Directory holding the pattern definitions (default ./patterns)")
	cmd.Flags().String("extension", "", "Extension of pattern definition files (default .xml)")
}

func addTargetFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("target", "t", "", "Directory the documentation is written to (default ./patterns-doc)")
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 0, "Port to serve on (default 8090)")
	cmd.Flags().String("host", "", "Host to bind to (default localhost)")
}

// bindFlags binds the named flags of cmd to configuration keys. Binding
// happens when the command runs since several commands share a key and
// viper keeps a single flag per key.
func bindFlags(cmd *cobra.Command, bindings map[string]string) error {
	for name, key := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// mergeBindings combines binding maps.
func mergeBindings(maps ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, m := range maps {
		for name, key := range m {
			merged[name] = key
		}
	}
	return merged
}

// addFormatFlag adds --format/-f and validates its value before the command
// runs.
func addFormatFlag(cmd *cobra.Command, target *string, def string, formats []string) {
	cmd.Flags().StringVarP(target, "format", "f", def, "Output format ("+strings.Join(formats, "|")+")")
	previous := cmd.PreRunE
	cmd.PreRunE = func(c *cobra.Command, args []string) error {
		if err := ValidateFormatWithSuggestion(*target, formats); err != nil {
			return err
		}
		if previous != nil {
			return previous(c, args)
		}
		return nil
	}
}

// ValidateFormatWithSuggestion rejects unknown output formats and suggests
// the closest supported one.
func ValidateFormatWithSuggestion(format string, formats []string) error {
	for _, f := range formats {
		if strings.EqualFold(format, f) {
			return nil
		}
	}

	best, bestDistance := "", len(format)+1
	for _, f := range formats {
		if d := levenshtein(strings.ToLower(format), f); d < bestDistance {
			best, bestDistance = f, d
		}
	}
	if best != "" && bestDistance <= 2 {
		return fmt.Errorf("invalid format %q, did you mean %q? (supported: %s)", format, best, strings.Join(formats, ", "))
	}
	return fmt.Errorf("invalid format %q (supported: %s)", format, strings.Join(formats, ", "))
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur := make([]int, len(b)+1)
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev = cur
	}
	return prev[len(b)]
}
