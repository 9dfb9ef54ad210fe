package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/conneroisu/patterndoc/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionFormat   string
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for patterndoc: version, commit, build
time, Go version and platform.

Examples:
  patterndoc version              # Version and commit
  patterndoc version --detailed   # All build information
  patterndoc version -f json      # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	addFormatFlag(versionCmd, &versionFormat, "text", []string{"text", "json"})
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show the version number only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.GetBuildInfo()
	out := cmd.OutOrStdout()

	if versionFormat == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	}

	switch {
	case versionShort:
		fmt.Fprintln(out, info.Version)
	case versionDetailed:
		fmt.Fprintln(out, info.Detailed())
	default:
		fmt.Fprintln(out, "patterndoc "+info.Short())
	}
	return nil
}
