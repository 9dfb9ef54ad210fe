package cmd

import (
	"fmt"

	"github.com/conneroisu/patterndoc/internal/validation"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the links of a generated site",
	Long: `Parse every HTML page of the generated site and verify that each
relative link, image and script reference names an existing file.
External URLs are not followed.

Examples:
  patterndoc check
  patterndoc check -t public/doc`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addTargetFlag(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, targetBindings)
	if err != nil {
		return err
	}

	report, err := validation.CheckSite(commandContext(cmd), cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("checking %s: %w", cfg.Output.Dir, err)
	}

	out := cmd.OutOrStdout()
	for _, broken := range report.Broken {
		fmt.Fprintf(out, "%s: broken link %s\n", broken.File, broken.Target)
	}
	fmt.Fprintf(out, "%d page(s), %d link(s) checked, %d broken\n", report.Pages, report.Links, len(report.Broken))

	if !report.OK() {
		return fmt.Errorf("%d broken link(s) in %s", len(report.Broken), cfg.Output.Dir)
	}
	return nil
}
