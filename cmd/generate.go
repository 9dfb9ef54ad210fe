package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"build", "g"},
	Short:   "Generate the documentation site",
	Long: `Generate the documentation site for every pattern below the source
directory. Each pattern gets an HTML page and, when Graphviz is installed, a
diagram of its nodes and edges. The index page lists all patterns grouped
by directory.

Problems with single files (malformed XML, unknown trigger group edges,
unwritable pages) are reported and skipped. Use --strict to turn them into
a failing exit status.

Examples:
  patterndoc generate                         # ./patterns -> ./patterns-doc
  patterndoc generate -s defs -t public/doc   # Custom source and target
  patterndoc generate --no-diagrams           # Pages only, skip Graphviz
  patterndoc generate --clean --strict        # Fresh output, fail on any problem`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addSourceFlags(generateCmd)
	addTargetFlag(generateCmd)
	generateCmd.Flags().Bool("no-diagrams", false, "Do not render diagrams even if Graphviz is available")
	generateCmd.Flags().Bool("clean", false, "Remove the target directory before generating")
	generateCmd.Flags().Bool("strict", false, "Exit with an error if any pattern could not be documented")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if noDiagrams, _ := cmd.Flags().GetBool("no-diagrams"); noDiagrams {
		viper.Set("graphviz.enabled", false)
	}
	cfg, err := loadConfig(cmd, mergeBindings(sourceBindings, targetBindings, map[string]string{
		"clean":  "output.clean",
		"strict": "output.strict",
	}))
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	op := logger.StartOperation("generate")
	ctx := commandContext(cmd)

	diagrams := probeDiagrams(cfg)
	run, err := runGeneration(ctx, cfg, logger, diagrams, nil)
	if err != nil {
		return err
	}
	op.End(ctx, "pages", run.Report.Pages)

	report := run.Report
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %d page(s), %d diagram(s) in %s\n", report.Pages, report.Diagrams, cfg.Output.Dir)
	if !diagrams.Available && cfg.Graphviz.Enabled {
		fmt.Fprintf(out, "Diagrams skipped: %v\n", diagrams.Reason)
	}
	if report.IndexPath != "" {
		fmt.Fprintf(out, "Index: %s\n", report.IndexPath)
	}

	problems := run.Errors()
	if len(problems) > 0 {
		fmt.Fprintf(out, "%d problem(s), %d pattern(s) skipped\n", len(problems), report.Skipped)
		if cfg.Output.Strict {
			return fmt.Errorf("strict mode: %d problem(s) found", len(problems))
		}
	}
	return nil
}
