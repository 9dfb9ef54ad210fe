package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/patterndoc/internal/build"
	"github.com/conneroisu/patterndoc/internal/config"
	"github.com/conneroisu/patterndoc/internal/graphviz"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Regenerate the documentation whenever a pattern changes",
	Long: `Generate the documentation, then watch the source directory and run a
complete generation again after every batch of changes. Rapid successive
writes are grouped (watch.debounce, 300ms by default).

Examples:
  patterndoc watch
  patterndoc watch -s defs -t public/doc --no-diagrams`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addSourceFlags(watchCmd)
	addTargetFlag(watchCmd)
	watchCmd.Flags().Bool("no-diagrams", false, "Do not render diagrams even if Graphviz is available")
	watchCmd.Flags().Duration("debounce", 0, "Delay grouping rapid changes (default 300ms)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if noDiagrams, _ := cmd.Flags().GetBool("no-diagrams"); noDiagrams {
		viper.Set("graphviz.enabled", false)
	}
	cfg, err := loadConfig(cmd, mergeBindings(sourceBindings, targetBindings, map[string]string{
		"debounce": "watch.debounce",
	}))
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diagrams := probeDiagrams(cfg)
	metrics := build.NewMetrics()
	out := cmd.OutOrStdout()

	run, err := runGeneration(ctx, cfg, logger, diagrams, metrics)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Generated %d page(s) in %s\n", run.Report.Pages, cfg.Output.Dir)
	fmt.Fprintf(out, "Watching %s for changes... (Press Ctrl+C to stop)\n", cfg.Source.Dir)

	err = watchAndRegenerate(ctx, cfg, logger, diagrams, metrics, func(run *generationRun) {
		fmt.Fprintf(out, "Regenerated %d page(s), %d problem(s)\n", run.Report.Pages, len(run.Errors()))
	})

	snapshot := metrics.GetSnapshot()
	fmt.Fprintf(out, "Stopped after %d run(s), %.0f%% without problems\n", snapshot.TotalRuns, metrics.GetSuccessRate())
	return err
}

// watchAndRegenerate runs a complete generation after every debounced
// batch of source changes until ctx is done. onRebuild is called after each
// run that produced a site.
func watchAndRegenerate(ctx context.Context, cfg *config.Config, logger logging.Logger, diagrams graphviz.Capability, metrics *build.Metrics, onRebuild func(*generationRun)) error {
	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.NoGitFilter)
	fileWatcher.AddFilter(watcher.ExtensionFilter(cfg.Source.Extension))
	fileWatcher.AddFilter(watcher.OutsideFilter(cfg.Output.Dir))
	if len(cfg.Source.ExcludePatterns) > 0 {
		fileWatcher.AddFilter(watcher.ExcludeFilter(cfg.Source.ExcludePatterns))
	}

	// Handlers run one batch at a time, so runs never overlap.
	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		logger.Info(ctx, "Changes detected", "files", len(events))
		run, err := runGeneration(ctx, cfg, logger, diagrams, metrics)
		if err != nil {
			return err
		}
		if onRebuild != nil {
			onRebuild(run)
		}
		return nil
	})

	if err := fileWatcher.AddRecursive(cfg.Source.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.Source.Dir, err)
	}
	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	<-ctx.Done()
	return nil
}
