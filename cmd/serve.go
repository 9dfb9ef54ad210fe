package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/conneroisu/patterndoc/internal/build"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/server"
	"github.com/conneroisu/patterndoc/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Preview the documentation with live reload",
	Long: `Generate the documentation and serve the target directory over HTTP.
Changes to the pattern definitions trigger a complete regeneration, after
which open pages reload themselves. The reload script is only added to the
served responses, the files on disk stay as generated.

Examples:
  patterndoc serve                  # http://localhost:8090
  patterndoc serve -p 3000 --open   # Custom port, open the browser
  patterndoc serve --no-reload      # Plain static server`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addSourceFlags(serveCmd)
	addTargetFlag(serveCmd)
	addServerFlags(serveCmd)
	serveCmd.Flags().Bool("no-reload", false, "Disable live reload")
	serveCmd.Flags().Bool("no-diagrams", false, "Do not render diagrams even if Graphviz is available")
	serveCmd.Flags().Bool("open", false, "Open the index in the default browser")
}

func runServe(cmd *cobra.Command, args []string) error {
	if noReload, _ := cmd.Flags().GetBool("no-reload"); noReload {
		viper.Set("server.live_reload", false)
	}
	if noDiagrams, _ := cmd.Flags().GetBool("no-diagrams"); noDiagrams {
		viper.Set("graphviz.enabled", false)
	}
	cfg, err := loadConfig(cmd, mergeBindings(sourceBindings, targetBindings, serverBindings))
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diagrams := probeDiagrams(cfg)
	metrics := build.NewMetrics()
	if _, err := runGeneration(ctx, cfg, logger, diagrams, metrics); err != nil {
		return err
	}

	srv := server.New(server.Options{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		Root:       cfg.Output.Dir,
		Index:      cfg.Output.Index,
		LiveReload: cfg.Server.LiveReload,
		Logger:     logger,
	})
	if err := srv.Listen(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at %s (Press Ctrl+C to stop)\n", cfg.Output.Dir, srv.URL())

	if open, _ := cmd.Flags().GetBool("open"); open {
		openBrowser(ctx, srv.URL()+"/", logger)
	}

	go func() {
		err := watchAndRegenerate(ctx, cfg, logger, diagrams, metrics, func(*generationRun) {
			srv.Reload()
		})
		if err != nil {
			logger.Error(ctx, err, "Watching stopped, pages will not be regenerated")
		}
	}()

	return srv.Start(ctx)
}

func openBrowser(ctx context.Context, url string, logger logging.Logger) {
	if err := validation.ValidateURL(url); err != nil {
		logger.Warn(ctx, err, "Browser open failed due to invalid URL")
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	if err != nil {
		logger.Warn(ctx, err, "Failed to open browser")
	}
}
