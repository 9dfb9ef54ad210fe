package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/conneroisu/patterndoc/internal/config"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the documentation environment",
	Long: `Check everything generation depends on and report problems with a
suggestion for each:

- configuration file and values
- source directory and the patterns found in it
- target directory permissions
- Graphviz availability
- preview server port

Examples:
  patterndoc doctor
  patterndoc doctor --format yaml`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var doctorFormat string

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
	StatusInfo    = "info"
)

// DiagnosticResult represents the result of a diagnostic check
type DiagnosticResult struct {
	Name       string            `json:"name" yaml:"name"`
	Status     string            `json:"status" yaml:"status"`
	Message    string            `json:"message" yaml:"message"`
	Suggestion string            `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Details    map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// DoctorReport represents the complete diagnostic report
type DoctorReport struct {
	Timestamp   time.Time          `json:"timestamp" yaml:"timestamp"`
	Environment map[string]string  `json:"environment" yaml:"environment"`
	Results     []DiagnosticResult `json:"results" yaml:"results"`
	Summary     ReportSummary      `json:"summary" yaml:"summary"`
}

// ReportSummary provides an overview of diagnostic results
type ReportSummary struct {
	Total    int `json:"total" yaml:"total"`
	OK       int `json:"ok" yaml:"ok"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Errors   int `json:"errors" yaml:"errors"`
	Info     int `json:"info" yaml:"info"`
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	addSourceFlags(doctorCmd)
	addTargetFlag(doctorCmd)
	addFormatFlag(doctorCmd, &doctorFormat, "table", []string{"table", "json", "yaml"})
}

func runDoctor(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, mergeBindings(sourceBindings, targetBindings)); err != nil {
		return err
	}

	report := &DoctorReport{
		Timestamp: time.Now(),
		Environment: map[string]string{
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"go_version": runtime.Version(),
			"patterndoc": version.GetBuildInfo().Short(),
		},
	}
	if wd, err := os.Getwd(); err == nil {
		report.Environment["working_dir"] = wd
	}

	cfgResult, cfg := checkConfiguration()
	report.Results = append(report.Results, cfgResult)
	if cfg != nil {
		ctx := commandContext(cmd)
		for _, check := range []func(context.Context, *config.Config) DiagnosticResult{
			checkSourceDirectory,
			checkOutputDirectory,
			checkGraphviz,
			checkServerPort,
		} {
			report.Results = append(report.Results, check(ctx, cfg))
		}
	}
	report.Summary = calculateSummary(report.Results)

	out := cmd.OutOrStdout()
	switch doctorFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to output report: %w", err)
		}
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to output report: %w", err)
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	default:
		displayReport(out, report)
	}

	if report.Summary.Errors > 0 {
		return fmt.Errorf("%d check(s) failed", report.Summary.Errors)
	}
	return nil
}

func checkConfiguration() (DiagnosticResult, *config.Config) {
	result := DiagnosticResult{Name: "Configuration", Status: StatusOK}

	cfg, err := config.Load()
	if err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		result.Suggestion = "Fix the configuration file or the PATTERNDOC_* environment variables"
		return result, nil
	}

	if used := viper.ConfigFileUsed(); used != "" {
		if _, statErr := os.Stat(used); statErr == nil {
			result.Message = "Using " + used
			return result, cfg
		}
	}
	result.Status = StatusInfo
	result.Message = "No configuration file, defaults are in effect"
	result.Suggestion = "Create .patterndoc.yml to keep source and target settings with the project"
	return result, cfg
}

func checkSourceDirectory(ctx context.Context, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Name:    "Source directory",
		Status:  StatusOK,
		Details: map[string]string{"dir": cfg.Source.Dir, "extension": cfg.Source.Extension},
	}

	scan, err := scanPatterns(ctx, cfg, logging.NewNopLogger())
	if err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		result.Suggestion = "Point --source or source.dir at the directory holding the pattern definitions"
		return result
	}

	count := scan.Tree.Count()
	result.Details["patterns"] = strconv.Itoa(count)
	switch {
	case count == 0:
		result.Status = StatusWarning
		result.Message = "No patterns found"
		result.Suggestion = "Check source.extension and source.exclude_patterns"
	case scan.Errors.HasErrors():
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d pattern(s) found, %d problem(s)", count, scan.Errors.Count())
		result.Suggestion = "Run 'patterndoc validate' for details"
	default:
		result.Message = fmt.Sprintf("%d pattern(s) found", count)
	}
	return result
}

func checkOutputDirectory(_ context.Context, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Name:    "Target directory",
		Status:  StatusOK,
		Details: map[string]string{"dir": cfg.Output.Dir},
	}

	dir := cfg.Output.Dir
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		// The generator creates it, so its closest existing parent matters.
		dir = existingParent(dir)
		result.Message = "Does not exist yet, will be created"
	case err != nil:
		result.Status = StatusError
		result.Message = err.Error()
		return result
	case !info.IsDir():
		result.Status = StatusError
		result.Message = "Exists but is not a directory"
		result.Suggestion = "Choose another --target"
		return result
	default:
		result.Message = "Writable"
	}

	probe, err := os.CreateTemp(dir, ".patterndoc-doctor-*")
	if err != nil {
		result.Status = StatusError
		result.Message = "Not writable: " + err.Error()
		result.Suggestion = "Fix the permissions of " + dir + " or choose another --target"
		return result
	}
	probe.Close()
	os.Remove(probe.Name())
	return result
}

func existingParent(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "."
	}
	for {
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return abs
		}
		abs = parent
	}
}

func checkGraphviz(_ context.Context, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{Name: "Graphviz", Status: StatusOK}

	if !cfg.Graphviz.Enabled {
		result.Status = StatusInfo
		result.Message = "Diagrams are disabled"
		return result
	}

	capability := probeDiagrams(cfg)
	if !capability.Available {
		result.Status = StatusWarning
		result.Message = capability.Reason.Error()
		result.Suggestion = "Install Graphviz (https://graphviz.org/download/) to get pattern diagrams"
		return result
	}

	result.Message = "Found " + capability.Path
	result.Details = map[string]string{
		"command": capability.Options.Command,
		"format":  capability.Options.Format,
		"dpi":     strconv.Itoa(cfg.Graphviz.DPI),
	}
	return result
}

func checkServerPort(_ context.Context, cfg *config.Config) DiagnosticResult {
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	result := DiagnosticResult{Name: "Preview port", Status: StatusOK, Message: addr + " is available"}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		result.Status = StatusWarning
		result.Message = addr + " is not available: " + err.Error()
		result.Suggestion = "Use 'patterndoc serve --port <port>' or set server.port"
		return result
	}
	listener.Close()
	return result
}

func calculateSummary(results []DiagnosticResult) ReportSummary {
	summary := ReportSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			summary.OK++
		case StatusWarning:
			summary.Warnings++
		case StatusError:
			summary.Errors++
		case StatusInfo:
			summary.Info++
		}
	}
	return summary
}

func displayReport(w io.Writer, report *DoctorReport) {
	title := cases.Title(language.English)
	fmt.Fprintln(w, "patterndoc doctor")
	fmt.Fprintln(w, "=================")
	for _, r := range report.Results {
		fmt.Fprintf(w, "[%s] %s: %s\n", title.String(r.Status), r.Name, r.Message)
		if r.Suggestion != "" {
			fmt.Fprintf(w, "    -> %s\n", r.Suggestion)
		}
	}
	s := report.Summary
	fmt.Fprintf(w, "\n%d check(s): %d ok, %d warning(s), %d error(s), %d info\n", s.Total, s.OK, s.Warnings, s.Errors, s.Info)
}
