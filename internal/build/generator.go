// Package build writes the documentation site for a pattern tree.
//
// The generator mirrors the tree onto the output directory: every directory
// entry becomes a directory, every pattern a page and, when the layout tool
// is available, a diagram next to it. The index page lists all patterns
// grouped by directory. Generation runs serially; a failure to write one
// document is reported and the run moves on to the next one.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/graphviz"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/model"
	"github.com/conneroisu/patterndoc/internal/renderer"
	"github.com/conneroisu/patterndoc/internal/types"
)

// Options configures site generation. Empty fields take the defaults of
// the config package.
type Options struct {
	OutputDir      string
	IndexFile      string
	PageExtension  string
	ImageExtension string
	// DPI is written into every graph, renderer.DefaultDPI when zero
	DPI int
	// Clean removes the output directory before generating
	Clean  bool
	Logger logging.Logger
	// Errors receives every recoverable error of the run
	Errors *docerrors.Collector
}

// Report summarizes one generation run.
type Report struct {
	Pages       int           `json:"pages" yaml:"pages"`
	Diagrams    int           `json:"diagrams" yaml:"diagrams"`
	Directories int           `json:"directories" yaml:"directories"`
	Skipped     int           `json:"skipped" yaml:"skipped"`
	IndexPath   string        `json:"index" yaml:"index"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	Errors      []error       `json:"-" yaml:"-"`
}

// SiteGenerator writes documentation sites.
type SiteGenerator struct {
	opts     Options
	diagrams graphviz.Capability
	logger   logging.Logger
	handler  *docerrors.ErrorHandler
	errors   *docerrors.Collector
}

// NewSiteGenerator creates a generator. diagrams is the probed layout tool;
// pass graphviz.Disabled() to produce pages only.
func NewSiteGenerator(opts Options, diagrams graphviz.Capability) *SiteGenerator {
	if opts.OutputDir == "" {
		opts.OutputDir = "patterns-doc"
	}
	if opts.IndexFile == "" {
		opts.IndexFile = "index.html"
	}
	if opts.PageExtension == "" {
		opts.PageExtension = ".html"
	}
	if opts.ImageExtension == "" {
		opts.ImageExtension = ".png"
	}
	if opts.DPI <= 0 {
		opts.DPI = renderer.DefaultDPI
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("build")

	collector := opts.Errors
	if collector == nil {
		collector = docerrors.NewCollector()
	}

	return &SiteGenerator{
		opts:     opts,
		diagrams: diagrams,
		logger:   logger,
		handler:  docerrors.NewErrorHandler(logger),
		errors:   collector,
	}
}

// Generate writes the site for root. It fails only when the output
// directory cannot be prepared or ctx is cancelled; everything else is
// recorded in the report and the error collector.
func (g *SiteGenerator) Generate(ctx context.Context, root types.Entry) (*Report, error) {
	start := time.Now()
	report := &Report{}

	if g.opts.Clean {
		if err := g.clean(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(g.opts.OutputDir, 0755); err != nil {
		return nil, docerrors.NewIOWriteError(g.opts.OutputDir, err)
	}

	if !g.diagrams.Available {
		if docerrors.IsToolError(g.diagrams.Reason) {
			g.handler.Handle(ctx, g.diagrams.Reason)
		} else {
			g.logger.Debug(ctx, "Diagrams disabled")
		}
	}

	if err := g.generateDir(ctx, root.Children, g.opts.OutputDir, report); err != nil {
		return nil, err
	}

	indexPath := filepath.Join(g.opts.OutputDir, g.opts.IndexFile)
	if err := WriteIndex(ctx, root, indexPath, g.opts.PageExtension); err != nil {
		g.report(ctx, report, docerrors.NewIOWriteError(indexPath, err))
	} else {
		report.IndexPath = indexPath
	}

	report.Duration = time.Since(start)
	g.logger.Info(ctx, "Documentation generated",
		"output", g.opts.OutputDir,
		"pages", report.Pages,
		"diagrams", report.Diagrams,
		"skipped", report.Skipped,
		"duration_ms", report.Duration.Milliseconds())

	return report, nil
}

func (g *SiteGenerator) generateDir(ctx context.Context, entries []types.Entry, dir string, report *Report) error {
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDirectory() {
			sub := filepath.Join(dir, entry.Name)
			if err := os.MkdirAll(sub, 0755); err != nil {
				report.Skipped += entry.Count()
				g.report(ctx, report, docerrors.NewIOWriteError(sub, err))
				continue
			}
			report.Directories++
			if err := g.generateDir(ctx, entry.Children, sub, report); err != nil {
				return err
			}
			continue
		}

		g.generatePattern(ctx, entry.Pattern, dir, report)
	}
	return nil
}

func (g *SiteGenerator) generatePattern(ctx context.Context, p *types.Pattern, dir string, report *Report) {
	if err := validatePatternName(p.Name); err != nil {
		report.Skipped++
		g.report(ctx, report, docerrors.NewValidationError("ERR_PATTERN_NAME", err.Error()).
			WithPattern(p.Name).
			WithLocation(p.File, p.Line, 0))
		return
	}

	m, errs := model.Extract(p)
	for _, err := range errs {
		g.report(ctx, report, err)
	}

	doc, errs := renderer.BuildDocument(m, renderer.Options{
		Diagrams:       g.diagrams.Available,
		ImageExtension: g.opts.ImageExtension,
	})
	for _, err := range errs {
		g.report(ctx, report, docerrors.NewValidationError("ERR_TRIGGER_GROUP", err.Error()).
			WithPattern(p.Name).
			WithLocation(p.File, p.Line, 0))
	}

	pagePath := filepath.Join(dir, p.Name+g.opts.PageExtension)
	var buf bytes.Buffer
	if err := renderer.HTMLPage(doc).Render(ctx, &buf); err != nil {
		report.Skipped++
		g.report(ctx, report, docerrors.NewInternalError("ERR_RENDER", "rendering page failed", err).WithPattern(p.Name))
		return
	}
	if err := os.WriteFile(pagePath, buf.Bytes(), 0644); err != nil {
		report.Skipped++
		g.report(ctx, report, docerrors.NewIOWriteError(pagePath, err).WithPattern(p.Name))
		return
	}
	report.Pages++
	g.logger.Debug(ctx, "Wrote page", "pattern", p.Name, "path", pagePath)

	if !g.diagrams.Available {
		return
	}

	graph := renderer.BuildGraph(m)
	graph.DPI = g.opts.DPI
	imagePath := filepath.Join(dir, p.Name+g.opts.ImageExtension)
	if err := g.diagrams.Render(ctx, graph.DOT(), imagePath); err != nil {
		var de *docerrors.DocError
		if errors.As(err, &de) {
			err = de.WithPattern(p.Name)
		}
		g.report(ctx, report, err)
		return
	}
	report.Diagrams++
}

func (g *SiteGenerator) report(ctx context.Context, report *Report, err error) {
	report.Errors = append(report.Errors, err)
	g.errors.Add(err)
	g.handler.Handle(ctx, err)
}

// clean removes the output directory. The working directory and the
// filesystem root are never removed.
func (g *SiteGenerator) clean() error {
	abs, err := filepath.Abs(g.opts.OutputDir)
	if err != nil {
		return docerrors.NewIOWriteError(g.opts.OutputDir, err)
	}
	wd, _ := os.Getwd()
	if abs == filepath.Dir(abs) || abs == wd {
		return docerrors.NewConfigError("ERR_CLEAN_REFUSED",
			fmt.Sprintf("refusing to clean %s", abs))
	}
	if err := os.RemoveAll(abs); err != nil {
		return docerrors.NewIOWriteError(abs, err)
	}
	return nil
}

// validatePatternName rejects names that cannot be used as a file name
// inside the output directory.
func validatePatternName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid pattern name %q", name)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("pattern name %q contains a path separator", name)
	}
	return nil
}
