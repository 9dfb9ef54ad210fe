package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/conneroisu/patterndoc/internal/build"
	"github.com/conneroisu/patterndoc/internal/config"
	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/graphviz"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/registry"
	"github.com/conneroisu/patterndoc/internal/scanner"
	"github.com/conneroisu/patterndoc/internal/types"
)

// scanResult is a discovered pattern tree with everything met on the way.
type scanResult struct {
	Tree     types.Entry
	Registry *registry.PatternRegistry
	Errors   *docerrors.Collector
}

// scanPatterns builds the pattern tree of the configured source directory.
func scanPatterns(ctx context.Context, cfg *config.Config, logger logging.Logger) (*scanResult, error) {
	result := &scanResult{
		Registry: registry.NewPatternRegistry(),
		Errors:   docerrors.NewCollector(),
	}

	s := scanner.New(scanner.Options{
		Extension:       cfg.Source.Extension,
		ExcludePatterns: cfg.Source.ExcludePatterns,
		Logger:          logger,
		Errors:          result.Errors,
		Registry:        result.Registry,
	})

	tree, err := s.Build(ctx, cfg.Source.Dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", cfg.Source.Dir, err)
	}
	result.Tree = tree
	return result, nil
}

// probeDiagrams returns the layout tool capability, disabled when the
// configuration turns diagrams off.
func probeDiagrams(cfg *config.Config) graphviz.Capability {
	if !cfg.Graphviz.Enabled {
		return graphviz.Disabled()
	}
	return graphviz.Probe(graphviz.Options{
		Command: cfg.Graphviz.Command,
		Format:  cfg.Graphviz.Format,
		Timeout: cfg.Graphviz.Timeout,
	})
}

// generator creates the site generator for cfg.
func generator(cfg *config.Config, logger logging.Logger, collector *docerrors.Collector, diagrams graphviz.Capability) *build.SiteGenerator {
	return build.NewSiteGenerator(build.Options{
		OutputDir:      cfg.Output.Dir,
		IndexFile:      cfg.Output.Index,
		PageExtension:  cfg.Output.PageExtension,
		ImageExtension: cfg.Output.ImageExtension,
		DPI:            cfg.Graphviz.DPI,
		Clean:          cfg.Output.Clean,
		Logger:         logger,
		Errors:         collector,
	}, diagrams)
}

// generationRun is the outcome of one complete scan and generate pass.
type generationRun struct {
	Scan   *scanResult
	Report *build.Report
}

// Errors returns every recoverable error of the run.
func (r *generationRun) Errors() []error {
	return r.Scan.Errors.Errors()
}

// runGeneration performs a full, serial scan and generate pass. Every
// watch or serve rebuild goes through here as well.
func runGeneration(ctx context.Context, cfg *config.Config, logger logging.Logger, diagrams graphviz.Capability, metrics *build.Metrics) (*generationRun, error) {
	start := time.Now()

	scan, err := scanPatterns(ctx, cfg, logger)
	if err != nil {
		if metrics != nil {
			metrics.RecordRun(nil, time.Since(start))
		}
		return nil, err
	}

	report, err := generator(cfg, logger, scan.Errors, diagrams).Generate(ctx, scan.Tree)
	if metrics != nil {
		metrics.RecordRun(report, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("generating documentation: %w", err)
	}

	for _, dup := range scan.Registry.Duplicates() {
		logger.Warn(ctx, nil, "Pattern page overwritten by a later definition",
			"pattern", dup.QualifiedName,
			"first", dup.First.Pattern.File,
			"second", dup.Second.Pattern.File)
	}

	return &generationRun{Scan: scan, Report: report}, nil
}
