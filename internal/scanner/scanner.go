// Package scanner discovers pattern definition files and builds the pattern
// tree the documentation is generated from.
//
// The scanner walks a source directory in lexicographic order, parses every
// file carrying the configured extension and splices the patterns it contains
// as leaves at the current level. Subdirectories that hold no patterns, even
// transitively, are pruned. A malformed file or an unreadable directory is
// logged and skipped so that one bad input never hides its siblings.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/registry"
	"github.com/conneroisu/patterndoc/internal/types"
)

// DefaultExtension is the suffix of pattern definition files.
const DefaultExtension = ".xml"

// Options configures a Scanner. Zero values are usable.
type Options struct {
	// Extension selects pattern files, ".xml" when empty
	Extension string
	// ExcludePatterns are filepath.Match globs applied to entry names
	ExcludePatterns []string
	Logger          logging.Logger
	// Errors receives every recoverable error met during the walk
	Errors *docerrors.Collector
	// Registry receives every discovered pattern
	Registry *registry.PatternRegistry
}

// Scanner builds pattern trees.
type Scanner struct {
	extension string
	exclude   []string
	logger    logging.Logger
	errors    *docerrors.Collector
	handler   *docerrors.ErrorHandler
	registry  *registry.PatternRegistry
	// visited holds the resolved paths of the directories on the current
	// recursion path, so symlink cycles terminate
	visited map[string]bool
}

// New creates a scanner.
func New(opts Options) *Scanner {
	ext := opts.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("scanner")
	collector := opts.Errors
	if collector == nil {
		collector = docerrors.NewCollector()
	}

	return &Scanner{
		extension: ext,
		exclude:   opts.ExcludePatterns,
		logger:    logger,
		errors:    collector,
		handler:   docerrors.NewErrorHandler(logger),
		registry:  opts.Registry,
	}
}

// Errors returns the collector the scanner reports into.
func (s *Scanner) Errors() *docerrors.Collector {
	return s.errors
}

// Build walks dir and returns the pruned pattern tree. The root entry is
// named after dir and is the only directory allowed to be empty. An error is
// returned only when dir itself cannot be read or ctx is cancelled.
func (s *Scanner) Build(ctx context.Context, dir string) (types.Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return types.Entry{}, docerrors.NewIOReadError(dir, err)
	}
	if !info.IsDir() {
		return types.Entry{}, docerrors.NewIOReadError(dir, fmt.Errorf("not a directory"))
	}

	s.visited = make(map[string]bool)
	defer func() { s.visited = nil }()

	children, err := s.buildDir(ctx, dir, "")
	if err != nil {
		return types.Entry{}, err
	}

	root := types.NewDirectory(filepath.Base(filepath.Clean(dir)), children)
	s.logger.Debug(ctx, "Pattern tree built",
		"dir", dir,
		"patterns", root.Count())
	return root, nil
}

// buildDir returns the children of the directory at fsPath. rel is the slash
// separated path relative to the source root.
func (s *Scanner) buildDir(ctx context.Context, fsPath, rel string) ([]types.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Only directories on the current recursion path are tracked.
	if real, err := filepath.EvalSymlinks(fsPath); err == nil {
		if s.visited[real] {
			s.logger.Debug(ctx, "Skipping symlink cycle", "dir", fsPath)
			return nil, nil
		}
		s.visited[real] = true
		defer delete(s.visited, real)
	}

	// os.ReadDir sorts by file name.
	entries, err := os.ReadDir(fsPath)
	if err != nil {
		if rel == "" {
			return nil, docerrors.NewIOReadError(fsPath, err)
		}
		s.report(ctx, docerrors.NewIOReadError(fsPath, err))
		return nil, nil
	}

	var children []types.Entry
	for _, entry := range entries {
		name := entry.Name()
		if s.skip(name) {
			continue
		}
		childPath := filepath.Join(fsPath, name)

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(childPath)
			if err != nil {
				s.logger.Debug(ctx, "Skipping dangling symlink", "path", childPath)
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			sub, err := s.buildDir(ctx, childPath, path.Join(rel, name))
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 {
				children = append(children, types.NewDirectory(name, sub))
			}
			continue
		}

		if !strings.HasSuffix(name, s.extension) {
			continue
		}
		for _, p := range s.scanFile(ctx, childPath, rel) {
			children = append(children, types.NewPatternEntry(p))
		}
	}

	return children, nil
}

// scanFile parses one definition file. Parse failures are reported and yield
// no patterns.
func (s *Scanner) scanFile(ctx context.Context, fsPath, rel string) []*types.Pattern {
	patterns, err := ParseFile(fsPath)
	if err != nil {
		s.report(ctx, err)
		return nil
	}

	result := make([]*types.Pattern, 0, len(patterns))
	for i := range patterns {
		p := &patterns[i]
		if p.Name == "" {
			s.report(ctx, docerrors.NewValidationError("ERR_UNNAMED_PATTERN",
				"pattern without a name attribute").
				WithLocation(fsPath, p.Line, 0))
			continue
		}
		if s.registry != nil && !s.registry.Register(rel, p) {
			s.logger.Warn(ctx, nil, "Duplicate pattern name, later definition overwrites the page",
				"pattern", registry.QualifiedName(rel, p.Name),
				"file", fsPath)
		}
		result = append(result, p)
	}

	s.logger.Debug(ctx, "Scanned pattern file", "file", fsPath, "patterns", len(result))
	return result
}

func (s *Scanner) report(ctx context.Context, err error) {
	s.errors.Add(err)
	s.handler.Handle(ctx, err)
}

// skip reports whether an entry name is hidden or excluded.
func (s *Scanner) skip(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range s.exclude {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
