// Package graphviz runs the external Graphviz layout tool that turns the
// textual graph of a pattern into an image.
//
// Availability is probed once with Probe and carried as a Capability value;
// callers pass it along explicitly instead of consulting global state. When
// the tool is missing every diagram is skipped and the documentation is
// produced without images.
package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/validation"
)

// Options configure the layout tool.
type Options struct {
	// Command is the layout program, "dot" when empty
	Command string
	// Format is the image format passed as -T, "png" when empty
	Format string
	// Timeout bounds one invocation; zero means no limit
	Timeout time.Duration
}

// Capability is the probed availability of the layout tool.
type Capability struct {
	Available bool
	// Path is the resolved executable
	Path    string
	Options Options
	// Reason explains why the tool is unavailable
	Reason error
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Probe resolves the layout command. It never fails; an unusable tool
// yields a Capability with Available false and the reason recorded.
func Probe(opts Options) Capability {
	if opts.Command == "" {
		opts.Command = "dot"
	}
	if opts.Format == "" {
		opts.Format = "png"
	}

	capability := Capability{Options: opts}

	if err := validation.ValidateCommand(opts.Command, validation.LayoutEngines); err != nil {
		capability.Reason = docerrors.NewToolUnavailableError(opts.Command, err)
		return capability
	}
	if err := validation.ValidateArgument(opts.Format); err != nil {
		capability.Reason = docerrors.NewToolUnavailableError(opts.Command, fmt.Errorf("format: %w", err))
		return capability
	}

	path, err := lookPath(opts.Command)
	if err != nil {
		capability.Reason = docerrors.NewToolUnavailableError(opts.Command, err)
		return capability
	}

	capability.Available = true
	capability.Path = path
	return capability
}

// Disabled returns a capability that never renders, used for --no-diagrams.
func Disabled() Capability {
	return Capability{Reason: fmt.Errorf("diagrams disabled")}
}

// Args returns the command line arguments for writing outPath.
func (c Capability) Args(outPath string) []string {
	return []string{"-T" + c.Options.Format, "-o", outPath}
}

// Render feeds the graph description to the layout tool on standard input
// and lets it write the image to outPath.
func (c Capability) Render(ctx context.Context, dot string, outPath string) error {
	if !c.Available {
		if c.Reason != nil {
			return c.Reason
		}
		return docerrors.NewToolUnavailableError(c.Options.Command, nil)
	}

	if c.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Options.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args(outPath)...)
	cmd.Stdin = strings.NewReader(dot)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return docerrors.NewToolFailedError(c.Options.Command, "timed out", ctx.Err()).
				WithContext("output", outPath)
		}
		return docerrors.NewToolFailedError(c.Options.Command, output.String(), err).
			WithContext("output", outPath)
	}

	return nil
}
