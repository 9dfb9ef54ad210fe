package build

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/graphviz"
	"github.com/conneroisu/patterndoc/internal/renderer"
	"github.com/conneroisu/patterndoc/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func examplePattern(name string) *types.Pattern {
	return &types.Pattern{
		Name: name,
		Nodes: []types.Node{
			{Name: "A", Role: types.RoleInput},
			{Name: "B", DisplayName: "Node B", HasDisplayName: true, Role: types.RoleOutput},
		},
		Edges: []types.Edge{
			{Name: "e1", Role: types.RoleInput, Source: "A", Destination: "B"},
			{Name: "e2", Role: types.RoleOutput, Source: "A", Destination: "B"},
		},
		TriggerGroups: []types.TriggerGroup{
			{EdgeRefs: []string{"e1", "e2"}},
		},
	}
}

func exampleTree() types.Entry {
	return types.NewDirectory("patterns", []types.Entry{
		types.NewPatternEntry(examplePattern("P")),
		types.NewDirectory("sensors", []types.Entry{
			types.NewPatternEntry(examplePattern("Camera")),
			types.NewDirectory("optical", []types.Entry{
				types.NewPatternEntry(examplePattern("Marker")),
			}),
		}),
	})
}

func missingTool() graphviz.Capability {
	return graphviz.Capability{
		Options: graphviz.Options{Command: "dot", Format: "png"},
		Reason:  docerrors.NewToolUnavailableError("dot", exec.ErrNotFound),
	}
}

func fakeTool(t *testing.T) graphviz.Capability {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "dot")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\ncat > \"$3\"\n"), 0755))
	return graphviz.Capability{
		Available: true,
		Path:      path,
		Options:   graphviz.Options{Command: "dot", Format: "png"},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestGenerate_WithoutLayoutTool(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc")
	collector := docerrors.NewCollector()
	gen := NewSiteGenerator(Options{OutputDir: out, Errors: collector}, missingTool())

	report, err := gen.Generate(context.Background(), exampleTree())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 0, report.Diagrams)
	assert.Equal(t, 2, report.Directories)
	assert.Empty(t, report.Errors)
	assert.False(t, collector.HasErrors())
	assert.Equal(t, filepath.Join(out, "index.html"), report.IndexPath)

	assert.FileExists(t, filepath.Join(out, "P.html"))
	assert.FileExists(t, filepath.Join(out, "sensors", "Camera.html"))
	assert.FileExists(t, filepath.Join(out, "sensors", "optical", "Marker.html"))

	var images []string
	require.NoError(t, filepath.WalkDir(out, func(path string, d fs.DirEntry, err error) error {
		if err == nil && filepath.Ext(path) == ".png" {
			images = append(images, path)
		}
		return err
	}))
	assert.Empty(t, images)

	page := readFile(t, filepath.Join(out, "P.html"))
	assert.NotContains(t, page, "<img")
	assert.Contains(t, page, "<h2>Input Nodes</h2>")
	assert.Contains(t, page, "<h2>Push/Pull Configurations</h2>")
	assert.Contains(t, page, `<tr class="tableCol1"><td>pull</td><td>pull</td><td></td></tr>`)
	assert.Contains(t, page, `<tr class="tableCol1"><td>push</td><td>push</td><td></td></tr>`)
}

func TestGenerate_Idempotent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc")
	gen := NewSiteGenerator(Options{OutputDir: out}, graphviz.Disabled())

	_, err := gen.Generate(context.Background(), exampleTree())
	require.NoError(t, err)
	first := map[string]string{}
	for _, rel := range []string{"index.html", "P.html", "sensors/Camera.html", "sensors/optical/Marker.html"} {
		first[rel] = readFile(t, filepath.Join(out, filepath.FromSlash(rel)))
	}

	report, err := gen.Generate(context.Background(), exampleTree())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Pages)
	for rel, content := range first {
		assert.Equal(t, content, readFile(t, filepath.Join(out, filepath.FromSlash(rel))), rel)
	}
}

func TestGenerate_WithLayoutTool(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc")
	gen := NewSiteGenerator(Options{OutputDir: out, DPI: 96}, fakeTool(t))

	report, err := gen.Generate(context.Background(), exampleTree())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 3, report.Diagrams)

	graph := readFile(t, filepath.Join(out, "sensors", "Camera.png"))
	assert.True(t, strings.HasPrefix(graph, "digraph G { rankdir=LR; dpi=96;\n"))
	assert.Contains(t, graph, "A -> B [label=\"e1\" style=dashed")

	page := readFile(t, filepath.Join(out, "P.html"))
	assert.Contains(t, page, `<img src="P.png"/>`)
	// No node carries content, so the diagram replaces the node sections.
	assert.NotContains(t, page, "<h2>Input Nodes</h2>")
}

func TestGenerate_SkipsUnwritableDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc")
	require.NoError(t, os.MkdirAll(out, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "sensors"), []byte("in the way"), 0644))

	collector := docerrors.NewCollector()
	gen := NewSiteGenerator(Options{OutputDir: out, Errors: collector}, graphviz.Disabled())

	report, err := gen.Generate(context.Background(), exampleTree())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 2, report.Skipped)
	require.Len(t, collector.ByType(docerrors.ErrorTypeIO), 1)
	assert.FileExists(t, filepath.Join(out, "P.html"))
	assert.FileExists(t, filepath.Join(out, "index.html"))
}

func TestGenerate_ReportsPatternProblems(t *testing.T) {
	broken := examplePattern("Broken")
	broken.TriggerGroups = append(broken.TriggerGroups, types.TriggerGroup{Name: "g", EdgeRefs: []string{"missing"}})

	tree := types.NewDirectory("patterns", []types.Entry{
		types.NewPatternEntry(broken),
		types.NewPatternEntry(&types.Pattern{Name: "../escape"}),
	})

	out := filepath.Join(t.TempDir(), "doc")
	collector := docerrors.NewCollector()
	gen := NewSiteGenerator(Options{OutputDir: out, Errors: collector}, graphviz.Disabled())

	report, err := gen.Generate(context.Background(), tree)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, collector.ByType(docerrors.ErrorTypeReference), 1)
	assert.Len(t, collector.ByType(docerrors.ErrorTypeValidation), 1)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(out), "escape.html"))

	page := readFile(t, filepath.Join(out, "Broken.html"))
	assert.Contains(t, page, "<th>e1</th><th>e2</th><th>condition</th>")
}

func TestGenerate_Clean(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc")
	require.NoError(t, os.MkdirAll(out, 0755))
	stale := filepath.Join(out, "Stale.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	gen := NewSiteGenerator(Options{OutputDir: out, Clean: true}, graphviz.Disabled())
	_, err := gen.Generate(context.Background(), exampleTree())
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(out, "P.html"))
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewSiteGenerator(Options{OutputDir: filepath.Join(t.TempDir(), "doc")}, graphviz.Disabled())
	_, err := gen.Generate(ctx, exampleTree())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidatePatternName(t *testing.T) {
	assert.NoError(t, validatePatternName("MarkerTracker"))
	assert.NoError(t, validatePatternName("2D-6D Fusion"))
	assert.Error(t, validatePatternName(""))
	assert.Error(t, validatePatternName(".."))
	assert.Error(t, validatePatternName("a/b"))
	assert.Error(t, validatePatternName(`a\b`))
}

func TestBuildIndex(t *testing.T) {
	tree := exampleTree()
	tree.Children[1].Children[0].Pattern.DisplayName = "Video Camera"
	tree.Children[1].Children[0].Pattern.HasDisplayName = true

	doc := BuildIndex(tree, ".html")
	assert.Equal(t, IndexTitle, doc.Title)
	assert.Equal(t, []renderer.Block{
		renderer.Link{Href: "./P.html", Text: "P"},
		renderer.Heading{Level: 2, Text: "sensors Patterns"},
		renderer.Link{Href: "./sensors/Camera.html", Text: "Video Camera [Camera]"},
		renderer.Heading{Level: 3, Text: "optical Patterns"},
		renderer.Link{Href: "./sensors/optical/Marker.html", Text: "Marker"},
	}, doc.Blocks)
}

func TestBuildIndex_PatternsBeforeDirectories(t *testing.T) {
	tree := types.NewDirectory("patterns", []types.Entry{
		types.NewDirectory("a", []types.Entry{types.NewPatternEntry(&types.Pattern{Name: "X"})}),
		types.NewPatternEntry(&types.Pattern{Name: "Z"}),
	})

	doc := BuildIndex(tree, ".htm")
	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, renderer.Link{Href: "./Z.htm", Text: "Z"}, doc.Blocks[0])
	assert.Equal(t, renderer.Heading{Level: 2, Text: "a Patterns"}, doc.Blocks[1])
}

func TestWriteIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, WriteIndex(context.Background(), exampleTree(), path, ".html"))

	index := readFile(t, path)
	assert.Contains(t, index, "<title>List of Patterns</title>")
	assert.Contains(t, index, `<a href="./P.html">P</a><br/>`)
	assert.Contains(t, index, "<h2>sensors Patterns</h2>")
	assert.Contains(t, index, "<h3>optical Patterns</h3>")
	assert.Contains(t, index, `<a href="./sensors/optical/Marker.html">Marker</a><br/>`)
}

func TestMetrics(t *testing.T) {
	metrics := NewMetrics()
	assert.Equal(t, 0.0, metrics.GetSuccessRate())

	metrics.RecordRun(&Report{Pages: 3}, 20*time.Millisecond)
	metrics.RecordRun(&Report{Pages: 1, Errors: []error{assert.AnError}}, 40*time.Millisecond)
	metrics.RecordRun(nil, 0)

	snapshot := metrics.GetSnapshot()
	assert.Equal(t, int64(3), snapshot.TotalRuns)
	assert.Equal(t, int64(1), snapshot.SuccessfulRuns)
	assert.Equal(t, int64(2), snapshot.FailedRuns)
	assert.Equal(t, int64(4), snapshot.PagesWritten)
	assert.Equal(t, 20*time.Millisecond, snapshot.AverageDuration)
	assert.InDelta(t, 33.33, metrics.GetSuccessRate(), 0.01)

	metrics.Reset()
	assert.Equal(t, int64(0), metrics.GetSnapshot().TotalRuns)
}
