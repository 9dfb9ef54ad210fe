package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/registry"
	"github.com/conneroisu/patterndoc/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func patternFile(names ...string) string {
	s := "<Patterns>"
	for _, n := range names {
		s += `<Pattern name="` + n + `"/>`
	}
	return s + "</Patterns>"
}

func entryNames(entries []types.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func TestNew(t *testing.T) {
	s := New(Options{})

	assert.NotNil(t, s)
	assert.Equal(t, DefaultExtension, s.extension)
	assert.NotNil(t, s.Errors())
}

func TestBuild_SortsAndSplices(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.xml"), patternFile("B1", "B2"))
	writeFile(t, filepath.Join(root, "a.xml"), patternFile("A"))
	writeFile(t, filepath.Join(root, "notes.txt"), "not a pattern")
	writeFile(t, filepath.Join(root, "sub", "c.xml"), patternFile("C"))

	tree, err := New(Options{}).Build(context.Background(), root)
	require.NoError(t, err)

	assert.True(t, tree.IsDirectory())
	assert.Equal(t, filepath.Base(root), tree.Name)
	assert.Equal(t, []string{"A", "B1", "B2", "sub"}, entryNames(tree.Children))
	assert.Equal(t, types.KindPattern, tree.Children[0].Kind)

	sub := tree.Children[3]
	assert.True(t, sub.IsDirectory())
	assert.Equal(t, []string{"C"}, entryNames(sub.Children))
	assert.Equal(t, 4, tree.Count())
}

func TestBuild_PrunesEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "deeper", "deepest"), 0755))
	writeFile(t, filepath.Join(root, "only-text", "readme.txt"), "hello")
	writeFile(t, filepath.Join(root, "kept", "inner", "p.xml"), patternFile("P"))
	writeFile(t, filepath.Join(root, "kept", "hollow", "x.xml"), "<Empty/>")

	tree, err := New(Options{}).Build(context.Background(), root)
	require.NoError(t, err)

	require.Equal(t, []string{"kept"}, entryNames(tree.Children))
	kept := tree.Children[0]
	require.Equal(t, []string{"inner"}, entryNames(kept.Children))

	err = tree.Walk(func(dir string, e types.Entry) error {
		assert.False(t, e.IsEmpty(), "directory %s/%s should have been pruned", dir, e.Name)
		return nil
	})
	require.NoError(t, err)
}

func TestBuild_EmptyRoot(t *testing.T) {
	tree, err := New(Options{}).Build(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, tree.IsEmpty())
}

func TestBuild_SkipsMalformedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.xml"), "<Pattern name=\"Broken\">\n<Node>")
	writeFile(t, filepath.Join(root, "b.xml"), patternFile("Good"))

	collector := docerrors.NewCollector()
	tree, err := New(Options{Errors: collector}).Build(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"Good"}, entryNames(tree.Children))
	require.Equal(t, 1, collector.Count())
	assert.True(t, docerrors.IsParseError(collector.Errors()[0]))
	assert.Len(t, collector.ByFile(filepath.Join(root, "a.xml")), 1)
}

func TestBuild_HiddenAndExcluded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "x.xml"), patternFile("Hidden"))
	writeFile(t, filepath.Join(root, "draft.bak.xml"), patternFile("Draft"))
	writeFile(t, filepath.Join(root, "final.xml"), patternFile("Final"))

	s := New(Options{ExcludePatterns: []string{"*.bak.xml"}})
	tree, err := s.Build(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"Final"}, entryNames(tree.Children))
}

func TestBuild_CustomExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.utql"), patternFile("U"))
	writeFile(t, filepath.Join(root, "b.xml"), patternFile("X"))

	tree, err := New(Options{Extension: ".utql"}).Build(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"U"}, entryNames(tree.Children))
}

func TestBuild_RegistersPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "one.xml"), patternFile("Same"))
	writeFile(t, filepath.Join(root, "two.xml"), patternFile("Same"))
	writeFile(t, filepath.Join(root, "nested", "n.xml"), patternFile("Same"))

	reg := registry.NewPatternRegistry()
	_, err := New(Options{Registry: reg}).Build(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Count())
	_, ok := reg.Get("nested/Same")
	assert.True(t, ok)
	assert.Len(t, reg.Duplicates(), 1)
}

func TestBuild_SymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "p.xml"), patternFile("P"))
	if err := os.Symlink(root, filepath.Join(root, "a", "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	tree, err := New(Options{}).Build(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Count())
}

func TestBuild_SymlinkBeforeTarget(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z", "p.xml"), patternFile("P"))
	if err := os.Symlink(filepath.Join(root, "z"), filepath.Join(root, "a_link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	tree, err := New(Options{}).Build(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_link", "z"}, entryNames(tree.Children))
	assert.Equal(t, 2, tree.Count())
}

func TestBuild_Errors(t *testing.T) {
	_, err := New(Options{}).Build(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, docerrors.IsIOError(err))

	file := filepath.Join(t.TempDir(), "file.xml")
	writeFile(t, file, patternFile("P"))
	_, err = New(Options{}).Build(context.Background(), file)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(Options{}).Build(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
