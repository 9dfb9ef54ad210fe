package validation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePage(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCheckSite(t *testing.T) {
	root := t.TempDir()
	writePage(t, filepath.Join(root, "index.html"), `<html><body>
<a href="./A.html">A</a><br/>
<a href="./sub/B.html">B</a><br/>
<a href="./sub/Missing.html">Missing</a><br/>
<a href="https://example.com/">external</a>
<a href="#top">fragment</a>
<a href="mailto:someone@example.com">mail</a>
</body></html>`)
	writePage(t, filepath.Join(root, "A.html"), `<html><body><p><img src="A.png"/></p></body></html>`)
	writePage(t, filepath.Join(root, "A.png"), "png")
	writePage(t, filepath.Join(root, "sub", "B.html"), `<html><body><img src="B.png"/><a href="../A.html?x=1#frag">up</a></body></html>`)

	report, err := CheckSite(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 6, report.Links)
	assert.False(t, report.OK())
	assert.Equal(t, []BrokenLink{
		{File: "index.html", Target: "./sub/Missing.html"},
		{File: "sub/B.html", Target: "B.png"},
	}, report.Broken)
}

func TestCheckSite_Clean(t *testing.T) {
	root := t.TempDir()
	writePage(t, filepath.Join(root, "index.html"), `<a href="./P.html">P</a>`)
	writePage(t, filepath.Join(root, "P.html"), `<h1>P</h1>`)

	report, err := CheckSite(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Links)
}

func TestCheckSite_MissingRoot(t *testing.T) {
	_, err := CheckSite(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLocalTarget(t *testing.T) {
	tests := []struct {
		ref    string
		target string
		ok     bool
	}{
		{"./a/b.html", "./a/b.html", true},
		{"b.html#x", "b.html", true},
		{"http://example.com/a.html", "", false},
		{"//cdn.example.com/x.js", "", false},
		{"#only", "", false},
		{"/absolute.html", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			target, ok := localTarget(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.target, target)
		})
	}
}
