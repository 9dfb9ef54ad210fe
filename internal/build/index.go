package build

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/conneroisu/patterndoc/internal/model"
	"github.com/conneroisu/patterndoc/internal/renderer"
	"github.com/conneroisu/patterndoc/internal/types"
)

// IndexTitle is the title of the table of contents.
const IndexTitle = "List of Patterns"

// BuildIndex lays out the table of contents. Each level lists its patterns
// first, then one section per subdirectory whose heading level grows with
// the nesting depth (h2 for top level directories).
func BuildIndex(root types.Entry, pageExtension string) renderer.Document {
	doc := renderer.Document{Title: IndexTitle}
	doc.Blocks = indexLevel(doc.Blocks, root.Children, ".", pageExtension)
	return doc
}

func indexLevel(blocks []renderer.Block, entries []types.Entry, subdir, pageExtension string) []renderer.Block {
	for _, e := range entries {
		if e.IsDirectory() {
			continue
		}
		blocks = append(blocks, renderer.Link{
			Href: subdir + "/" + e.Pattern.Name + pageExtension,
			Text: model.Pretty(*e.Pattern, model.DisplayFirst),
		})
	}

	level := len(strings.Split(subdir, "/")) + 1
	for _, e := range entries {
		if !e.IsDirectory() {
			continue
		}
		blocks = append(blocks, renderer.Heading{Level: level, Text: e.Name + " Patterns"})
		blocks = indexLevel(blocks, e.Children, subdir+"/"+e.Name, pageExtension)
	}
	return blocks
}

// WriteIndex renders the table of contents of root to path.
func WriteIndex(ctx context.Context, root types.Entry, path, pageExtension string) error {
	var buf bytes.Buffer
	if err := renderer.HTMLPage(BuildIndex(root, pageExtension)).Render(ctx, &buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
