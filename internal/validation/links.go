package validation

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// linkAttributes maps elements to the attribute holding their reference.
var linkAttributes = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
}

// BrokenLink is a relative reference that names no file of the site.
type BrokenLink struct {
	// File is the page holding the link, relative to the site root
	File string `json:"file" yaml:"file"`
	// Target is the reference as written
	Target string `json:"target" yaml:"target"`
}

// LinkReport summarizes a site check.
type LinkReport struct {
	Pages  int          `json:"pages" yaml:"pages"`
	Links  int          `json:"links" yaml:"links"`
	Broken []BrokenLink `json:"broken,omitempty" yaml:"broken,omitempty"`
}

// OK reports whether every checked link resolved.
func (r *LinkReport) OK() bool {
	return len(r.Broken) == 0
}

// CheckSite parses every HTML page below root and verifies that each
// relative href or src resolves to an existing file. External URLs and
// in-page fragments are not followed.
func CheckSite(ctx context.Context, root string) (*LinkReport, error) {
	report := &LinkReport{}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		links, err := pageLinks(p)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", rel, err)
		}

		report.Pages++
		for _, link := range links {
			target, ok := localTarget(link)
			if !ok {
				continue
			}
			report.Links++
			resolved := filepath.Join(filepath.Dir(p), filepath.FromSlash(target))
			if _, err := os.Stat(resolved); err != nil {
				report.Broken = append(report.Broken, BrokenLink{File: filepath.ToSlash(rel), Target: link})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(report.Broken, func(i, j int) bool {
		return report.Broken[i].File < report.Broken[j].File
	})
	return report, nil
}

// pageLinks returns the references of a page in document order.
func pageLinks(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	var links []string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttributes[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key == attr && a.Val != "" {
						links = append(links, a.Val)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return links, nil
}

// localTarget returns the file path part of a relative reference.
func localTarget(ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	if path.IsAbs(u.Path) {
		return "", false
	}
	return u.Path, true
}
