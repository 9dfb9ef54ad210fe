package renderer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

const doctype = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 4.01//EN">` + "\n"

const stylesheet = `<style>
html body { font-family:"Lucida Grande", verdana, lucida, helvetica, sans-serif; font-size:8pt; }
td { padding:0.2em 0.7em 0.2em 0.7em; }
th { padding:0.2em 0.7em 0.2em 0.7em; background-color:#2c69ca; color:#f8f8f8; }
tr.tableCol1 { background-color:#fcfcfc; }
tr.tableCol2 { background-color:#f7f7f7; }
</style>
`

// Page wraps body in the documentation page frame.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		escaped := templ.EscapeString(title)
		if _, err := io.WriteString(w, doctype+"<html>\n<head>\n<title>"+escaped+"</title>\n"+stylesheet+
			"</head>\n<body>\n<h1>"+escaped+"</h1>\n"); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n</body>\n</html>\n")
		return err
	})
}

// HTMLPage renders a document as a complete page.
func HTMLPage(doc Document) templ.Component {
	return Page(doc.Title, Body(doc.Blocks))
}

// Body renders blocks in order.
func Body(blocks []Block) templ.Component {
	if len(blocks) == 0 {
		return templ.NopComponent
	}
	components := make([]templ.Component, 0, len(blocks))
	for _, b := range blocks {
		components = append(components, blockComponent(b))
	}
	return templ.Join(components...)
}

func blockComponent(b Block) templ.Component {
	switch b := b.(type) {
	case Image:
		return text(`<p style="text-align:center"><img src="` + templ.EscapeString(b.Src) + `"/></p><br/>` + "\n")
	case HTML:
		return templ.Raw(b.Fragment)
	case Heading:
		level := strconv.Itoa(b.Level)
		return text("<h" + level + ">" + templ.EscapeString(b.Text) + "</h" + level + ">\n")
	case Predicate:
		return text("<p><b>Predicate: </b><code>" + templ.EscapeString(b.Text) + "</code></p>\n")
	case Link:
		href := string(templ.URL(b.Href))
		return text(`<a href="` + templ.EscapeString(href) + `">` + templ.EscapeString(b.Text) + "</a><br/>\n")
	case Table:
		return tableComponent(b)
	default:
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			return fmt.Errorf("unsupported block %T", b)
		})
	}
}

func tableComponent(t Table) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString("<table>\n<tr>")
		for _, h := range t.Header {
			buf.WriteString("<th>" + templ.EscapeString(h) + "</th>")
		}
		buf.WriteString("</tr>\n")

		for i, row := range t.Rows {
			buf.WriteString(`<tr class="` + RowClass(t.Striped, i) + `">`)
			for _, cell := range row {
				buf.WriteString("<td>")
				if cell.HTML {
					buf.WriteString(cell.Text)
				} else {
					buf.WriteString(templ.EscapeString(cell.Text))
				}
				buf.WriteString("</td>")
			}
			buf.WriteString("</tr>\n")
		}
		buf.WriteString("</table>\n")

		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RowClass returns the style class of row i (0 based). Striped tables
// start with tableCol2.
func RowClass(striped bool, i int) string {
	if !striped {
		return "tableCol1"
	}
	return "tableCol" + strconv.Itoa((i+1)%2+1)
}

// text writes pre-escaped markup.
func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

// RenderString renders a component to a string.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
