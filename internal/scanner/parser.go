package scanner

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/types"
	"golang.org/x/net/html/charset"
)

// Element names of the pattern definition format. Matching ignores any
// namespace prefix.
const (
	tagPattern      = "Pattern"
	tagInput        = "Input"
	tagOutput       = "Output"
	tagNode         = "Node"
	tagEdge         = "Edge"
	tagDescription  = "Description"
	tagPredicate    = "Predicate"
	tagAttribute    = "Attribute"
	tagDataflow     = "DataflowConfiguration"
	tagTriggerGroup = "TriggerGroup"
)

// xmlNode is the minimal document tree the parser builds before mapping it
// onto the typed model. Text nodes have an empty name.
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     string
	line     int
}

func (n *xmlNode) isElement() bool {
	return n.name != ""
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name && a.Name.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) attrValue(name string) string {
	v, _ := n.attr(name)
	return v
}

// childElements returns the direct element children named name.
func (n *xmlNode) childElements(name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// descendants returns every element named name below n in document order.
// The search does not enter nested Pattern elements, which are documented
// on their own.
func (n *xmlNode) descendants(name string) []*xmlNode {
	var out []*xmlNode
	var visit func(*xmlNode)
	visit = func(cur *xmlNode) {
		for _, c := range cur.children {
			if !c.isElement() {
				continue
			}
			if c.name == name {
				out = append(out, c)
			}
			if c.name != tagPattern {
				visit(c)
			}
		}
	}
	visit(n)
	return out
}

// ParseFile reads a pattern definition file and returns every pattern it
// contains in document order. Malformed input yields a parse error carrying
// the offending line.
func ParseFile(path string) ([]types.Pattern, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, docerrors.NewIOReadError(path, err)
	}
	defer file.Close()

	return Parse(file, path)
}

// Parse decodes pattern definitions from r. name is used for error
// locations and recorded as the source file of each pattern.
func Parse(r io.Reader, name string) ([]types.Pattern, error) {
	root, err := decodeTree(r)
	if err != nil {
		line := 0
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			line = syntaxErr.Line
		}
		var located *lineError
		if errors.As(err, &located) {
			line = located.line
		}
		return nil, docerrors.NewParseError(name, line, err)
	}

	var patterns []types.Pattern
	var visit func(*xmlNode)
	visit = func(n *xmlNode) {
		if n.name == tagPattern {
			patterns = append(patterns, buildPattern(n, name))
		}
		for _, c := range n.children {
			if c.isElement() {
				visit(c)
			}
		}
	}
	visit(root)

	return patterns, nil
}

type lineError struct {
	line int
	err  error
}

func (e *lineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.line, e.err)
}

func (e *lineError) Unwrap() error {
	return e.err
}

// decodeTree builds the document tree. Character data is kept everywhere so
// descriptions and predicates can be reproduced verbatim.
func decodeTree(r io.Reader) (*xmlNode, error) {
	decoder := xml.NewDecoder(r)
	decoder.Entity = xml.HTMLEntity
	// Definition files may declare any encoding, e.g. ISO-8859-1.
	decoder.CharsetReader = charset.NewReaderLabel

	var root *xmlNode
	var stack []*xmlNode

	for {
		line, _ := decoder.InputPos()
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &xmlNode{name: t.Name.Local, attrs: t.Copy().Attr, line: line}
			if len(stack) == 0 {
				if root != nil {
					return nil, &lineError{line: line, err: errors.New("multiple root elements")}
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, &xmlNode{text: string(t)})
		}
	}

	if root == nil {
		return nil, &lineError{line: 1, err: errors.New("no element found")}
	}
	return root, nil
}

func buildPattern(n *xmlNode, file string) types.Pattern {
	display, hasDisplay := n.attr("displayName")
	p := types.Pattern{
		Name:           n.attrValue("name"),
		DisplayName:    display,
		HasDisplayName: hasDisplay,
		Description:    description(n),
		File:           file,
		Line:           n.line,
	}

	for _, container := range n.children {
		var role types.Role
		switch container.name {
		case tagInput:
			role = types.RoleInput
		case tagOutput:
			role = types.RoleOutput
		default:
			continue
		}
		for _, c := range container.children {
			switch c.name {
			case tagNode:
				p.Nodes = append(p.Nodes, buildNode(c, role))
			case tagEdge:
				p.Edges = append(p.Edges, buildEdge(c, role))
			}
		}
	}

	for _, df := range n.descendants(tagDataflow) {
		p.Dataflow = append(p.Dataflow, types.DataflowConfiguration{Attributes: attributes(df)})
	}

	for _, tg := range n.descendants(tagTriggerGroup) {
		group := types.TriggerGroup{Name: tg.attrValue("name")}
		for _, ref := range tg.descendants(tagEdge) {
			group.EdgeRefs = append(group.EdgeRefs, ref.attrValue("edge-ref"))
		}
		p.TriggerGroups = append(p.TriggerGroups, group)
	}

	return p
}

func buildNode(n *xmlNode, role types.Role) types.Node {
	display, hasDisplay := n.attr("displayName")
	return types.Node{
		Name:           n.attrValue("name"),
		DisplayName:    display,
		HasDisplayName: hasDisplay,
		Role:           role,
		Description:    description(n),
		Predicate:      predicate(n),
		Attributes:     attributes(n),
	}
}

func buildEdge(n *xmlNode, role types.Role) types.Edge {
	display, hasDisplay := n.attr("displayName")
	return types.Edge{
		Name:           n.attrValue("name"),
		DisplayName:    display,
		HasDisplayName: hasDisplay,
		Role:           role,
		Source:         n.attrValue("source"),
		Destination:    n.attrValue("destination"),
		Description:    description(n),
		Predicate:      predicate(n),
		Attributes:     attributes(n),
	}
}

func attributes(n *xmlNode) []types.Attribute {
	var attrs []types.Attribute
	for _, a := range n.childElements(tagAttribute) {
		attrs = append(attrs, types.Attribute{
			Name:        a.attrValue("name"),
			Value:       a.attrValue("value"),
			Default:     a.attrValue("default"),
			Description: description(a),
		})
	}
	return attrs
}

// description concatenates the inner markup of every direct Description
// child. Namespace prefixes such as h: are dropped so the fragment can be
// embedded in an HTML page as is.
func description(n *xmlNode) string {
	var buf bytes.Buffer
	for _, d := range n.childElements(tagDescription) {
		for _, c := range d.children {
			writeMarkup(&buf, c)
		}
	}
	return buf.String()
}

// predicate returns the text of the Predicate children.
func predicate(n *xmlNode) string {
	var sb strings.Builder
	for _, p := range n.childElements(tagPredicate) {
		sb.WriteString(textContent(p))
	}
	return sb.String()
}

func textContent(n *xmlNode) string {
	if !n.isElement() {
		return n.text
	}
	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func writeMarkup(buf *bytes.Buffer, n *xmlNode) {
	if !n.isElement() {
		buf.WriteString(textEscaper.Replace(n.text))
		return
	}

	buf.WriteByte('<')
	buf.WriteString(n.name)
	for _, a := range n.attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(a.Name.Local)
		buf.WriteString(`="`)
		buf.WriteString(attrEscaper.Replace(a.Value))
		buf.WriteByte('"')
	}
	if len(n.children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range n.children {
		writeMarkup(buf, c)
	}
	buf.WriteString("</")
	buf.WriteString(n.name)
	buf.WriteByte('>')
}
