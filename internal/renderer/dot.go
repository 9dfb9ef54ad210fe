package renderer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conneroisu/patterndoc/internal/model"
	"github.com/conneroisu/patterndoc/internal/types"
)

// DefaultDPI is the resolution written into every graph.
const DefaultDPI = 74

// Patterns with fewer nodes than this are laid out left to right.
const horizontalLayoutLimit = 4

// Vertex and arc styles by role.
const (
	styleInputNode  = "filled"
	styleOutputNode = "solid"
	styleInputEdge  = "dashed"
	styleOutputEdge = "solid"
)

// GraphNode is a vertex of the pattern graph.
type GraphNode struct {
	ID    string
	Label string
	Style string
}

// GraphEdge is a directed arc of the pattern graph.
type GraphEdge struct {
	Source      string
	Destination string
	Label       string
	Style       string
}

// Graph is the diagram description of a pattern.
type Graph struct {
	RankDir string
	DPI     int
	Nodes   []GraphNode
	Edges   []GraphEdge
}

// BuildGraph describes the nodes and edges of a pattern. Input nodes are
// filled and input edges dashed; outputs are drawn solid.
func BuildGraph(m *model.PatternModel) Graph {
	g := Graph{RankDir: "TB", DPI: DefaultDPI}
	if m.NodeCount() < horizontalLayoutLimit {
		g.RankDir = "LR"
	}

	for _, n := range m.Nodes.Values() {
		style := styleOutputNode
		if n.Role == types.RoleInput {
			style = styleInputNode
		}
		g.Nodes = append(g.Nodes, GraphNode{
			ID:    n.Name,
			Label: model.PrettyName(escapeLabel(n.Name), escapeLabel(n.DisplayName), n.HasDisplayName, model.NameFirst, model.LabelSeparator),
			Style: style,
		})
	}

	for _, e := range m.Edges.Values() {
		style := styleOutputEdge
		if e.Role == types.RoleInput {
			style = styleInputEdge
		}
		g.Edges = append(g.Edges, GraphEdge{
			Source:      e.Source,
			Destination: e.Destination,
			Label:       escapeLabel(model.Pretty(e, model.NameFirst)),
			Style:       style,
		})
	}

	return g
}

// DOT returns the graph in the Graphviz language. Labels are expected to be
// escaped already.
func (g Graph) DOT() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph G { rankdir=%s; dpi=%d;\n", g.RankDir, g.DPI)
	for _, n := range g.Nodes {
		fmt.Fprintf(&sb, "node [label=\"%s\" style=%s fontname=Helvetica] %s;\n", n.Label, n.Style, quoteID(n.ID))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "%s -> %s [label=\"%s\" style=%s fontname=Helvetica fontsize=12];\n",
			quoteID(e.Source), quoteID(e.Destination), e.Label, e.Style)
	}
	sb.WriteString("}\n")
	return sb.String()
}

var (
	labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	plainID      = regexp.MustCompile(`^[A-Za-z_\x{80}-\x{10FFFF}][A-Za-z0-9_\x{80}-\x{10FFFF}]*$`)
	numeralID    = regexp.MustCompile(`^-?(\.[0-9]+|[0-9]+(\.[0-9]*)?)$`)
	dotKeywords  = map[string]bool{"node": true, "edge": true, "graph": true, "digraph": true, "subgraph": true, "strict": true}
)

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}

// quoteID returns id unchanged when it is a plain DOT identifier or numeral
// and a quoted string otherwise.
func quoteID(id string) string {
	if (plainID.MatchString(id) || numeralID.MatchString(id)) && !dotKeywords[strings.ToLower(id)] {
		return id
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(id) + `"`
}
