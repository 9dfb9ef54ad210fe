// Package renderer turns an extracted pattern model into documentation.
//
// BuildDocument produces a syntax independent Document, a flat list of
// blocks in page order. HTMLPage renders a Document as an HTML page with
// templ components, and BuildGraph produces the Graphviz description of the
// pattern that the diagram next to the page is laid out from.
package renderer

import (
	"github.com/conneroisu/patterndoc/internal/model"
	"github.com/conneroisu/patterndoc/internal/trigger"
	"github.com/conneroisu/patterndoc/internal/types"
)

// Section titles in page order.
const (
	SectionInputNodes  = "Input Nodes"
	SectionOutputNodes = "Output Nodes"
	SectionInputEdges  = "Input Edges"
	SectionOutputEdges = "Output Edges"
	SectionDataflow    = "Dataflow Attributes"
	SectionTriggers    = "Push/Pull Configurations"
)

// Heading levels of section and item headers.
const (
	SectionLevel = 2
	ItemLevel    = 4
)

// AttributeHeader is the header row of every attribute table.
var AttributeHeader = []string{"Attribute name", "Value", "Default", "Description"}

// Block is one element of a Document.
type Block interface {
	isBlock()
}

// Image references the diagram of the pattern.
type Image struct {
	Src string
}

// HTML is a description fragment emitted without escaping.
type HTML struct {
	Fragment string
}

// Heading is a section or item title.
type Heading struct {
	Level int
	Text  string
}

// Predicate is the condition text of an input node or edge.
type Predicate struct {
	Text string
}

// Link is one line of the index.
type Link struct {
	Href string
	Text string
}

// Cell is a table cell. HTML cells hold description fragments.
type Cell struct {
	Text string
	HTML bool
}

// Table is an attribute or trigger table. Striped tables alternate the row
// style starting with the darker one; other tables use the lighter style on
// every row.
type Table struct {
	Header  []string
	Rows    [][]Cell
	Striped bool
}

func (Image) isBlock()     {}
func (HTML) isBlock()      {}
func (Heading) isBlock()   {}
func (Predicate) isBlock() {}
func (Link) isBlock()      {}
func (Table) isBlock()     {}

// Document is a rendered page body with its title.
type Document struct {
	Title  string
	Blocks []Block
}

// Options controls document generation.
type Options struct {
	// Diagrams is the layout tool capability. When set the page references
	// the pattern image and node sections without any content are left out,
	// since the diagram already shows the node names.
	Diagrams bool
	// ImageExtension is appended to the pattern name for the image source,
	// ".png" when empty
	ImageExtension string
}

// BuildDocument renders the documentation page of one pattern. Trigger
// groups that cannot be enumerated are left out and returned as errors.
func BuildDocument(m *model.PatternModel, opts Options) (Document, []error) {
	p := m.Pattern
	doc := Document{Title: model.Pretty(*p, model.DisplayFirst)}

	if opts.Diagrams {
		ext := opts.ImageExtension
		if ext == "" {
			ext = ".png"
		}
		doc.Blocks = append(doc.Blocks, Image{Src: p.Name + ext})
	}
	doc.Blocks = appendDescription(doc.Blocks, p.Description)

	inputNodes, inputContent := nodeBlocks(m.InputNodes.Values(), true)
	outputNodes, outputContent := nodeBlocks(m.OutputNodes.Values(), false)
	if !opts.Diagrams || inputContent || outputContent {
		doc.Blocks = appendSection(doc.Blocks, SectionInputNodes, inputNodes)
		doc.Blocks = appendSection(doc.Blocks, SectionOutputNodes, outputNodes)
	}

	doc.Blocks = appendSection(doc.Blocks, SectionInputEdges, edgeBlocks(m.InputEdges.Values(), true))
	doc.Blocks = appendSection(doc.Blocks, SectionOutputEdges, edgeBlocks(m.OutputEdges.Values(), false))

	var dataflow []Block
	for _, attrs := range m.DataflowTables {
		dataflow = appendAttributes(dataflow, attrs)
	}
	doc.Blocks = appendSection(doc.Blocks, SectionDataflow, dataflow)

	var triggers []Block
	var errs []error
	for _, g := range m.TriggerGroups {
		table, err := TriggerTable(g)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		triggers = append(triggers, table)
	}
	doc.Blocks = appendSection(doc.Blocks, SectionTriggers, triggers)

	return doc, errs
}

// TriggerTable enumerates a resolved group into a table.
func TriggerTable(g model.ResolvedGroup) (Table, error) {
	enumerated, err := trigger.Enumerate(g.Inputs, g.Outputs)
	if err != nil {
		return Table{}, err
	}

	table := Table{Header: enumerated.Header()}
	for _, row := range enumerated.Rows {
		cells := make([]Cell, 0, len(enumerated.Inputs)+len(enumerated.Outputs)+1)
		for _, text := range row.Cells() {
			cells = append(cells, Cell{Text: text})
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// nodeBlocks renders the items of a node section and reports whether any
// node carries content beyond its header.
func nodeBlocks(nodes []types.Node, input bool) ([]Block, bool) {
	var blocks []Block
	content := false
	for _, n := range nodes {
		blocks = append(blocks, Heading{Level: ItemLevel, Text: model.Pretty(n, model.NameFirst)})
		before := len(blocks)
		blocks = appendDescription(blocks, n.Description)
		if input {
			blocks = appendPredicate(blocks, n.Predicate)
		}
		blocks = appendAttributes(blocks, n.Attributes)
		if len(blocks) > before {
			content = true
		}
	}
	return blocks, content
}

func edgeBlocks(edges []types.Edge, input bool) []Block {
	var blocks []Block
	for _, e := range edges {
		blocks = append(blocks, Heading{Level: ItemLevel, Text: model.Pretty(e, model.NameFirst)})
		blocks = appendDescription(blocks, e.Description)
		if input {
			blocks = appendPredicate(blocks, e.Predicate)
		} else {
			blocks = appendAttributes(blocks, e.Attributes)
		}
	}
	return blocks
}

func appendSection(blocks []Block, title string, items []Block) []Block {
	if len(items) == 0 {
		return blocks
	}
	blocks = append(blocks, Heading{Level: SectionLevel, Text: title})
	return append(blocks, items...)
}

func appendDescription(blocks []Block, fragment string) []Block {
	if fragment == "" {
		return blocks
	}
	return append(blocks, HTML{Fragment: fragment + "\n"})
}

func appendPredicate(blocks []Block, text string) []Block {
	if text == "" {
		return blocks
	}
	return append(blocks, Predicate{Text: text})
}

func appendAttributes(blocks []Block, attrs []types.Attribute) []Block {
	if len(attrs) == 0 {
		return blocks
	}
	table := Table{Header: AttributeHeader, Striped: true}
	for _, a := range attrs {
		desc := a.Description
		if desc != "" {
			desc += "\n"
		}
		table.Rows = append(table.Rows, []Cell{
			{Text: a.Name},
			{Text: a.Value},
			{Text: a.Default},
			{Text: desc, HTML: true},
		})
	}
	return append(blocks, table)
}
