// Package types provides the semantic model shared by the scanner, extractor,
// renderer and site generator. It contains no behaviour beyond small helpers
// so that every other package can depend on it without cycles.
package types

// Role tells whether a node or edge was declared under an Input or an Output
// container of its pattern.
type Role int

const (
	RoleInput Role = iota
	RoleOutput
)

// String returns the container name the role was read from.
func (r Role) String() string {
	switch r {
	case RoleInput:
		return "Input"
	case RoleOutput:
		return "Output"
	default:
		return "Unknown"
	}
}

// MarshalText renders the role by name in JSON and YAML listings.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Attribute is a single name/value pair with documentation. Attributes keep
// their declaration order inside their owner.
type Attribute struct {
	// Name is the attribute identifier
	Name string `json:"name" yaml:"name"`
	// Value is the declared value (may be empty)
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	// Default is the documented default value (may be empty)
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
	// Description is an HTML fragment
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Node is a typed port exposed by a pattern.
type Node struct {
	// Name identifies the node inside the pattern's node namespace
	Name string `json:"name" yaml:"name"`
	// DisplayName is the optional human readable name
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	// HasDisplayName distinguishes an absent displayName from an empty one
	HasDisplayName bool `json:"-" yaml:"-"`
	// Role is derived from the enclosing Input or Output container
	Role Role `json:"role" yaml:"role"`
	// Description is an HTML fragment
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Predicate is free-form condition text, only rendered for inputs
	Predicate string `json:"predicate,omitempty" yaml:"predicate,omitempty"`
	// Attributes in declaration order
	Attributes []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Edge is a typed connection between two nodes of a pattern.
type Edge struct {
	Name           string      `json:"name" yaml:"name"`
	DisplayName    string      `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	HasDisplayName bool        `json:"-" yaml:"-"`
	Role           Role        `json:"role" yaml:"role"`
	Source         string      `json:"source" yaml:"source"`
	Destination    string      `json:"destination" yaml:"destination"`
	Description    string      `json:"description,omitempty" yaml:"description,omitempty"`
	Predicate      string      `json:"predicate,omitempty" yaml:"predicate,omitempty"`
	Attributes     []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// DataflowConfiguration is a pattern level attribute block that is not tied
// to a node or edge.
type DataflowConfiguration struct {
	Attributes []Attribute `json:"attributes" yaml:"attributes"`
}

// TriggerGroup names a subset of a pattern's edges whose push/pull timing is
// documented jointly. EdgeRefs are kept raw; they are resolved against the
// pattern's edges by the model extractor.
type TriggerGroup struct {
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	EdgeRefs []string `json:"edge_refs" yaml:"edge_refs"`
}

// Pattern is a reusable component definition read from a source file. Nodes
// and Edges hold every declaration in document order, duplicates included.
type Pattern struct {
	Name           string                  `json:"name" yaml:"name"`
	DisplayName    string                  `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	HasDisplayName bool                    `json:"-" yaml:"-"`
	Description    string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes          []Node                  `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges          []Edge                  `json:"edges,omitempty" yaml:"edges,omitempty"`
	Dataflow       []DataflowConfiguration `json:"dataflow,omitempty" yaml:"dataflow,omitempty"`
	TriggerGroups  []TriggerGroup          `json:"trigger_groups,omitempty" yaml:"trigger_groups,omitempty"`

	// File is the source file the pattern was read from
	File string `json:"file" yaml:"file"`
	// Line is the line of the opening Pattern element
	Line int `json:"line" yaml:"line"`
}

// Names returns the identifier and the optional display name of the node.
func (n Node) Names() (name, display string, hasDisplay bool) {
	return n.Name, n.DisplayName, n.HasDisplayName
}

// Names returns the identifier and the optional display name of the edge.
func (e Edge) Names() (name, display string, hasDisplay bool) {
	return e.Name, e.DisplayName, e.HasDisplayName
}

// Names returns the identifier and the optional display name of the pattern.
func (p Pattern) Names() (name, display string, hasDisplay bool) {
	return p.Name, p.DisplayName, p.HasDisplayName
}
