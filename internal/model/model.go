// Package model turns a parsed pattern into the ordered, role-partitioned
// view the renderer works from.
//
// Role attribution is structural: whatever was declared under an Input
// container is an input. Nodes and edges are keyed by name; a later
// declaration of the same name replaces the earlier one in place.
package model

import (
	docerrors "github.com/conneroisu/patterndoc/internal/errors"
	"github.com/conneroisu/patterndoc/internal/types"
)

// ResolvedGroup is a trigger group whose edge references were split by the
// role of the edge they name. Both lists keep reference order.
type ResolvedGroup struct {
	Name    string
	Inputs  []string
	Outputs []string
}

// PatternModel is the extracted view of one pattern.
type PatternModel struct {
	Pattern *types.Pattern

	InputNodes  *OrderedMap[types.Node]
	OutputNodes *OrderedMap[types.Node]
	InputEdges  *OrderedMap[types.Edge]
	OutputEdges *OrderedMap[types.Edge]

	// Nodes and Edges hold every declaration regardless of role. A name
	// declared under both containers appears once, with the later role.
	Nodes *OrderedMap[types.Node]
	Edges *OrderedMap[types.Edge]

	// DataflowTables has one attribute list per DataflowConfiguration block,
	// empty blocks included.
	DataflowTables [][]types.Attribute

	TriggerGroups []ResolvedGroup
}

// Extract builds the model of p. Trigger groups that reference an unknown
// edge are left out and reported in the returned slice; the rest of the
// model is still complete.
func Extract(p *types.Pattern) (*PatternModel, []error) {
	m := &PatternModel{
		Pattern:     p,
		InputNodes:  NewOrderedMap[types.Node](),
		OutputNodes: NewOrderedMap[types.Node](),
		InputEdges:  NewOrderedMap[types.Edge](),
		OutputEdges: NewOrderedMap[types.Edge](),
		Nodes:       NewOrderedMap[types.Node](),
		Edges:       NewOrderedMap[types.Edge](),
	}

	for _, n := range p.Nodes {
		if n.Role == types.RoleInput {
			m.InputNodes.Set(n.Name, n)
		} else {
			m.OutputNodes.Set(n.Name, n)
		}
		m.Nodes.Set(n.Name, n)
	}

	for _, e := range p.Edges {
		if e.Role == types.RoleInput {
			m.InputEdges.Set(e.Name, e)
		} else {
			m.OutputEdges.Set(e.Name, e)
		}
		m.Edges.Set(e.Name, e)
	}

	for _, df := range p.Dataflow {
		m.DataflowTables = append(m.DataflowTables, df.Attributes)
	}

	var errs []error
	for _, g := range p.TriggerGroups {
		resolved, err := m.resolve(g)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.TriggerGroups = append(m.TriggerGroups, resolved)
	}

	return m, errs
}

func (m *PatternModel) resolve(g types.TriggerGroup) (ResolvedGroup, error) {
	group := ResolvedGroup{Name: g.Name}
	for _, ref := range g.EdgeRefs {
		edge, ok := m.Edges.Get(ref)
		if !ok {
			return ResolvedGroup{}, docerrors.NewUnresolvedReferenceError(m.Pattern.Name, g.Name, ref).
				WithLocation(m.Pattern.File, m.Pattern.Line, 0)
		}
		if edge.Role == types.RoleOutput {
			group.Outputs = append(group.Outputs, ref)
		} else {
			group.Inputs = append(group.Inputs, ref)
		}
	}
	return group, nil
}

// NodeCount is the number of distinct node names of the pattern.
func (m *PatternModel) NodeCount() int {
	return m.Nodes.Len()
}
