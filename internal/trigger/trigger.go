// Package trigger enumerates the push/pull configurations of a trigger
// group.
//
// Every subset of the group's input edges may be pushed; the remaining inputs
// are pulled. Outputs follow the inputs: as soon as one input is pushed every
// output is pushed, otherwise every output is pulled. When two or more inputs
// are pushed they must arrive synchronized. A group without outputs cannot
// have all of its inputs pulled, so that state is left out.
package trigger

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxInputs is a resource guard. Enumeration itself has no limit, but the
// table of a group with k inputs has 2^k rows and one million rows is already
// far beyond any real pattern.
const MaxInputs = 20

// ErrTooManyInputs is returned for groups with more than MaxInputs inputs.
var ErrTooManyInputs = errors.New("trigger group table exceeds the row limit")

// ConditionHeader is the title of the last table column.
const ConditionHeader = "condition"

// Delivery is the transfer discipline of one edge in one configuration.
type Delivery int

const (
	Pull Delivery = iota
	Push
)

// String returns "pull" or "push".
func (d Delivery) String() string {
	if d == Push {
		return "push"
	}
	return "pull"
}

// MarshalText renders the delivery by name.
func (d Delivery) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Row is one valid configuration. Bit i of State is set when input i is
// pushed.
type Row struct {
	State     uint64     `json:"state" yaml:"state"`
	Inputs    []Delivery `json:"inputs" yaml:"inputs"`
	Outputs   []Delivery `json:"outputs" yaml:"outputs"`
	Condition string     `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Pushed returns the number of pushed inputs.
func (r Row) Pushed() int {
	n := 0
	for _, d := range r.Inputs {
		if d == Push {
			n++
		}
	}
	return n
}

// Cells returns the row as text in header order.
func (r Row) Cells() []string {
	cells := make([]string, 0, len(r.Inputs)+len(r.Outputs)+1)
	for _, d := range r.Inputs {
		cells = append(cells, d.String())
	}
	for _, d := range r.Outputs {
		cells = append(cells, d.String())
	}
	return append(cells, r.Condition)
}

// Table is the enumeration of one group.
type Table struct {
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// Header returns the column titles: inputs, outputs, then the condition.
func (t Table) Header() []string {
	header := make([]string, 0, len(t.Inputs)+len(t.Outputs)+1)
	header = append(header, t.Inputs...)
	header = append(header, t.Outputs...)
	return append(header, ConditionHeader)
}

// Enumerate lists every valid configuration of a group with the given input
// and output edge names, in increasing state order.
func Enumerate(inputs, outputs []string) (Table, error) {
	if len(inputs) > MaxInputs {
		return Table{}, fmt.Errorf("%w: %d inputs would need %.0f rows, the limit is 2^%d",
			ErrTooManyInputs, len(inputs), math.Ldexp(1, len(inputs)), MaxInputs)
	}

	table := Table{Inputs: inputs, Outputs: outputs}

	var start uint64
	if len(outputs) == 0 {
		start = 1
	}
	end := uint64(1) << len(inputs)

	for state := start; state < end; state++ {
		row := Row{
			State:   state,
			Inputs:  make([]Delivery, len(inputs)),
			Outputs: make([]Delivery, len(outputs)),
		}

		var pushed []string
		for i, name := range inputs {
			if state&(1<<i) != 0 {
				row.Inputs[i] = Push
				pushed = append(pushed, name)
			}
		}

		if len(pushed) > 0 {
			for i := range row.Outputs {
				row.Outputs[i] = Push
			}
		}

		if len(pushed) > 1 {
			row.Condition = strings.Join(pushed, ", ") + " must be synchronized"
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
