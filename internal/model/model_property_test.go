//go:build property

package model

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestOrderedMapProperties validates insertion order and replacement
func TestOrderedMapProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: keys are the distinct inputs in first-seen order
	properties.Property("keys keep first insertion order", prop.ForAll(
		func(keys []string) bool {
			m := NewOrderedMap[int]()
			var expected []string
			seen := make(map[string]bool)
			for i, k := range keys {
				m.Set(k, i)
				if !seen[k] {
					seen[k] = true
					expected = append(expected, k)
				}
			}

			got := m.Keys()
			if len(got) != len(expected) {
				return false
			}
			for i := range got {
				if got[i] != expected[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("a", "b", "c", "d", "e")),
	))

	// Property: the stored value is the last one set
	properties.Property("last value wins", prop.ForAll(
		func(keys []string) bool {
			m := NewOrderedMap[int]()
			last := make(map[string]int)
			for i, k := range keys {
				m.Set(k, i)
				last[k] = i
			}
			for k, want := range last {
				if got, _ := m.Get(k); got != want {
					return false
				}
			}
			return m.Len() == len(last)
		},
		gen.SliceOf(gen.OneConstOf("a", "b", "c", "d", "e")),
	))

	properties.TestingRun(t)
}

// TestPrettyNameProperties validates the display name rules
func TestPrettyNameProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9753)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: a display name differing only in case and spaces is dropped
	properties.Property("equivalent display names collapse", prop.ForAll(
		func(name string) bool {
			display := strings.ToLower(name[:1]) + " " + name[1:]
			return PrettyName(name, display, true, NameFirst, TextSeparator) == name &&
				PrettyName(name, display, true, DisplayFirst, TextSeparator) == name
		},
		gen.Identifier(),
	))

	// Property: without a display name the identifier is returned as is
	properties.Property("missing display name yields identifier", prop.ForAll(
		func(name, display string) bool {
			return PrettyName(name, display, false, DisplayFirst, TextSeparator) == name
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	// Property: a distinct display name appears in both modes
	properties.Property("distinct display names are shown", prop.ForAll(
		func(name string) bool {
			display := name + "Display"
			return PrettyName(name, display, true, NameFirst, TextSeparator) == name+": "+display &&
				PrettyName(name, display, true, DisplayFirst, TextSeparator) == display+" ["+name+"]"
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
