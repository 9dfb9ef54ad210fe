package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// NameMode selects which half of a pretty name comes first.
type NameMode int

const (
	// NameFirst renders "name<sep>display".
	NameFirst NameMode = iota
	// DisplayFirst renders "display [name]".
	DisplayFirst
)

// Separators used with NameFirst.
const (
	TextSeparator = ": "
	// LabelSeparator is the DOT escape for a line break inside a label.
	LabelSeparator = `\n`
)

// Named is implemented by nodes, edges and patterns.
type Named interface {
	Names() (name, display string, hasDisplay bool)
}

// PrettyName combines an identifier with its display name. The display name
// is left out when it is absent or when it only differs from the identifier
// by case or spaces, so "CameraNode" and "camera node" render as the
// identifier alone.
func PrettyName(name, display string, hasDisplay bool, mode NameMode, sep string) string {
	if !hasDisplay || sameName(name, display) {
		return name
	}
	if mode == DisplayFirst {
		return display + " [" + name + "]"
	}
	return name + sep + display
}

// Pretty is PrettyName for a Named value using TextSeparator.
func Pretty(v Named, mode NameMode) string {
	name, display, has := v.Names()
	return PrettyName(name, display, has, mode, TextSeparator)
}

// Label is the name-first form used for diagram vertices.
func Label(v Named) string {
	name, display, has := v.Names()
	return PrettyName(name, display, has, NameFirst, LabelSeparator)
}

func sameName(a, b string) bool {
	// A Caser keeps state and must not be shared.
	fold := cases.Fold()
	return fold.String(strings.ReplaceAll(a, " ", "")) == fold.String(strings.ReplaceAll(b, " ", ""))
}
