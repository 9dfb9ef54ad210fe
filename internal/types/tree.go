package types

import "path"

// EntryKind tags the two cases of the pattern tree.
type EntryKind int

const (
	KindDirectory EntryKind = iota
	KindPattern
)

// String returns the string representation of the EntryKind
func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Entry is one node of the pattern tree: either a directory holding further
// entries or a single pattern leaf. Directories below the root are never
// empty; the scanner prunes them before attaching.
type Entry struct {
	Kind     EntryKind `json:"kind" yaml:"kind"`
	Name     string    `json:"name" yaml:"name"`
	Children []Entry   `json:"children,omitempty" yaml:"children,omitempty"`
	Pattern  *Pattern  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// NewDirectory creates a directory entry.
func NewDirectory(name string, children []Entry) Entry {
	return Entry{Kind: KindDirectory, Name: name, Children: children}
}

// NewPatternEntry creates a pattern leaf named after the pattern.
func NewPatternEntry(p *Pattern) Entry {
	return Entry{Kind: KindPattern, Name: p.Name, Pattern: p}
}

// IsDirectory reports whether the entry is a directory.
func (e Entry) IsDirectory() bool {
	return e.Kind == KindDirectory
}

// IsEmpty reports whether a directory entry has no children.
func (e Entry) IsEmpty() bool {
	return e.Kind == KindDirectory && len(e.Children) == 0
}

// WalkFunc is called for every entry below the root. dir is the slash
// separated path of the directory holding the entry, relative to the root
// ("" for the root level).
type WalkFunc func(dir string, e Entry) error

// Walk visits every entry below e depth-first in child order. A directory is
// visited before its children.
func (e Entry) Walk(fn WalkFunc) error {
	return e.walk("", fn)
}

func (e Entry) walk(dir string, fn WalkFunc) error {
	for _, child := range e.Children {
		if err := fn(dir, child); err != nil {
			return err
		}
		if child.IsDirectory() {
			if err := child.walk(path.Join(dir, child.Name), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// PatternRef is a pattern together with the relative directory it lives in.
type PatternRef struct {
	Dir     string
	Pattern *Pattern
}

// Patterns flattens the tree in walk order.
func (e Entry) Patterns() []PatternRef {
	var refs []PatternRef
	_ = e.Walk(func(dir string, child Entry) error {
		if child.Kind == KindPattern {
			refs = append(refs, PatternRef{Dir: dir, Pattern: child.Pattern})
		}
		return nil
	})
	return refs
}

// Count returns the number of pattern leaves below e.
func (e Entry) Count() int {
	if e.Kind == KindPattern {
		return 1
	}
	n := 0
	for _, child := range e.Children {
		n += child.Count()
	}
	return n
}
