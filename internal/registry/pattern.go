// Package registry indexes the patterns discovered by the scanner by their
// qualified name (relative directory plus pattern name). The index backs the
// list, show and validate commands and detects patterns that would be
// written to the same output file.
package registry

import (
	"path"
	"sort"
	"sync"

	"github.com/conneroisu/patterndoc/internal/types"
)

// PatternInfo is a registered pattern with its location in the tree.
type PatternInfo struct {
	// Dir is the slash separated directory relative to the source root
	Dir string
	// Pattern is the parsed definition
	Pattern *types.Pattern
}

// QualifiedName returns dir/name, or name at the root level.
func (p PatternInfo) QualifiedName() string {
	return QualifiedName(p.Dir, p.Pattern.Name)
}

// QualifiedName joins a relative directory and a pattern name.
func QualifiedName(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return path.Join(dir, name)
}

// Duplicate records two patterns sharing a qualified name. The later one
// overwrites the earlier one's documentation page.
type Duplicate struct {
	QualifiedName string
	First         PatternInfo
	Second        PatternInfo
}

// PatternRegistry manages all discovered patterns
type PatternRegistry struct {
	patterns   map[string]PatternInfo
	order      []string
	duplicates []Duplicate
	mutex      sync.RWMutex
}

// NewPatternRegistry creates a new pattern registry
func NewPatternRegistry() *PatternRegistry {
	return &PatternRegistry{
		patterns: make(map[string]PatternInfo),
	}
}

// Register adds a pattern. It returns false when a pattern with the same
// qualified name was already registered; the new pattern replaces it, as its
// page would on disk.
func (r *PatternRegistry) Register(dir string, p *types.Pattern) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	info := PatternInfo{Dir: dir, Pattern: p}
	key := info.QualifiedName()

	if existing, exists := r.patterns[key]; exists {
		r.duplicates = append(r.duplicates, Duplicate{
			QualifiedName: key,
			First:         existing,
			Second:        info,
		})
		r.patterns[key] = info
		return false
	}

	r.patterns[key] = info
	r.order = append(r.order, key)
	return true
}

// RegisterTree registers every pattern of a tree.
func (r *PatternRegistry) RegisterTree(root types.Entry) {
	for _, ref := range root.Patterns() {
		r.Register(ref.Dir, ref.Pattern)
	}
}

// Get retrieves a pattern by qualified name
func (r *PatternRegistry) Get(qualifiedName string) (PatternInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	info, exists := r.patterns[qualifiedName]
	return info, exists
}

// Find returns every pattern whose bare name or qualified name is name,
// sorted by qualified name.
func (r *PatternRegistry) Find(name string) []PatternInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var matches []PatternInfo
	for key, info := range r.patterns {
		if key == name || info.Pattern.Name == name {
			matches = append(matches, info)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].QualifiedName() < matches[j].QualifiedName()
	})
	return matches
}

// GetAll returns all registered patterns in registration order
func (r *PatternRegistry) GetAll() []PatternInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]PatternInfo, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.patterns[key])
	}
	return result
}

// Duplicates returns the qualified-name collisions seen so far.
func (r *PatternRegistry) Duplicates() []Duplicate {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Duplicate, len(r.duplicates))
	copy(result, r.duplicates)
	return result
}

// Count returns the number of registered patterns
func (r *PatternRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.patterns)
}

// Clear removes every pattern, used before a rescan.
func (r *PatternRegistry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.patterns = make(map[string]PatternInfo)
	r.order = nil
	r.duplicates = nil
}
