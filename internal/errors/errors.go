// Package errors defines the error taxonomy of a documentation run and a
// collector that gathers the recoverable problems of one run for reporting.
package errors

import (
	"errors"
	"sync"
)

// Collector gathers errors reported during a run. It is safe for concurrent
// use so that the preview server can read a report while a rebuild starts.
type Collector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewCollector creates a new error collector
func NewCollector() *Collector {
	return &Collector{
		errors: make([]error, 0),
	}
}

// Add records an error. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// Errors returns a copy of all collected errors in insertion order.
func (c *Collector) Errors() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// ByType returns the collected errors of one type.
func (c *Collector) ByType(t ErrorType) []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var matched []error
	for _, err := range c.errors {
		if TypeOf(err) == t {
			matched = append(matched, err)
		}
	}
	return matched
}

// ByFile returns the collected errors whose DocError location is file.
func (c *Collector) ByFile(file string) []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var matched []error
	for _, err := range c.errors {
		var de *DocError
		if errors.As(err, &de) && de.FilePath == file {
			matched = append(matched, err)
		}
	}
	return matched
}

// Count returns the number of collected errors.
func (c *Collector) Count() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.errors)
}

// HasErrors returns true if there are any errors
func (c *Collector) HasErrors() bool {
	return c.Count() > 0
}

// Clear clears all errors
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = c.errors[:0]
}

// Join combines the collected errors into one error, or nil when empty.
func (c *Collector) Join() error {
	return errors.Join(c.Errors()...)
}
