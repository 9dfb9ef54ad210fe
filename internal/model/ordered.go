package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OrderedMap is a string keyed map that remembers insertion order.
// Setting an existing key replaces its value but keeps the position of the
// first insertion.
type OrderedMap[T any] struct {
	pairs *orderedmap.OrderedMap[string, T]
}

// NewOrderedMap creates an empty map.
func NewOrderedMap[T any]() *OrderedMap[T] {
	return &OrderedMap[T]{pairs: orderedmap.New[string, T]()}
}

// Set inserts or replaces the value stored under key.
func (m *OrderedMap[T]) Set(key string, value T) {
	m.pairs.Set(key, value)
}

// Get returns the value stored under key.
func (m *OrderedMap[T]) Get(key string) (T, bool) {
	return m.pairs.Get(key)
}

// Has reports whether key is present.
func (m *OrderedMap[T]) Has(key string) bool {
	_, ok := m.pairs.Get(key)
	return ok
}

// Len returns the number of distinct keys.
func (m *OrderedMap[T]) Len() int {
	return m.pairs.Len()
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[T]) Keys() []string {
	out := make([]string, 0, m.pairs.Len())
	for pair := m.pairs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Values returns the values in key order.
func (m *OrderedMap[T]) Values() []T {
	out := make([]T, 0, m.pairs.Len())
	for pair := m.pairs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
