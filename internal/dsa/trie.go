// Package dsa provides the lookup structures used by the index store.
// Uses go-radix for a compressed prefix tree (radix tree).
package dsa

import (
	"github.com/armon/go-radix"
)

// Trie wraps go-radix for a typed compressed prefix tree. Tool ids share
// long hex prefixes with nothing else and tool names cluster around a few
// namespaces, so path compression keeps the tree small.
//
// Time Complexity: O(k) where k is key length
type Trie[V any] struct {
	tree *radix.Tree
}

// NewTrie creates a new empty radix tree.
func NewTrie[V any]() *Trie[V] {
	return &Trie[V]{tree: radix.New()}
}

// Insert adds or replaces a key. Returns true if the key already existed.
func (t *Trie[V]) Insert(key string, value V) bool {
	_, updated := t.tree.Insert(key, value)
	return updated
}

// Get looks up a key.
func (t *Trie[V]) Get(key string) (V, bool) {
	val, found := t.tree.Get(key)
	if !found {
		var zero V
		return zero, false
	}
	v, ok := val.(V)
	return v, ok
}

// WithPrefix returns every value whose key starts with prefix, in key order.
// Time Complexity: O(k + m) where k is prefix length, m is number of matches.
func (t *Trie[V]) WithPrefix(prefix string) []V {
	var results []V
	t.tree.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		if val, ok := v.(V); ok {
			results = append(results, val)
		}
		return false // continue walking
	})
	return results
}

// Len returns the number of keys in the tree.
func (t *Trie[V]) Len() int {
	return t.tree.Len()
}
