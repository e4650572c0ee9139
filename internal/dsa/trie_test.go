package dsa

import "testing"

func TestTrieInsertGet(t *testing.T) {
	trie := NewTrie[int]()
	if trie.Insert("book_flight", 1) {
		t.Error("first insert reported existing key")
	}
	if !trie.Insert("book_flight", 2) {
		t.Error("second insert did not report existing key")
	}
	if trie.Len() != 1 {
		t.Errorf("Len() = %d, want 1", trie.Len())
	}

	v, ok := trie.Get("book_flight")
	if !ok || v != 2 {
		t.Errorf("Get = %d, %v", v, ok)
	}
	if _, ok := trie.Get("book"); ok {
		t.Error("Get on a bare prefix should miss")
	}
}

func TestTrieWithPrefix(t *testing.T) {
	trie := NewTrie[string]()
	trie.Insert("weather.get", "w1")
	trie.Insert("flights.search", "f2")
	trie.Insert("flights.book", "f1")

	got := trie.WithPrefix("flights.")
	if len(got) != 2 || got[0] != "f1" || got[1] != "f2" {
		t.Errorf("WithPrefix = %v, want [f1 f2]", got)
	}
	if all := trie.WithPrefix(""); len(all) != 3 {
		t.Errorf("WithPrefix(\"\") returned %d values", len(all))
	}
	if none := trie.WithPrefix("zzz"); len(none) != 0 {
		t.Errorf("expected no matches, got %v", none)
	}
}
