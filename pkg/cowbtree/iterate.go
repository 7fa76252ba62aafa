// pkg/cowbtree/iterate.go
package cowbtree

import "iter"

// Entries returns a range-over-func sequence of (key, value) pairs in
// ascending order, starting at the smallest key >= *lowestKey, or at the
// very first pair if lowestKey is nil. Built on top of Cursor as the
// traversal mechanism rather than a fresh materialised slice.
func (t *Tree[K, V]) Entries(lowestKey *K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		cur := newCursor(t)
		if lowestKey != nil {
			cur.Seek(t.cmp, *lowestKey)
		} else {
			cur.First()
		}
		for cur.Valid() {
			if !yield(cur.Key(), cur.Value()) {
				return
			}
			cur.Next()
		}
	}
}

// EntriesReversed returns a sequence of (key, value) pairs in descending
// order, starting at the largest key <= *highestKey (or strictly below it
// when skipHighest is set), or at the very last pair if highestKey is nil.
func (t *Tree[K, V]) EntriesReversed(highestKey *K, skipHighest bool) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		cur := newCursor(t)
		if highestKey != nil {
			cur.SeekLast(t.cmp, *highestKey, skipHighest)
		} else {
			cur.Last()
		}
		for cur.Valid() {
			if !yield(cur.Key(), cur.Value()) {
				return
			}
			cur.Prev()
		}
	}
}

// Keys returns a sequence of keys in ascending order, starting at the
// smallest key >= *firstKey, or at the first key if firstKey is nil.
func (t *Tree[K, V]) Keys(firstKey *K) iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range t.Entries(firstKey) {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns a sequence of values in ascending key order, starting at
// the smallest key >= *firstKey, or at the first value if firstKey is nil.
func (t *Tree[K, V]) Values(firstKey *K) iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range t.Entries(firstKey) {
			if !yield(v) {
				return
			}
		}
	}
}
