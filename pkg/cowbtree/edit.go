// pkg/cowbtree/edit.go
package cowbtree

// Directive is the return shape of an EditRange callback: zero or more of
// replace-value, delete, and break, combined in one value rather than
// thrown out of the callback. Build one with Keep, SetValue, DeleteEntry,
// or BreakWith, optionally chaining AndBreak.
type Directive[V any, R any] struct {
	setValue bool
	value    V
	del      bool
	brk      bool
	breakVal R
}

// Keep leaves the pair untouched and continues the scan.
func Keep[V any, R any]() Directive[V, R] {
	return Directive[V, R]{}
}

// SetValue replaces the current pair's value in place.
func SetValue[V any, R any](v V) Directive[V, R] {
	return Directive[V, R]{setValue: true, value: v}
}

// DeleteEntry removes the current pair.
func DeleteEntry[V any, R any]() Directive[V, R] {
	return Directive[V, R]{del: true}
}

// BreakWith stops the scan after applying no directive and returns r.
func BreakWith[V any, R any](r R) Directive[V, R] {
	return Directive[V, R]{brk: true, breakVal: r}
}

// AndBreak stops the scan after applying d's value/delete directive and
// returns r.
func (d Directive[V, R]) AndBreak(r R) Directive[V, R] {
	d.brk = true
	d.breakVal = r
	return d
}

// ForRange walks entries in ascending order starting at the first key >=
// lo, invoking onFound for each pair with key < hi (or <= hi when
// includeHigh). counter starts at c0 and increments per call. onFound
// returns (r, true) to stop early, in which case ForRange returns (r,
// count-so-far, true); otherwise it returns (zero, total count, false).
// ForRange never un-shares a node.
func ForRange[K any, V any, R any](t *Tree[K, V], lo, hi K, includeHigh bool, onFound func(k K, v V, counter int) (R, bool), c0 int) (result R, count int, broke bool) {
	cur := newCursor(t)
	cur.Seek(t.cmp, lo)
	counter := c0

	for cur.Valid() {
		k := cur.Key()
		if !keyInRange(t.cmp, k, hi, includeHigh) {
			break
		}
		v := cur.Value()
		r, stop := onFound(k, v, counter)
		counter++
		if stop {
			return r, counter - c0, true
		}
		cur.Next()
	}

	var zero R
	return zero, counter - c0, false
}

func keyInRange[K any](cmp CompareFunc[K], k, hi K, includeHigh bool) bool {
	c := cmp(k, hi)
	if includeHigh {
		return c <= 0
	}
	return c < 0
}

// EditRange is ForRange plus directive semantics: onFound may replace a
// pair's value, delete it, and/or stop the scan. The critical COW rule: a
// leaf is cloned and relinked into the root — itself recursively un-shared
// — the first time a directive actually needs to write to it, deferred
// until that point rather than done eagerly on descent; onFound is never
// told anything about the mutation, it simply never sees a still-shared
// leaf mutated out from under it. Rebalancing after deletions is deferred
// until the scan completes: that pass removes leaves that deletions
// emptied completely, which would otherwise make maxKey/childMax
// ill-defined, rebalances internal nodes left with a single child, and
// collapses a root that the scan hollowed out entirely. Leaves that keep
// at least one entry are not refilled.
//
// Safety contract: onFound must not call Set/Delete/Clone/another
// EditRange on t. The engine does not detect such re-entrancy.
func EditRange[K any, V any, R any](t *Tree[K, V], lo, hi K, includeHigh bool, onFound func(k K, v V, counter int) Directive[V, R], c0 int) (result R, count int, broke bool, err error) {
	if t.frozen {
		return result, 0, false, ErrFrozen
	}

	cur := newCursor(t)
	cur.Seek(t.cmp, lo)
	counter := c0
	var privateLeaf *node[K, V]
	anyDeleted := false

	for cur.Valid() {
		k := cur.Key()
		if !keyInRange(t.cmp, k, hi, includeHigh) {
			break
		}

		leafFrame := &cur.stack[len(cur.stack)-1]
		v := leafFrame.node.values[leafFrame.pos]

		directive := onFound(k, v, counter)
		counter++

		if directive.setValue || directive.del {
			if leafFrame.node != privateLeaf {
				path := t.unsharePathTo(k)
				for i := range path {
					cur.stack[i].node = path[i]
				}
				privateLeaf = path[len(path)-1]
				leafFrame = &cur.stack[len(cur.stack)-1]
			}
			if directive.setValue && !directive.del {
				leafFrame.node.values[leafFrame.pos] = directive.value
			}
			if directive.del {
				leafFrame.node.keys = deleteAt(leafFrame.node.keys, leafFrame.pos)
				leafFrame.node.values = deleteAt(leafFrame.node.values, leafFrame.pos)
				t.size--
				anyDeleted = true
			}
		}

		if directive.brk {
			if anyDeleted {
				t.pruneAfterEdit()
			}
			return directive.breakVal, counter - c0, true, nil
		}

		if directive.del {
			if leafFrame.pos >= leafFrame.node.entryCount() {
				cur.advanceToNextLeaf()
				privateLeaf = nil
			}
		} else {
			cur.Next()
		}
	}

	if anyDeleted {
		t.pruneAfterEdit()
	}
	var zero R
	return zero, counter - c0, false, nil
}

// DeleteRange is EditRange whose callback always deletes. It returns the
// count of pairs deleted.
func DeleteRange[K any, V any](t *Tree[K, V], lo, hi K, includeHigh bool) (int, error) {
	_, count, _, err := EditRange[K, V, struct{}](t, lo, hi, includeHigh, func(k K, v V, counter int) Directive[V, struct{}] {
		return DeleteEntry[V, struct{}]()
	}, 0)
	return count, err
}

// unsharePathTo un-shares every node from the root down to the leaf that
// would contain key, relinking each parent's child pointer as it goes, and
// returns the path (root first, leaf last).
func (t *Tree[K, V]) unsharePathTo(key K) []*node[K, V] {
	path := make([]*node[K, V], 0, 8)
	t.root = unshare(t.root)
	n := t.root
	path = append(path, n)
	for !n.leaf {
		idx := n.childIndexForInsert(t.cmp, key)
		child := unshare(n.children[idx])
		n.children[idx] = child
		n = child
		path = append(path, n)
	}
	return path
}

// pruneAfterEdit removes leaves that EditRange/DeleteRange emptied
// completely, fixes up ancestor childMax entries, rebalances internal
// nodes left with a single child, and normalises the root
// (collapsing a single-child internal root, or resetting to an empty leaf
// if the whole tree was deleted).
func (t *Tree[K, V]) pruneAfterEdit() {
	t.pruneEmptyChildren(t.root)
	for !t.root.leaf && t.root.entryCount() == 1 {
		t.root = t.root.children[0]
	}
	if !t.root.leaf && t.root.entryCount() == 0 {
		t.root = newLeaf[K, V]()
	}
}

// pruneEmptyChildren recursively drops n's children that have become empty
// leaves, updating childMax as it goes, rebalances any internal child left
// with a single child of its own against a sibling, and reports whether n
// itself ended up empty.
func (t *Tree[K, V]) pruneEmptyChildren(n *node[K, V]) bool {
	if n.leaf {
		return n.entryCount() == 0
	}
	i := 0
	for i < len(n.children) {
		if t.pruneEmptyChildren(n.children[i]) {
			n.removeChild(i)
			continue
		}
		n.childMax[i] = n.children[i].maxKey()
		i++
	}
	for i = 0; i < len(n.children) && len(n.children) > 1; {
		if ch := n.children[i]; !ch.leaf && ch.entryCount() == 1 {
			t.rebalance(n, i)
			continue
		}
		i++
	}
	return n.entryCount() == 0
}
