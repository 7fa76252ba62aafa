// pkg/cowbtree/tree.go
package cowbtree

import (
	"fmt"
	"strings"
)

// Branching-factor bounds: M is clamped to [minNodeSize, maxNodeSize];
// defaultNodeSize mirrors cowbtree.DefaultNodeConfig's choice of a
// branching factor "optimized for in-memory operations".
const (
	minNodeSize     = 4
	maxNodeSize     = 256
	defaultNodeSize = 32
)

// Config configures a Tree, mirroring cowbtree.NodeConfig's role as a small
// options struct passed to the constructor rather than a functional-options
// chain.
type Config struct {
	// MaxNodeSize is the branching factor M. Zero or a negative value
	// selects the default; any other value is clamped into [4, 256].
	MaxNodeSize int
}

func (c Config) maxSize() int {
	switch {
	case c.MaxNodeSize <= 0:
		return defaultNodeSize
	case c.MaxNodeSize < minNodeSize:
		return minNodeSize
	case c.MaxNodeSize > maxNodeSize:
		return maxNodeSize
	default:
		return c.MaxNodeSize
	}
}

// Pair is a key/value entry, used wherever the API materialises or accepts
// whole entries at once (ToArray, SetRange, GetRange, ...).
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// Tree is an ordered, copy-on-write B+ tree: a root reference, a size
// counter, the configured branching factor, the comparator, and a frozen
// flag.
type Tree[K any, V any] struct {
	root    *node[K, V]
	size    int
	maxSize int
	cmp     CompareFunc[K]
	frozen  bool
}

// New creates an empty Tree using cmp as its total order and the default
// branching factor.
func New[K any, V any](cmp CompareFunc[K]) *Tree[K, V] {
	return NewWithConfig[K, V](cmp, Config{})
}

// NewWithConfig creates an empty Tree with an explicit Config.
func NewWithConfig[K any, V any](cmp CompareFunc[K], cfg Config) *Tree[K, V] {
	return &Tree[K, V]{
		root:    newLeaf[K, V](),
		maxSize: cfg.maxSize(),
		cmp:     cmp,
	}
}

// NewDefault creates an empty Tree[any, V] using DefaultCompare, the
// natural order over numbers, strings, arrays, and date-like values.
func NewDefault[V any](cfg ...Config) *Tree[any, V] {
	c := Config{}
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return NewWithConfig[any, V](DefaultCompare, c)
}

// NewFromPairs builds a Tree by applying Set for every pair in order, later
// duplicates winning. This is intentionally not a specialised
// bulk-load-from-sorted-input fast path — it is ordinary repeated
// insertion.
func NewFromPairs[K any, V any](cmp CompareFunc[K], pairs []Pair[K, V], cfg ...Config) *Tree[K, V] {
	c := Config{}
	if len(cfg) > 0 {
		c = cfg[0]
	}
	t := NewWithConfig[K, V](cmp, c)
	for _, p := range pairs {
		t.Set(p.Key, p.Value, true)
	}
	return t
}

// Size returns the number of key/value pairs in the tree.
func (t *Tree[K, V]) Size() int { return t.size }

// MaxNodeSize returns the configured branching factor M.
func (t *Tree[K, V]) MaxNodeSize() int { return t.maxSize }

// Height returns the number of levels from root to leaf, inclusive.
func (t *Tree[K, V]) Height() int {
	h := 1
	n := t.root
	for !n.leaf {
		h++
		n = n.children[0]
	}
	return h
}

// Get returns the value stored for key, or the zero value of V and false if
// absent.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	n := t.root
	for !n.leaf {
		idx, ok := n.childIndexForLookup(t.cmp, key)
		if !ok {
			var zero V
			return zero, false
		}
		n = n.children[idx]
	}
	return n.leafGet(t.cmp, key)
}

// GetOr returns the value stored for key, or def if absent.
func (t *Tree[K, V]) GetOr(key K, def V) V {
	if v, ok := t.Get(key); ok {
		return v
	}
	return def
}

// Has reports whether key is present.
func (t *Tree[K, V]) Has(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// MinKey returns the smallest key in the tree, or false if empty.
func (t *Tree[K, V]) MinKey() (K, bool) {
	if t.size == 0 {
		var zero K
		return zero, false
	}
	n := t.root
	for !n.leaf {
		n = n.children[0]
	}
	return n.keys[0], true
}

// MaxKey returns the largest key in the tree, or false if empty.
func (t *Tree[K, V]) MaxKey() (K, bool) {
	if t.size == 0 {
		var zero K
		return zero, false
	}
	return t.root.maxKey(), true
}

// Set inserts or, if overwrite is true, updates key/value. It returns true
// iff a new entry was added. On overwrite the key itself is rewritten too,
// even when it compares equal to the existing one, for callers whose key
// type carries ordering-irrelevant payload.
func (t *Tree[K, V]) Set(key K, value V, overwrite bool) (bool, error) {
	if t.frozen {
		return false, ErrFrozen
	}
	t.root = unshare(t.root)
	added, split := t.insertInto(t.root, key, value, overwrite)
	if split != nil {
		newRoot := newInternal[K, V]()
		newRoot.childMax = []K{t.root.maxKey(), split.right.maxKey()}
		newRoot.children = []*node[K, V]{t.root, split.right}
		t.root = newRoot
	}
	if added {
		t.size++
	}
	return added, nil
}

func (t *Tree[K, V]) insertInto(n *node[K, V], key K, value V, overwrite bool) (bool, *splitResult[K, V]) {
	if n.leaf {
		return n.leafPut(t.cmp, key, value, overwrite, t.maxSize)
	}

	idx := n.childIndexForInsert(t.cmp, key)
	child := unshare(n.children[idx])
	added, split := t.insertInto(child, key, value, overwrite)
	n.children[idx] = child
	n.childMax[idx] = child.maxKey()

	if split == nil {
		return added, nil
	}
	n.insertChild(idx+1, split.right.maxKey(), split.right)
	if n.entryCount() <= t.maxSize {
		return added, nil
	}
	return added, &splitResult[K, V]{right: n.splitInternal(t.maxSize)}
}

// SetIfNotPresent is Set(key, value, overwrite=false): a convenience that
// never touches an existing entry.
func (t *Tree[K, V]) SetIfNotPresent(key K, value V) (bool, error) {
	return t.Set(key, value, false)
}

// ChangeIfPresent updates key's value only if key already exists, returning
// true iff it did. It never adds a new entry.
func (t *Tree[K, V]) ChangeIfPresent(key K, value V) (bool, error) {
	if t.frozen {
		return false, ErrFrozen
	}
	if !t.Has(key) {
		return false, nil
	}
	_, err := t.Set(key, value, true)
	return true, err
}

// SetRange applies Set(overwrite=true) for every pair, later duplicates
// winning, and returns the number of new entries added.
func (t *Tree[K, V]) SetRange(pairs []Pair[K, V]) (int, error) {
	added := 0
	for _, p := range pairs {
		ok, err := t.Set(p.Key, p.Value, true)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Delete removes key if present, returning true iff an entry was removed.
func (t *Tree[K, V]) Delete(key K) (bool, error) {
	if t.frozen {
		return false, ErrFrozen
	}
	t.root = unshare(t.root)
	removed := t.deleteFrom(t.root, key)
	if removed {
		t.size--
	}
	if !t.root.leaf && t.root.entryCount() == 1 {
		t.root = t.root.children[0]
	}
	return removed, nil
}

func (t *Tree[K, V]) deleteFrom(n *node[K, V], key K) bool {
	if n.leaf {
		return n.leafDelete(t.cmp, key)
	}

	idx, ok := n.childIndexForLookup(t.cmp, key)
	if !ok {
		return false
	}
	child := unshare(n.children[idx])
	n.children[idx] = child

	removed := t.deleteFrom(child, key)
	if !removed {
		return false
	}

	if child.entryCount() == 0 {
		n.removeChild(idx)
		return true
	}
	n.childMax[idx] = child.maxKey()

	if isUnderflowing(child, t.maxSize) {
		t.rebalance(n, idx)
	}
	return true
}

// rebalance repairs a child underflow at n.children[idx]: borrow a spare
// entry from a sibling that can afford one, else merge with a sibling,
// which may itself underflow n — the caller checks that one level up.
func (t *Tree[K, V]) rebalance(n *node[K, V], idx int) {
	minKeys := ceilDiv(t.maxSize, 2)
	child := n.children[idx]

	if idx > 0 && n.children[idx-1].entryCount() > minKeys {
		left := unshare(n.children[idx-1])
		n.children[idx-1] = left
		if child.leaf {
			child.borrowFromLeftLeaf(left)
		} else {
			child.borrowFromLeftInternal(left)
		}
		n.childMax[idx-1] = left.maxKey()
		n.childMax[idx] = child.maxKey()
		return
	}

	if idx+1 < len(n.children) && n.children[idx+1].entryCount() > minKeys {
		right := unshare(n.children[idx+1])
		n.children[idx+1] = right
		if child.leaf {
			child.borrowFromRightLeaf(right)
		} else {
			child.borrowFromRightInternal(right)
		}
		n.childMax[idx] = child.maxKey()
		n.childMax[idx+1] = right.maxKey()
		return
	}

	if idx > 0 {
		left := unshare(n.children[idx-1])
		if left.leaf {
			left.mergeLeaf(child)
		} else {
			left.mergeInternal(child)
		}
		n.children[idx-1] = left
		n.childMax[idx-1] = left.maxKey()
		n.removeChild(idx)
		return
	}

	right := unshare(n.children[idx+1])
	if child.leaf {
		child.mergeLeaf(right)
	} else {
		child.mergeInternal(right)
	}
	n.childMax[idx] = child.maxKey()
	n.removeChild(idx + 1)
}

// Clear empties the tree: the root becomes a fresh empty leaf and size
// resets to zero.
func (t *Tree[K, V]) Clear() error {
	if t.frozen {
		return ErrFrozen
	}
	t.root = newLeaf[K, V]()
	t.size = 0
	return nil
}

// Clone returns a new Tree that shares its root with t: an O(1) logical
// copy. Both trees remain independently mutable; shared subtrees are
// duplicated lazily on first write via unshare. The clone starts unfrozen
// regardless of t's frozen state.
func (t *Tree[K, V]) Clone() *Tree[K, V] {
	t.root.shared = true
	return &Tree[K, V]{
		root:    t.root,
		size:    t.size,
		maxSize: t.maxSize,
		cmp:     t.cmp,
	}
}

// Freeze makes every subsequent mutating call fail with ErrFrozen. Reads
// remain permitted.
func (t *Tree[K, V]) Freeze() { t.frozen = true }

// Unfreeze reverses Freeze.
func (t *Tree[K, V]) Unfreeze() { t.frozen = false }

// Frozen reports whether the tree currently rejects mutators.
func (t *Tree[K, V]) Frozen() bool { return t.frozen }

// ToArray materialises the tree in ascending key order as a slice of
// Pair. If max >= 0, at most max pairs are returned.
func (t *Tree[K, V]) ToArray(max int) []Pair[K, V] {
	out := make([]Pair[K, V], 0, minInt(t.size, nonNegative(max, t.size)))
	for k, v := range t.Entries(nil) {
		if max >= 0 && len(out) >= max {
			break
		}
		out = append(out, Pair[K, V]{Key: k, Value: v})
	}
	return out
}

// KeysArray materialises every key in ascending order.
func (t *Tree[K, V]) KeysArray() []K {
	out := make([]K, 0, t.size)
	for k := range t.Keys(nil) {
		out = append(out, k)
	}
	return out
}

// ValuesArray materialises every value in key-ascending order.
func (t *Tree[K, V]) ValuesArray() []V {
	out := make([]V, 0, t.size)
	for v := range t.Values(nil) {
		out = append(out, v)
	}
	return out
}

// ToString renders the tree as "[[k1 v1] [k2 v2] ...]" in ascending key
// order, primarily useful for debugging and test failure messages.
func (t *Tree[K, V]) ToString() string {
	var b strings.Builder
	b.WriteByte('[')
	first := true
	for k, v := range t.Entries(nil) {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&b, "[%v %v]", k, v)
	}
	b.WriteByte(']')
	return b.String()
}

// GetRange materialises the contiguous slice of pairs with keys in [lo,
// hi) or [lo, hi] when includeHigh is set. If maxLen >= 0, at most maxLen
// pairs are returned.
func (t *Tree[K, V]) GetRange(lo, hi K, includeHigh bool, maxLen int) []Pair[K, V] {
	out := []Pair[K, V]{}
	ForRange[K, V, struct{}](t, lo, hi, includeHigh, func(k K, v V, counter int) (struct{}, bool) {
		if maxLen >= 0 && len(out) >= maxLen {
			return struct{}{}, true
		}
		out = append(out, Pair[K, V]{Key: k, Value: v})
		return struct{}{}, false
	}, 0)
	return out
}

// ForEach visits every pair in ascending key order, stopping early if fn
// returns false.
func (t *Tree[K, V]) ForEach(fn func(v V, k K, tree *Tree[K, V]) bool) {
	for k, v := range t.Entries(nil) {
		if !fn(v, k, t) {
			return
		}
	}
}

// ForEachPair visits every pair in ascending key order with a running
// counter starting at c0, stopping early if fn returns false. It returns
// the number of pairs visited.
func (t *Tree[K, V]) ForEachPair(fn func(k K, v V, counter int) bool, c0 int) int {
	counter := c0
	for k, v := range t.Entries(nil) {
		cont := fn(k, v, counter)
		counter++
		if !cont {
			break
		}
	}
	return counter - c0
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func nonNegative(v, fallback int) int {
	if v < 0 {
		return fallback
	}
	return v
}
