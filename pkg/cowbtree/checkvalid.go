// pkg/cowbtree/checkvalid.go
package cowbtree

import "fmt"

// CheckValid audits the tree's structural invariants and returns a wrapped ErrInvariant describing the first violation
// found, or nil if the tree is sound. It is a diagnostic for tests and
// callers who distrust their own comparator, not something the tree calls
// on its own hot paths — grounded in the assert-style structural checks
// MHS-20-ElkDB's kvstore tests run against its own B-tree, adapted here to
// return an error instead of panicking.
func (t *Tree[K, V]) CheckValid() error {
	size, _, err := t.checkNode(t.root, true)
	if err != nil {
		return err
	}
	if size != t.size {
		return fmt.Errorf("%w: tree reports size %d but holds %d entries", ErrInvariant, t.size, size)
	}
	return nil
}

// checkNode validates n and its subtree, returning the number of leaf
// entries beneath it and its depth (leaves are depth 1) so the caller can
// confirm every leaf sits at the same depth (invariant 4).
func (t *Tree[K, V]) checkNode(n *node[K, V], isRoot bool) (size int, depth int, err error) {
	if n.leaf {
		if !isRoot && len(n.keys) == 0 {
			return 0, 1, fmt.Errorf("%w: non-root leaf has no entries", ErrInvariant)
		}
		if len(n.keys) != len(n.values) {
			return 0, 1, fmt.Errorf("%w: leaf has %d keys but %d values", ErrInvariant, len(n.keys), len(n.values))
		}
		for i := 1; i < len(n.keys); i++ {
			if t.cmp(n.keys[i-1], n.keys[i]) >= 0 {
				return 0, 1, fmt.Errorf("%w: leaf keys not strictly ascending at index %d", ErrInvariant, i)
			}
		}
		return len(n.keys), 1, nil
	}

	if !isRoot && len(n.children) < 2 {
		return 0, 0, fmt.Errorf("%w: non-root internal node has %d children", ErrInvariant, len(n.children))
	}
	if len(n.children) != len(n.childMax) {
		return 0, 0, fmt.Errorf("%w: internal node has %d children but %d childMax entries", ErrInvariant, len(n.children), len(n.childMax))
	}

	total := 0
	var childDepth int
	for i, child := range n.children {
		sz, d, err := t.checkNode(child, false)
		if err != nil {
			return 0, 0, err
		}
		if i == 0 {
			childDepth = d
		} else if d != childDepth {
			return 0, 0, fmt.Errorf("%w: leaves at uneven depth (%d vs %d)", ErrInvariant, d, childDepth)
		}
		if i > 0 && t.cmp(n.childMax[i-1], n.childMax[i]) >= 0 {
			return 0, 0, fmt.Errorf("%w: childMax not strictly ascending at index %d", ErrInvariant, i)
		}
		if got, want := n.childMax[i], child.maxKey(); t.cmp(got, want) != 0 {
			return 0, 0, fmt.Errorf("%w: childMax[%d] disagrees with child's actual max key", ErrInvariant, i)
		}
		total += sz
	}
	return total, childDepth + 1, nil
}
