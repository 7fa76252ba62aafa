// pkg/cowbtree/errors.go
package cowbtree

import "errors"

// Sentinel errors returned by Tree methods. Absence of a key is never an
// error: Get/Has/Entries report absence through a sentinel value or a
// boolean instead.
var (
	// ErrFrozen is returned by any mutating call on a frozen tree.
	ErrFrozen = errors.New("cowbtree: tree is frozen")

	// ErrInvariant is returned by CheckValid when the structural audit
	// finds a size mismatch, unordered per-child max-keys, or uneven
	// leaf depth.
	ErrInvariant = errors.New("cowbtree: invariant violation")
)
