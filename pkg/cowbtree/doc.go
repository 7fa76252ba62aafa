// Package cowbtree implements an ordered, in-memory key/value container
// backed by a B+ tree with copy-on-write node sharing.
//
// All key/value pairs live in leaves, chained implicitly through the
// parent/child structure rather than explicit sibling pointers; internal
// nodes route lookups by each child's maximum key rather than classic
// separator keys. Clone is an O(1) logical copy: it marks the existing root
// shared and hands the caller a new Tree referencing it. Both trees keep
// working independently — a node is only cloned, lazily, the first time a
// write actually needs to touch it after being marked shared.
//
// This package assumes a single mutator at a time, consistent with its
// design goal: an ordered container for a single goroutine's data
// structures, not a concurrent database index. Concurrent multi-writer
// access, durability, and bulk-load from sorted input are out of scope.
package cowbtree
