package ratchettree

/*
BSD 3-Clause License

Copyright (c) 2026, Norbert Pillmayer

Please refer to the License file in the repository root.

*/

import (
	"fmt"
	"slices"
)

// Tree is an array-backed, left-balanced binary tree holding one payload of
// type T per node.
//
// A tree always has an odd number of nodes and at least one leaf. Trees are
// changed exclusively by merging staged diffs (see Diff and MergeDiff); all
// other methods are read-only.
type Tree[T any] struct {
	cfg        Config
	nodes      []T
	id         *treeID
	generation uint64 // incremented by every merge
}

// treeID identifies a tree without referencing it.
type treeID struct {
	_ byte
}

// New creates a tree from a flat sequence of nodes, leaves at even and parents
// at odd positions. The tree holds a copy of nodes.
//
// New fails with ErrInvalidNumberOfNodes if len(nodes) is even, and with
// ErrOutOfRange if len(nodes) exceeds MaxTreeSize.
func New[T any](nodes []T) (*Tree[T], error) {
	return NewWithConfig(DefaultConfig(), nodes)
}

// NewWithConfig creates a tree from a flat sequence of nodes, applying the
// capacity bound of cfg.
func NewWithConfig[T any](cfg Config, nodes []T) (*Tree[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalized()
	if uint64(len(nodes)) > uint64(cfg.MaxSize) {
		return nil, fmt.Errorf("%w: %d nodes, capacity is %d", ErrOutOfRange, len(nodes), cfg.MaxSize)
	}
	if len(nodes)%2 == 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNumberOfNodes, len(nodes))
	}
	return &Tree[T]{cfg: cfg, nodes: slices.Clone(nodes), id: &treeID{}}, nil
}

// Config returns the effective tree configuration.
func (t *Tree[T]) Config() Config {
	return t.cfg
}

// Size returns the number of nodes of the tree.
func (t *Tree[T]) Size() uint32 {
	return uint32(len(t.nodes))
}

// LeafCount returns the number of leaves of the tree.
func (t *Tree[T]) LeafCount() uint32 {
	return uint32((len(t.nodes) + 1) / 2)
}

// ParentCount returns the number of parent nodes of the tree.
func (t *Tree[T]) ParentCount() uint32 {
	return t.LeafCount() - 1
}

// NodeByIndex returns the payload at node i, or ErrIndex if i lies outside
// the tree.
func (t *Tree[T]) NodeByIndex(i TreeNodeIndex) (T, error) {
	if err := checkIndex(i, uint64(len(t.nodes))); err != nil {
		var zero T
		return zero, err
	}
	return t.nodes[i.position()], nil
}

// Leaf returns the payload of a leaf.
func (t *Tree[T]) Leaf(leaf LeafNodeIndex) (T, error) {
	return t.NodeByIndex(leaf.TreeIndex())
}

// Parent returns the payload of a parent node.
func (t *Tree[T]) Parent(p ParentNodeIndex) (T, error) {
	return t.NodeByIndex(p.TreeIndex())
}

// Root returns the index of the root node.
func (t *Tree[T]) Root() TreeNodeIndex {
	return fromPosition(root(uint64(len(t.nodes))))
}

// Export returns a copy of the flat node sequence. Passing it to New yields a
// tree equal to t.
func (t *Tree[T]) Export() []T {
	return slices.Clone(t.nodes)
}

// EmptyDiff creates a diff without any changes, based on t.
func (t *Tree[T]) EmptyDiff() *Diff[T] {
	return &Diff[T]{
		tree:       t,
		generation: t.generation,
		overlay:    make(map[uint64]*T),
	}
}

// Equal reports whether two trees have the same size and pairwise equal payloads.
// Two nil trees are equal.
func Equal[T comparable](a, b *Tree[T]) bool {
	if a == nil || b == nil {
		return a == b
	}
	return slices.Equal(a.nodes, b.nodes)
}

// EqualFunc is like Equal, but compares payloads with eq.
func EqualFunc[T any](a, b *Tree[T], eq func(T, T) bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return slices.EqualFunc(a.nodes, b.nodes, eq)
}
