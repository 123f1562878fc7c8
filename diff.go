package ratchettree

/*
BSD 3-Clause License

Copyright (c) 2026, Norbert Pillmayer

Please refer to the License file in the repository root.

*/

import (
	"fmt"
)

// nodePair is an appended (parent, leaf) pair. Pairs are allocated
// individually, so pointers handed out by NodeMut stay valid while more pairs
// are appended.
type nodePair[T any] struct {
	parent T
	leaf   T
}

// Diff is a copy-on-write view on a tree, recording pending changes without
// touching the tree.
//
// The logical node sequence of a diff is the tree's node sequence, minus
// removed trailing (parent, leaf) pairs, with pending writes applied, followed
// by appended (parent, leaf) pairs. All read operations of Diff resolve
// against this logical sequence.
//
// A diff is created with Tree.EmptyDiff and ends its life by either being
// dropped or being staged with Stage. A diff must not be used after staging,
// nor after another diff has been merged into its tree.
type Diff[T any] struct {
	tree       *Tree[T]
	generation uint64         // generation of tree at diff creation
	overlay    map[uint64]*T  // pending writes to retained base positions
	appended   []*nodePair[T] // pairs appended past the retained base
	removed    uint32         // trailing base pairs removed
}

func (d *Diff[T]) checkLive() {
	mustHold(d.tree != nil, "ratchettree: diff used after being staged")
	mustHold(d.generation == d.tree.generation, "ratchettree: diff used after its tree changed")
}

// baseSize is the number of base nodes retained by the diff.
func (d *Diff[T]) baseSize() uint64 {
	return uint64(len(d.tree.nodes)) - 2*uint64(d.removed)
}

func (d *Diff[T]) size() uint64 {
	return d.baseSize() + 2*uint64(len(d.appended))
}

// Size returns the number of nodes of the diff's logical tree.
func (d *Diff[T]) Size() uint32 {
	d.checkLive()
	return uint32(d.size())
}

// LeafCount returns the number of leaves of the diff's logical tree.
func (d *Diff[T]) LeafCount() uint32 {
	d.checkLive()
	return uint32((d.size() + 1) / 2)
}

// node resolves a logical position, which must be in range.
func (d *Diff[T]) node(pos uint64) *T {
	base := d.baseSize()
	if pos >= base {
		pair := d.appended[(pos-base)/2]
		if (pos-base)%2 == 0 {
			return &pair.parent
		}
		return &pair.leaf
	}
	if n, ok := d.overlay[pos]; ok {
		return n
	}
	return &d.tree.nodes[pos]
}

// nodeMut resolves a logical position for writing. Base nodes are copied into
// the overlay on first write.
func (d *Diff[T]) nodeMut(pos uint64) *T {
	if pos >= d.baseSize() {
		return d.node(pos)
	}
	if n, ok := d.overlay[pos]; ok {
		return n
	}
	n := new(T)
	*n = d.tree.nodes[pos]
	d.overlay[pos] = n
	return n
}

// AddLeaf appends a new rightmost leaf together with the parent node joining
// it to the tree. The new leaf receives the highest leaf index.
//
// If the resulting tree would exceed the configured capacity, AddLeaf returns
// ErrTreeTooLarge and leaves the diff unchanged.
func (d *Diff[T]) AddLeaf(leaf, parent T) error {
	d.checkLive()
	size, capacity := d.size(), uint64(d.tree.cfg.MaxSize)
	if size+2 > capacity {
		tracer().P("size", size).Debugf("leaf addition rejected, capacity is %d", capacity)
		return fmt.Errorf("%w: size %d, capacity %d", ErrTreeTooLarge, size, capacity)
	}
	d.appended = append(d.appended, &nodePair[T]{parent: parent, leaf: leaf})
	return nil
}

// RemoveLeaf removes the rightmost leaf together with its adjacent parent node.
// Pending writes to the removed nodes are discarded.
//
// A tree must keep at least one leaf: removing the last leaf fails with
// ErrTreeTooSmall and leaves the diff unchanged.
func (d *Diff[T]) RemoveLeaf() error {
	d.checkLive()
	if d.LeafCount() == 1 {
		tracer().Debugf("leaf removal rejected, tree has a single leaf")
		return fmt.Errorf("%w: cannot remove the last leaf", ErrTreeTooSmall)
	}
	if n := len(d.appended); n > 0 {
		d.appended[n-1] = nil
		d.appended = d.appended[:n-1]
		return nil
	}
	base := d.baseSize()
	delete(d.overlay, base-1)
	delete(d.overlay, base-2)
	d.removed++
	return nil
}

// NodeByIndex returns the payload of node i in the diff's logical tree.
func (d *Diff[T]) NodeByIndex(i TreeNodeIndex) (T, error) {
	d.checkLive()
	if err := checkIndex(i, d.size()); err != nil {
		var zero T
		return zero, err
	}
	return *d.node(i.position()), nil
}

// Leaf returns the payload of a leaf in the diff's logical tree.
func (d *Diff[T]) Leaf(leaf LeafNodeIndex) (T, error) {
	return d.NodeByIndex(leaf.TreeIndex())
}

// Parent returns the payload of a parent node in the diff's logical tree.
func (d *Diff[T]) Parent(p ParentNodeIndex) (T, error) {
	return d.NodeByIndex(p.TreeIndex())
}

// NodeMut returns a pointer to the diff's private copy of node i. Writing
// through the pointer changes the diff only, never the underlying tree.
//
// The pointer is valid until the node is removed or the diff is staged.
// Writes after staging are not seen by the staged diff.
func (d *Diff[T]) NodeMut(i TreeNodeIndex) (*T, error) {
	d.checkLive()
	if err := checkIndex(i, d.size()); err != nil {
		return nil, err
	}
	return d.nodeMut(i.position()), nil
}

// IsModified is a predicate: does node i differ from the tree by a pending
// write or by having been appended?
func (d *Diff[T]) IsModified(i TreeNodeIndex) bool {
	d.checkLive()
	pos := i.position()
	if pos >= d.size() {
		return false
	}
	if pos >= d.baseSize() {
		return true
	}
	_, ok := d.overlay[pos]
	return ok
}

// Root returns the root of the diff's logical tree.
func (d *Diff[T]) Root() TreeNodeIndex {
	d.checkLive()
	return fromPosition(root(d.size()))
}

// DirectPath returns the direct path of a leaf in the diff's logical tree,
// from the leaf's parent up to and including the root.
func (d *Diff[T]) DirectPath(leaf LeafNodeIndex) ([]ParentNodeIndex, error) {
	return DirectPath(leaf, d.LeafCount())
}

// Copath returns the copath of a leaf in the diff's logical tree.
func (d *Diff[T]) Copath(leaf LeafNodeIndex) ([]TreeNodeIndex, error) {
	return Copath(leaf, d.LeafCount())
}

// LowestCommonAncestor returns the lowest parent node shared by the direct
// paths of two distinct leaves.
func (d *Diff[T]) LowestCommonAncestor(a, b LeafNodeIndex) (ParentNodeIndex, error) {
	return LowestCommonAncestor(a, b, d.LeafCount())
}

// SetDirectPathToNode overwrites every node on the direct path of leaf with
// value, replacing earlier pending writes.
func (d *Diff[T]) SetDirectPathToNode(leaf LeafNodeIndex, value T) error {
	d.checkLive()
	size := d.size()
	if err := checkLeaf(leaf, uint32((size+1)/2)); err != nil {
		return err
	}
	path := directPath(leaf.position(), size)
	for _, pos := range path {
		*d.nodeMut(pos) = value
	}
	tracer().P("leaf", uint32(leaf)).Debugf("set %d nodes on direct path", len(path))
	return nil
}

// DerefVec returns the payloads of the given nodes, in order. If any index is
// invalid, DerefVec fails without a partial result.
func (d *Diff[T]) DerefVec(indices []TreeNodeIndex) ([]T, error) {
	d.checkLive()
	size := d.size()
	for _, i := range indices {
		if err := checkIndex(i, size); err != nil {
			return nil, err
		}
	}
	nodes := make([]T, len(indices))
	for k, i := range indices {
		nodes[k] = *d.node(i.position())
	}
	return nodes, nil
}
