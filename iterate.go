package ratchettree

import "iter"

// Nodes returns an iterator over all nodes of the tree in flat order,
// alternating leaves and parents.
func (t *Tree[T]) Nodes() iter.Seq2[TreeNodeIndex, T] {
	return func(yield func(TreeNodeIndex, T) bool) {
		for pos, node := range t.nodes {
			if !yield(fromPosition(uint64(pos)), node) {
				return
			}
		}
	}
}

// Leaves returns an iterator over the leaves of the tree, left to right.
func (t *Tree[T]) Leaves() iter.Seq2[LeafNodeIndex, T] {
	return func(yield func(LeafNodeIndex, T) bool) {
		for pos := 0; pos < len(t.nodes); pos += 2 {
			if !yield(LeafNodeIndex(pos/2), t.nodes[pos]) {
				return
			}
		}
	}
}

// Nodes returns an iterator over all nodes of the diff's logical tree in flat
// order: base nodes with pending writes applied, followed by appended nodes.
// Removed nodes are skipped.
func (d *Diff[T]) Nodes() iter.Seq2[TreeNodeIndex, T] {
	return func(yield func(TreeNodeIndex, T) bool) {
		size := d.size()
		for pos := uint64(0); pos < size; pos++ {
			if !yield(fromPosition(pos), *d.node(pos)) {
				return
			}
		}
	}
}

// Leaves returns an iterator over the leaves of the diff's logical tree,
// left to right.
func (d *Diff[T]) Leaves() iter.Seq2[LeafNodeIndex, T] {
	return func(yield func(LeafNodeIndex, T) bool) {
		size := d.size()
		for pos := uint64(0); pos < size; pos += 2 {
			if !yield(LeafNodeIndex(pos/2), *d.node(pos)) {
				return
			}
		}
	}
}
