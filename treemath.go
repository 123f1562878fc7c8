package ratchettree

import (
	"fmt"
	"math/bits"
)

// LeafNodeIndex is the ordinal of a leaf, counting leaves from the left.
type LeafNodeIndex uint32

// ParentNodeIndex is the ordinal of a parent node, counting parents from the left.
type ParentNodeIndex uint32

// NodeKind tells leaf nodes from parent nodes.
type NodeKind uint8

// Leaves sit at even flat positions, parents at odd ones.
const (
	LeafKind NodeKind = iota
	ParentKind
)

func (k NodeKind) String() string {
	if k == LeafKind {
		return "leaf"
	}
	return "parent"
}

// TreeNodeIndex addresses any node of a tree: either a leaf or a parent,
// identified by its ordinal within its kind.
//
// The zero value addresses leaf 0.
type TreeNodeIndex struct {
	kind    NodeKind
	ordinal uint32
}

// NewTreeNodeIndex derives a node index from a flat array position. Even
// positions denote leaves, odd positions denote parents.
func NewTreeNodeIndex(position uint32) TreeNodeIndex {
	return fromPosition(uint64(position))
}

func fromPosition(pos uint64) TreeNodeIndex {
	if pos%2 == 0 {
		return TreeNodeIndex{kind: LeafKind, ordinal: uint32(pos / 2)}
	}
	return TreeNodeIndex{kind: ParentKind, ordinal: uint32(pos / 2)}
}

// TreeIndex wraps a leaf ordinal as a generic node index.
func (l LeafNodeIndex) TreeIndex() TreeNodeIndex {
	return TreeNodeIndex{kind: LeafKind, ordinal: uint32(l)}
}

// TreeIndex wraps a parent ordinal as a generic node index.
func (p ParentNodeIndex) TreeIndex() TreeNodeIndex {
	return TreeNodeIndex{kind: ParentKind, ordinal: uint32(p)}
}

func (l LeafNodeIndex) position() uint64   { return 2 * uint64(l) }
func (p ParentNodeIndex) position() uint64 { return 2*uint64(p) + 1 }

// Kind returns whether i addresses a leaf or a parent.
func (i TreeNodeIndex) Kind() NodeKind { return i.kind }

// IsLeaf is a predicate: does i address a leaf?
func (i TreeNodeIndex) IsLeaf() bool { return i.kind == LeafKind }

// Leaf returns the leaf ordinal of i, if i addresses a leaf.
func (i TreeNodeIndex) Leaf() (LeafNodeIndex, bool) {
	return LeafNodeIndex(i.ordinal), i.kind == LeafKind
}

// Parent returns the parent ordinal of i, if i addresses a parent.
func (i TreeNodeIndex) Parent() (ParentNodeIndex, bool) {
	return ParentNodeIndex(i.ordinal), i.kind == ParentKind
}

// Level returns the height of node i above the leaves. Leaves are at level 0.
func (i TreeNodeIndex) Level() int {
	return level(i.position())
}

func (i TreeNodeIndex) String() string {
	return fmt.Sprintf("%s %d", i.kind, i.ordinal)
}

func (i TreeNodeIndex) position() uint64 {
	if i.kind == LeafKind {
		return LeafNodeIndex(i.ordinal).position()
	}
	return ParentNodeIndex(i.ordinal).position()
}

// --- Flat tree arithmetic --------------------------------------------------

// Trees are left-balanced: a tree of size n is the leftmost n positions of the
// smallest full tree containing them. All functions below operate on flat
// positions; size is the number of nodes of the truncated tree.

func nodeCount(leafCount uint32) uint64 {
	if leafCount == 0 {
		return 0
	}
	return 2*uint64(leafCount) - 1
}

// level counts the trailing one-bits of x.
func level(x uint64) int {
	return bits.TrailingZeros64(^x)
}

func root(size uint64) uint64 {
	mustHold(size > 0, "root of empty tree")
	return 1<<(bits.Len64(size)-1) - 1
}

// parentStep is the parent of x in a full tree.
func parentStep(x uint64) uint64 {
	k := level(x)
	b := (x >> (k + 1)) & 0x01
	return (x | 1<<k) ^ (b << (k + 1))
}

// parent skips ancestors which have been truncated away.
func parent(x, size uint64) uint64 {
	mustHold(x != root(size), "root has no parent")
	p := parentStep(x)
	for p >= size {
		p = parentStep(p)
	}
	return p
}

func left(x uint64) uint64 {
	k := level(x)
	mustHold(k > 0, "leaf has no children")
	return x ^ (1 << (k - 1))
}

func right(x, size uint64) uint64 {
	k := level(x)
	mustHold(k > 0, "leaf has no children")
	r := x ^ (3 << (k - 1))
	for r >= size {
		r = left(r)
	}
	return r
}

func sibling(x, size uint64) uint64 {
	p := parent(x, size)
	if x < p {
		return right(p, size)
	}
	return left(p)
}

func directPath(x, size uint64) []uint64 {
	r := root(size)
	var path []uint64
	for x != r {
		x = parent(x, size)
		path = append(path, x)
	}
	return path
}

func copath(x, size uint64) []uint64 {
	r := root(size)
	var path []uint64
	for x != r {
		path = append(path, sibling(x, size))
		x = parent(x, size)
	}
	return path
}

// commonAncestor is the lowest common ancestor of distinct positions x and y
// in a full tree. For nodes of a left-balanced tree it lies inside the tree.
func commonAncestor(x, y uint64) uint64 {
	lx, ly := level(x)+1, level(y)+1
	if lx <= ly && x>>ly == y>>ly {
		return y
	} else if ly <= lx && x>>lx == y>>lx {
		return x
	}
	k := 0
	for x != y {
		x, y = x>>1, y>>1
		k++
	}
	return (x << k) + (1 << (k - 1)) - 1
}

// --- Exported tree math ----------------------------------------------------

func checkLeaf(leaf LeafNodeIndex, leafCount uint32) error {
	if uint32(leaf) >= leafCount {
		return fmt.Errorf("%w: leaf %d, leaf count %d", ErrIndex, leaf, leafCount)
	}
	return nil
}

func checkIndex(i TreeNodeIndex, size uint64) error {
	if i.position() >= size {
		return fmt.Errorf("%w: %s, tree size %d", ErrIndex, i, size)
	}
	return nil
}

// Root returns the root node of a tree with leafCount leaves. A tree without
// leaves has no root, and Root returns ErrIndex.
func Root(leafCount uint32) (TreeNodeIndex, error) {
	if leafCount == 0 {
		return TreeNodeIndex{}, fmt.Errorf("%w: tree without leaves has no root", ErrIndex)
	}
	return fromPosition(root(nodeCount(leafCount))), nil
}

// DirectPath returns the ancestors of a leaf in a tree with leafCount leaves,
// ordered from the leaf's parent up to and including the root. The leaf
// itself is not part of its direct path, so the direct path of the single
// leaf of a one-leaf tree is empty.
func DirectPath(leaf LeafNodeIndex, leafCount uint32) ([]ParentNodeIndex, error) {
	if err := checkLeaf(leaf, leafCount); err != nil {
		return nil, err
	}
	positions := directPath(leaf.position(), nodeCount(leafCount))
	var path []ParentNodeIndex
	for _, pos := range positions {
		path = append(path, ParentNodeIndex(pos/2))
	}
	return path, nil
}

// Copath returns the siblings of the leaf and of every node on its direct
// path except the root, ordered bottom-up.
func Copath(leaf LeafNodeIndex, leafCount uint32) ([]TreeNodeIndex, error) {
	if err := checkLeaf(leaf, leafCount); err != nil {
		return nil, err
	}
	positions := copath(leaf.position(), nodeCount(leafCount))
	var path []TreeNodeIndex
	for _, pos := range positions {
		path = append(path, fromPosition(pos))
	}
	return path, nil
}

// LowestCommonAncestor returns the lowest parent node having both leaves a
// and b below it. a and b must be distinct leaves of a tree with leafCount leaves.
func LowestCommonAncestor(a, b LeafNodeIndex, leafCount uint32) (ParentNodeIndex, error) {
	if err := checkLeaf(a, leafCount); err != nil {
		return 0, err
	}
	if err := checkLeaf(b, leafCount); err != nil {
		return 0, err
	}
	if a == b {
		return 0, fmt.Errorf("%w: leaf %d has no common ancestor with itself", ErrIndex, a)
	}
	return ParentNodeIndex(commonAncestor(a.position(), b.position()) / 2), nil
}
