package ratchettree

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func sequence(n int) []uint32 {
	nodes := make([]uint32, n)
	for i := range nodes {
		nodes[i] = uint32(i)
	}
	return nodes
}

func TestDiffMerging(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ratchettree")
	defer teardown()
	//
	tree, err := New([]uint32{2, 0, 4})
	if err != nil {
		t.Fatal(err)
	}
	original := tree.Export()
	indices, leaves := collectLeaves(tree.Leaves())
	if !slices.Equal(indices, []LeafNodeIndex{0, 1}) || !slices.Equal(leaves, []uint32{2, 4}) {
		t.Fatalf("unexpected leaves of original tree: %v -> %v", indices, leaves)
	}
	diff := tree.EmptyDiff()
	for i := uint32(0); i < 1000; i++ {
		if err := diff.AddLeaf(i, i); err != nil {
			t.Fatalf("error while adding leaf %d: %v", i, err)
		}
	}
	indices, leaves = collectLeaves(diff.Leaves())
	if len(leaves) != 1002 || diff.LeafCount() != 1002 {
		t.Fatalf("expected 1002 leaves, have %d (leaf count %d)", len(leaves), diff.LeafCount())
	}
	if !slices.Equal(leaves[:5], []uint32{2, 4, 0, 1, 2}) {
		t.Errorf("unexpected first leaves %v", leaves[:5])
	}
	if indices[1001] != 1001 || leaves[1001] != 999 {
		t.Errorf("expected last leaf (1001, 999), have (%d, %d)", indices[1001], leaves[1001])
	}
	for i := 0; i < 200; i++ {
		if err := diff.RemoveLeaf(); err != nil {
			t.Fatalf("error while removing leaf: %v", err)
		}
	}
	indices, leaves = collectLeaves(diff.Leaves())
	if len(leaves) != 802 || diff.LeafCount() != 802 {
		t.Fatalf("expected 802 leaves, have %d (leaf count %d)", len(leaves), diff.LeafCount())
	}
	if !slices.Equal(leaves[:5], []uint32{2, 4, 0, 1, 2}) {
		t.Errorf("unexpected first leaves %v", leaves[:5])
	}
	if indices[801] != 801 || leaves[801] != 799 {
		t.Errorf("expected last leaf (801, 799), have (%d, %d)", indices[801], leaves[801])
	}
	if err := tree.MergeDiff(diff.Stage()); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	indices, leaves = collectLeaves(tree.Leaves())
	if len(leaves) != 802 || leaves[0] != 2 || indices[801] != 801 || leaves[801] != 799 {
		t.Errorf("merged tree does not reflect diff: %d leaves, last (%d, %d)",
			len(leaves), indices[len(indices)-1], leaves[len(leaves)-1])
	}
	// shrink back to the original tree
	diff = tree.EmptyDiff()
	for i := 0; i < 800; i++ {
		if err := diff.RemoveLeaf(); err != nil {
			t.Fatalf("error while removing leaf: %v", err)
		}
	}
	if err := tree.MergeDiff(diff.Stage()); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if !slices.Equal(tree.Export(), original) {
		t.Errorf("expected tree %v, have %v", original, tree.Export())
	}
}

func TestAddThenRemoveMergesToOriginal(t *testing.T) {
	for _, n := range []int{1, 3, 17} {
		tree, _ := New(sequence(9))
		reference, _ := New(sequence(9))
		diff := tree.EmptyDiff()
		for i := 0; i < n; i++ {
			if err := diff.AddLeaf(100, 200); err != nil {
				t.Fatal(err)
			}
		}
		for i := 0; i < n; i++ {
			if err := diff.RemoveLeaf(); err != nil {
				t.Fatal(err)
			}
		}
		if err := tree.MergeDiff(diff.Stage()); err != nil {
			t.Fatal(err)
		}
		if !Equal(tree, reference) {
			t.Errorf("n=%d: expected merged tree to equal original", n)
		}
	}
}

func TestLeafAdditionAndRemovalErrors(t *testing.T) {
	tree, _ := New(sequence(3))
	diff := tree.EmptyDiff()
	if err := diff.RemoveLeaf(); err != nil {
		t.Fatalf("error removing leaf: %v", err)
	}
	if err := diff.RemoveLeaf(); !errors.Is(err, ErrTreeTooSmall) {
		t.Fatalf("expected ErrTreeTooSmall removing the last leaf, got %v", err)
	}
	if diff.LeafCount() != 1 || diff.Size() != 1 || diff.removed != 1 || len(diff.appended) != 0 {
		t.Errorf("rejected removal changed the diff")
	}
	small, _ := NewWithConfig(Config{MaxSize: 5}, sequence(3))
	diff = small.EmptyDiff()
	if err := diff.AddLeaf(7, 8); err != nil {
		t.Fatalf("expected leaf addition up to capacity, got %v", err)
	}
	if err := diff.AddLeaf(9, 10); !errors.Is(err, ErrTreeTooLarge) {
		t.Fatalf("expected ErrTreeTooLarge, got %v", err)
	}
	if diff.Size() != 5 || len(diff.appended) != 1 {
		t.Errorf("rejected addition changed the diff")
	}
}

func TestAddLeafAtIndexCapacity(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("index capacity is not reachable with 32-bit slices")
	}
	n := uint64(math.MaxUint32)
	tree, err := New(make([]struct{}, n))
	if err != nil {
		t.Fatalf("cannot create tree at capacity: %v", err)
	}
	diff := tree.EmptyDiff()
	if err := diff.AddLeaf(struct{}{}, struct{}{}); !errors.Is(err, ErrTreeTooLarge) {
		t.Fatalf("expected ErrTreeTooLarge adding beyond capacity, got %v", err)
	}
}

func TestDiffIter(t *testing.T) {
	tree, _ := New(sequence(101))
	diff := tree.EmptyDiff()
	seen := make(map[uint32]int)
	for _, node := range diff.Nodes() {
		seen[node]++
	}
	for i := uint32(0); i < 101; i++ {
		if seen[i] != 1 {
			t.Errorf("node %d visited %d times", i, seen[i])
		}
	}
	if len(seen) != 101 {
		t.Errorf("expected 101 distinct nodes, have %d", len(seen))
	}
}

func TestExportDiffNodes(t *testing.T) {
	tree, _ := New(sequence(101))
	diff := tree.EmptyDiff()
	var nodes []uint32
	for _, node := range diff.Nodes() {
		nodes = append(nodes, node)
	}
	reimported, err := New(nodes)
	if err != nil {
		t.Fatalf("cannot create tree from diff nodes: %v", err)
	}
	if !Equal(tree, reimported) {
		t.Errorf("expected re-imported tree to equal original tree")
	}
}

func TestDiffMutableAccessAfterManipulation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ratchettree")
	defer teardown()
	//
	tree, _ := New(sequence(101))
	diff := tree.EmptyDiff()
	if err := diff.SetDirectPathToNode(5, 999); err != nil {
		t.Fatal(err)
	}
	path, err := diff.DirectPath(6)
	if err != nil {
		t.Fatal(err)
	}
	var refs []TreeNodeIndex
	for _, p := range path {
		refs = append(refs, p.TreeIndex())
	}
	for _, ref := range refs {
		node, err := diff.NodeMut(ref)
		if err != nil {
			t.Fatal(err)
		}
		*node = 888
	}
	nodes, err := diff.DerefVec(refs)
	if err != nil {
		t.Fatalf("error dereferencing direct path nodes: %v", err)
	}
	if !slices.Equal(nodes, []uint32{888, 888, 888, 888, 888, 888}) {
		t.Errorf("unexpected direct path payloads %v", nodes)
	}
	// parent 4 is on the direct path of leaf 5 only
	if p, _ := diff.Parent(4); p != 999 {
		t.Errorf("expected parent 4 to keep 999, has %d", p)
	}
	// leaves are never on a direct path
	if l, _ := diff.Leaf(5); l != 10 {
		t.Errorf("expected leaf 5 untouched, has %d", l)
	}
	for pos, node := range tree.Export() {
		if node != uint32(pos) {
			t.Fatalf("diff changed the tree at position %d", pos)
		}
	}
}

func TestNodeMutIsCopyOnWrite(t *testing.T) {
	tree, _ := New([]string{"a", "ab", "b"})
	diff := tree.EmptyDiff()
	if diff.IsModified(LeafNodeIndex(1).TreeIndex()) {
		t.Errorf("fresh diff reports modification")
	}
	node, err := diff.NodeMut(LeafNodeIndex(1).TreeIndex())
	if err != nil {
		t.Fatal(err)
	}
	if *node != "b" {
		t.Errorf("expected copy of base payload, have %q", *node)
	}
	*node = "B"
	if got, _ := diff.Leaf(1); got != "B" {
		t.Errorf("expected diff to show write, has %q", got)
	}
	if got, _ := tree.Leaf(1); got != "b" {
		t.Errorf("write through diff reached the tree: %q", got)
	}
	if !diff.IsModified(LeafNodeIndex(1).TreeIndex()) || diff.IsModified(LeafNodeIndex(0).TreeIndex()) {
		t.Errorf("unexpected modification report")
	}
	if _, err := diff.NodeMut(NewTreeNodeIndex(3)); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex for node beyond diff, got %v", err)
	}
}

func TestNodeMutOnAppendedNodes(t *testing.T) {
	tree, _ := New([]int{0})
	diff := tree.EmptyDiff()
	_ = diff.AddLeaf(2, 1)
	leaf, err := diff.NodeMut(LeafNodeIndex(1).TreeIndex())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ { // appending must not invalidate leaf
		_ = diff.AddLeaf(0, 0)
	}
	*leaf = 42
	if got, _ := diff.Leaf(1); got != 42 {
		t.Errorf("expected appended leaf to be 42, is %d", got)
	}
	if !diff.IsModified(ParentNodeIndex(0).TreeIndex()) {
		t.Errorf("expected appended parent to count as modified")
	}
}

func TestRemovalDiscardsPendingWrites(t *testing.T) {
	tree, _ := New(sequence(5))
	diff := tree.EmptyDiff()
	if err := diff.SetDirectPathToNode(2, 77); err != nil {
		t.Fatal(err)
	}
	node, _ := diff.NodeMut(LeafNodeIndex(2).TreeIndex())
	*node = 66
	if err := diff.RemoveLeaf(); err != nil {
		t.Fatal(err)
	}
	if err := diff.Check(); err != nil {
		t.Fatalf("diff does not validate after removal: %v", err)
	}
	if err := diff.AddLeaf(100, 101); err != nil {
		t.Fatal(err)
	}
	nodes, err := diff.DerefVec([]TreeNodeIndex{ParentNodeIndex(1).TreeIndex(), LeafNodeIndex(2).TreeIndex()})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(nodes, []uint32{101, 100}) {
		t.Errorf("expected re-added pair (101, 100), have %v", nodes)
	}
	if err := tree.MergeDiff(diff.Stage()); err != nil {
		t.Fatal(err)
	}
	// parent 1 was the root when the path was set; it was removed and re-added
	want := []uint32{0, 1, 2, 101, 100}
	if !slices.Equal(tree.Export(), want) {
		t.Errorf("expected %v, have %v", want, tree.Export())
	}
}

func TestDerefVecIsAtomic(t *testing.T) {
	tree, _ := New(sequence(5))
	diff := tree.EmptyDiff()
	nodes, err := diff.DerefVec([]TreeNodeIndex{
		LeafNodeIndex(0).TreeIndex(),
		LeafNodeIndex(3).TreeIndex(),
	})
	if !errors.Is(err, ErrIndex) || nodes != nil {
		t.Errorf("expected ErrIndex and no partial result, have %v, %v", nodes, err)
	}
}

func TestDiffTreeMath(t *testing.T) {
	tree, _ := New(sequence(3))
	diff := tree.EmptyDiff()
	_ = diff.AddLeaf(0, 0)
	_ = diff.AddLeaf(0, 0) // 4 leaves
	if diff.Root() != ParentNodeIndex(1).TreeIndex() {
		t.Errorf("expected root parent 1, have %s", diff.Root())
	}
	path, err := diff.DirectPath(3)
	if err != nil || !slices.Equal(path, []ParentNodeIndex{2, 1}) {
		t.Errorf("unexpected direct path %v (%v)", path, err)
	}
	copath, err := diff.Copath(3)
	if err != nil || len(copath) != 2 || copath[0] != LeafNodeIndex(2).TreeIndex() {
		t.Errorf("unexpected copath %v (%v)", copath, err)
	}
	p, err := diff.LowestCommonAncestor(0, 3)
	if err != nil || p != 1 {
		t.Errorf("expected lca parent 1, have %d (%v)", p, err)
	}
	if err := diff.SetDirectPathToNode(4, 0); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex for leaf beyond diff, got %v", err)
	}
}

func TestStagedDiffPanicsOnReuse(t *testing.T) {
	tree, _ := New(sequence(3))
	diff := tree.EmptyDiff()
	_ = diff.Stage()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic using a staged diff")
		}
	}()
	_ = diff.AddLeaf(1, 1)
}
