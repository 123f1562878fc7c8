package ratchettree

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// StagedDiff is the frozen change set of a diff, detached from the tree the
// diff was based on. Its only use is to be merged with Tree.MergeDiff.
type StagedDiff[T any] struct {
	origin     *treeID
	generation uint64
	baseSize   uint64 // size of the origin tree
	overlay    map[uint64]*T
	appended   []*nodePair[T]
	removed    uint32
}

// DiffStats summarizes the changes recorded in a staged diff.
type DiffStats struct {
	Overwritten int // pending writes to retained nodes
	Appended    int // (parent, leaf) pairs appended
	Removed     int // trailing (parent, leaf) pairs removed
}

// Stage freezes the changes of d into a staged diff. Afterwards d is detached
// from its tree and must not be used any more.
//
// The staged diff holds copies of all pending payloads: writing through a
// pointer obtained from NodeMut after staging does not change it.
func (d *Diff[T]) Stage() *StagedDiff[T] {
	d.checkLive()
	staged := &StagedDiff[T]{
		origin:     d.tree.id,
		generation: d.generation,
		baseSize:   uint64(len(d.tree.nodes)),
		overlay:    make(map[uint64]*T, len(d.overlay)),
		appended:   make([]*nodePair[T], len(d.appended)),
		removed:    d.removed,
	}
	for pos, node := range d.overlay {
		n := new(T)
		*n = *node
		staged.overlay[pos] = n
	}
	for k, pair := range d.appended {
		p := *pair
		staged.appended[k] = &p
	}
	d.tree, d.overlay, d.appended = nil, nil, nil
	tracing.With(tracer()).Dump("staged diff", staged.Stats())
	return staged
}

func (s *StagedDiff[T]) size() uint64 {
	return s.baseSize - 2*uint64(s.removed) + 2*uint64(len(s.appended))
}

// Size returns the number of nodes a tree will have after merging s.
func (s *StagedDiff[T]) Size() uint32 {
	return uint32(s.size())
}

// LeafCount returns the number of leaves a tree will have after merging s.
func (s *StagedDiff[T]) LeafCount() uint32 {
	return uint32((s.size() + 1) / 2)
}

// Stats returns a summary of the changes recorded in s.
func (s *StagedDiff[T]) Stats() DiffStats {
	return DiffStats{
		Overwritten: len(s.overlay),
		Appended:    len(s.appended),
		Removed:     int(s.removed),
	}
}

// MergeDiff applies a staged diff to t. Afterwards t is observationally
// identical to the logical tree the diff exposed when it was staged.
//
// The staged diff must have been derived from t in its current state. Diffs
// from other trees, diffs staged before an earlier merge, and diffs merged
// before are rejected with ErrStaleDiff. Failing merges do not change t.
func (t *Tree[T]) MergeDiff(s *StagedDiff[T]) error {
	mustHold(s != nil, "ratchettree: merging nil diff")
	if s.origin != t.id || s.generation != t.generation {
		tracer().P("generation", t.generation).Errorf("rejecting stale diff of generation %d", s.generation)
		return fmt.Errorf("%w: diff of generation %d, tree at generation %d", ErrStaleDiff,
			s.generation, t.generation)
	}
	if t.cfg.CheckOnMerge {
		if err := s.check(t.cfg); err != nil {
			return err
		}
	}
	keep := uint64(len(t.nodes)) - 2*uint64(s.removed)
	nodes := t.nodes[:keep]
	for pos, node := range s.overlay {
		nodes[pos] = *node
	}
	for _, pair := range s.appended {
		nodes = append(nodes, pair.parent, pair.leaf)
	}
	t.nodes = nodes
	t.generation++
	tracer().P("generation", t.generation).Debugf("merged diff, tree has %d leaves", t.LeafCount())
	return nil
}
