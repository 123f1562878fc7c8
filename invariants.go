package ratchettree

import "fmt"

// Check validates structural tree invariants: an odd number of nodes, at
// least one leaf, and a size within the configured capacity.
//
// Trees built with New and changed through MergeDiff always validate. Check is
// meant for tests and for clients running with Config.CheckOnMerge.
func (t *Tree[T]) Check() error {
	if t == nil {
		return fmt.Errorf("%w: nil tree", ErrInvalidTree)
	}
	return checkShape(uint64(len(t.nodes)), t.cfg)
}

// Check validates the invariants of the diff's logical tree, and that no
// pending write refers to a removed or appended node.
func (d *Diff[T]) Check() error {
	if d == nil || d.tree == nil {
		return fmt.Errorf("%w: diff is detached", ErrInvalidTree)
	}
	if d.generation != d.tree.generation {
		return fmt.Errorf("%w: diff of generation %d, tree at generation %d", ErrInvalidTree,
			d.generation, d.tree.generation)
	}
	if uint64(d.removed)*2 >= uint64(len(d.tree.nodes)) {
		return fmt.Errorf("%w: %d pairs removed from tree of size %d", ErrInvalidTree,
			d.removed, len(d.tree.nodes))
	}
	if err := checkShape(d.size(), d.tree.cfg); err != nil {
		return err
	}
	return checkOverlay(d.overlay, d.baseSize())
}

func (s *StagedDiff[T]) check(cfg Config) error {
	if uint64(s.removed)*2 >= s.baseSize {
		return fmt.Errorf("%w: %d pairs removed from tree of size %d", ErrInvalidTree,
			s.removed, s.baseSize)
	}
	if err := checkShape(s.size(), cfg); err != nil {
		return err
	}
	return checkOverlay(s.overlay, s.baseSize-2*uint64(s.removed))
}

func checkShape(size uint64, cfg Config) error {
	if size == 0 {
		return fmt.Errorf("%w: tree has no leaves", ErrInvalidTree)
	}
	if size%2 == 0 {
		return fmt.Errorf("%w: even number of nodes (%d)", ErrInvalidTree, size)
	}
	if size > uint64(cfg.normalized().MaxSize) {
		return fmt.Errorf("%w: size %d exceeds capacity %d", ErrInvalidTree, size, cfg.normalized().MaxSize)
	}
	return nil
}

func checkOverlay[T any](overlay map[uint64]*T, retained uint64) error {
	for pos, node := range overlay {
		if pos >= retained {
			return fmt.Errorf("%w: pending write at %s beyond retained nodes", ErrInvalidTree, fromPosition(pos))
		}
		if node == nil {
			return fmt.Errorf("%w: nil pending write at %s", ErrInvalidTree, fromPosition(pos))
		}
	}
	return nil
}
