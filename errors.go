package ratchettree

import "errors"

var (
	// ErrInvalidNumberOfNodes signals construction from an even number of nodes,
	// which cannot form a complete binary tree.
	ErrInvalidNumberOfNodes = errors.New("ratchettree: invalid number of nodes")
	// ErrOutOfRange signals construction from more nodes than the index space
	// can address.
	ErrOutOfRange = errors.New("ratchettree: number of nodes out of range")
	// ErrTreeTooSmall signals that removing a leaf would leave the tree without leaves.
	ErrTreeTooSmall = errors.New("ratchettree: tree too small")
	// ErrTreeTooLarge signals that adding a leaf would exceed the index capacity.
	ErrTreeTooLarge = errors.New("ratchettree: tree too large")
	// ErrIndex signals an index which is invalid for the current bounds of a
	// tree or diff.
	ErrIndex = errors.New("ratchettree: index out of bounds")
	// ErrStaleDiff signals a staged diff which does not derive from the current
	// state of the tree it is merged into.
	ErrStaleDiff = errors.New("ratchettree: stale diff")
	// ErrInvalidConfig signals an invalid tree configuration.
	ErrInvalidConfig = errors.New("ratchettree: invalid configuration")
	// ErrInvalidTree signals a violated structural invariant.
	ErrInvalidTree = errors.New("ratchettree: invalid tree")
)
