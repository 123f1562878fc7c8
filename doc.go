/*
Package ratchettree implements an array-backed binary tree with transactional,
copy-on-write mutation. It is the in-memory state container for the ratchet
tree of a secure group-messaging protocol (MLS and relatives).

# Ratchet Trees

A ratchet tree is a left-balanced binary tree stored in a flat array. Leaves
live at even positions, parents at odd positions:

	position   0   1   2   3   4   5   6   7   8
	node       L0  P0  L1  P1  L2  P2  L3  P3  L4

A tree with L leaves always has 2L-1 nodes. Leaf and parent ordinals are
distinct types (LeafNodeIndex, ParentNodeIndex); TreeNodeIndex addresses
either kind. Flat positions are an implementation detail and never leave the
package.

Payloads are opaque to this package. A tree of type Tree[T] treats T as a
value: it is copied in and out, and compared for equality only in tests and
in Equal.

# Diffs

Trees are never edited in place. Clients create a Diff from a tree, add and
remove leaves, overwrite nodes and propagate values along direct paths. A diff
records changes in a sparse overlay and leaves the tree untouched. When the
client is content with the result, the diff is staged and merged:

	diff := tree.EmptyDiff()
	if err := diff.AddLeaf(member, blank); err != nil {
	    return err // policy rejection: tree is full
	}
	newLeaf := ratchettree.LeafNodeIndex(diff.LeafCount() - 1)
	if err := diff.SetDirectPathToNode(newLeaf, blank); err != nil {
	    return err
	}
	staged := diff.Stage()
	if err := tree.MergeDiff(staged); err != nil {
	    return err
	}

Rejected diffs are simply dropped. Any number of diffs may be derived from
the same tree, but only one staged diff per tree state may be merged; merging
a diff derived from an older state of the tree fails with ErrStaleDiff.

Trees and diffs are not safe for concurrent mutation. Clients serialize
merges.

_________________________________________________________________________

# BSD 3-Clause License

Copyright (c) 2026, Norbert Pillmayer <norbert@pillmayer.com>

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice, this
list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
this list of conditions and the following disclaimer in the documentation
and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its
contributors may be used to endorse or promote products derived from
this software without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

*/
package ratchettree

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ratchettree'
func tracer() tracing.Trace {
	return tracing.Select("ratchettree")
}

func mustHold(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
