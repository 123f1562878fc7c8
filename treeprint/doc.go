/*
Package treeprint dumps ratchet trees and diffs to a console, for debugging.

Nodes are printed one per line in flat order, indented by their level above
the leaves, so that the output reads like the tree rotated by 90 degrees.
Leaves, parents and nodes changed by a diff are colored differently.

_________________________________________________________________________

# BSD 3-Clause License

Copyright (c) 2026, Norbert Pillmayer <norbert@pillmayer.com>

Please refer to the License file in the repository root.
*/
package treeprint

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ratchettree'
func tracer() tracing.Trace {
	return tracing.Select("ratchettree")
}
