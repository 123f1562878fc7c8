package ratchettree

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/npillmayer/uax/grapheme"
)

// Tree2Dot outputs the structure of a tree in Graphviz DOT format
// (for debugging purposes).
func Tree2Dot[T any](tree *Tree[T], w io.Writer) {
	nodes2Dot(tree.Nodes(), uint64(tree.Size()), nil, w)
}

// Diff2Dot outputs the logical tree of a diff in Graphviz DOT format
// (for debugging purposes). Nodes changed by the diff are highlighted.
func Diff2Dot[T any](diff *Diff[T], w io.Writer) {
	nodes2Dot(diff.Nodes(), uint64(diff.Size()), diff.IsModified, w)
}

func nodes2Dot[T any](nodes iter.Seq2[TreeNodeIndex, T], size uint64,
	modified func(TreeNodeIndex) bool, w io.Writer) {
	//
	grapheme.SetupGraphemeClasses()
	var nodelist, edgelist strings.Builder
	for i, node := range nodes {
		pos := i.position()
		highlight := modified != nil && modified(i)
		label := dotLabel(fmt.Sprintf("%v", node))
		fmt.Fprintf(&nodelist, "\"%d\" [label=\"%s\\n%s\" %s];\n", pos, i, label,
			nodeDotStyles(i.IsLeaf(), highlight))
		if !i.IsLeaf() {
			fmt.Fprintf(&edgelist, "\"%d\" -> \"%d\";\n", pos, left(pos))
			fmt.Fprintf(&edgelist, "\"%d\" -> \"%d\";\n", pos, right(pos, size))
		}
	}
	io.WriteString(w, "strict digraph {\n")
	io.WriteString(w, "\tnode [fontname=Arial,fontsize=12];\n")
	io.WriteString(w, nodelist.String())
	io.WriteString(w, edgelist.String())
	io.WriteString(w, "}\n")
}

// dotLabel shortens s to at most 16 grapheme clusters and escapes quotes.
func dotLabel(s string) string {
	if gstr := grapheme.StringFromString(s); gstr.Len() > 16 {
		var b strings.Builder
		for k := 0; k < 15; k++ {
			b.WriteString(gstr.Nth(k))
		}
		b.WriteString("…")
		s = b.String()
	}
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func nodeDotStyles(isleaf bool, highlight bool) string {
	s := ",style=filled"
	if isleaf {
		s += ",shape=box"
	} else {
		s += ",color=black,shape=circle"
	}
	if highlight {
		s += ",fillcolor=\"#FFAA66\""
	} else {
		s += ",fillcolor=\"#a3d7e4\""
	}
	return s
}
