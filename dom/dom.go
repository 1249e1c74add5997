// Package dom computes dominator trees over control-flow graphs.
//
// It is a thin wrapper around gonum's "simple fast" dominator algorithm
// (Cooper, Harvey & Kennedy), gonum.org/v1/gonum/graph/flow, adding the
// two queries the structurer actually needs: walking the dominator chain
// of a node, and testing whether one node dominates another.
// Recomputation is cheap enough that the structurer builds a fresh Tree
// once per loop it analyses.
package dom

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/flow"
)

// Tree is the dominator tree of a graph rooted at its entry node.
type Tree struct {
	entry graph.Node
	tree  flow.DominatorTree
}

// Build computes the dominator tree of g rooted at entry.
func Build(entry graph.Node, g graph.Directed) *Tree {
	return &Tree{entry: entry, tree: flow.Dominators(entry, g)}
}

// ImmediateDominator returns the immediate dominator of n, or nil if n is
// unreachable or is the entry node itself.
func (t *Tree) ImmediateDominator(n graph.Node) graph.Node {
	idom := t.tree.DominatorOf(n.ID())
	if idom == nil || idom.ID() == n.ID() {
		return nil
	}
	return idom
}

// Dominators returns the chain of n's dominators, from n itself up to the
// entry node, inclusive at both ends.
func (t *Tree) Dominators(n graph.Node) []graph.Node {
	chain := []graph.Node{n}
	cur := n
	for {
		idom := t.tree.DominatorOf(cur.ID())
		if idom == nil || idom.ID() == cur.ID() {
			return chain
		}
		chain = append(chain, idom)
		cur = idom
	}
}

// Dominates reports whether h dominates n (h == n counts as dominating).
func (t *Tree) Dominates(h, n graph.Node) bool {
	for _, d := range t.Dominators(n) {
		if d.ID() == h.ID() {
			return true
		}
	}
	return false
}
