package cfg

import "gonum.org/v1/gonum/graph"

// EndPredicate reports whether n is an end node of a slice.
type EndPredicate func(n *Node) bool

// Slice is the result of slicing a graph between a start node and a set of
// end nodes.
type Slice struct {
	Nodes map[int64]*Node
	Edges []*Edge
	// Topo is a topological order of Nodes, ties broken by DFS discovery
	// order: start first, every end node last.
	Topo []*Node
}

// Contains reports whether n is part of the slice.
func (s *Slice) Contains(n *Node) bool {
	_, ok := s.Nodes[n.ID()]
	return ok
}

// NewSlice computes the set of nodes and edges lying on some path from
// start to a node satisfying end, together with a topological order of
// those nodes. Nodes and Edges are well-defined on any graph; Topo is a
// topological order only when the slice is acyclic. The structurer's loop
// case slices a loop body while its back edges are still in place and uses
// only Nodes from that slice.
func NewSlice(g *Graph, start *Node, end EndPredicate) *Slice {
	// Forward reachability from start, and backward reachability to an end
	// node, by plain DFS over g and its transpose respectively; the slice
	// is the intersection of the two, per the standard "nodes and edges on
	// some start-to-end path" construction.
	fwd := reachableFrom(g, start)
	bwd := reachableBackFrom(g, end)

	nodes := make(map[int64]*Node)
	for id, n := range fwd {
		if bwd[id] {
			nodes[id] = n
		}
	}

	var edges []*Edge
	for _, n := range nodes {
		for _, s := range graph.NodesOf(g.From(n.ID())) {
			if to, ok := nodes[s.ID()]; ok {
				edges = append(edges, edgeOf(g.Edge(n.ID(), to.ID())))
			}
		}
	}

	topo := topoOrder(g, nodes, start)
	return &Slice{Nodes: nodes, Edges: edges, Topo: topo}
}

func reachableFrom(g *Graph, start *Node) map[int64]*Node {
	seen := make(map[int64]*Node)
	var walk func(n *Node)
	walk = func(n *Node) {
		if _, ok := seen[n.ID()]; ok {
			return
		}
		seen[n.ID()] = n
		for _, s := range graph.NodesOf(g.From(n.ID())) {
			walk(nodeOf(s))
		}
	}
	walk(start)
	return seen
}

func reachableBackFrom(g *Graph, end EndPredicate) map[int64]bool {
	seen := make(map[int64]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		if seen[n.ID()] {
			return
		}
		seen[n.ID()] = true
		for _, p := range graph.NodesOf(g.To(n.ID())) {
			walk(nodeOf(p))
		}
	}
	for _, n := range graph.NodesOf(g.Nodes()) {
		nn := nodeOf(n)
		if end(nn) {
			walk(nn)
		}
	}
	return seen
}

// topoOrder returns a topological order of nodes restricted to the slice,
// ties broken by DFS discovery order starting from start.
func topoOrder(g *Graph, nodes map[int64]*Node, start *Node) []*Node {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[int64]int)
	var order []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if state[n.ID()] != unvisited {
			return
		}
		state[n.ID()] = visiting
		succs := graph.NodesOf(g.From(n.ID()))
		byDOTID(succs)
		for _, s := range succs {
			if to, ok := nodes[s.ID()]; ok {
				visit(to)
			}
		}
		state[n.ID()] = done
		order = append(order, n)
	}
	visit(start)
	for _, n := range sortedByDOTID(nodes) {
		visit(n)
	}
	// order was built in post-order; reverse for a start-first topo order.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func sortedByDOTID(nodes map[int64]*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	gn := make([]graph.Node, len(out))
	for i, n := range out {
		gn[i] = n
	}
	byDOTID(gn)
	for i, n := range gn {
		out[i] = nodeOf(n)
	}
	return out
}
