package cfg

import (
	"sort"

	"bitbucket.org/zombiezen/cardcpx/natsort"
	"gonum.org/v1/gonum/graph"
)

// color is the three-colour DFS node state used to tell tree, back, and
// cross/forward edges apart.
type color int

const (
	white color = iota
	grey
	black
)

// EdgeClass classifies an edge encountered by a depth-first traversal.
type EdgeClass int

// The classes of edge a depth-first traversal can report.
const (
	// TreeEdge leads to a node visited for the first time.
	TreeEdge EdgeClass = iota
	// BackEdge leads to an ancestor still on the DFS stack (grey). This is
	// the classification the structurer uses to find loop headers and
	// latches.
	BackEdge
	// CrossForwardEdge leads to an already-finished (black) node that is
	// not an ancestor.
	CrossForwardEdge
)

// DFSVisitor receives callbacks during a depth-first walk. Any method left
// nil is simply not called.
type DFSVisitor struct {
	// Discover is called the first time n is reached.
	Discover func(n *Node)
	// Edge is called for every outgoing edge examined, classified per the
	// colour of its destination at the time of examination.
	Edge func(e *Edge, class EdgeClass)
	// Finish is called once every descendant of n has been finished.
	Finish func(n *Node)
}

// byDOTID sorts nodes by their DOTID using natural-sort order, so
// traversals visit successors deterministically.
func byDOTID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return natsort.Less(nodeOf(nodes[i]).DOTID(), nodeOf(nodes[j]).DOTID())
	})
}

// DFS runs a classified depth-first traversal of g starting at start,
// visiting successors in DOTID natural-sort order for determinism, and
// invoking v's callbacks.
func DFS(g *Graph, start *Node, v DFSVisitor) {
	colors := make(map[int64]color)
	var walk func(n *Node)
	walk = func(n *Node) {
		colors[n.ID()] = grey
		if v.Discover != nil {
			v.Discover(n)
		}
		succs := graph.NodesOf(g.From(n.ID()))
		byDOTID(succs)
		for _, s := range succs {
			sn := nodeOf(s)
			e := edgeOf(g.Edge(n.ID(), sn.ID()))
			switch colors[sn.ID()] {
			case white:
				if v.Edge != nil {
					v.Edge(e, TreeEdge)
				}
				walk(sn)
			case grey:
				if v.Edge != nil {
					v.Edge(e, BackEdge)
				}
			case black:
				if v.Edge != nil {
					v.Edge(e, CrossForwardEdge)
				}
			}
		}
		colors[n.ID()] = black
		if v.Finish != nil {
			v.Finish(n)
		}
	}
	walk(start)
}

// BackEdges returns every back edge reachable from start, per a classified
// DFS in DOTID order.
func BackEdges(g *Graph, start *Node) []*Edge {
	var backs []*Edge
	DFS(g, start, DFSVisitor{
		Edge: func(e *Edge, class EdgeClass) {
			if class == BackEdge {
				backs = append(backs, e)
			}
		},
	})
	return backs
}

// PostOrder returns the nodes reachable from start in DFS postorder.
func PostOrder(g *Graph, start *Node) []*Node {
	var order []*Node
	DFS(g, start, DFSVisitor{
		Finish: func(n *Node) { order = append(order, n) },
	})
	return order
}

// Reachable returns the set of node ids reachable from start, start
// included.
func Reachable(g *Graph, start *Node) map[int64]bool {
	seen := make(map[int64]bool)
	DFS(g, start, DFSVisitor{
		Discover: func(n *Node) { seen[n.ID()] = true },
	})
	return seen
}
