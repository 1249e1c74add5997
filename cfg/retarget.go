package cfg

// RetargetEdge replaces e's target with newTarget, preserving its
// condition label and attributes. e must currently be an edge of g.
func RetargetEdge(g *Graph, e *Edge, newTarget *Node) *Edge {
	g.DirectedGraph.RemoveEdge(e.From().ID(), e.To().ID())
	ne := &Edge{Edge: g.DirectedGraph.NewEdge(e.From(), newTarget), cond: e.cond, Attrs: e.Attrs}
	g.DirectedGraph.SetEdge(ne)
	return ne
}

// RetargetEdgeSource replaces e's source with newSource, preserving its
// condition label and attributes. It is the mirror of RetargetEdge: it
// moves the edge's tail instead of its head. The structure package does
// not call it.
func RetargetEdgeSource(g *Graph, e *Edge, newSource *Node) *Edge {
	g.DirectedGraph.RemoveEdge(e.From().ID(), e.To().ID())
	ne := &Edge{Edge: g.DirectedGraph.NewEdge(newSource, e.To()), cond: e.cond, Attrs: e.Attrs}
	g.DirectedGraph.SetEdge(ne)
	return ne
}
