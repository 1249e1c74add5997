package cfg

// PathStack represents a non-empty path through a graph: a start node
// followed by a sequence of (edge, node) steps. It backs the multiple-DFS
// nearest-common-dominator search (Haas 1990): each worklist entry is a
// PathStack, extended one edge at a time, and popped back when a path
// fails to reach the target.
type PathStack struct {
	start *Node
	steps []pathStep
}

type pathStep struct {
	edge *Edge
	node *Node
}

// NewPathStack returns a path stack consisting of just start.
func NewPathStack(start *Node) *PathStack {
	return &PathStack{start: start}
}

// Push extends the path by one edge, to node.
func (p *PathStack) Push(e *Edge, node *Node) {
	p.steps = append(p.steps, pathStep{edge: e, node: node})
}

// Pop removes and returns the most recently pushed step. It panics if the
// path is already just its start node.
func (p *PathStack) Pop() (*Edge, *Node) {
	if len(p.steps) == 0 {
		panic("cfg: Pop called on a path stack with no steps")
	}
	s := p.steps[len(p.steps)-1]
	p.steps = p.steps[:len(p.steps)-1]
	return s.edge, s.node
}

// Top returns the most recently pushed step without removing it. It panics
// if the path is just its start node.
func (p *PathStack) Top() (*Edge, *Node) {
	if len(p.steps) == 0 {
		panic("cfg: Top called on a path stack with no steps")
	}
	s := p.steps[len(p.steps)-1]
	return s.edge, s.node
}

// Last returns the last node on the path.
func (p *PathStack) Last() *Node {
	if len(p.steps) == 0 {
		return p.start
	}
	return p.steps[len(p.steps)-1].node
}

// Len returns the number of edges on the path.
func (p *PathStack) Len() int { return len(p.steps) }

// Nodes returns every node on the path, start first, in path order.
func (p *PathStack) Nodes() []*Node {
	nodes := make([]*Node, 0, len(p.steps)+1)
	nodes = append(nodes, p.start)
	for _, s := range p.steps {
		nodes = append(nodes, s.node)
	}
	return nodes
}

// Clone returns an independent copy of the path, so a caller can fork a
// search without the branches interfering with each other's stack.
func (p *PathStack) Clone() *PathStack {
	steps := make([]pathStep, len(p.steps))
	copy(steps, p.steps)
	return &PathStack{start: p.start, steps: steps}
}
