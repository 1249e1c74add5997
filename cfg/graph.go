// Package cfg provides the mutable control-flow graph the structurer
// rewrites in place: nodes are tagged Code/Condition/Dummy, edges carry an
// optional cond.Expr label, and the graph is built on top of
// github.com/graphism/simple (a directed graph that, unlike gonum's own
// simple graph, tolerates the self-loops real control flow produces).
package cfg

import (
	"fmt"
	"sort"

	"github.com/graphism/nogoto/ast"
	"github.com/graphism/nogoto/cond"
	"github.com/graphism/simple"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
)

// NodeKind identifies the tagged variant of a Node.
type NodeKind int

// The kinds of CFG node.
const (
	// KindCode nodes have out-degree <= 1 and an unlabelled out-edge (or
	// none); they carry a recovered/partially-recovered ast.Node.
	KindCode NodeKind = iota
	// KindCondition nodes have out-degree >= 2, every out-edge labelled.
	KindCondition
	// KindDummy nodes are transient scaffolding introduced and removed by
	// the structurer; they never appear in the algorithm's output.
	KindDummy
)

func (k NodeKind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindCondition:
		return "condition"
	case KindDummy:
		return "dummy"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a node of a control-flow graph under (re)structuring.
type Node struct {
	graph.Node
	id    string // DOT/debug id
	kind  NodeKind
	ast   ast.Node // valid when kind == KindCode
	tag   string   // valid when kind == KindDummy
	entry bool
	Attrs
}

// DOTID returns the debug/DOT id of the node.
func (n *Node) DOTID() string { return n.id }

// SetDOTID sets the debug/DOT id of the node.
func (n *Node) SetDOTID(id string) { n.id = id }

// Kind returns the tagged variant of n.
func (n *Node) Kind() NodeKind { return n.kind }

// AST returns the ast.Node payload of a KindCode node. It panics
// otherwise.
func (n *Node) AST() ast.Node {
	if n.kind != KindCode {
		panic(fmt.Errorf("cfg: AST called on %v node %q", n.kind, n.id))
	}
	return n.ast
}

// SetAST replaces n's payload and marks it KindCode. This is how the
// structurer collapses a region into its recovered AST.
func (n *Node) SetAST(a ast.Node) {
	n.kind = KindCode
	n.ast = a
}

// Tag returns the scaffolding tag of a KindDummy node. It panics
// otherwise.
func (n *Node) Tag() string {
	if n.kind != KindDummy {
		panic(fmt.Errorf("cfg: Tag called on %v node %q", n.kind, n.id))
	}
	return n.tag
}

// MarkDummy replaces n's payload with transient Dummy scaffolding tagged
// tag, keeping n's incoming and outgoing edges. The structurer uses this
// in place of removing and re-adding a node when it needs to keep a
// node's edges alive across a payload swap.
func (n *Node) MarkDummy(tag string) {
	n.kind = KindDummy
	n.ast = nil
	n.tag = tag
}

// IsEntry reports whether n is the entry node of its graph.
func (n *Node) IsEntry() bool { return n.entry }

func (n *Node) String() string {
	switch n.kind {
	case KindCode:
		return fmt.Sprintf("%s(%v)", n.id, n.ast)
	case KindDummy:
		return fmt.Sprintf("%s(dummy %q)", n.id, n.tag)
	default:
		return fmt.Sprintf("%s(%v)", n.id, n.kind)
	}
}

// --- [ encoding.Attributer ] -------------------------------------------------

// Attributes returns the DOT attributes of the node.
func (n *Node) Attributes() []encoding.Attribute {
	if n.entry {
		n.Attrs["label"] = "entry"
	} else if _, ok := n.Attrs["label"]; !ok {
		n.Attrs["label"] = n.String()
	}
	return n.Attrs.Attributes()
}

// SetAttribute sets the DOT attribute of the node.
func (n *Node) SetAttribute(attr encoding.Attribute) error {
	if attr.Key == "label" && attr.Value == "entry" {
		n.entry = true
		return nil
	}
	n.Attrs[attr.Key] = attr.Value
	return nil
}

// Edge is a directed edge of a control-flow graph, optionally labelled
// with a condition; a nil Cond means the edge is unconditional. Edges out
// of a Condition node form a partition: pairwise inconsistent conditions
// whose disjunction is true.
type Edge struct {
	graph.Edge
	cond *cond.Expr
	Attrs
}

// Cond returns the edge's condition label, or nil for an unconditional
// edge.
func (e *Edge) Cond() *cond.Expr { return e.cond }

// SetCond sets the edge's condition label.
func (e *Edge) SetCond(c *cond.Expr) { e.cond = c }

// Attributes returns the DOT attributes of the edge.
func (e *Edge) Attributes() []encoding.Attribute {
	if e.cond != nil {
		e.Attrs["label"] = e.cond.String()
	}
	return e.Attrs.Attributes()
}

// SetAttribute sets the DOT attribute of the edge.
func (e *Edge) SetAttribute(attr encoding.Attribute) error {
	e.Attrs[attr.Key] = attr.Value
	return nil
}

// Attrs is a set of DOT attributes as key-value pairs.
type Attrs map[string]string

// Attributes returns the DOT attributes of a node or edge.
func (a Attrs) Attributes() []encoding.Attribute {
	var keys []string
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var attrs []encoding.Attribute
	for _, key := range keys {
		attrs = append(attrs, encoding.Attribute{Key: key, Value: a[key]})
	}
	return attrs
}

// Graph is a control-flow graph under (re)structuring. The structurer owns
// it exclusively for the duration of one structuring job: it mutates node
// payloads, adds and removes scaffolding, and retargets edges until the
// graph is empty and a single AstNode has been extracted.
type Graph struct {
	*simple.DirectedGraph
	id       string
	entry    graph.Node
	nodes    map[string]*Node
	synthSeq int
}

// NewGraph returns a new, empty control-flow graph.
func NewGraph() *Graph {
	return &Graph{
		DirectedGraph: simple.NewDirectedGraph(),
		nodes:         make(map[string]*Node),
	}
}

// DOTID returns the DOT id of the graph.
func (g *Graph) DOTID() string { return g.id }

// SetDOTID sets the DOT id of the graph.
func (g *Graph) SetDOTID(id string) { g.id = id }

// Entry returns the entry node of the control-flow graph.
func (g *Graph) Entry() graph.Node { return g.entry }

// NewNode returns a new node with a unique arbitrary id and no payload
// (the caller must set its Kind via AddCode/AddCondition/AddDummy, or
// AddNode directly for a fully-built *Node).
func (g *Graph) NewNode() graph.Node {
	return &Node{Node: g.DirectedGraph.NewNode(), Attrs: make(Attrs)}
}

// AddNode adds a node to the graph, assigning it a synthetic debug id if it
// doesn't already have one. It panics if n is not a *Node, or if n is
// marked as the entry node while a different entry node is already set.
func (g *Graph) AddNode(n graph.Node) {
	nn, ok := n.(*Node)
	if !ok {
		panic(fmt.Errorf("cfg: invalid node type; expected *cfg.Node, got %T", n))
	}
	if nn.id == "" {
		g.synthSeq++
		nn.id = fmt.Sprintf("_n%d", g.synthSeq)
	}
	g.DirectedGraph.AddNode(nn)
	g.nodes[nn.id] = nn
	if nn.entry {
		if g.entry != nil && g.entry.ID() != nn.ID() {
			panic(fmt.Errorf("cfg: entry node already set; prev %v, new %v", g.entry, nn))
		}
		g.entry = nn
	}
}

// RemoveNode removes the node with the given id from the graph.
func (g *Graph) RemoveNode(id int64) {
	if n := g.DirectedGraph.Node(id); n != nil {
		nn := n.(*Node)
		delete(g.nodes, nn.id)
		if g.entry != nil && g.entry.ID() == id {
			g.entry = nil
		}
	}
	g.DirectedGraph.RemoveNode(id)
}

// NewEdge returns a new, unconditional edge from the source to the
// destination node.
func (g *Graph) NewEdge(from, to graph.Node) graph.Edge {
	return &Edge{Edge: g.DirectedGraph.NewEdge(from, to), Attrs: make(Attrs)}
}

// SetEdge adds an edge to the graph, adding its endpoints first if needed.
func (g *Graph) SetEdge(e graph.Edge) {
	ee, ok := e.(*Edge)
	if !ok {
		panic(fmt.Errorf("cfg: invalid edge type; expected *cfg.Edge, got %T", e))
	}
	if g.DirectedGraph.Node(ee.From().ID()) == nil {
		g.AddNode(ee.From())
	}
	if g.DirectedGraph.Node(ee.To().ID()) == nil {
		g.AddNode(ee.To())
	}
	g.DirectedGraph.SetEdge(ee)
}

// --- [ builder convenience methods ] ----------------------------------------

// AddCode adds and returns a new KindCode node wrapping payload.
func (g *Graph) AddCode(payload ast.Node) *Node {
	n := &Node{Node: g.DirectedGraph.NewNode(), kind: KindCode, ast: payload, Attrs: make(Attrs)}
	g.AddNode(n)
	return n
}

// AddCondition adds and returns a new KindCondition node.
func (g *Graph) AddCondition() *Node {
	n := &Node{Node: g.DirectedGraph.NewNode(), kind: KindCondition, Attrs: make(Attrs)}
	g.AddNode(n)
	return n
}

// AddDummy adds and returns a new KindDummy node tagged tag.
func (g *Graph) AddDummy(tag string) *Node {
	n := &Node{Node: g.DirectedGraph.NewNode(), kind: KindDummy, tag: tag, Attrs: make(Attrs)}
	g.AddNode(n)
	return n
}

// SetEntry designates n as the graph's entry node.
func (g *Graph) SetEntry(n *Node) {
	if g.entry != nil && g.entry.ID() != n.ID() {
		panic(fmt.Errorf("cfg: entry node already set; prev %v, new %v", g.entry, n))
	}
	n.entry = true
	g.entry = n
}

// AddEdge adds and returns a new edge from -> to, labelled c (nil for an
// unconditional edge).
func (g *Graph) AddEdge(from, to *Node, c *cond.Expr) *Edge {
	e := &Edge{Edge: g.DirectedGraph.NewEdge(from, to), cond: c, Attrs: make(Attrs)}
	g.DirectedGraph.SetEdge(e)
	return e
}

// NodeWithID returns the node with the given debug id, if present.
func (g *Graph) NodeWithID(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeByID returns the node with the given graph-internal id, or nil if
// none exists.
func (g *Graph) NodeByID(id int64) *Node {
	n := g.DirectedGraph.Node(id)
	if n == nil {
		return nil
	}
	return nodeOf(n)
}

func nodeOf(n graph.Node) *Node {
	nn, ok := n.(*Node)
	if !ok {
		panic(fmt.Errorf("cfg: invalid node type; expected *cfg.Node, got %T", n))
	}
	return nn
}

func edgeOf(e graph.Edge) *Edge {
	ee, ok := e.(*Edge)
	if !ok {
		panic(fmt.Errorf("cfg: invalid edge type; expected *cfg.Edge, got %T", e))
	}
	return ee
}
