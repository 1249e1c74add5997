package cfg

import (
	"fmt"
	"io"
	"os"

	"github.com/graphism/nogoto/ast"
	"github.com/graphism/nogoto/cond"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/traverse"
)

// AtomResolver turns a DOT edge-label string into the cond.Atom it names,
// interning it through ctx. FromDOT calls it once per labelled edge; a nil
// label (unconditional edge) is never passed to it.
type AtomResolver func(ctx *cond.Context, label string) (cond.Atom, error)

// stringAtom is the atom BasicAtomResolver returns: labels are taken as
// opaque predicate names, exactly as the DOT text wrote them.
type stringAtom string

func (a stringAtom) String() string { return string(a) }

// BasicAtomResolver resolves every edge label to an opaque named atom,
// equal by string value. It is the resolver cmd/structure uses by default.
func BasicAtomResolver(ctx *cond.Context, label string) (cond.Atom, error) {
	return stringAtom(label), nil
}

// FromDOT parses a Graphviz DOT control-flow graph from r: one node per
// basic block (its "label" attribute, if present and not "entry", becomes
// the BasicBlock payload; otherwise the DOT id is used), and edges labelled
// with the name of the atomic predicate they're guarded by (an unlabelled
// edge is unconditional). Exactly one node must carry the DOT attribute
// `label="entry"`. Out-degree determines Kind: >=2 successors makes a node
// KindCondition, discarding whatever payload it parsed as.
//
// The graph is accepted with an arbitrary caller-supplied condition
// vocabulary: resolve decides what each edge-label string means.
func FromDOT(r io.Reader, ctx *cond.Context, resolve AtomResolver) (*Graph, error) {
	if resolve == nil {
		resolve = BasicAtomResolver
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	g := NewGraph()
	if err := dot.Unmarshal(buf, g); err != nil {
		return nil, errors.WithStack(err)
	}
	// dot.Unmarshal adds each node before setting its attributes, so AddNode
	// never sees the entry mark; locate the entry node here instead.
	for _, n := range graph.NodesOf(g.Nodes()) {
		if nn := nodeOf(n); nn.entry {
			if g.entry != nil && g.entry.ID() != nn.ID() {
				return nil, &Error{Kind: KindMalformedInput, Node: nn.id, Msg: `more than one node with label="entry"`}
			}
			g.entry = nn
		}
	}
	if g.entry == nil {
		return nil, &Error{Kind: KindMalformedInput, Msg: `missing entry node (no node with label="entry")`}
	}

	outDeg := make(map[int64]int)
	for _, n := range graph.NodesOf(g.Nodes()) {
		nn := nodeOf(n)
		if label, ok := nn.Attrs["label"]; ok && label != "entry" {
			nn.ast = ast.NewBasicBlock(label)
		} else {
			nn.ast = ast.NewBasicBlock(nn.id)
		}
		nn.kind = KindCode
		outDeg[nn.ID()] = len(graph.NodesOf(g.From(nn.ID())))
	}
	for _, e := range graph.EdgesOf(g.Edges()) {
		ee := edgeOf(e)
		label, ok := ee.Attrs["label"]
		if !ok || label == "" {
			continue
		}
		atom, err := resolve(ctx, label)
		if err != nil {
			return nil, &Error{Kind: KindMalformedInput, Node: nodeOf(ee.From()).id, Msg: "resolving edge condition", Cause: err}
		}
		ee.cond = ctx.MkAtom(atom)
	}
	for _, n := range graph.NodesOf(g.Nodes()) {
		nn := nodeOf(n)
		if outDeg[nn.ID()] >= 2 {
			nn.kind = KindCondition
			nn.ast = nil
		}
	}
	if err := Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// ParseFile is a convenience wrapper around FromDOT reading from path.
func ParseFile(path string, ctx *cond.Context, resolve AtomResolver) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	return FromDOT(f, ctx, resolve)
}

// Validate checks that g satisfies the structurer's input contract: a
// reachable entry node, every other node reachable from
// it, every Condition node having at least two out-edges, all labelled, and
// every Code node having at most one, unlabelled, out-edge. Whether a
// Condition node's labels form a partition is not checked.
func Validate(g *Graph) error {
	if g.entry == nil {
		return &Error{Kind: KindMalformedInput, Msg: "graph has no entry node"}
	}
	df := &traverse.DepthFirst{}
	df.Walk(g, g.entry, nil)
	for _, n := range graph.NodesOf(g.Nodes()) {
		nn := nodeOf(n)
		if !df.Visited(nn) {
			return &Error{Kind: KindMalformedInput, Node: nn.id, Msg: "node is unreachable from the entry node"}
		}
		var outs []*Edge
		succs := graph.NodesOf(g.From(nn.ID()))
		for _, s := range succs {
			outs = append(outs, edgeOf(g.Edge(nn.ID(), s.ID())))
		}
		switch nn.kind {
		case KindCondition:
			if len(outs) < 2 {
				return &Error{Kind: KindMalformedInput, Node: nn.id, Msg: "condition node has fewer than two successors"}
			}
			for _, e := range outs {
				if e.cond == nil {
					return &Error{Kind: KindMalformedInput, Node: nn.id, Msg: "condition node has an unlabelled successor"}
				}
			}
		case KindCode:
			if len(outs) > 1 {
				return &Error{Kind: KindMalformedInput, Node: nn.id, Msg: "code node has more than one successor"}
			}
			if len(outs) == 1 && outs[0].cond != nil {
				return &Error{Kind: KindMalformedInput, Node: nn.id, Msg: "code node's sole successor is labelled"}
			}
		}
	}
	return nil
}

// WriteDOT marshals g to Graphviz DOT format and writes it to w.
func (g *Graph) WriteDOT(w io.Writer) error {
	data, err := dot.Marshal(g, g.DOTID(), "", "\t")
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = w.Write(data)
	return errors.WithStack(err)
}

// String returns the Graphviz DOT representation of g. It panics on a
// marshalling error, which only happens if a node or edge Attrs map holds an
// unencodable value.
func (g *Graph) String() string {
	data, err := dot.Marshal(g, g.DOTID(), "", "\t")
	if err != nil {
		panic(fmt.Errorf("cfg: unable to marshal control-flow graph to DOT: %v", err))
	}
	return string(data)
}
