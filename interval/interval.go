// Package interval implements Allen-Cocke interval analysis.
//
// ref: Allen, Frances E., and John Cocke. "A program data flow analysis
// procedure." Communications of the ACM 19.3 (1976): 137.
//
// This is not part of the No More Gotos structuring pipeline; it is an
// independent diagnostic available to cmd/structure's -intervals flag. It
// operates on any gonum.org/v1/gonum/graph.Directed, not just a
// *cfg.Graph.
package interval

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/pkg/term"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// dbg logs debug messages to standard error, with the prefix "interval:";
// silent until SetDebug(true).
var dbg = log.New(io.Discard, term.RedBold("interval:")+" ", 0)

// SetDebug toggles debug tracing.
func SetDebug(enabled bool) {
	if enabled {
		dbg.SetOutput(os.Stderr)
	} else {
		dbg.SetOutput(io.Discard)
	}
}

// Intervals returns the intervals contained within g, based on entry.
func Intervals(g graph.Directed, entry graph.Node) []*Interval {
	revPost := revPostOrder(g, entry)

	var intervals []*Interval
	// 1. Establish a set H for header nodes and initialize it with n_0, the
	// unique entry node for the graph.
	H := newQueue()
	H.push(entry)
	// 2. For h E H, find I(h) as follows:
	for !H.empty() {
		// 5. Select the next unprocessed node in H and repeat steps 2, 3, 4, 5.
		// When there are no more unprocessed nodes in H, the procedure
		// terminates.
		h := H.pop()
		// 2.1. Put h in I(h) as the first element of I(h).
		I := newInterval(g, h)
		for {
			// 2.2. Add to I(h) any node all of whose immediate predecessors are
			// already in I(h).
			n, ok := find2_2(g, entry, I, revPost)
			if !ok {
				// 2.3. Repeat 2.2 until no more nodes can be added to I(h).
				break
			}
			I.addNode(n)
		}
		// 3. Add to H all nodes in G which are not already in H and which are not
		// in I(h) but which have immediate predecessors in I(h). Therefore a node
		// is added to H the first time any (but not all) of its immediate
		// predecessors become members of an interval.
		for {
			n, ok := find3(g, I, H, revPost)
			if !ok {
				break
			}
			H.push(n)
		}
		dbg.Printf("interval %v: %d nodes", h, len(I.nodes))
		intervals = append(intervals, I)
	}
	return intervals
}

// revPostOrder returns the nodes of g reachable from entry, sorted by
// reverse postorder of a depth-first traversal.
func revPostOrder(g graph.Directed, entry graph.Node) []graph.Node {
	seen := make(map[int64]bool)
	var post []graph.Node
	var walk func(n graph.Node)
	walk = func(n graph.Node) {
		if seen[n.ID()] {
			return
		}
		seen[n.ID()] = true
		succs := g.From(n.ID())
		for succs.Next() {
			walk(succs.Node())
		}
		post = append(post, n)
	}
	walk(entry)
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

func find2_2(g graph.Directed, entry graph.Node, I *Interval, order []graph.Node) (graph.Node, bool) {
	// 2.2. Add to I(h) any node all of whose immediate predecessors are
	// already in I(h).
loop:
	for _, n := range order {
		if n.ID() == entry.ID() {
			continue
		}
		if I.Node(n.ID()) != nil {
			// skip if already in I(h).
			continue
		}
		preds := g.To(n.ID())
		if preds.Len() == 0 {
			continue
		}
		for preds.Next() {
			pred := preds.Node()
			if I.Node(pred.ID()) == nil {
				// skip node, as not all immediate predecessors are in I(h).
				continue loop
			}
		}
		return n, true
	}
	return nil, false
}

func find3(g graph.Directed, I *Interval, H *queue, order []graph.Node) (graph.Node, bool) {
	// 3. Add to H all nodes in G which are not already in H and which are not in
	// I(h) but which have immediate predecessors in I(h). Therefore a node is
	// added to H the first time any (but not all) of its immediate predecessors
	// become members of an interval.
	for _, n := range order {
		if H.has(n) {
			// skip if already in H.
			continue
		}
		if I.Node(n.ID()) != nil {
			// skip if already in I(h).
			continue
		}
		preds := g.To(n.ID())
		for preds.Next() {
			pred := preds.Node()
			if I.Node(pred.ID()) != nil {
				return n, true
			}
		}
	}
	return nil, false
}

// --- interval

// An Interval I(h) is the maximal, single-entry subgraph in which h is the
// only entry node and in which all closed paths contain h.
type Interval struct {
	g     graph.Directed
	Head  graph.Node
	nodes map[int64]graph.Node
}

func newInterval(g graph.Directed, head graph.Node) *Interval {
	return &Interval{
		g:    g,
		Head: head,
		nodes: map[int64]graph.Node{
			head.ID(): head,
		},
	}
}

func (I *Interval) addNode(n graph.Node) {
	I.nodes[n.ID()] = n
}

// Node returns the node with the given ID if it exists in the interval,
// and nil otherwise.
func (I *Interval) Node(id int64) graph.Node {
	return I.nodes[id]
}

// Nodes returns all the nodes in the interval.
func (I *Interval) Nodes() graph.Nodes {
	nodes := make([]graph.Node, 0, len(I.nodes))
	for _, n := range I.nodes {
		nodes = append(nodes, n)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (I *Interval) String() string {
	return fmt.Sprintf("interval(head=%v, %d nodes)", I.Head, len(I.nodes))
}

// --- queue

// A queue is a FIFO queue of nodes.
type queue struct {
	l []graph.Node
	i int
}

func newQueue() *queue {
	return &queue{l: make([]graph.Node, 0)}
}

func (q *queue) push(n graph.Node) {
	if !q.has(n) {
		q.l = append(q.l, n)
	}
}

func (q *queue) has(n graph.Node) bool {
	for _, m := range q.l {
		if n.ID() == m.ID() {
			return true
		}
	}
	return false
}

func (q *queue) pop() graph.Node {
	if q.empty() {
		panic("interval: pop called on an empty queue")
	}
	n := q.l[q.i]
	q.i++
	return n
}

func (q *queue) empty() bool {
	return len(q.l[q.i:]) == 0
}
