package interval

import (
	"testing"

	"gonum.org/v1/gonum/graph/simple"
)

// buildLoop builds A -> B -> C -> B (back edge), B -> D. B has two
// predecessors -- A from outside the loop and C via the back edge -- so
// neither B nor C can join I(A) until the other does; per the Allen-Cocke
// construction (step 2.2: "add any node all of whose immediate
// predecessors are already in I(h)"), that circularity locks B out of
// I(A), making B a loop header in its own right. The resulting partition
// is I(A) = {A} and I(B) = {B, C, D} (C and D each have B as their sole
// predecessor, so both join B's interval once B is established as a
// header).
func buildLoop(t *testing.T) (g *simple.DirectedGraph, a, b, c, d simple.Node) {
	t.Helper()
	g = simple.NewDirectedGraph()
	a, b, c, d = simple.Node(0), simple.Node(1), simple.Node(2), simple.Node(3)
	for _, n := range []simple.Node{a, b, c, d} {
		g.AddNode(n)
	}
	g.SetEdge(simple.Edge{F: a, T: b})
	g.SetEdge(simple.Edge{F: b, T: c})
	g.SetEdge(simple.Edge{F: c, T: b})
	g.SetEdge(simple.Edge{F: b, T: d})
	return g, a, b, c, d
}

func TestIntervalsPartitionsLoop(t *testing.T) {
	g, a, b, c, d := buildLoop(t)
	intervals := Intervals(g, a)

	if len(intervals) != 2 {
		t.Fatalf("Intervals: got %d intervals, want 2", len(intervals))
	}

	first := intervals[0]
	if first.Head.ID() != a.ID() {
		t.Errorf("Intervals[0].Head = %v, want A", first.Head)
	}
	if first.Node(b.ID()) != nil || first.Node(c.ID()) != nil || first.Node(d.ID()) != nil {
		t.Error("Intervals[0]: A's back-edge-gated loop header B should not join I(A)")
	}

	second := intervals[1]
	if second.Head.ID() != b.ID() {
		t.Errorf("Intervals[1].Head = %v, want B", second.Head)
	}
	if second.Node(c.ID()) == nil || second.Node(d.ID()) == nil {
		t.Error("Intervals[1]: expected C and D to belong to B's interval")
	}
}

func TestIntervalNodesIteratesAll(t *testing.T) {
	g, a, b, c, d := buildLoop(t)
	intervals := Intervals(g, a)
	var ids []int64
	nodes := intervals[1].Nodes()
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	for _, want := range []simple.Node{b, c, d} {
		found := false
		for _, id := range ids {
			if id == want.ID() {
				found = true
			}
		}
		if !found {
			t.Errorf("Interval.Nodes: expected %v to be present in %v", want, ids)
		}
	}
}
