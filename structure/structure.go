// Package structure implements the No More Gotos algorithm (Yakdan et al.,
// NDSS 2015): given a control-flow graph it rewrites in place, it produces
// a single recovered ast.Node built from Seq/Cond/Loop, with no CFG nodes
// left behind.
package structure

import (
	"fmt"
	"sort"

	"github.com/graphism/nogoto/ast"
	"github.com/graphism/nogoto/cfg"
	"github.com/graphism/nogoto/cond"
	"github.com/graphism/nogoto/dom"
	"github.com/mewkiz/pkg/term"
)

var dbg = term.RedBold("structure:")

// SetDebug enables or disables diagnostic tracing of the structuring
// process; disabled by default.
var debugEnabled = false

func SetDebug(enabled bool) { debugEnabled = enabled }

func trace(format string, args ...any) {
	if debugEnabled {
		fmt.Printf("%s %s\n", dbg, fmt.Sprintf(format, args...))
	}
}

// Structurer runs one structuring job. It owns the graph and condition
// context exclusively for the duration of the job; it is not safe for
// concurrent use, and is not reused across jobs.
type Structurer struct {
	g        *cfg.Graph
	ctx      *cond.Context
	structID int // next unused structural-variable cascade index, for unique tags
}

// StructureWhole is the single entry point: it structures g (rooted at its
// entry node) into a single ast.Node, consuming g in the process.
//
// Internal invariant violations panic with a *Error and are recovered
// here, turning them into a returned error: they are fatal for the job,
// never recoverable mid-run.
func StructureWhole(g *cfg.Graph, ctx *cond.Context) (result ast.Node, err error) {
	if verr := cfg.Validate(g); verr != nil {
		return nil, verr
	}
	s := &Structurer{g: g, ctx: ctx}
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	return s.structureWhole(), nil
}

func (s *Structurer) entry() *cfg.Node {
	n, ok := s.g.Entry().(*cfg.Node)
	if !ok || n == nil {
		invariant("graph has no entry node")
	}
	return n
}

// structureWhole drives the three phases: back-edge collection, bottom-up
// region collapse along the post-order trace, and finalization.
func (s *Structurer) structureWhole() ast.Node {
	entry := s.entry()

	// Phase 1 -- back-edge collection.
	backs := cfg.BackEdges(s.g, entry)
	headers := make(map[*cfg.Node]bool) // back-edge targets
	for _, e := range backs {
		headers[e.To().(*cfg.Node)] = true
	}
	podfsTrace := cfg.PostOrder(s.g, entry)
	trace("back edges: %d, podfs trace: %d nodes", len(backs), len(podfsTrace))

	// Phase 2 -- bottom-up region collapse. The trace is a snapshot:
	// collapsing an earlier region removes nodes and rewrites edges, so each
	// turn re-checks (by pointer, since the graph substrate reuses the ids
	// of removed nodes) that its node survived, and a loop header's latch
	// edges are recollected from the live graph rather than reused from
	// Phase 1: an inner collapse may have replaced a latch with the region
	// node that swallowed it.
	for _, n := range podfsTrace {
		if cur, ok := s.g.NodeWithID(n.DOTID()); !ok || cur != n {
			continue
		}
		if headers[n] {
			if latchEdges := s.latchEdges(n); len(latchEdges) > 0 {
				s.collapseLoop(n, latchEdges, podfsTrace)
				continue
			}
			// The cycle this header anchored was swallowed by an earlier
			// collapse; fall through to the acyclic case.
		}
		s.collapseAcyclic(n)
	}

	// Phase 3 -- finalization.
	return s.finalize(entry)
}

// latchEdges returns the current back edges into header, per a fresh
// classified DFS from the entry node.
func (s *Structurer) latchEdges(header *cfg.Node) []*cfg.Edge {
	var latches []*cfg.Edge
	for _, e := range cfg.BackEdges(s.g, s.entry()) {
		if e.To().(*cfg.Node) == header {
			latches = append(latches, e)
		}
	}
	return latches
}

// collapseAcyclic handles the acyclic case of Phase 2: n is not a loop
// header; if n strictly dominates a region with exactly one strict
// successor, collapse that region into n.
func (s *Structurer) collapseAcyclic(n *cfg.Node) {
	region := s.dominatesSet(n)
	if len(region) <= 1 {
		return
	}
	succs := s.strictSuccessorsOfSet(region)
	if len(succs) != 1 {
		return
	}
	successor := succs[0]
	// A successor that reaches back into the region means the region's sole
	// exit is a back edge of a loop that has not been collapsed yet; leave
	// the region intact for the loop case at that loop's header.
	if cfg.Reachable(s.g, successor)[n.ID()] {
		return
	}
	body := s.structureAcyclicSeseRegion(n, successor)
	n.SetAST(body)
	s.g.AddEdge(n, successor, nil)
	trace("collapsed acyclic region at %s -> %s", n.DOTID(), successor.DOTID())
}

// collapseLoop handles the loop case of Phase 2: n is the target of at
// least one back edge.
func (s *Structurer) collapseLoop(n *cfg.Node, latchEdges []*cfg.Edge, podfsTrace []*cfg.Node) {
	latches := nodeSetOf(s.g)
	for _, e := range latchEdges {
		latches.Add(e.From().(*cfg.Node))
	}

	// 1. loop_nodes = slice(cfg, n, v in latch_sources).
	sl := cfg.NewSlice(s.g, n, func(m *cfg.Node) bool { return latches.Contains(m) })
	loopNodes := newNodeSet(s.g)
	for id := range sl.Nodes {
		loopNodes.AddID(id)
	}
	loopNodes.Add(n)
	for _, l := range latches.Nodes() {
		loopNodes.Add(l)
	}

	// 2. Create a transient loop_continue dummy; retarget every back edge
	// to it.
	loopContinue := s.g.AddDummy("loop continue")
	for _, e := range latchEdges {
		cfg.RetargetEdge(s.g, e, loopContinue)
	}
	loopNodes.Add(loopContinue)

	// 3. Funnel abnormal entries.
	header := s.funnelAbnormalEntries(n, loopNodes)

	// 4. succ_nodes = strict successors of loop_nodes.
	succNodes := nodeSetOf(s.g, s.strictSuccessorsOfSet(loopNodes.Nodes())...)

	// 5. Refine loop.
	s.refineLoop(n, loopNodes, succNodes)

	// 6. final_succ = first node in podfs_trace lying in succ_nodes.
	finalSucc := s.pickFinalSucc(podfsTrace, succNodes)

	// 7. Funnel abnormal exits.
	successor := s.funnelAbnormalExits(loopNodes, succNodes, loopContinue, finalSucc)

	// 8. Structure the loop body; replace header's payload with the loop.
	body := s.structureAcyclicSeseRegion(header, loopContinue)
	s.g.RemoveNode(loopContinue.ID())
	header.SetAST(ast.NewEndlessLoop(body))
	if successor != nil {
		s.g.AddEdge(header, successor, nil)
	}
	trace("collapsed loop at %s, successor = %v", header.DOTID(), successor)
}

// pickFinalSucc returns the first node of the Phase 1 post-order trace that
// lies in succNodes, removing it from succNodes. Returns nil if succNodes
// is empty.
func (s *Structurer) pickFinalSucc(podfsTrace []*cfg.Node, succNodes *nodeSet) *cfg.Node {
	if succNodes.Empty() {
		return nil
	}
	for _, n := range podfsTrace {
		if succNodes.Contains(n) && s.g.NodeByID(n.ID()) == n {
			succNodes.Remove(n)
			return n
		}
	}
	// Successors introduced after the trace snapshot (a condition cascade
	// left behind by an inner loop) never appear in it; fall back to a
	// deterministic, lowest-id choice.
	ids := succNodes.IDs()
	n := s.g.NodeByID(ids[0])
	succNodes.Remove(n)
	return n
}

// --- [ funnel abnormal entries ] ---------------------------------------------

// funnelAbnormalEntries routes every entry into loopNodes through a single
// header, introducing a structural-variable cascade when necessary, and
// returns the (possibly new) header.
func (s *Structurer) funnelAbnormalEntries(n *cfg.Node, loopNodes *nodeSet) *cfg.Node {
	if n.IsEntry() {
		return n
	}

	type abnormalEntry struct {
		edge   *cfg.Edge
		target *cfg.Node
	}
	var normal []*cfg.Edge
	targets := make(map[int64]*cfg.Node) // target id -> node, for non-header loop nodes with an outside predecessor
	var abnormal []abnormalEntry

	for _, m := range loopNodes.Nodes() {
		for _, e := range incomingEdges(s.g, m) {
			from := e.From().(*cfg.Node)
			if loopNodes.Contains(from) {
				continue // internal edge, not an entry
			}
			if m.ID() == n.ID() {
				normal = append(normal, e)
			} else {
				abnormal = append(abnormal, abnormalEntry{edge: e, target: m})
				targets[m.ID()] = m
			}
		}
	}
	if len(abnormal) == 0 {
		return n
	}

	// Assign each distinct abnormal-entry target a unique index k >= 1;
	// the header gets 0.
	var sortedTargets []*cfg.Node
	for _, m := range targets {
		sortedTargets = append(sortedTargets, m)
	}
	sort.Slice(sortedTargets, func(i, j int) bool { return sortedTargets[i].DOTID() < sortedTargets[j].DOTID() })
	index := map[int64]int{n.ID(): 0}
	for i, m := range sortedTargets {
		index[m.ID()] = i + 1
	}

	s.structID++
	varName := ast.Variable(fmt.Sprintf("i%d", s.structID))

	// targetOf maps index k to the node the reader actually meant to enter:
	// the header itself at k == 0, the corresponding abnormal target otherwise.
	targetOf := map[int]*cfg.Node{0: n}
	for i, m := range sortedTargets {
		targetOf[i+1] = m
	}

	// Build one reset-and-jump block per index: "i = 0" followed by an
	// unconditional edge to the real target. These sit on the cascade's
	// far side, reached only after the variable has already been tested.
	resetNodes := make(map[int]*cfg.Node, len(targetOf))
	for k := 0; k <= len(sortedTargets); k++ {
		reset := s.g.AddCode(ast.NewBasicBlock(fmt.Sprintf("%s = 0", varName)))
		s.g.AddEdge(reset, targetOf[k], nil)
		resetNodes[k] = reset
	}

	// Build the cascade: one Condition node per non-zero index, testing
	// the structural variable; each link falls through, under the negation
	// of its test, to the next link, and the tail link to index 0's reset
	// block.
	var head *cfg.Node
	var prevCond *cfg.Node
	for k := len(sortedTargets); k >= 1; k-- {
		c := s.g.AddCondition()
		atom := varEqAtom{name: varName, value: int64(k)}
		s.g.AddEdge(c, resetNodes[k], s.ctx.MkAtom(atom))
		if prevCond == nil {
			s.g.AddEdge(c, resetNodes[0], s.ctx.MkNot(s.ctx.MkAtom(atom)))
		} else {
			s.g.AddEdge(c, prevCond, s.ctx.MkNot(s.ctx.MkAtom(atom)))
		}
		prevCond = c
		head = c
	}
	if head == nil {
		// len(abnormal) == 0 already returned above, so sortedTargets is
		// non-empty and the loop above ran at least once.
		invariant("funnel abnormal entries: empty cascade")
	}

	// Build one "i = k" setter per index k, shared by every original entry
	// edge with that index, falling through unconditionally into the
	// cascade head, which then dispatches on the value just set.
	setterNodes := make(map[int]*cfg.Node)
	setterFor := func(k int) *cfg.Node {
		if sn, ok := setterNodes[k]; ok {
			return sn
		}
		sn := s.g.AddCode(ast.NewBasicBlock(fmt.Sprintf("%s = %d", varName, k)))
		s.g.AddEdge(sn, head, nil)
		setterNodes[k] = sn
		return sn
	}
	for _, e := range normal {
		cfg.RetargetEdge(s.g, e, setterFor(0))
	}
	for _, ae := range abnormal {
		k := index[ae.target.ID()]
		cfg.RetargetEdge(s.g, ae.edge, setterFor(k))
	}

	// The cascade, reset and setter nodes stay outside loopNodes: they feed
	// into the loop, so they never contribute strict successors, and the
	// body slice from the new header picks the cascade and resets up by
	// reachability alone.
	return head
}

// varEqAtom is the structural-variable equality predicate used by the
// entry-funnelling cascade.
type varEqAtom struct {
	name  ast.Variable
	value int64
}

func (a varEqAtom) String() string { return fmt.Sprintf("%s == %d", a.name, a.value) }

// --- [ refine loop ] -----------------------------------------------------------

// refineLoop grows loopNodes (in place) with strict successors all of
// whose predecessors already lie in loopNodes, pulling in as candidate
// successors only nodes dominated by the original (pre-funnel) loop header
// n. A round that absorbs nodes without finding any new candidate leaves
// succNodes as it was: the absorbed nodes stay members of the successor
// set, and the exit funnel decides between them.
func (s *Structurer) refineLoop(n *cfg.Node, loopNodes, succNodes *nodeSet) {
	tree := dom.Build(s.entry(), s.g)
	for succNodes.Len() > 1 {
		oldNodes := newNodeSet(s.g)
		newNodes := newNodeSet(s.g)
		for _, succ := range succNodes.Nodes() {
			allInLoop := true
			for _, e := range incomingEdges(s.g, succ) {
				if !loopNodes.Contains(e.From().(*cfg.Node)) {
					allInLoop = false
					break
				}
			}
			if !allInLoop {
				continue
			}
			loopNodes.Add(succ)
			oldNodes.Add(succ)
			for _, m := range outgoingTargets(s.g, succ) {
				if !loopNodes.Contains(m) && tree.Dominates(n, m) {
					newNodes.Add(m)
				}
			}
		}
		if newNodes.Empty() {
			return
		}
		succNodes.DifferenceWith(oldNodes)
		succNodes.UnionWith(newNodes)
	}
}

// --- [ funnel abnormal exits ] -------------------------------------------------

// funnelAbnormalExits routes every remaining member of succNodes (the
// abnormal exits) through a condition cascade terminating at finalSucc, and
// rewrites every loop-exiting edge -- abnormal or not -- as a break leaf
// feeding loopContinue under condition False. Returns the new single
// successor of the loop (either the head of the cascade, or finalSucc
// unchanged if there was nothing to funnel).
func (s *Structurer) funnelAbnormalExits(loopNodes, succNodes *nodeSet, loopContinue, finalSucc *cfg.Node) *cfg.Node {
	abnormalSuccs := succNodes.Nodes()
	sort.Slice(abnormalSuccs, func(i, j int) bool { return abnormalSuccs[i].DOTID() < abnormalSuccs[j].DOTID() })

	var head *cfg.Node
	if len(abnormalSuccs) > 0 {
		// Exit-source nodes: loop nodes with an edge to any abnormal
		// successor.
		exitSources := newNodeSet(s.g)
		for _, ln := range loopNodes.Nodes() {
			for _, e := range outgoingEdges(s.g, ln) {
				to := e.To().(*cfg.Node)
				if succNodes.Contains(to) {
					exitSources.Add(ln)
				}
			}
		}

		ncd := s.nearestCommonDominator(exitSources.Nodes())
		reaching, _ := s.reachingConditions(ncd, func(m *cfg.Node) bool { return succNodes.Contains(m) })

		// Each cascade link tests one abnormal successor's reaching
		// condition and falls through to the next link under its negation;
		// the last link falls through to finalSucc, so the cascade's
		// out-conditions partition cleanly.
		var tail *cfg.Node
		var tailCond *cond.Expr
		for _, succ := range abnormalSuccs {
			c := reaching[succ.ID()]
			if c == nil {
				c = s.ctx.MkTrue()
			}
			link := s.g.AddCondition()
			s.g.AddEdge(link, succ, c)
			if tail != nil {
				s.g.AddEdge(tail, link, s.ctx.MkNot(tailCond))
			} else {
				head = link
			}
			tail, tailCond = link, c
		}
		if finalSucc != nil {
			s.g.AddEdge(tail, finalSucc, s.ctx.MkNot(tailCond))
		}
	}

	// Every loop-exiting edge becomes an explicit break leaf feeding
	// loopContinue under False, whether or not a discriminating cascade was
	// built above: the structurer only ever produces Endless loops (no
	// PreChecked/PostChecked test), so every exit -- including the sole
	// exit of a single-successor loop -- needs an explicit break inside the
	// body; the cascade above only decides *which* successor a break
	// implies once control leaves the loop.
	//
	// Replace every loop-exiting edge (to any successor, including
	// finalSucc) with a break leaf feeding loopContinue under False.
	allExitTargets := append([]*cfg.Node{}, abnormalSuccs...)
	if finalSucc != nil {
		allExitTargets = append(allExitTargets, finalSucc)
	}
	exitSet := nodeSetOf(s.g, allExitTargets...)
	for _, ln := range loopNodes.Nodes() {
		for _, e := range outgoingEdges(s.g, ln) {
			to := e.To().(*cfg.Node)
			if !exitSet.Contains(to) {
				continue
			}
			brk := s.g.AddCode(ast.NewBasicBlock("break"))
			cfg.RetargetEdge(s.g, e, brk)
			s.g.AddEdge(brk, loopContinue, s.ctx.MkFalse())
			loopNodes.Add(brk)
		}
	}

	if head == nil {
		return finalSucc
	}
	return head
}

// --- [ structure acyclic SESE region ] -----------------------------------------

// structureAcyclicSeseRegion collapses the region between header and
// successor (successor exclusive) into a single Seq AST node, removing
// every region node from the graph. The header's payload becomes a
// transient Dummy instead of being removed, which would take its incoming
// edges with it.
func (s *Structurer) structureAcyclicSeseRegion(header, successor *cfg.Node) ast.Node {
	reaching, topo := s.reachingConditions(header, func(m *cfg.Node) bool { return m.ID() == successor.ID() })

	// Pop successor off the tail of topo; it is not part of the region.
	if len(topo) == 0 || topo[len(topo)-1].ID() != successor.ID() {
		invariant("structure acyclic SESE region: successor %s is not the last node of the topological order", successor.DOTID())
	}
	topo = topo[:len(topo)-1]

	var collected []ast.Node
	for _, n := range topo {
		rc := reaching[n.ID()]
		if rc == nil {
			rc = s.ctx.MkTrue()
		}
		var body ast.Node
		if n.Kind() == cfg.KindCode {
			body = n.AST()
		}
		if n.ID() == header.ID() {
			header.MarkDummy("collapsed header")
		} else {
			s.g.RemoveNode(n.ID())
		}
		if body != nil {
			collected = append(collected, ast.NewCond(rc, body, nil))
		}
	}
	if len(collected) == 0 {
		invariant("structure acyclic SESE region: empty region between %s and %s", header.DOTID(), successor.DOTID())
	}
	return ast.NewSeq(collected...)
}

// reachingConditions computes the reaching condition of every node in the
// slice from header to a node satisfying end: the disjunction, over the
// node's in-slice incoming edges, of the source's reaching condition
// conjoined with the edge label. It returns the map of reaching
// conditions keyed by node id, and the slice's topological order (header
// first, a single end node last).
func (s *Structurer) reachingConditions(header *cfg.Node, end cfg.EndPredicate) (map[int64]*cond.Expr, []*cfg.Node) {
	sl := cfg.NewSlice(s.g, header, end)
	rc := make(map[int64]*cond.Expr, len(sl.Topo))
	rc[header.ID()] = s.ctx.MkTrue()

	incoming := make(map[int64][]*cfg.Edge)
	for _, e := range sl.Edges {
		to := e.To().(*cfg.Node)
		incoming[to.ID()] = append(incoming[to.ID()], e)
	}

	for _, n := range sl.Topo {
		if n.ID() == header.ID() {
			continue
		}
		var disjuncts []*cond.Expr
		for _, e := range incoming[n.ID()] {
			u := e.From().(*cfg.Node)
			urc, ok := rc[u.ID()]
			if !ok {
				continue
			}
			label := e.Cond()
			if label == nil {
				label = s.ctx.MkTrue()
			}
			disjuncts = append(disjuncts, s.ctx.MkAnd(urc, label))
		}
		rc[n.ID()] = s.ctx.MkOrIter(disjuncts)
	}
	return rc, sl.Topo
}

// --- [ nearest common dominator, Haas 1990 ] ---------------------------------

// nearestCommonDominator finds the nearest common dominator of nodes using
// the multiple-reverse-DFS construction of Haas 1990: one non-empty path
// stack per input node (every input marked re-entered), each walked
// backwards one unvisited edge per round. A stack that runs out of
// unvisited incoming edges pops; when one stack remains, it is popped down
// to its topmost re-entered element (un-marking nodes and edges on the
// way), and whatever remains is broken into fresh single-node stacks until
// a single node survives.
func (s *Structurer) nearestCommonDominator(nodes []*cfg.Node) *cfg.Node {
	if len(nodes) == 0 {
		invariant("nearest common dominator: empty input set")
	}
	entry := s.entry()

	reentered := make(map[int64]bool)
	visitedNodes := make(map[int64]bool)
	visitedEdges := make(map[*cfg.Edge]bool)
	stacks := make([]*cfg.PathStack, 0, len(nodes))
	for _, n := range nodes {
		reentered[n.ID()] = true
		stacks = append(stacks, cfg.NewPathStack(n))
	}

	for {
		for len(stacks) > 1 {
			kept := stacks[:0]
			progressed := false
			for _, st := range stacks {
				if st.Last().ID() == entry.ID() {
					kept = append(kept, st)
					continue
				}
				progressed = true
				// One dfs-step: find an unvisited incoming edge of the top
				// node, popping while there is none.
				var arc *cfg.Edge
				for {
					for _, e := range incomingEdges(s.g, st.Last()) {
						if !visitedEdges[e] {
							arc = e
							break
						}
					}
					if arc != nil || st.Len() == 0 {
						break
					}
					st.Pop()
				}
				if arc == nil {
					// Stack exhausted; it contributes no candidate.
					continue
				}
				visitedEdges[arc] = true
				v := arc.From().(*cfg.Node)
				if !visitedNodes[v.ID()] {
					visitedNodes[v.ID()] = true
					st.Push(arc, v)
				} else {
					reentered[v.ID()] = true
				}
				kept = append(kept, st)
			}
			stacks = kept
			if len(stacks) == 0 {
				invariant("nearest common dominator: search exhausted without converging")
			}
			if !progressed {
				// Every surviving search is parked at the entry node; they
				// can only ever converge there, so merge them now instead of
				// spinning.
				stacks = stacks[:1]
			}
		}

		// Pop the surviving stack down to its topmost re-entered element.
		st := stacks[0]
		for st.Len() > 0 {
			e, v := st.Top()
			if reentered[v.ID()] {
				break
			}
			delete(visitedNodes, v.ID())
			delete(visitedEdges, e)
			st.Pop()
		}
		rest := st.Nodes()
		if len(rest) == 1 {
			return rest[0]
		}
		stacks = stacks[:0]
		for _, v := range rest {
			reentered[v.ID()] = true
			stacks = append(stacks, cfg.NewPathStack(v))
		}
	}
}

// --- [ dominance-set helpers ] -------------------------------------------------

// dominatesSet returns every node dominated by n (n included), restricted
// to nodes reachable from the current entry.
func (s *Structurer) dominatesSet(n *cfg.Node) []*cfg.Node {
	tree := dom.Build(s.entry(), s.g)
	var out []*cfg.Node
	for _, m := range allNodes(s.g) {
		if tree.Dominates(n, m) {
			out = append(out, m)
		}
	}
	return out
}

// strictSuccessorsOfSet returns every node with an edge from a member of
// set but which is not itself in set.
func (s *Structurer) strictSuccessorsOfSet(set []*cfg.Node) []*cfg.Node {
	in := nodeSetOf(s.g, set...)
	seen := newNodeSet(s.g)
	var out []*cfg.Node
	for _, n := range set {
		for _, m := range outgoingTargets(s.g, n) {
			if in.Contains(m) || seen.Contains(m) {
				continue
			}
			seen.Add(m)
			out = append(out, m)
		}
	}
	return out
}

// --- [ Phase 3, finalization ] ----------------------------------------------

func (s *Structurer) finalize(entry *cfg.Node) ast.Node {
	dummyExit := s.g.AddDummy("exit")
	for _, n := range allNodes(s.g) {
		if n.ID() == dummyExit.ID() {
			continue
		}
		if len(outgoingTargets(s.g, n)) == 0 {
			s.g.AddEdge(n, dummyExit, nil)
		}
	}

	result := s.structureAcyclicSeseRegion(entry, dummyExit)
	// structureAcyclicSeseRegion marks the header (here, entry) as a
	// transient Dummy rather than removing it, so callers that keep
	// collapsing the region (collapseAcyclic, collapseLoop) can overwrite
	// it with SetAST. Phase 3 is the top-level call: result is returned
	// directly rather than stored back into any node, so entry's stand-in
	// must be removed here for the graph to end up empty.
	s.g.RemoveNode(entry.ID())
	s.g.RemoveNode(dummyExit.ID())

	if n := allNodes(s.g); len(n) != 0 {
		invariant("structure whole: %d node(s) remain after finalization", len(n))
	}
	return result
}

// --- [ small graph helpers ] -------------------------------------------------

func incomingEdges(g *cfg.Graph, n *cfg.Node) []*cfg.Edge {
	var out []*cfg.Edge
	it := g.To(n.ID())
	for it.Next() {
		from := it.Node()
		out = append(out, g.Edge(from.ID(), n.ID()).(*cfg.Edge))
	}
	return out
}

func outgoingEdges(g *cfg.Graph, n *cfg.Node) []*cfg.Edge {
	var out []*cfg.Edge
	for _, m := range outgoingTargets(g, n) {
		out = append(out, g.Edge(n.ID(), m.ID()).(*cfg.Edge))
	}
	return out
}

func outgoingTargets(g *cfg.Graph, n *cfg.Node) []*cfg.Node {
	var out []*cfg.Node
	it := g.From(n.ID())
	for it.Next() {
		out = append(out, it.Node().(*cfg.Node))
	}
	return out
}

func allNodes(g *cfg.Graph) []*cfg.Node {
	var out []*cfg.Node
	it := g.Nodes()
	for it.Next() {
		out = append(out, it.Node().(*cfg.Node))
	}
	return out
}
