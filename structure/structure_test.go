package structure

import (
	"fmt"
	"strings"
	"testing"

	"github.com/graphism/nogoto/ast"
	"github.com/graphism/nogoto/cfg"
	"github.com/graphism/nogoto/cond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type strAtom string

func (a strAtom) String() string { return string(a) }

// blocks walks an ast.Node tree in output order, collecting the string form
// of every BasicBlock payload it contains.
func blocks(n ast.Node) []string {
	var out []string
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case nil:
		case *ast.BasicBlock:
			out = append(out, fmt.Sprintf("%v", v.Payload))
		case *ast.Seq:
			for _, s := range v.Stmts {
				walk(s)
			}
		case *ast.Cond:
			walk(v.Then)
			walk(v.Else)
		case *ast.Loop:
			walk(v.Body)
		case *ast.Switch:
			for _, c := range v.Cases {
				walk(c.Body)
			}
			walk(v.Default)
		}
	}
	walk(n)
	return out
}

// conds walks an ast.Node tree, collecting the string form of every Cond
// condition it contains (including Loop test conditions, for the rare
// PreChecked/PostChecked case).
func conds(n ast.Node) []string {
	var out []string
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case nil:
		case *ast.Seq:
			for _, s := range v.Stmts {
				walk(s)
			}
		case *ast.Cond:
			out = append(out, v.Condition.String())
			walk(v.Then)
			walk(v.Else)
		case *ast.Loop:
			if v.Cond != nil {
				out = append(out, v.Cond.String())
			}
			walk(v.Body)
		case *ast.Switch:
			for _, c := range v.Cases {
				walk(c.Body)
			}
			walk(v.Default)
		}
	}
	walk(n)
	return out
}

// loops walks an ast.Node tree, collecting every *ast.Loop it contains.
func loops(n ast.Node) []*ast.Loop {
	var out []*ast.Loop
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case nil:
		case *ast.Seq:
			for _, s := range v.Stmts {
				walk(s)
			}
		case *ast.Cond:
			walk(v.Then)
			walk(v.Else)
		case *ast.Loop:
			out = append(out, v)
			walk(v.Body)
		case *ast.Switch:
			for _, c := range v.Cases {
				walk(c.Body)
			}
			walk(v.Default)
		}
	}
	walk(n)
	return out
}

func count(xs []string, want string) int {
	n := 0
	for _, x := range xs {
		if x == want {
			n++
		}
	}
	return n
}

// --- [ single block, straight-line ] ----------------------------------------

func TestStructureSingleBlock(t *testing.T) {
	g := cfg.NewGraph()
	ctx := cond.NewContext()
	entry := g.AddCode(ast.NewBasicBlock("A"))
	g.SetEntry(entry)

	got, err := StructureWhole(g, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, blocks(got))
}

func TestStructureStraightLine(t *testing.T) {
	g := cfg.NewGraph()
	ctx := cond.NewContext()
	a := g.AddCode(ast.NewBasicBlock("A"))
	g.SetEntry(a)
	b := g.AddCode(ast.NewBasicBlock("B"))
	c := g.AddCode(ast.NewBasicBlock("C"))
	g.AddEdge(a, b, nil)
	g.AddEdge(b, c, nil)

	got, err := StructureWhole(g, ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, blocks(got))
}

// --- [ diamond ] -------------------------------------------------------------

// buildDiamond builds A -(p)-> B -> D, A -(!p)-> C -> D, where A's branch is
// modelled as an unconditional Code->Condition pair, matching the contract
// that only Code nodes carry payloads and only Condition nodes branch.
func buildDiamond(t *testing.T) (g *cfg.Graph, ctx *cond.Context, p *cond.Expr) {
	t.Helper()
	g = cfg.NewGraph()
	ctx = cond.NewContext()
	p = ctx.MkAtom(strAtom("p"))

	aCode := g.AddCode(ast.NewBasicBlock("A"))
	g.SetEntry(aCode)
	aTest := g.AddCondition()
	b := g.AddCode(ast.NewBasicBlock("B"))
	c := g.AddCode(ast.NewBasicBlock("C"))
	d := g.AddCode(ast.NewBasicBlock("D"))

	g.AddEdge(aCode, aTest, nil)
	g.AddEdge(aTest, b, p)
	g.AddEdge(aTest, c, ctx.MkNot(p))
	g.AddEdge(b, d, nil)
	g.AddEdge(c, d, nil)
	return g, ctx, p
}

func TestStructureDiamondVisitsEveryBlockExactlyOnce(t *testing.T) {
	g, ctx, _ := buildDiamond(t)
	got, err := StructureWhole(g, ctx)
	require.NoError(t, err)

	bs := blocks(got)
	for _, want := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, 1, count(bs, want), "block %q should appear exactly once in %v", want, bs)
	}
}

func TestStructureDiamondBranchesUnderComplementaryConditions(t *testing.T) {
	g, ctx, p := buildDiamond(t)
	notP := ctx.MkNot(p)
	got, err := StructureWhole(g, ctx)
	require.NoError(t, err)

	// B and C reach under complementary conditions (p and !p), and the join
	// D under their disjunction: the algebra never folds p || !p to true, so
	// the join keeps its syntactic reaching condition.
	cs := conds(got)
	assert.ElementsMatch(t, []string{p.String(), notP.String(), ctx.MkOr(p, notP).String()}, cs,
		"conditions should be p, !p and their disjunction (syntactically), got %v", cs)
}

// --- [ nested if ] -----------------------------------------------------------

// buildNestedIf builds A -(p)-> B, A -(!p)-> E, B -(q)-> C, B -(!q)-> D,
// C -> E, D -> E: an inner diamond dominated by one arm of an outer branch.
func buildNestedIf(t *testing.T) (g *cfg.Graph, ctx *cond.Context, p *cond.Expr) {
	t.Helper()
	g = cfg.NewGraph()
	ctx = cond.NewContext()
	p = ctx.MkAtom(strAtom("p"))
	q := ctx.MkAtom(strAtom("q"))

	aCode := g.AddCode(ast.NewBasicBlock("A"))
	g.SetEntry(aCode)
	aTest := g.AddCondition()
	bCode := g.AddCode(ast.NewBasicBlock("B"))
	bTest := g.AddCondition()
	c := g.AddCode(ast.NewBasicBlock("C"))
	d := g.AddCode(ast.NewBasicBlock("D"))
	e := g.AddCode(ast.NewBasicBlock("E"))

	g.AddEdge(aCode, aTest, nil)
	g.AddEdge(aTest, bCode, p)
	g.AddEdge(aTest, e, ctx.MkNot(p))
	g.AddEdge(bCode, bTest, nil)
	g.AddEdge(bTest, c, q)
	g.AddEdge(bTest, d, ctx.MkNot(q))
	g.AddEdge(c, e, nil)
	g.AddEdge(d, e, nil)
	return g, ctx, p
}

func TestStructureNestedIfNestsInnerDiamondUnderOuterBranch(t *testing.T) {
	g, ctx, p := buildNestedIf(t)
	got, err := StructureWhole(g, ctx)
	require.NoError(t, err)

	bs := blocks(got)
	for _, want := range []string{"A", "B", "C", "D", "E"} {
		assert.Equal(t, 1, count(bs, want), "block %q should appear exactly once in %v", want, bs)
	}

	// The inner diamond collapses into the then-branch of the Cond guarded
	// by p; E stays outside it.
	var outer *ast.Cond
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Seq:
			for _, s := range v.Stmts {
				walk(s)
			}
		case *ast.Cond:
			if v.Condition == p {
				outer = v
				return
			}
			walk(v.Then)
			walk(v.Else)
		}
	}
	walk(got)
	require.NotNil(t, outer, "expected a Cond guarded by p in %v", conds(got))

	inner := blocks(outer.Then)
	assert.Contains(t, inner, "B")
	assert.Contains(t, inner, "C")
	assert.Contains(t, inner, "D")
	assert.NotContains(t, inner, "E")
}

// --- [ while loop, single exit ] ---------------------------------------------

// buildWhileLoop builds A -> B -(p)-> C -> B (back edge), B -(!p)-> D: a
// pre-tested-looking loop where B is the branch point (split Code+Condition)
// and C is the body.
func buildWhileLoop(t *testing.T) (g *cfg.Graph, ctx *cond.Context, p *cond.Expr) {
	t.Helper()
	g = cfg.NewGraph()
	ctx = cond.NewContext()
	p = ctx.MkAtom(strAtom("p"))

	a := g.AddCode(ast.NewBasicBlock("A"))
	g.SetEntry(a)
	bCode := g.AddCode(ast.NewBasicBlock("B"))
	bTest := g.AddCondition()
	c := g.AddCode(ast.NewBasicBlock("C"))
	d := g.AddCode(ast.NewBasicBlock("D"))

	g.AddEdge(a, bCode, nil)
	g.AddEdge(bCode, bTest, nil)
	g.AddEdge(bTest, c, p)
	g.AddEdge(bTest, d, ctx.MkNot(p))
	g.AddEdge(c, bCode, nil)
	return g, ctx, p
}

func TestStructureWhileLoopProducesEndlessLoopWithOneBreak(t *testing.T) {
	g, ctx, _ := buildWhileLoop(t)
	got, err := StructureWhole(g, ctx)
	require.NoError(t, err)

	ls := loops(got)
	require.Len(t, ls, 1, "expected exactly one loop")
	assert.Equal(t, ast.LoopEndless, ls[0].Kind)

	bs := blocks(got)
	assert.Equal(t, 1, count(bs, "break"), "expected exactly one break leaf: %v", bs)
	for _, want := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, 1, count(bs, want), "block %q should appear exactly once in %v", want, bs)
	}

	// A and D are outside the loop; B and C are inside it.
	loopBlocks := blocks(ls[0].Body)
	assert.Contains(t, loopBlocks, "B")
	assert.Contains(t, loopBlocks, "C")
	assert.NotContains(t, loopBlocks, "A")
	assert.NotContains(t, loopBlocks, "D")
}

// --- [ infinite loop, no exit ] ----------------------------------------------

func TestStructureInfiniteLoopProducesEndlessLoopWithNoBreak(t *testing.T) {
	g := cfg.NewGraph()
	a := g.AddCode(ast.NewBasicBlock("A"))
	g.SetEntry(a)
	b := g.AddCode(ast.NewBasicBlock("B"))
	g.AddEdge(a, b, nil)
	g.AddEdge(b, b, nil) // unconditional self-loop

	got, err := StructureWhole(g, cond.NewContext())
	require.NoError(t, err)

	ls := loops(got)
	require.Len(t, ls, 1)
	assert.Equal(t, ast.LoopEndless, ls[0].Kind)

	bs := blocks(got)
	assert.Equal(t, []string{"A", "B"}, bs)
	assert.Equal(t, 0, count(bs, "break"))
}

// --- [ loop with two exits ] --------------------------------------------------

// buildTwoExitLoop builds A -> B -(p)-> C -(q)-> B (back edge), B -(!p)-> X,
// C -(!q)-> Y: a loop with two distinct exit targets.
func buildTwoExitLoop(t *testing.T) (g *cfg.Graph, ctx *cond.Context) {
	t.Helper()
	g = cfg.NewGraph()
	ctx = cond.NewContext()
	p := ctx.MkAtom(strAtom("p"))
	q := ctx.MkAtom(strAtom("q"))

	a := g.AddCode(ast.NewBasicBlock("A"))
	g.SetEntry(a)
	bCode := g.AddCode(ast.NewBasicBlock("B"))
	bTest := g.AddCondition()
	cCode := g.AddCode(ast.NewBasicBlock("C"))
	cTest := g.AddCondition()
	x := g.AddCode(ast.NewBasicBlock("X"))
	y := g.AddCode(ast.NewBasicBlock("Y"))

	g.AddEdge(a, bCode, nil)
	g.AddEdge(bCode, bTest, nil)
	g.AddEdge(bTest, cCode, p)
	g.AddEdge(bTest, x, ctx.MkNot(p))
	g.AddEdge(cCode, cTest, nil)
	g.AddEdge(cTest, bCode, q)
	g.AddEdge(cTest, y, ctx.MkNot(q))
	return g, ctx
}

func TestStructureLoopWithTwoExits(t *testing.T) {
	g, ctx := buildTwoExitLoop(t)
	got, err := StructureWhole(g, ctx)
	require.NoError(t, err)

	ls := loops(got)
	require.Len(t, ls, 1)
	assert.Equal(t, ast.LoopEndless, ls[0].Kind)

	bs := blocks(got)
	assert.Equal(t, 2, count(bs, "break"), "expected exactly one break per exit: %v", bs)
	for _, want := range []string{"A", "B", "C", "X", "Y"} {
		assert.Equal(t, 1, count(bs, want), "block %q should appear exactly once in %v", want, bs)
	}
}

// --- [ irreducible two-entry loop ] ------------------------------------------

// buildIrreducibleLoop builds A -(q)-> B -> C -> B (back edge), A -(!q)-> C:
// two distinct external entries into the same cycle, with no way to reach
// one loop node without passing through the other from outside.
func buildIrreducibleLoop(t *testing.T) (g *cfg.Graph, ctx *cond.Context) {
	t.Helper()
	g = cfg.NewGraph()
	ctx = cond.NewContext()
	q := ctx.MkAtom(strAtom("q"))

	aCode := g.AddCode(ast.NewBasicBlock("A"))
	g.SetEntry(aCode)
	aTest := g.AddCondition()
	b := g.AddCode(ast.NewBasicBlock("B"))
	c := g.AddCode(ast.NewBasicBlock("C"))

	g.AddEdge(aCode, aTest, nil)
	g.AddEdge(aTest, b, q)
	g.AddEdge(aTest, c, ctx.MkNot(q))
	g.AddEdge(b, c, nil)
	g.AddEdge(c, b, nil)
	return g, ctx
}

func TestStructureIrreducibleTwoEntryLoopIntroducesStructuralVariable(t *testing.T) {
	g, ctx := buildIrreducibleLoop(t)
	got, err := StructureWhole(g, ctx)
	require.NoError(t, err)

	ls := loops(got)
	require.Len(t, ls, 1)
	assert.Equal(t, ast.LoopEndless, ls[0].Kind)

	bs := blocks(got)
	assert.Contains(t, bs, "A")
	assert.Contains(t, bs, "B")
	assert.Contains(t, bs, "C")

	var assignments int
	for _, b := range bs {
		if strings.Contains(b, "=") && strings.HasPrefix(b, "i") {
			assignments++
		}
	}
	assert.Greater(t, assignments, 0, "expected at least one structural-variable assignment block in %v", bs)

	cs := conds(got)
	var sawStructuralTest bool
	for _, c := range cs {
		if strings.Contains(c, "==") {
			sawStructuralTest = true
		}
	}
	assert.True(t, sawStructuralTest, "expected a structural-variable equality test among conditions %v", cs)
}

// --- [ general invariants and the malformed-input boundary ] -----------------

func TestStructureWholeRejectsMissingEntry(t *testing.T) {
	g := cfg.NewGraph()
	g.AddCode(ast.NewBasicBlock("A")) // never marked as entry

	_, err := StructureWhole(g, cond.NewContext())
	require.Error(t, err)
	serr, ok := err.(*Error)
	require.True(t, ok, "expected a *structure.Error, got %T", err)
	assert.Equal(t, KindMalformedInput, serr.Kind)
}

func TestStructureWholeReachingConditionsAreIdempotent(t *testing.T) {
	// Structuring the same shape twice, with independent contexts, must
	// yield the same block sequence and syntactically identical conditions.
	g1, ctx1, _ := buildDiamond(t)
	g2, ctx2, _ := buildDiamond(t)

	got1, err := StructureWhole(g1, ctx1)
	require.NoError(t, err)
	got2, err := StructureWhole(g2, ctx2)
	require.NoError(t, err)

	assert.Equal(t, blocks(got1), blocks(got2))
	assert.ElementsMatch(t, conds(got1), conds(got2))
}
