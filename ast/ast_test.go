package ast

import (
	"testing"

	"github.com/graphism/nogoto/cond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type strAtom string

func (a strAtom) String() string { return string(a) }

func TestNewSeqFlattensNested(t *testing.T) {
	a := NewBasicBlock("A")
	b := NewBasicBlock("B")
	c := NewBasicBlock("C")

	inner := NewSeq(b, c)
	outer := NewSeq(a, inner)

	seq, ok := outer.(*Seq)
	require.True(t, ok)
	assert.Equal(t, []Node{a, b, c}, seq.Stmts)
}

func TestNewSeqSingleCollapses(t *testing.T) {
	a := NewBasicBlock("A")
	got := NewSeq(a)
	assert.Same(t, a, got.(*BasicBlock))
}

func TestNewSeqEmptyPanics(t *testing.T) {
	assert.Panics(t, func() { NewSeq() })
}

func TestNewCondTrueNoElseSimplifies(t *testing.T) {
	ctx := cond.NewContext()
	then := NewBasicBlock("then")
	got := NewCond(ctx.MkTrue(), then, nil)
	assert.Same(t, then, got)
}

func TestNewCondKeepsElse(t *testing.T) {
	ctx := cond.NewContext()
	then := NewBasicBlock("then")
	els := NewBasicBlock("else")
	got := NewCond(ctx.MkTrue(), then, els)
	c, ok := got.(*Cond)
	require.True(t, ok)
	assert.Same(t, then, c.Then)
	assert.Same(t, els, c.Else)
}

func TestNewCondNonTrueKeptAsCond(t *testing.T) {
	ctx := cond.NewContext()
	p := ctx.MkAtom(strAtom("p"))
	then := NewBasicBlock("then")
	got := NewCond(p, then, nil)
	c, ok := got.(*Cond)
	require.True(t, ok)
	assert.Same(t, p, c.Condition)
}
