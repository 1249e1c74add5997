// Package ast defines the tagged tree produced by the control-flow
// structurer: sequences, conditionals, loops and switches built from
// caller-supplied basic-block payloads and cond.Expr reaching conditions.
//
// The core never emits source text itself; a Node tree is the
// structurer's entire output, and rendering it is left to a downstream
// printer.
package ast

import (
	"fmt"

	"github.com/graphism/nogoto/cond"
)

// Node is any node in the recovered AST.
type Node interface {
	// isNode restricts Node implementations to this package's types.
	isNode()
}

// BasicBlock is a leaf node wrapping an opaque payload supplied by the
// caller, or a synthetic hint string produced by the structurer itself (a structural-variable assignment, or "break").
type BasicBlock struct {
	Payload any
}

func (*BasicBlock) isNode() {}

// NewBasicBlock returns a leaf AST node wrapping payload.
func NewBasicBlock(payload any) *BasicBlock {
	return &BasicBlock{Payload: payload}
}

func (b *BasicBlock) String() string {
	return fmt.Sprintf("%v", b.Payload)
}

// Seq is an ordered concatenation of AST nodes. A well-formed Seq is never
// empty and never directly nests another Seq; use NewSeq to build one so
// those invariants hold by construction.
type Seq struct {
	Stmts []Node
}

func (*Seq) isNode() {}

// NewSeq returns a Seq built from stmts, flattening any nested Seq and
// dropping nils. It panics if the result would be empty.
func NewSeq(stmts ...Node) Node {
	flat := flattenSeq(stmts)
	switch len(flat) {
	case 0:
		panic(fmt.Errorf("ast: NewSeq called with no statements"))
	case 1:
		return flat[0]
	default:
		return &Seq{Stmts: flat}
	}
}

func flattenSeq(stmts []Node) []Node {
	var flat []Node
	for _, s := range stmts {
		if s == nil {
			continue
		}
		if inner, ok := s.(*Seq); ok {
			flat = append(flat, flattenSeq(inner.Stmts)...)
			continue
		}
		flat = append(flat, s)
	}
	return flat
}

// Cond executes Then when Condition holds, and Else (if present) otherwise.
type Cond struct {
	Condition *cond.Expr
	Then      Node
	Else      Node // nil when there is no else-branch
}

func (*Cond) isNode() {}

// NewCond returns a Cond node. A Cond whose Condition is literally True
// and which carries no else-branch simplifies to its then-branch
// directly.
func NewCond(condition *cond.Expr, then, els Node) Node {
	if condition.IsTrue() && els == nil {
		return then
	}
	return &Cond{Condition: condition, Then: then, Else: els}
}

// LoopKind identifies the shape of a Loop's test.
type LoopKind int

// The kinds of loop a Loop node can represent.
const (
	// LoopEndless is a loop with no structural test of its own; any exits
	// are expressed as break statements inside Body.
	LoopEndless LoopKind = iota
	// LoopPreChecked tests Cond before each iteration of Body.
	LoopPreChecked
	// LoopPostChecked tests Cond after each iteration of Body.
	LoopPostChecked
)

func (k LoopKind) String() string {
	switch k {
	case LoopEndless:
		return "endless"
	case LoopPreChecked:
		return "pre-checked"
	case LoopPostChecked:
		return "post-checked"
	default:
		return fmt.Sprintf("LoopKind(%d)", int(k))
	}
}

// Loop is a structured loop. For LoopPreChecked and LoopPostChecked, Cond
// is the loop test; for LoopEndless, Cond is nil.
type Loop struct {
	Kind LoopKind
	Cond *cond.Expr
	Body Node
}

func (*Loop) isNode() {}

// NewEndlessLoop returns an endless loop (no structural test) over body.
// This is the only loop shape the structurer (package structure) currently
// produces; PreChecked/PostChecked are retained for a downstream peephole
// pass that turns `while (cond) { ... }`-shaped endless loops back into
// pre/post-tested loops.
func NewEndlessLoop(body Node) *Loop {
	return &Loop{Kind: LoopEndless, Body: body}
}

// NewPreCheckedLoop returns a loop that tests c before each iteration.
func NewPreCheckedLoop(c *cond.Expr, body Node) *Loop {
	return &Loop{Kind: LoopPreChecked, Cond: c, Body: body}
}

// NewPostCheckedLoop returns a loop that tests c after each iteration.
func NewPostCheckedLoop(c *cond.Expr, body Node) *Loop {
	return &Loop{Kind: LoopPostChecked, Cond: c, Body: body}
}

// Variable is a structural variable recovered for multi-entry loops, or a
// real program variable for a genuine source-level switch. Its name is an
// opaque hint for the downstream printer.
type Variable string

// ValueSet is the set of case values an arm of a Switch matches.
type ValueSet []int64

// Case is one arm of a Switch.
type Case struct {
	Values ValueSet
	Body   Node
}

// Switch is declared for forward compatibility with a future data-recovery
// pass: the structurer (package structure) never
// produces one directly, but Variable/ValueSet-driven dispatch falls out
// naturally of collapsing an abnormal-entry or abnormal-exit cascade, so
// the type is provided for whatever downstream pass chooses to fold such a
// cascade back into a switch.
type Switch struct {
	Var     Variable
	Cases   []Case
	Default Node
}

func (*Switch) isNode() {}
