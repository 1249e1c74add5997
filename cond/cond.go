// Package cond implements a hash-consed boolean condition algebra: a small
// expression language of True, False, atomic predicates, negation,
// conjunction and disjunction, used both to label control-flow-graph edges
// and to express reaching conditions inside the recovered AST.
//
// Every expression lives inside a Context and is canonicalized on
// construction, so structurally equivalent expressions intern to the same
// *Expr: equality and hashing are simply pointer identity. The algebra
// performs no SAT reasoning; it only simplifies identities, annihilators,
// double negation and top-level De Morgan flattening (see Context.MkNot).
package cond

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the shape of a condition expression.
type Kind int

// The kinds of condition expression.
const (
	KindTrue Kind = iota
	KindFalse
	KindAtom
	KindNot
	KindAnd
	KindOr
)

func (k Kind) String() string {
	switch k {
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindAtom:
		return "atom"
	case KindNot:
		return "not"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Atom is an opaque atomic predicate supplied by the caller (e.g. "x > 0",
// a branch condition recovered from machine code, ...). Concrete Atom
// implementations must be comparable: the Context interns atoms using Go's
// built-in == on the boxed interface value.
type Atom interface {
	fmt.Stringer
}

// Expr is a condition expression interned within a Context. Two
// expressions built through the same Context are == if and only if they
// are structurally equivalent after canonicalization.
type Expr struct {
	ctx      *Context
	kind     Kind
	atom     Atom    // valid when kind == KindAtom
	operand  *Expr   // valid when kind == KindNot
	children []*Expr // valid when kind == KindAnd or KindOr; sorted by id, deduplicated
	id       uint64  // creation order within ctx; used only for canonical sorting
}

// Kind returns the shape of the expression.
func (e *Expr) Kind() Kind { return e.kind }

// Atom returns the atomic predicate of an atom expression. It panics if
// e.Kind() != KindAtom.
func (e *Expr) Atom() Atom {
	if e.kind != KindAtom {
		panic(fmt.Errorf("cond: Atom called on non-atom expression %v", e))
	}
	return e.atom
}

// Operand returns the negated expression of a Not expression. It panics if
// e.Kind() != KindNot.
func (e *Expr) Operand() *Expr {
	if e.kind != KindNot {
		panic(fmt.Errorf("cond: Operand called on non-Not expression %v", e))
	}
	return e.operand
}

// Children returns the conjuncts (And) or disjuncts (Or) of e, in
// canonical order. It panics if e.Kind() is neither KindAnd nor KindOr.
func (e *Expr) Children() []*Expr {
	if e.kind != KindAnd && e.kind != KindOr {
		panic(fmt.Errorf("cond: Children called on non-And/Or expression %v", e))
	}
	return e.children
}

// IsTrue reports whether e is the canonical True expression.
func (e *Expr) IsTrue() bool { return e.kind == KindTrue }

// IsFalse reports whether e is the canonical False expression.
func (e *Expr) IsFalse() bool { return e.kind == KindFalse }

// String returns a human-readable representation of e, suitable for DOT
// edge labels and debug output. It is not guaranteed wire-stable.
func (e *Expr) String() string {
	switch e.kind {
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindAtom:
		return e.atom.String()
	case KindNot:
		return "!" + parenthesize(e.operand)
	case KindAnd:
		return joinChildren(e.children, " && ")
	case KindOr:
		return joinChildren(e.children, " || ")
	default:
		panic(fmt.Errorf("cond: invalid expression kind %v", e.kind))
	}
}

func parenthesize(e *Expr) string {
	switch e.kind {
	case KindAnd, KindOr:
		return "(" + e.String() + ")"
	default:
		return e.String()
	}
}

func joinChildren(children []*Expr, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = parenthesize(c)
	}
	return strings.Join(parts, sep)
}

// Context owns every condition expression constructed through it. A
// Context is single-threaded and grows monotonically for the duration of
// one structuring job; it is never shared between concurrent jobs.
type Context struct {
	nextID    uint64
	trueExpr  *Expr
	falseExpr *Expr
	atoms     map[Atom]*Expr
	compound  map[string]*Expr // And/Or/Not, keyed by canonical structural key
}

// NewContext returns a new, empty condition context.
func NewContext() *Context {
	c := &Context{
		atoms:    make(map[Atom]*Expr),
		compound: make(map[string]*Expr),
	}
	c.trueExpr = c.alloc(KindTrue)
	c.falseExpr = c.alloc(KindFalse)
	return c
}

func (c *Context) alloc(kind Kind) *Expr {
	e := &Expr{ctx: c, kind: kind, id: c.nextID}
	c.nextID++
	return e
}

// MkTrue returns the canonical True expression.
func (c *Context) MkTrue() *Expr { return c.trueExpr }

// MkFalse returns the canonical False expression.
func (c *Context) MkFalse() *Expr { return c.falseExpr }

// MkAtom interns the given atomic predicate, returning the same *Expr for
// equal atoms.
func (c *Context) MkAtom(a Atom) *Expr {
	if e, ok := c.atoms[a]; ok {
		return e
	}
	e := c.alloc(KindAtom)
	e.atom = a
	c.atoms[a] = e
	return e
}

// MkNot returns the syntactic negation of x. Double negation cancels
// (mk_not(mk_not(x)) == x); negating True/False folds to False/True; to
// maximize sharing, negation is pushed through the top level of And/Or via
// De Morgan's laws rather than wrapped opaquely.
func (c *Context) MkNot(x *Expr) *Expr {
	switch x.kind {
	case KindTrue:
		return c.falseExpr
	case KindFalse:
		return c.trueExpr
	case KindNot:
		return x.operand
	case KindAnd:
		negated := make([]*Expr, len(x.children))
		for i, child := range x.children {
			negated[i] = c.MkNot(child)
		}
		return c.MkOrIter(negated)
	case KindOr:
		negated := make([]*Expr, len(x.children))
		for i, child := range x.children {
			negated[i] = c.MkNot(child)
		}
		return c.MkAndIter(negated)
	default:
		key := notKey(x)
		if e, ok := c.compound[key]; ok {
			return e
		}
		e := c.alloc(KindNot)
		e.operand = x
		c.compound[key] = e
		return e
	}
}

// MkAnd returns the conjunction of x and y.
func (c *Context) MkAnd(x, y *Expr) *Expr {
	return c.MkAndIter([]*Expr{x, y})
}

// MkOr returns the disjunction of x and y.
func (c *Context) MkOr(x, y *Expr) *Expr {
	return c.MkOrIter([]*Expr{x, y})
}

// MkAndIter returns the conjunction of the given expressions, flattened,
// deduplicated and canonically ordered. An empty iterator folds to True;
// any False conjunct annihilates the whole expression to False.
func (c *Context) MkAndIter(xs []*Expr) *Expr {
	return c.mkAssoc(xs, KindAnd, c.trueExpr, c.falseExpr)
}

// MkOrIter returns the disjunction of the given expressions, flattened,
// deduplicated and canonically ordered. An empty iterator folds to False;
// any True disjunct annihilates the whole expression to True.
func (c *Context) MkOrIter(xs []*Expr) *Expr {
	return c.mkAssoc(xs, KindOr, c.falseExpr, c.trueExpr)
}

// mkAssoc implements the shared construction logic of MkAndIter/MkOrIter.
// identity is the expression that vanishes from the operand list (True for
// And, False for Or); annihilator is the expression that short-circuits the
// whole result (False for And, True for Or).
func (c *Context) mkAssoc(xs []*Expr, kind Kind, identity, annihilator *Expr) *Expr {
	seen := make(map[*Expr]bool)
	var flat []*Expr
	var flatten func(e *Expr)
	flatten = func(e *Expr) {
		if e == annihilator {
			return
		}
		if e == identity {
			return
		}
		if e.kind == kind {
			// Flatten nested And-in-And / Or-in-Or.
			for _, child := range e.children {
				flatten(child)
			}
			return
		}
		if !seen[e] {
			seen[e] = true
			flat = append(flat, e)
		}
	}
	for _, x := range xs {
		if x == annihilator {
			return annihilator
		}
	}
	for _, x := range xs {
		flatten(x)
	}
	switch len(flat) {
	case 0:
		return identity
	case 1:
		return flat[0]
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].id < flat[j].id })
	key := assocKey(kind, flat)
	if e, ok := c.compound[key]; ok {
		return e
	}
	e := c.alloc(kind)
	e.children = flat
	c.compound[key] = e
	return e
}

func notKey(x *Expr) string {
	return fmt.Sprintf("NOT:%d", x.id)
}

func assocKey(kind Kind, children []*Expr) string {
	var b strings.Builder
	if kind == KindAnd {
		b.WriteString("AND:")
	} else {
		b.WriteString("OR:")
	}
	for i, c := range children {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", c.id)
	}
	return b.String()
}
