package structure

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/graphism/nogoto/cfg"
)

// nodeSet is a set of cfg.Node ids backed by a bitset: node ids from
// github.com/graphism/simple are small dense non-negative integers, which
// is exactly the access pattern bitset.BitSet is built for.
type nodeSet struct {
	g    *cfg.Graph
	bits *bitset.BitSet
}

func newNodeSet(g *cfg.Graph) *nodeSet {
	return &nodeSet{g: g, bits: bitset.New(0)}
}

func nodeSetOf(g *cfg.Graph, nodes ...*cfg.Node) *nodeSet {
	s := newNodeSet(g)
	for _, n := range nodes {
		s.Add(n)
	}
	return s
}

func (s *nodeSet) Add(n *cfg.Node)    { s.bits.Set(uint(n.ID())) }
func (s *nodeSet) AddID(id int64)     { s.bits.Set(uint(id)) }
func (s *nodeSet) Remove(n *cfg.Node) { s.bits.Clear(uint(n.ID())) }
func (s *nodeSet) RemoveID(id int64)  { s.bits.Clear(uint(id)) }

func (s *nodeSet) Contains(n *cfg.Node) bool { return s.bits.Test(uint(n.ID())) }
func (s *nodeSet) ContainsID(id int64) bool  { return s.bits.Test(uint(id)) }
func (s *nodeSet) Len() int                  { return int(s.bits.Count()) }
func (s *nodeSet) Empty() bool               { return s.bits.None() }

// Nodes returns the set's members as *cfg.Node, in ascending id order.
func (s *nodeSet) Nodes() []*cfg.Node {
	out := make([]*cfg.Node, 0, s.Len())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, s.g.NodeByID(int64(i)))
	}
	return out
}

// IDs returns the set's members as raw ids, in ascending order.
func (s *nodeSet) IDs() []int64 {
	out := make([]int64, 0, s.Len())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, int64(i))
	}
	return out
}

func (s *nodeSet) UnionWith(other *nodeSet) {
	s.bits.InPlaceUnion(other.bits)
}

func (s *nodeSet) DifferenceWith(other *nodeSet) {
	s.bits.InPlaceDifference(other.bits)
}

func (s *nodeSet) Clone() *nodeSet {
	return &nodeSet{g: s.g, bits: s.bits.Clone()}
}
