// Package graph holds the named type graph produced by inference and
// orders it for emission.
package graph

import (
	"container/heap"
	"sort"

	"github.com/mcncl/pytyper/internal/shape"
)

// TypeKind says whether a named type declares an object or a union.
type TypeKind int

const (
	ObjectType TypeKind = iota
	UnionType
)

// NamedType is an object or union shape promoted to its own declaration.
// Node never contains nested objects; those are shape.Ref nodes pointing
// at other named types.
type NamedType struct {
	ID   int
	Kind TypeKind
	// Hint is the proposed name derived from where the type was first
	// reached. The naming package turns it into a unique identifier.
	Hint string
	// Path is the JSON path of first discovery, e.g. "$.users[].address".
	Path string
	Node *shape.Node
}

// TypeGraph is the set of named types plus the root expression. Types are
// indexed by ID, which is their discovery order.
type TypeGraph struct {
	Types []*NamedType
	Root  *shape.Node
	// RootName is the identifier of the root declaration, whether that is
	// the root named type or an alias for an inline root expression.
	RootName string
}

// Lookup returns the named type with the given id.
func (g *TypeGraph) Lookup(id int) *NamedType {
	if id < 0 || id >= len(g.Types) {
		return nil
	}
	return g.Types[id]
}

// RootType returns the named type the root refers to, if any.
func (g *TypeGraph) RootType() (*NamedType, bool) {
	if g.Root != nil && g.Root.Kind == shape.Ref {
		return g.Lookup(g.Root.Ref), true
	}
	return nil, false
}

// Dependencies returns the distinct ids referenced by t, in ascending order.
func Dependencies(t *NamedType) []int {
	return References(t.Node)
}

// References returns the distinct named type ids reachable from n without
// crossing into another named type.
func References(n *shape.Node) []int {
	seen := map[int]bool{}
	collectRefs(n, seen)
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func collectRefs(n *shape.Node, seen map[int]bool) {
	if n == nil {
		return
	}
	switch n.Kind {
	case shape.Ref:
		seen[n.Ref] = true
	case shape.Array:
		collectRefs(n.Elem, seen)
	case shape.Object:
		for _, f := range n.Fields {
			collectRefs(f.Type, seen)
		}
	case shape.Union:
		for _, m := range n.Members {
			collectRefs(m, seen)
		}
	}
}

// UseCounts counts every reference to each named type, across all
// declarations and the root expression. A type referenced from two fields
// of the same parent counts twice.
func UseCounts(g *TypeGraph) map[int]int {
	counts := make(map[int]int, len(g.Types))
	for _, t := range g.Types {
		countRefs(t.Node, counts)
	}
	if g.Root != nil && g.Root.Kind != shape.Ref {
		countRefs(g.Root, counts)
	}
	return counts
}

func countRefs(n *shape.Node, counts map[int]int) {
	if n == nil {
		return
	}
	switch n.Kind {
	case shape.Ref:
		counts[n.Ref]++
	case shape.Array:
		countRefs(n.Elem, counts)
	case shape.Object:
		for _, f := range n.Fields {
			countRefs(f.Type, counts)
		}
	case shape.Union:
		for _, m := range n.Members {
			countRefs(m, counts)
		}
	}
}

// Order sorts the named types so every type comes after the types it
// references. It uses Kahn's algorithm and always releases the ready type
// with the smallest discovery id, so the order is deterministic.
func Order(g *TypeGraph) []*NamedType {
	n := len(g.Types)
	inDegree := make([]int, n)
	dependents := make([][]int, n)

	for _, t := range g.Types {
		deps := Dependencies(t)
		inDegree[t.ID] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	ready := &idHeap{}
	for id, degree := range inDegree {
		if degree == 0 {
			heap.Push(ready, id)
		}
	}

	ordered := make([]*NamedType, 0, n)
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		ordered = append(ordered, g.Types[id])
		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	return ordered
}

type idHeap []int

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *idHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]
	return last
}
