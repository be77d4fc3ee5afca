package shape

import "sort"

// Join returns the least shape covering both a and b.
func Join(a, b *Node) *Node {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case Equal(a, b):
		return a
	case a.Kind == Any:
		return b
	case b.Kind == Any:
		return a
	case a.Kind == Null:
		return nullable(b)
	case b.Kind == Null:
		return nullable(a)
	}

	ma, na := decompose(a)
	mb, nb := decompose(b)
	return build(merge(append(append([]*Node{}, ma...), mb...)), na || nb)
}

// Fold joins nodes left to right. Folding nothing yields Any.
func Fold(nodes []*Node) *Node {
	acc := anyNode
	for _, n := range nodes {
		acc = Join(acc, n)
	}
	return acc
}

// JoinSlots joins two field slots. A null absorbed by the join is moved
// onto the slot as Nullable. The result is optional when either side was,
// or when two different types only reconcile through a union.
func JoinSlots(a, b Slot) Slot {
	t := Join(a.Type, b.Type)
	nullable := a.Nullable || b.Nullable
	stripped := false

	if t.Kind == Union && t.Nullable {
		nullable, stripped = true, true
		t = StripNull(t)
	}
	if t.Kind == Null {
		nullable = true
	}

	optional := a.Optional || b.Optional ||
		(!Equal(a.Type, b.Type) && (t.Kind == Union || stripped))

	return Slot{Type: t, Optional: optional, Nullable: nullable}
}

// StripNull removes the null marker from a union, collapsing a single
// remaining member to that member.
func StripNull(n *Node) *Node {
	if n.Kind != Union || !n.Nullable {
		return n
	}
	if len(n.Members) == 1 {
		return n.Members[0]
	}
	return &Node{Kind: Union, Members: n.Members}
}

// IsOptionalOf reports whether n is a one-member nullable union and returns
// that member.
func IsOptionalOf(n *Node) (*Node, bool) {
	if n.Kind == Union && n.Nullable && len(n.Members) == 1 {
		return n.Members[0], true
	}
	return nil, false
}

func nullable(n *Node) *Node {
	switch n.Kind {
	case Null:
		return n
	case Union:
		if n.Nullable {
			return n
		}
		return &Node{Kind: Union, Members: n.Members, Nullable: true}
	}
	return &Node{Kind: Union, Members: []*Node{n}, Nullable: true}
}

func decompose(n *Node) ([]*Node, bool) {
	if n.Kind == Union {
		return n.Members, n.Nullable
	}
	return []*Node{n}, false
}

func build(members []*Node, isNullable bool) *Node {
	if len(members) == 1 && !isNullable {
		return members[0]
	}
	return &Node{Kind: Union, Members: members, Nullable: isNullable}
}

// bucket orders union members: scalars by fixed precedence, then the array,
// then the object, then references by id.
type bucket int

const (
	bucketBool bucket = iota
	bucketNumber
	bucketString
	bucketArray
	bucketObject
	bucketRef
)

func bucketOf(n *Node) bucket {
	switch n.Kind {
	case Bool:
		return bucketBool
	case Int, Float:
		return bucketNumber
	case Str, Datetime, UUID:
		return bucketString
	case Array:
		return bucketArray
	case Object:
		return bucketObject
	}
	return bucketRef
}

// merge combines members that share a bucket and returns them in
// canonical order.
func merge(members []*Node) []*Node {
	var slots [bucketRef]*Node
	refs := map[int]*Node{}

	for _, m := range members {
		bk := bucketOf(m)
		if bk == bucketRef {
			refs[m.Ref] = m
			continue
		}
		if slots[bk] == nil {
			slots[bk] = m
			continue
		}
		slots[bk] = combine(slots[bk], m)
	}

	out := make([]*Node, 0, len(members))
	for _, n := range slots {
		if n != nil {
			out = append(out, n)
		}
	}
	ids := make([]int, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		out = append(out, refs[id])
	}
	return out
}

// combine joins two members of the same bucket.
func combine(a, b *Node) *Node {
	if Equal(a, b) {
		return a
	}
	switch bucketOf(a) {
	case bucketNumber:
		return Scalar(Float)
	case bucketString:
		return Scalar(Str)
	case bucketArray:
		return ArrayOf(Join(a.Elem, b.Elem))
	case bucketObject:
		return mergeObjects(a, b)
	}
	return a
}

// mergeObjects unions the key sets. Keys keep first-discovery order; a key
// missing on one side becomes optional.
func mergeObjects(a, b *Node) *Node {
	fields := make([]Field, 0, len(a.Fields)+len(b.Fields))
	for _, fa := range a.Fields {
		if sb, ok := b.Lookup(fa.Name); ok {
			fields = append(fields, Field{Name: fa.Name, Slot: JoinSlots(fa.Slot, sb)})
			continue
		}
		s := fa.Slot
		s.Optional = true
		fields = append(fields, Field{Name: fa.Name, Slot: s})
	}
	for _, fb := range b.Fields {
		if _, ok := a.Lookup(fb.Name); ok {
			continue
		}
		s := fb.Slot
		s.Optional = true
		fields = append(fields, Field{Name: fb.Name, Slot: s})
	}
	return ObjectOf(fields...)
}
