// Package shape implements the structural type lattice used for inference.
//
// A Node is an immutable tagged variant. Join combines the shapes observed
// for the same logical position across samples; it never fails, and it is
// commutative and associative up to Equal, so folding samples in any order
// yields the same shape.
//
// Unions are kept canonical: members are distinct, never Null, Any or Union,
// and hold at most one Array and one Object member (arrays and objects merge
// instead of accumulating). A nullable union carries the null marker in
// Nullable; a one-member nullable union is "optional T".
package shape

import (
	"sort"
	"strconv"
	"strings"
)

// Kind tags a Node.
type Kind int

const (
	Any Kind = iota
	Null
	Bool
	Int
	Float
	Str
	Datetime
	UUID
	Array
	Object
	Union
	Ref
)

var kindNames = [...]string{
	Any:      "any",
	Null:     "null",
	Bool:     "bool",
	Int:      "int",
	Float:    "float",
	Str:      "str",
	Datetime: "datetime",
	UUID:     "uuid",
	Array:    "array",
	Object:   "object",
	Union:    "union",
	Ref:      "ref",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsScalar reports whether k is an atomic kind.
func (k Kind) IsScalar() bool {
	return k >= Null && k <= UUID
}

// Node is one type in the lattice.
type Node struct {
	Kind     Kind
	Elem     *Node   // Array
	Fields   []Field // Object, first-discovery order
	Members  []*Node // Union, canonical order
	Nullable bool    // Union
	Ref      int     // Ref
}

// Slot is a field's type together with its optional and nullable flags.
type Slot struct {
	Type     *Node
	Optional bool
	Nullable bool
}

// Field is a named slot of an Object.
type Field struct {
	Name string
	Slot
}

var (
	anyNode  = &Node{Kind: Any}
	nullNode = &Node{Kind: Null}
)

// Scalar returns the node for an atomic kind.
func Scalar(k Kind) *Node {
	switch k {
	case Any:
		return anyNode
	case Null:
		return nullNode
	}
	return &Node{Kind: k}
}

// ArrayOf returns an array of elem.
func ArrayOf(elem *Node) *Node {
	return &Node{Kind: Array, Elem: elem}
}

// ObjectOf returns an object with the given fields.
func ObjectOf(fields ...Field) *Node {
	return &Node{Kind: Object, Fields: fields}
}

// RefTo returns a reference to the named type with the given id.
func RefTo(id int) *Node {
	return &Node{Kind: Ref, Ref: id}
}

// UnionOf joins all members into one node. It exists for tests and callers
// that build unions by hand; inference reaches unions through Join.
func UnionOf(members ...*Node) *Node {
	return Fold(members)
}

// Lookup returns the slot of the named field.
func (n *Node) Lookup(name string) (Slot, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Slot, true
		}
	}
	return Slot{}, false
}

// ContainsObject reports whether a union has an object or named member.
func (n *Node) ContainsObject() bool {
	if n.Kind != Union {
		return false
	}
	for _, m := range n.Members {
		if m.Kind == Object || m.Kind == Ref {
			return true
		}
	}
	return false
}

// Signature is the canonical structural key of n. Object fields are sorted,
// so field order never affects equality.
func Signature(n *Node) string {
	var b strings.Builder
	writeSignature(&b, n)
	return b.String()
}

func writeSignature(b *strings.Builder, n *Node) {
	switch n.Kind {
	case Array:
		b.WriteByte('[')
		writeSignature(b, n.Elem)
		b.WriteByte(']')
	case Object:
		fields := make([]Field, len(n.Fields))
		copy(fields, n.Fields)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		b.WriteByte('{')
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(f.Name))
			b.WriteByte(':')
			writeSignature(b, f.Type)
			if f.Optional {
				b.WriteByte('?')
			}
			if f.Nullable {
				b.WriteByte('!')
			}
		}
		b.WriteByte('}')
	case Union:
		b.WriteByte('(')
		for i, m := range n.Members {
			if i > 0 {
				b.WriteByte('|')
			}
			writeSignature(b, m)
		}
		if n.Nullable {
			b.WriteString("|null")
		}
		b.WriteByte(')')
	case Ref:
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(n.Ref))
	default:
		b.WriteString(n.Kind.String())
	}
}

// Equal reports structural equality.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind.IsScalar() || a.Kind == Any {
		return true
	}
	return Signature(a) == Signature(b)
}
