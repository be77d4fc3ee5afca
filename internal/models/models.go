// Package models holds the parsed JSON value tree consumed by shape inference.
package models

// Kind identifies the JSON type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is one node of a parsed JSON document. Objects keep their keys in
// document order; Number keeps the literal text of Int and Float values.
type Value struct {
	Kind    Kind
	Bool    bool
	Number  string
	Str     string
	Elems   []Value
	Members []Member
}

// Member is one key/value pair of a JSON object.
type Member struct {
	Key   string
	Value Value
}

// Null returns the JSON null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int returns a JSON integer with the given literal text.
func Int(lit string) Value { return Value{Kind: KindInt, Number: lit} }

// Float returns a JSON floating point number with the given literal text.
func Float(lit string) Value { return Value{Kind: KindFloat, Number: lit} }

// String returns a JSON string.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Array returns a JSON array.
func Array(elems ...Value) Value { return Value{Kind: KindArray, Elems: elems} }

// Object returns a JSON object with members in the given order.
func Object(members ...Member) Value { return Value{Kind: KindObject, Members: members} }
