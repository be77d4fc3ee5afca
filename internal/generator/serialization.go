package generator

import (
	"fmt"
	"strings"

	"github.com/mcncl/pytyper/internal/graph"
	"github.com/mcncl/pytyper/internal/shape"
)

type direction int

const (
	fromJSON direction = iota
	toJSON
)

func (r *renderer) fromDict(b *strings.Builder, name string, fields []classField) {
	r.imports.add("typing", "Any")
	r.imports.add("typing", "Dict")

	r.lines(b, 1, "@classmethod")
	r.lines(b, 1, "def from_dict(cls, obj: Dict[str, Any]) -> %s:", pyString(name))
	if len(fields) == 0 {
		r.lines(b, 2, "return cls()")
		return
	}
	r.lines(b, 2, "return cls(")
	for _, f := range fields {
		key := pyString(f.Name)
		var value string
		if f.optional {
			src := "obj.get(" + key + ")"
			value = r.guardNone(src, r.convert(f.Type, src, 0, fromJSON))
		} else {
			value = r.convert(f.Type, "obj["+key+"]", 0, fromJSON)
		}
		r.lines(b, 3, "%s=%s,", f.ident, value)
	}
	r.lines(b, 2, ")")
}

func (r *renderer) toDict(b *strings.Builder, fields []classField) {
	r.lines(b, 1, "def to_dict(self) -> Dict[str, Any]:")
	r.lines(b, 2, "result: Dict[str, Any] = {}")
	for _, f := range fields {
		src := "self." + f.ident
		key := pyString(f.Name)
		value := r.convert(f.Type, src, 0, toJSON)
		switch {
		case f.Optional:
			r.lines(b, 2, "if %s is not None:", src)
			r.lines(b, 3, "result[%s] = %s", key, value)
		case f.Nullable:
			r.lines(b, 2, "result[%s] = %s", key, r.guardNone(src, value))
		default:
			r.lines(b, 2, "result[%s] = %s", key, value)
		}
	}
	r.lines(b, 2, "return result")
}

// guardNone passes None through unchanged and converts anything else.
func (r *renderer) guardNone(src, converted string) string {
	if converted == src {
		return src
	}
	return "None if " + src + " is None else " + converted
}

// convert returns a Python expression that converts src between its JSON
// form and its typed form. An expression equal to src means no conversion
// is needed. Comprehension variables are named by depth so nested
// comprehensions never shadow each other.
func (r *renderer) convert(n *shape.Node, src string, depth int, dir direction) string {
	switch n.Kind {
	case shape.Int:
		if dir == fromJSON {
			return "int(" + src + ")"
		}
	case shape.Float:
		if dir == fromJSON {
			return "float(" + src + ")"
		}
	case shape.Datetime:
		// fromisoformat accepts "Z" only from Python 3.11.
		if dir == fromJSON {
			return "datetime.fromisoformat(" + src + ".replace(\"Z\", \"+00:00\"))"
		}
		return src + ".isoformat().replace(\"+00:00\", \"Z\")"
	case shape.UUID:
		if dir == fromJSON {
			return "UUID(" + src + ")"
		}
		return "str(" + src + ")"
	case shape.Array:
		v := fmt.Sprintf("v%d", depth)
		inner := r.convert(n.Elem, v, depth+1, dir)
		if inner == v {
			return "list(" + src + ")"
		}
		return "[" + inner + " for " + v + " in " + src + "]"
	case shape.Ref:
		t := r.graph.Lookup(n.Ref)
		if t.Kind == graph.UnionType {
			return r.convert(t.Node, src, depth, dir)
		}
		if dir == fromJSON {
			return r.names[n.Ref] + ".from_dict(" + src + ")"
		}
		return src + ".to_dict()"
	case shape.Union:
		return r.convertUnion(n, src, depth, dir)
	}
	return src
}

// convertUnion dispatches on the runtime type of src. The last member is
// the fallback branch and needs no test.
func (r *renderer) convertUnion(n *shape.Node, src string, depth int, dir direction) string {
	if m, ok := shape.IsOptionalOf(n); ok {
		inner := r.convert(m, src, depth, dir)
		if inner == src {
			return src
		}
		return "(" + r.guardNone(src, inner) + ")"
	}

	converted := make([]string, len(n.Members))
	identity := true
	for i, m := range n.Members {
		converted[i] = r.convert(m, src, depth, dir)
		identity = identity && converted[i] == src
	}
	if identity {
		return src
	}

	last := len(n.Members) - 1
	expr := converted[last]
	for i := last - 1; i >= 0; i-- {
		expr = converted[i] + " if " + r.typeTest(n.Members[i], src, dir) + " else " + expr
	}
	if n.Nullable {
		expr = "None if " + src + " is None else " + expr
	}
	return "(" + expr + ")"
}

// typeTest returns a condition that holds when src is in the form of m.
// bool is a subclass of int in Python, so integer tests exclude it.
func (r *renderer) typeTest(m *shape.Node, src string, dir direction) string {
	isinstance := func(t string) string { return "isinstance(" + src + ", " + t + ")" }
	notBool := " and not " + isinstance("bool")

	switch m.Kind {
	case shape.Bool:
		return isinstance("bool")
	case shape.Int:
		return isinstance("int") + notBool
	case shape.Float:
		if dir == fromJSON {
			return isinstance("(int, float)") + notBool
		}
		return isinstance("float")
	case shape.Str:
		return isinstance("str")
	case shape.Datetime:
		if dir == fromJSON {
			return isinstance("str")
		}
		return isinstance("datetime")
	case shape.UUID:
		if dir == fromJSON {
			return isinstance("str")
		}
		return isinstance("UUID")
	case shape.Array:
		return isinstance("list")
	case shape.Ref:
		if dir == fromJSON {
			return isinstance("dict")
		}
		return isinstance(r.names[m.Ref])
	}
	return "True"
}
