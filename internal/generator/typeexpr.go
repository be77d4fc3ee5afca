package generator

import (
	"strings"

	"github.com/mcncl/pytyper/internal/graph"
	"github.com/mcncl/pytyper/internal/shape"
)

// Every style targets Python's typing module, which has a native Union, so
// no style needs to widen a union to a broader type.

// typeExpr renders n as a type annotation. depth is the indentation level of
// the line the expression starts on; it only matters for inline TypedDict
// literals, which span several lines.
func (r *renderer) typeExpr(n *shape.Node, depth int) string {
	switch n.Kind {
	case shape.Any:
		r.imports.add("typing", "Any")
		return "Any"
	case shape.Null:
		return "None"
	case shape.Bool:
		return "bool"
	case shape.Int:
		return "int"
	case shape.Float:
		return "float"
	case shape.Str:
		return "str"
	case shape.Datetime:
		r.imports.add("datetime", "datetime")
		return "datetime"
	case shape.UUID:
		r.imports.add("uuid", "UUID")
		return "UUID"
	case shape.Array:
		r.imports.add("typing", "List")
		return "List[" + r.typeExpr(n.Elem, depth) + "]"
	case shape.Union:
		return r.unionExpr(n, depth)
	case shape.Ref:
		return r.refExpr(n.Ref, depth)
	}
	r.imports.add("typing", "Dict")
	r.imports.add("typing", "Any")
	return "Dict[str, Any]"
}

func (r *renderer) unionExpr(n *shape.Node, depth int) string {
	if m, ok := shape.IsOptionalOf(n); ok {
		return r.optional(r.typeExpr(m, depth))
	}
	if len(n.Members) == 1 {
		return r.typeExpr(n.Members[0], depth)
	}

	parts := make([]string, len(n.Members))
	for i, m := range n.Members {
		parts[i] = r.typeExpr(m, depth)
	}
	r.imports.add("typing", "Union")
	expr := "Union[" + strings.Join(parts, ", ") + "]"
	if n.Nullable {
		return r.optional(expr)
	}
	return expr
}

// optional wraps t in Optional unless it already admits None.
func (r *renderer) optional(t string) string {
	if t == "Any" || t == "None" || strings.HasPrefix(t, "Optional[") {
		return t
	}
	r.imports.add("typing", "Optional")
	return "Optional[" + t + "]"
}

func (r *renderer) refExpr(id, depth int) string {
	t := r.graph.Lookup(id)
	if r.declared(id) {
		return r.names[id]
	}
	if t.Kind == graph.UnionType {
		return r.typeExpr(t.Node, depth)
	}
	return r.dictLiteral(r.names[id], t.Node.Fields, depth)
}
