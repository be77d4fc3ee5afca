package generator

import (
	"strings"

	"github.com/mcncl/pytyper/internal/graph"
	"github.com/mcncl/pytyper/internal/naming"
	"github.com/mcncl/pytyper/internal/shape"
)

// dictDecl declares a TypedDict with class syntax, or with the functional
// syntax when some key is not a valid identifier. TypedDict keys are the
// JSON keys themselves, so they cannot be renamed.
func (r *renderer) dictDecl(t *graph.NamedType) string {
	name := r.names[t.ID]
	r.imports.add("typing", "TypedDict")

	for _, f := range t.Node.Fields {
		if !naming.IsIdentifier(f.Name) {
			return name + " = " + r.dictLiteral(name, t.Node.Fields, 0)
		}
	}

	var b strings.Builder
	r.lines(&b, 0, "class %s(TypedDict):", name)
	if len(t.Node.Fields) == 0 {
		r.lines(&b, 1, "pass")
	}
	for _, f := range t.Node.Fields {
		r.lines(&b, 1, "%s: %s", f.Name, r.dictFieldType(f, 1))
	}
	return strings.TrimRight(b.String(), "\n")
}

// dictLiteral renders a functional TypedDict call. Fields go one per line,
// indented one level past depth.
func (r *renderer) dictLiteral(name string, fields []shape.Field, depth int) string {
	r.imports.add("typing", "TypedDict")
	if len(fields) == 0 {
		return "TypedDict(" + pyString(name) + ", {})"
	}

	var b strings.Builder
	b.WriteString("TypedDict(" + pyString(name) + ", {\n")
	for _, f := range fields {
		r.lines(&b, depth+1, "%s: %s,", pyString(f.Name), r.dictFieldType(f, depth+1))
	}
	b.WriteString(indent(depth) + "})")
	return b.String()
}

// dictFieldType marks absent-able keys NotRequired and null-able values
// Optional.
func (r *renderer) dictFieldType(f shape.Field, depth int) string {
	t := r.typeExpr(f.Type, depth)
	if f.Nullable {
		t = r.optional(t)
	}
	if f.Optional {
		r.imports.add("typing_extensions", "NotRequired")
		t = "NotRequired[" + t + "]"
	}
	return t
}
