package generator

import (
	"strings"

	"github.com/mcncl/pytyper/internal/graph"
	"github.com/mcncl/pytyper/internal/naming"
	"github.com/mcncl/pytyper/internal/shape"
)

// annotationNames may appear in annotations; a class attribute with a
// default and one of these names would shadow it for later fields.
var annotationNames = []string{
	"Any", "Annotated", "Dict", "List", "Optional", "Union", "Field",
	"datetime", "UUID", "int", "float", "str", "bool",
}

// pydanticReserved are BaseModel attributes a field must not shadow.
var pydanticReserved = []string{
	"model_config", "model_fields", "model_computed_fields", "model_extra",
	"model_dump", "model_validate", "dict", "json", "copy", "schema",
	"construct", "validate", "parse_obj", "parse_raw",
}

// classField is one attribute of a generated class.
type classField struct {
	shape.Field
	ident    string
	optional bool
}

func (r *renderer) fieldRules() naming.FieldRules {
	reserved := map[string]bool{"self": true}
	for _, n := range annotationNames {
		reserved[n] = true
	}
	if r.style == DataClassWithSerialization {
		reserved["from_dict"] = true
		reserved["to_dict"] = true
	}
	rules := naming.FieldRules{Reserved: reserved}
	if r.style.isPydantic() {
		for _, n := range pydanticReserved {
			reserved[n] = true
		}
		rules.NoLeadingUnderscore = true
	}
	return rules
}

// classFields returns the attributes with required fields first. The sort
// is stable, so each group keeps first-discovery order.
func (r *renderer) classFields(t *graph.NamedType) []classField {
	keys := make([]string, len(t.Node.Fields))
	for i, f := range t.Node.Fields {
		keys[i] = f.Name
	}
	idents := naming.FieldIdentifiers(keys, r.fieldRules())

	var required, optional []classField
	for i, f := range t.Node.Fields {
		cf := classField{Field: f, ident: idents[i], optional: f.Optional || f.Nullable}
		if cf.optional {
			optional = append(optional, cf)
		} else {
			required = append(required, cf)
		}
	}
	return append(required, optional...)
}

func (r *renderer) classDecl(t *graph.NamedType) string {
	name := r.names[t.ID]
	fields := r.classFields(t)

	var b strings.Builder
	switch r.style {
	case ValidationModelBaseClass:
		r.imports.add("pydantic", "BaseModel")
		r.lines(&b, 0, "class %s(BaseModel):", name)
	case ValidationModelDecorated:
		r.imports.add("pydantic.dataclasses", "dataclass")
		r.lines(&b, 0, "@dataclass")
		r.lines(&b, 0, "class %s:", name)
	default:
		r.imports.add("dataclasses", "dataclass")
		r.lines(&b, 0, "@dataclass")
		r.lines(&b, 0, "class %s:", name)
	}

	for _, f := range fields {
		r.lines(&b, 1, "%s", r.fieldLine(f))
	}

	if r.style == DataClassWithSerialization {
		if len(fields) > 0 {
			b.WriteByte('\n')
		}
		r.fromDict(&b, name, fields)
		b.WriteByte('\n')
		r.toDict(&b, fields)
	} else if len(fields) == 0 {
		r.lines(&b, 1, "pass")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (r *renderer) fieldLine(f classField) string {
	annotation := r.typeExpr(f.Type, 1)
	if f.optional {
		annotation = r.optional(annotation)
	}
	line := f.ident + ": " + annotation
	renamed := f.ident != f.Name

	if r.style.isPydantic() {
		alias := "alias=" + pyString(f.Name)
		switch {
		case f.optional && renamed:
			r.imports.add("pydantic", "Field")
			return line + " = Field(default=None, " + alias + ")"
		case f.optional:
			r.imports.add("pydantic", "Field")
			return line + " = Field(default=None)"
		case renamed:
			// Annotated keeps a required field free of a default value.
			r.imports.add("typing", "Annotated")
			r.imports.add("pydantic", "Field")
			return f.ident + ": Annotated[" + annotation + ", Field(" + alias + ")]"
		}
		return line
	}

	if f.optional {
		line += " = None"
	}
	if renamed && r.style == PlainDataClass {
		line += "  # JSON key: " + pyString(f.Name)
	}
	return line
}
