// Package naming turns JSON keys and document positions into valid,
// collision-free Python identifiers.
package naming

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mcncl/pytyper/internal/graph"
)

// DefaultRootName names the top-level type when the caller gives none.
const DefaultRootName = "Root"

var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// importedNames are the names the generated modules import. A declared
// type with one of these names would shadow the import.
var importedNames = map[string]bool{
	"Annotated": true, "Any": true, "Dict": true, "List": true, "Optional": true, "Union": true,
	"TypedDict": true, "NotRequired": true, "BaseModel": true, "Field": true,
	"UUID": true,
}

// IsKeyword reports whether s is a reserved Python keyword.
func IsKeyword(s string) bool {
	return pythonKeywords[s]
}

// IsIdentifier reports whether s is a valid Python identifier that is not a
// keyword.
func IsIdentifier(s string) bool {
	if s == "" || IsKeyword(s) {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)) {
			continue
		}
		return false
	}
	return true
}

var accentFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold strips accents so "Café" becomes "Cafe".
func fold(s string) string {
	out, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return out
}

func asciiAlnum(s string, keep func(rune) bool) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || keep(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TypeName converts a JSON key or user supplied name into a PascalCase
// class name.
func TypeName(raw string) string {
	name := asciiAlnum(strcase.ToCamel(fold(raw)), func(rune) bool { return false })
	if name == "" {
		return "Type"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "Type" + name
	}
	if IsKeyword(name) || importedNames[name] {
		name += "_"
	}
	return name
}

var knownSingulars = map[string]string{
	"series":    "series",
	"status":    "status",
	"analysis":  "analysis",
	"species":   "species",
	"news":      "news",
	"goods":     "goods",
	"children":  "child",
	"people":    "person",
	"men":       "man",
	"women":     "woman",
	"teeth":     "tooth",
	"feet":      "foot",
	"mice":      "mouse",
	"geese":     "goose",
	"data":      "data",
	"media":     "media",
	"addresses": "address",
	"indices":   "index",
	"matrices":  "matrix",
	"aliases":   "alias",
	"statuses":  "status",
	"boxes":     "box",
	"buses":     "bus",
}

// Singularize returns the singular form of an English plural, keeping the
// casing of the first letter. Words it cannot reduce are returned as is.
func Singularize(plural string) string {
	lowerPlural := strings.ToLower(plural)
	if singular, ok := knownSingulars[lowerPlural]; ok {
		if plural != "" && unicode.IsUpper(rune(plural[0])) {
			return strings.ToUpper(singular[:1]) + singular[1:]
		}
		return singular
	}

	switch {
	case strings.HasSuffix(lowerPlural, "ies") && len(lowerPlural) > 3:
		return plural[:len(plural)-3] + "y"
	case strings.HasSuffix(lowerPlural, "sses"),
		strings.HasSuffix(lowerPlural, "ches"),
		strings.HasSuffix(lowerPlural, "shes"),
		strings.HasSuffix(lowerPlural, "xes"):
		return plural[:len(plural)-2]
	case strings.HasSuffix(lowerPlural, "ss"),
		strings.HasSuffix(lowerPlural, "us"),
		strings.HasSuffix(lowerPlural, "is"):
		return plural
	case strings.HasSuffix(lowerPlural, "s") && len(lowerPlural) > 1:
		return plural[:len(plural)-1]
	}
	return plural
}

// ElementName proposes a name for the elements of an array found under
// parent. Words without a distinct singular get an "Item" suffix so the
// element never takes the container's name.
func ElementName(parent string) string {
	singular := Singularize(parent)
	if singular == parent || singular == "" {
		return parent + "Item"
	}
	return TypeName(singular)
}

// UnionName proposes a name for a union declared under parent.
func UnionName(parent string) string {
	return parent + "Union"
}

// AssignNames gives every named type a unique identifier. Types are visited
// in discovery order; a proposed name that is taken gets a numeric suffix
// starting at 2. When the root is not itself a named type its alias claims
// the root name first.
func AssignNames(g *graph.TypeGraph) map[int]string {
	taken := make(map[string]bool, len(g.Types)+1)
	if _, ok := g.RootType(); !ok {
		taken[RootAlias(g)] = true
	}

	names := make(map[int]string, len(g.Types))
	for _, t := range g.Types {
		base := t.Hint
		if base == "" {
			base = "Type"
		}
		name := base
		for n := 2; taken[name]; n++ {
			name = base + strconv.Itoa(n)
		}
		taken[name] = true
		names[t.ID] = name
	}
	return names
}

// RootAlias returns the name used for the root declaration.
func RootAlias(g *graph.TypeGraph) string {
	if g.RootName == "" {
		return DefaultRootName
	}
	return g.RootName
}

// FieldRules describes extra constraints on attribute names for a style.
type FieldRules struct {
	// Reserved names are renamed even though they are valid identifiers.
	Reserved map[string]bool
	// NoLeadingUnderscore renames keys starting with "_", which some
	// libraries treat as private attributes.
	NoLeadingUnderscore bool
}

func (r FieldRules) allowed(name string) bool {
	if !IsIdentifier(name) || r.Reserved[name] {
		return false
	}
	return !(r.NoLeadingUnderscore && strings.HasPrefix(name, "_"))
}

// FieldIdentifiers maps JSON keys to unique Python attribute names. Keys
// that already are acceptable identifiers keep their spelling and are
// claimed first; the rest are converted to snake_case.
func FieldIdentifiers(keys []string, rules FieldRules) []string {
	out := make([]string, len(keys))
	taken := make(map[string]bool, len(keys))

	for i, key := range keys {
		if rules.allowed(key) && !taken[key] {
			out[i] = key
			taken[key] = true
		}
	}

	for i, key := range keys {
		if out[i] != "" {
			continue
		}
		base := snakeIdentifier(key, rules)
		name := base
		for n := 2; taken[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func snakeIdentifier(key string, rules FieldRules) string {
	s := asciiAlnum(strcase.ToSnake(fold(key)), func(r rune) bool { return r == '_' })
	if rules.NoLeadingUnderscore {
		s = strings.TrimLeft(s, "_")
	}
	if s == "" {
		return "field"
	}
	if unicode.IsDigit(rune(s[0])) {
		s = "field_" + s
	}
	if !rules.allowed(s) {
		s += "_"
	}
	return s
}
