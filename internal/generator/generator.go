package generator

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcncl/pytyper/internal/errors"
	"github.com/mcncl/pytyper/internal/graph"
	"github.com/mcncl/pytyper/internal/naming"
	"github.com/mcncl/pytyper/internal/shape"
)

// Options tunes rendering independently of the style.
type Options struct {
	// UnionAliases declares named unions as module-level aliases
	// (ValueUnion = Union[int, Value]). When false they are spelled out at
	// every use.
	UnionAliases bool
	// FileHeader is emitted as a comment block above the imports.
	FileHeader string
}

// DefaultOptions returns the options used by NewGenerator.
func DefaultOptions() Options {
	return Options{UnionAliases: true}
}

// Generator renders a type graph as Python source.
type Generator struct {
	opts Options
}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{opts: DefaultOptions()}
}

// NewGeneratorWithOptions creates a Generator with custom options.
func NewGeneratorWithOptions(opts Options) *Generator {
	return &Generator{opts: opts}
}

// Render emits every declared type after the types it references, then the
// root alias when the root is not itself a named type. Lines are indented
// with one tab per level; the formatter converts them to the configured
// indentation. Render never mutates the graph.
func (g *Generator) Render(tg *graph.TypeGraph, style Style) (string, error) {
	if !style.Valid() {
		return "", errors.NewStyleError(strconv.Itoa(int(style)))
	}
	if tg == nil || tg.Root == nil {
		return "", errors.NewGenerateError("type graph has no root", nil)
	}

	r := newRenderer(tg, style, g.opts)
	body := r.render()

	var buf bytes.Buffer
	if header := strings.TrimSpace(g.opts.FileHeader); header != "" {
		for _, line := range strings.Split(header, "\n") {
			buf.WriteString(strings.TrimRight("# "+line, " ") + "\n")
		}
		buf.WriteString("\n")
	}
	if len(r.imports) > 0 {
		r.imports.write(&buf)
		buf.WriteString("\n\n")
	}
	buf.WriteString(body)
	return buf.String(), nil
}

type renderer struct {
	graph   *graph.TypeGraph
	style   Style
	opts    Options
	names   map[int]string
	uses    map[int]int
	imports importSet
	blocks  []string
}

func newRenderer(tg *graph.TypeGraph, style Style, opts Options) *renderer {
	return &renderer{
		graph:   tg,
		style:   style,
		opts:    opts,
		names:   naming.AssignNames(tg),
		uses:    graph.UseCounts(tg),
		imports: make(importSet),
	}
}

func (r *renderer) render() string {
	for _, t := range graph.Order(r.graph) {
		if !r.declared(t.ID) {
			continue
		}
		switch t.Kind {
		case graph.UnionType:
			r.emit(r.names[t.ID] + " = " + r.typeExpr(t.Node, 0))
		case graph.ObjectType:
			r.emit(r.declareObject(t))
		}
	}

	if _, ok := r.graph.RootType(); !ok {
		r.emit(naming.RootAlias(r.graph) + " = " + r.typeExpr(r.graph.Root, 0))
	}

	return strings.Join(r.blocks, "\n\n\n") + "\n"
}

func (r *renderer) emit(block string) {
	r.blocks = append(r.blocks, block)
}

func (r *renderer) isRoot(id int) bool {
	return r.graph.Root.Kind == shape.Ref && r.graph.Root.Ref == id
}

// declared reports whether the named type gets its own declaration or is
// spelled out where it is used.
func (r *renderer) declared(id int) bool {
	t := r.graph.Lookup(id)
	if r.isRoot(id) {
		return true
	}
	switch r.style {
	case StructuralDictInline:
		return false
	case StructuralDictNested:
		return r.uses[id] >= 2
	}
	if t.Kind == graph.UnionType {
		return r.opts.UnionAliases
	}
	return true
}

func (r *renderer) declareObject(t *graph.NamedType) string {
	switch {
	case r.style.isClass():
		return r.classDecl(t)
	case r.style == StructuralDictInline:
		return r.names[t.ID] + " = " + r.dictLiteral(r.names[t.ID], t.Node.Fields, 0)
	}
	return r.dictDecl(t)
}

func indent(depth int) string {
	return strings.Repeat("\t", depth)
}

// pyString quotes s as a Python string literal.
func pyString(s string) string {
	return strconv.Quote(s)
}

func (r *renderer) lines(b *strings.Builder, depth int, format string, args ...any) {
	b.WriteString(indent(depth))
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}
