package analyzer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/mcncl/pytyper/internal/errors"
	"github.com/mcncl/pytyper/internal/graph"
	"github.com/mcncl/pytyper/internal/models"
	"github.com/mcncl/pytyper/internal/naming"
	"github.com/mcncl/pytyper/internal/shape"
)

// DedupeMode selects the key used to collapse object shapes into one
// named type.
type DedupeMode string

const (
	// DedupeStructure collapses identical shapes wherever they appear.
	DedupeStructure DedupeMode = "structure"
	// DedupePath only collapses identical shapes that also propose the
	// same name, so "home" and "work" stay separate types.
	DedupePath DedupeMode = "path"
)

// ParseDedupeMode validates a dedupe mode name. An empty name selects
// DedupeStructure.
func ParseDedupeMode(s string) (DedupeMode, error) {
	switch DedupeMode(s) {
	case "", DedupeStructure:
		return DedupeStructure, nil
	case DedupePath:
		return DedupePath, nil
	}
	return "", fmt.Errorf("unknown dedupe mode %q (want %q or %q)", s, DedupeStructure, DedupePath)
}

// Options configures an Analyzer.
type Options struct {
	RootName             string
	Dedupe               DedupeMode
	DetectSpecialStrings bool
}

// Analyzer infers a named type graph from sample values.
type Analyzer struct {
	opts   Options
	logger *log.Logger
}

// NewAnalyzer creates an Analyzer with default options.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithOptions(Options{}, nil)
}

// NewAnalyzerWithOptions creates an Analyzer. A nil logger discards output.
func NewAnalyzerWithOptions(opts Options, logger *log.Logger) *Analyzer {
	if opts.RootName == "" {
		opts.RootName = naming.DefaultRootName
	}
	if opts.Dedupe == "" {
		opts.Dedupe = DedupeStructure
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Analyzer{opts: opts, logger: logger}
}

// Infer folds every sample into one shape and promotes its objects, and
// its unions that contain objects, to named types.
func (a *Analyzer) Infer(samples []models.Value) (*graph.TypeGraph, error) {
	if len(samples) == 0 {
		return nil, errors.NewAnalysisError("no samples to infer from", errors.ErrEmptyInput)
	}

	sopts := shape.Options{DetectSpecialStrings: a.opts.DetectSpecialStrings}
	nodes := make([]*shape.Node, len(samples))
	for i, s := range samples {
		nodes[i] = shape.FromValue(s, sopts)
	}
	root := shape.Fold(nodes)

	rootName := naming.TypeName(a.opts.RootName)
	b := &builder{
		mode:  a.opts.Dedupe,
		index: make(map[string]int),
		graph: &graph.TypeGraph{RootName: rootName},
	}
	b.graph.Root = b.register(root, rootName, "$")

	a.logger.Debug("inferred type graph",
		"samples", len(samples),
		"named_types", len(b.graph.Types),
		"root", shape.Signature(b.graph.Root),
	)
	return b.graph, nil
}

// builder walks the folded root in pre-order and assigns discovery ids.
type builder struct {
	mode  DedupeMode
	index map[string]int
	graph *graph.TypeGraph
}

func (b *builder) key(n *shape.Node, hint string) string {
	sig := shape.Signature(n)
	if b.mode == DedupePath {
		return sig + "\x00" + hint
	}
	return sig
}

// register returns n with every object replaced by a reference to its
// named type. A type's id is taken before its children are visited.
func (b *builder) register(n *shape.Node, hint, path string) *shape.Node {
	switch n.Kind {
	case shape.Object:
		return b.promote(n, graph.ObjectType, hint, hint, path)
	case shape.Union:
		// An optional object stays inline as Optional[X].
		if n.ContainsObject() && len(n.Members) > 1 {
			return b.promote(n, graph.UnionType, naming.UnionName(hint), hint, path)
		}
		return b.members(n, hint, path)
	case shape.Array:
		return shape.ArrayOf(b.register(n.Elem, naming.ElementName(hint), path+"[]"))
	}
	return n
}

func (b *builder) promote(n *shape.Node, kind graph.TypeKind, name, hint, path string) *shape.Node {
	key := b.key(n, name)
	if id, ok := b.index[key]; ok {
		return shape.RefTo(id)
	}

	t := &graph.NamedType{ID: len(b.graph.Types), Kind: kind, Hint: name, Path: path}
	b.index[key] = t.ID
	b.graph.Types = append(b.graph.Types, t)

	if kind == graph.ObjectType {
		t.Node = b.fields(n, path)
	} else {
		t.Node = b.members(n, hint, path)
	}
	return shape.RefTo(t.ID)
}

func (b *builder) fields(n *shape.Node, path string) *shape.Node {
	fields := make([]shape.Field, len(n.Fields))
	for i, f := range n.Fields {
		slot := f.Slot
		slot.Type = b.register(f.Type, naming.TypeName(f.Name), path+"."+f.Name)
		fields[i] = shape.Field{Name: f.Name, Slot: slot}
	}
	return shape.ObjectOf(fields...)
}

func (b *builder) members(n *shape.Node, hint, path string) *shape.Node {
	members := make([]*shape.Node, len(n.Members))
	for i, m := range n.Members {
		members[i] = b.register(m, hint, path)
	}
	return &shape.Node{Kind: shape.Union, Members: members, Nullable: n.Nullable}
}
