// Package pytyper infers Python type declarations from example JSON.
//
// Convert is the single entry point: it parses the text into one or more
// samples, infers a type graph, and renders it in the requested style.
// Calls share no state and are safe to make concurrently.
//
//	code, ok, err := pytyper.Convert(`{"id": 1}`, generator.PlainDataClass, pytyper.Options{})
package pytyper

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcncl/pytyper/internal/analyzer"
	"github.com/mcncl/pytyper/internal/formatter"
	"github.com/mcncl/pytyper/internal/generator"
	"github.com/mcncl/pytyper/internal/models"
	"github.com/mcncl/pytyper/internal/parser"
	"github.com/mcncl/pytyper/internal/query"
)

// Style re-exports the renderer's style selector.
type Style = generator.Style

// Options tunes a conversion. The zero value renders with defaults.
type Options struct {
	// RootName names the top-level type. Empty means "Root".
	RootName string
	// Dedupe is "structure" (default) or "path".
	Dedupe analyzer.DedupeMode
	// DetectSpecialStrings types date-time and UUID strings.
	DetectSpecialStrings bool
	// SpellOutUnions renders named unions inline instead of as aliases.
	SpellOutUnions bool
	// Indent is spaces per level; formatter.TabIndent selects tabs and zero
	// means four spaces.
	Indent int
	// Stream treats every top-level JSON value as a separate sample.
	Stream bool
	// Query is a jq expression whose results become the samples.
	Query string
	// FileHeader is emitted as a comment above the imports.
	FileHeader string
	// Logger receives debug diagnostics. Nil discards them.
	Logger *log.Logger
}

// Convert renders text as Python declarations in style. It returns ok=false
// with no error when the text holds nothing to convert.
func Convert(text string, style Style, opts Options) (string, bool, error) {
	if strings.TrimSpace(text) == "" {
		return "", false, nil
	}

	samples, err := Samples(text, opts)
	if err != nil {
		return "", false, err
	}
	return render(samples, style, opts)
}

// ConvertAll renders text in every style. The input is parsed once and the
// styles render concurrently.
func ConvertAll(ctx context.Context, text string, opts Options) (map[Style]string, error) {
	out := make(map[Style]string)
	if strings.TrimSpace(text) == "" {
		return out, nil
	}

	samples, err := Samples(text, opts)
	if err != nil {
		return nil, err
	}

	styles := generator.Styles()
	results := make([]string, len(styles))
	g, ctx := errgroup.WithContext(ctx)
	for i, style := range styles {
		i, style := i, style
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			code, _, err := render(samples, style, opts)
			results[i] = code
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, style := range styles {
		out[style] = results[i]
	}
	return out, nil
}

// Samples turns text into inference samples according to opts.
func Samples(text string, opts Options) ([]models.Value, error) {
	switch {
	case opts.Query != "":
		return query.Select([]byte(text), opts.Query)
	case opts.Stream:
		return parser.ParseStreamString(text)
	}
	v, err := parser.ParseString(text)
	if err != nil {
		return nil, err
	}
	return []models.Value{v}, nil
}

func render(samples []models.Value, style Style, opts Options) (string, bool, error) {
	a := analyzer.NewAnalyzerWithOptions(analyzer.Options{
		RootName:             opts.RootName,
		Dedupe:               opts.Dedupe,
		DetectSpecialStrings: opts.DetectSpecialStrings,
	}, opts.Logger)

	graph, err := a.Infer(samples)
	if err != nil {
		return "", false, err
	}

	gen := generator.NewGeneratorWithOptions(generator.Options{
		UnionAliases: !opts.SpellOutUnions,
		FileHeader:   opts.FileHeader,
	})
	code, err := gen.Render(graph, style)
	if err != nil {
		return "", false, err
	}

	formatted, err := formatter.NewFormatterWithIndent(opts.Indent).Format(code)
	if err != nil {
		return "", false, err
	}
	return formatted, true, nil
}
