package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/mcncl/pytyper/internal/analyzer"
	"github.com/mcncl/pytyper/internal/config"
	"github.com/mcncl/pytyper/internal/errors"
	"github.com/mcncl/pytyper/internal/generator"
	"github.com/mcncl/pytyper/internal/logging"
	"github.com/mcncl/pytyper/internal/parser"
	"github.com/mcncl/pytyper/internal/session"
	"github.com/mcncl/pytyper/pkg/pytyper"
)

// CLI defines the command-line interface
var CLI struct {
	Input         string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output        string `help:"Path to output Python file. If not specified, writes to stdout." short:"o" type:"path"`
	Style         string `help:"Output style: ${styles}." short:"s"`
	RootName      string `help:"Name for the root type." short:"r"`
	Config        string `help:"Path to a .pytyper.yml or .pytyper.toml file. Searched for upwards from the working directory when omitted." short:"c" type:"path"`
	Query         string `help:"jq expression selecting the samples to infer from." short:"q"`
	Stream        bool   `help:"Treat every top-level JSON value in the input as a separate sample."`
	Dedupe        string `help:"Share identical object types by structure, or only at the same path (structure|path)."`
	DetectStrings bool   `help:"Type ISO 8601 date-time strings as datetime and UUID strings as UUID."`
	Indent        string `help:"Spaces per indentation level, or \"tab\"."`
	InlineUnions  bool   `help:"Spell out unions that contain classes instead of declaring aliases."`
	All           bool   `help:"Render every style, one after another."`
	ListStyles    bool   `help:"List the available output styles."`
	Debug         bool   `help:"Enable debug logging." short:"d"`
	Version       bool   `help:"Show version information." short:"v"`
	Interactive   bool   `help:"Run in interactive mode: paste JSON documents separated by a line containing ---." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Config *config.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

// documentSeparator ends one document in interactive mode.
const documentSeparator = "---"

func main() {
	parser := kong.Must(&CLI,
		kong.Name("pytyper"),
		kong.Description("A tool to convert example JSON to Python type declarations"),
		kong.UsageOnError(),
		kong.Vars{"styles": strings.Join(generator.StyleNames(), ", ")},
	)

	if len(os.Args) == 1 && stdinIsTerminal() {
		CLI.Interactive = true
	}

	if _, err := parser.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("pytyper version %s\n", Version)
		return
	}
	if CLI.ListStyles {
		for _, name := range generator.StyleNames() {
			fmt.Println(name)
		}
		return
	}

	code := execute(context.Background(), os.Stdin, os.Stdout, os.Stderr)
	os.Exit(code)
}

// execute loads configuration, sets up logging and runs the conversion. It
// returns the process exit code.
func execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", errors.UserFriendlyError(err))
		return 1
	}

	logger, cleanup, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open log file: %v\n", err)
		return 1
	}
	defer func() { _ = cleanup() }()
	ctx = logging.WithLogger(ctx, logger)

	err = run(ctx, &Context{Config: cfg, Stdin: stdin, Stdout: stdout, Stderr: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(stderr, "\nFor help, run: pytyper --help\n")
		return 1
	}
	return 0
}

func loadConfig() (*config.Config, error) {
	path := CLI.Config
	if path == "" {
		path = config.FindConfigFile()
	}

	o := config.Overrides{
		RootName: CLI.RootName,
		Style:    CLI.Style,
		Dedupe:   CLI.Dedupe,
		Indent:   CLI.Indent,
		Query:    CLI.Query,
		Debug:    CLI.Debug,
	}
	if CLI.Stream {
		o.Stream = &CLI.Stream
	}
	if CLI.DetectStrings {
		o.DetectSpecialStrings = &CLI.DetectStrings
	}

	cfg, err := config.LoadConfigWithCLI(path, o)
	if err != nil {
		return nil, err
	}
	if CLI.InlineUnions {
		cfg.UnionAliases = false
	}
	return cfg, nil
}

// options maps configuration onto conversion options.
func options(ctx context.Context, cfg *config.Config) (pytyper.Options, error) {
	indent, err := cfg.IndentWidth()
	if err != nil {
		return pytyper.Options{}, err
	}
	dedupe, err := analyzer.ParseDedupeMode(cfg.Dedupe)
	if err != nil {
		return pytyper.Options{}, errors.NewConfigError(err.Error(), errors.ErrInvalidConfig)
	}
	return pytyper.Options{
		RootName:             cfg.RootName,
		Dedupe:               dedupe,
		DetectSpecialStrings: cfg.DetectSpecialStrings,
		SpellOutUnions:       !cfg.UnionAliases,
		Indent:               indent,
		Stream:               cfg.Stream(),
		Query:                cfg.Input.Query,
		FileHeader:           cfg.Output.FileHeader,
		Logger:               logging.FromContext(ctx),
	}, nil
}

// run executes the main program logic
func run(ctx context.Context, env *Context) error {
	logger := logging.FromContext(ctx)

	opts, err := options(ctx, env.Config)
	if err != nil {
		return err
	}

	style, err := generator.ParseStyle(env.Config.Style)
	if err != nil {
		return err
	}

	if CLI.Interactive && CLI.Input == "" {
		return runInteractive(ctx, env, style, opts)
	}

	text, err := readInput(env)
	if err != nil {
		return err
	}
	logger.Debug("read input", "bytes", len(text), "style", style)

	if CLI.All {
		return renderAll(ctx, env, text, opts)
	}

	code, ok, err := pytyper.Convert(text, style, opts)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewInputError("nothing to convert", errors.ErrEmptyInput)
	}
	return writeOutput(env, code)
}

func renderAll(ctx context.Context, env *Context, text string, opts pytyper.Options) error {
	all, err := pytyper.ConvertAll(ctx, text, opts)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return errors.NewInputError("nothing to convert", errors.ErrEmptyInput)
	}

	var b strings.Builder
	for i, style := range generator.Styles() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "# ===== %s =====\n\n", style)
		b.WriteString(all[style])
	}
	return writeOutput(env, b.String())
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// readInput reads JSON text from the input file or stdin
func readInput(env *Context) (string, error) {
	if CLI.Input != "" {
		return parser.ReadFile(CLI.Input)
	}

	if f, ok := env.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return "", errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			return "", errors.NewInputError("no input provided", errors.ErrNoInput)
		}
	}

	data, err := io.ReadAll(env.Stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(data), nil
}

// writeOutput writes code to the output file or stdout
func writeOutput(env *Context, code string) error {
	if CLI.Output != "" {
		if err := os.WriteFile(CLI.Output, []byte(code), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(env.Stderr, "Generated Python code written to %s\n", CLI.Output)
		return nil
	}

	if _, err := io.WriteString(env.Stdout, code); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// runInteractive converts each pasted document as soon as its separator
// line arrives. A document with bad input reports the error and shows the
// previous output again; any other failure ends the session.
func runInteractive(ctx context.Context, env *Context, style generator.Style, opts pytyper.Options) error {
	sess, err := session.New(func(text string, style generator.Style) (string, bool, error) {
		return pytyper.Convert(text, style, opts)
	}, session.DefaultCacheSize, logging.FromContext(ctx))
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stderr, "pytyper Interactive Mode")
	fmt.Fprintf(env.Stderr, "Paste JSON and end each document with a line containing %s. Press Ctrl+D (or Ctrl+Z on Windows) to finish.\n", documentSeparator)

	flush := func(doc string) error {
		if strings.TrimSpace(doc) == "" {
			return nil
		}
		out, err := sess.Update(doc, style)
		if err != nil {
			if !errors.IsRecoverable(err) {
				return err
			}
			fmt.Fprintf(env.Stderr, "%s\n", errors.UserFriendlyError(err))
			if out != "" {
				fmt.Fprintln(env.Stderr, "Previous output:")
			}
		}
		if out != "" {
			_, _ = io.WriteString(env.Stdout, out)
			fmt.Fprintln(env.Stdout, documentSeparator)
		}
		return nil
	}

	scanner := bufio.NewScanner(env.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var doc strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == documentSeparator {
			if err := flush(doc.String()); err != nil {
				return err
			}
			doc.Reset()
			continue
		}
		doc.WriteString(line)
		doc.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return errors.NewInputError("error reading input", err)
	}
	if err := flush(doc.String()); err != nil {
		return err
	}
	logging.FromContext(ctx).Debug("interactive session finished", "session", sess.ID(), "cached", sess.Cached())

	if out := sess.Last(); out != "" && CLI.Output != "" {
		return writeOutput(env, out)
	}
	return nil
}
