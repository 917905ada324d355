// Command bindkit checks and converts JSON5, JSON and YAML documents, and
// generates record accessor tables for Go structs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/codec"
	"github.com/reoring/bindkit/collection"
	gen "github.com/reoring/bindkit/internal/gen"
	ir "github.com/reoring/bindkit/internal/ir"
	"github.com/reoring/bindkit/json5"
	"github.com/reoring/bindkit/sink/jsonw"
	"github.com/reoring/bindkit/source/jsonsrc"
	"github.com/reoring/bindkit/source/yamlsrc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// errUsage makes run exit with status 2.
var errUsage = errors.New("usage")

type cli struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	logger         *slog.Logger
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) < 1 {
		c.usage()
		return 2
	}
	var err error
	switch args[0] {
	case "check":
		err = c.check(args[1:])
	case "convert":
		err = c.convert(args[1:])
	case "gen":
		err = c.gen(args[1:])
	default:
		c.usage()
		return 2
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	}
	fmt.Fprintln(stderr, err)
	return 1
}

func (c *cli) usage() {
	fmt.Fprintln(c.stderr, `bindkit CLI

Usage:
  bindkit check [-v] [-dup ignore|warn|error] FILE...
  bindkit convert [-v] -from json5|json|yaml -to json|yaml [-indent N] [-o OUT] FILE
  bindkit gen [-v] -type T1[,T2,...] -o out.go [-dir DIR] [-unknown strict|strip]

FILE may be "-" for standard input.`)
}

func (c *cli) flags(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs, fs.Bool("v", false, "enable debug logs")
}

func (c *cli) parse(fs *flag.FlagSet, verbose *bool, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func (c *cli) registry(o bindkit.Options) (*bindkit.Registry, error) {
	b := bindkit.NewBuilder().WithLogger(c.logger).WithOptions(o).AddDelegate(collection.New())
	codec.Register(b)
	yamlsrc.Register(b)
	return b.Build()
}

func severity(s string) (bindkit.Severity, error) {
	switch s {
	case "ignore":
		return bindkit.Ignore, nil
	case "warn":
		return bindkit.Warn, nil
	case "error":
		return bindkit.Error, nil
	}
	return bindkit.Ignore, fmt.Errorf("unknown duplicate policy %q", s)
}

// open returns the named input; "-" is standard input.
func (c *cli) open(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(c.stdin), nil
	}
	return os.Open(name)
}

func (c *cli) check(args []string) error {
	fs, verbose := c.flags("check")
	dup := fs.String("dup", "ignore", "duplicate key policy: ignore|warn|error")
	if err := c.parse(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	sev, err := severity(*dup)
	if err != nil {
		return err
	}
	reg, err := c.registry(bindkit.Options{})
	if err != nil {
		return err
	}
	failed := 0
	for _, name := range fs.Args() {
		o := json5.Options{
			Duplicates: sev,
			Logger:     c.logger,
			OnIssue: func(it bindkit.Issue) {
				c.logger.Warn("duplicate key", slog.String("file", name), slog.String("path", it.Path), slog.Int("line", it.Line))
			},
		}
		if name == "-" {
			o.SourceName = "stdin"
			_, err = json5.BindReader[any](reg, c.stdin, o)
		} else {
			_, err = json5.BindFile[any](reg, name, o)
		}
		if err != nil {
			fmt.Fprintln(c.stderr, err)
			failed++
			continue
		}
		c.logger.Debug("ok", slog.String("file", name))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, fs.NArg())
	}
	return nil
}

func (c *cli) convert(args []string) (err error) {
	fs, verbose := c.flags("convert")
	from := fs.String("from", "json5", "input format: json5|json|yaml")
	to := fs.String("to", "json", "output format: json|yaml")
	indent := fs.Int("indent", 0, "indent width (0 writes compact JSON)")
	out := fs.String("o", "", "output file (default standard output)")
	if err := c.parse(fs, verbose, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	name := fs.Arg(0)
	reg, err := c.registry(bindkit.Options{})
	if err != nil {
		return err
	}

	var produce func(bindkit.Sink) error
	switch *from {
	case "json5":
		produce = func(s bindkit.Sink) error {
			o := json5.Options{Logger: c.logger}
			if name == "-" {
				o.SourceName = "stdin"
				return json5.ParseReader(c.stdin, json5.NewSinkVisitor(s), o)
			}
			return json5.ParseFile(name, json5.NewSinkVisitor(s), o)
		}
	case "json", "yaml":
		r, err := c.open(name)
		if err != nil {
			return err
		}
		defer r.Close()
		if *from == "json" {
			produce = func(s bindkit.Sink) error { return jsonsrc.Produce(r, s, jsonsrc.Options{Logger: c.logger}) }
		} else {
			produce = func(s bindkit.Sink) error { return yamlsrc.Produce(r, s, yamlsrc.Options{Strict: true}) }
		}
	default:
		return fmt.Errorf("unknown input format %q", *from)
	}

	var w io.Writer = c.stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	c.logger.Debug("convert", slog.String("from", *from), slog.String("to", *to), slog.String("file", name))

	switch *to {
	case "json":
		jw := jsonw.NewWriter(w, reg, jsonw.Options{Indent: strings.Repeat(" ", *indent)})
		if err := produce(jw.Sink()); err != nil {
			return err
		}
		if err := jw.Newline(); err != nil {
			return err
		}
		return jw.Flush()
	case "yaml":
		var doc *yaml.Node
		s, err := reg.RootSink(bindkit.TypeOf[*yaml.Node](), func(v any) error {
			doc, _ = v.(*yaml.Node)
			return nil
		})
		if err != nil {
			return err
		}
		if err := produce(s); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		if *indent > 0 {
			enc.SetIndent(*indent)
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", *to)
}

func (c *cli) gen(args []string) error {
	fs, verbose := c.flags("gen")
	typesCSV := fs.String("type", "", "comma-separated struct type names")
	out := fs.String("o", "", "output filename")
	dir := fs.String("dir", ".", "package directory to scan")
	unknown := fs.String("unknown", "strict", "unknown key policy: strict|strip")
	if err := c.parse(fs, verbose, args); err != nil {
		return err
	}
	if *typesCSV == "" || *out == "" {
		fs.Usage()
		return errUsage
	}
	policy := ir.UnknownStrict
	switch *unknown {
	case "strict":
	case "strip":
		policy = ir.UnknownStrip
	default:
		return fmt.Errorf("unknown key policy %q", *unknown)
	}
	f, err := gen.Scan(*dir, splitCSV(*typesCSV), policy)
	if err != nil {
		return err
	}
	for _, r := range f.Records {
		c.logger.Debug("record", slog.String("type", r.Name), slog.Int("fields", len(r.Fields)), slog.Any("required", r.Required()))
	}
	code, err := gen.RenderFile(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(*out, code, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	c.logger.Debug("wrote generated file", slog.String("path", *out))
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
