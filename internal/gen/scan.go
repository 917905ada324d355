package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"path"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	ir "github.com/reoring/bindkit/internal/ir"
)

// Scan parses the Go package in dir and describes the named struct types.
// Wire names come from `json` tags, falling back to the Go field name.
// Fields tagged "-" and unexported or embedded fields are skipped; fields
// without ",omitempty" are required.
func Scan(dir string, names []string, unknown ir.UnknownPolicy) (File, error) {
	fset := token.NewFileSet()
	notTest := func(fi fs.FileInfo) bool { return !strings.HasSuffix(fi.Name(), "_test.go") }
	pkgs, err := parser.ParseDir(fset, dir, notTest, parser.SkipObjectResolution)
	if err != nil {
		return File{}, fmt.Errorf("gen: parsing %s: %w", dir, err)
	}
	if len(pkgs) != 1 {
		return File{}, fmt.Errorf("gen: expected one package in %s, found %d", dir, len(pkgs))
	}
	var out File
	for name, pkg := range pkgs {
		out.Package = name
		for _, want := range names {
			rec, imports, err := findRecord(pkg, want)
			if err != nil {
				return File{}, err
			}
			rec.UnknownPolicy = unknown
			out.Records = append(out.Records, rec)
			out.Imports = append(out.Imports, imports...)
		}
	}
	return out, nil
}

func findRecord(pkg *ast.Package, typeName string) (ir.Record, []Import, error) {
	for _, f := range pkg.Files {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Name == nil || ts.Name.Name != typeName {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					return ir.Record{}, nil, fmt.Errorf("gen: %s is not a struct type", typeName)
				}
				if ts.TypeParams != nil {
					return ir.Record{}, nil, fmt.Errorf("gen: %s is generic", typeName)
				}
				return structRecord(f, typeName, st)
			}
		}
	}
	return ir.Record{}, nil, fmt.Errorf("gen: type %s not found", typeName)
}

func structRecord(f *ast.File, typeName string, st *ast.StructType) (ir.Record, []Import, error) {
	rec := ir.Record{Name: typeName}
	var imports []Import
	seen := map[string]string{}
	for _, field := range st.Fields.List {
		wire, omitEmpty, skip := jsonTag(field.Tag)
		if skip {
			continue
		}
		typ := types.ExprString(field.Type)
		for _, id := range field.Names {
			if !id.IsExported() {
				continue
			}
			name := wire
			if name == "" || len(field.Names) > 1 {
				name = id.Name
			}
			if prev, dup := seen[name]; dup {
				return ir.Record{}, nil, fmt.Errorf("gen: %s: fields %s and %s share the name %q", typeName, prev, id.Name, name)
			}
			seen[name] = id.Name
			rec.Fields = append(rec.Fields, ir.Field{Name: name, GoName: id.Name, Type: typ, Required: !omitEmpty})
		}
		imports = append(imports, importsOf(f, field.Type)...)
	}
	return rec, imports, nil
}

// jsonTag reads the wire name and options of a struct field tag.
func jsonTag(lit *ast.BasicLit) (name string, omitEmpty, skip bool) {
	if lit == nil {
		return "", false, false
	}
	raw, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false, false
	}
	j := reflect.StructTag(raw).Get("json")
	if j == "" {
		return "", false, false
	}
	parts := strings.Split(j, ",")
	if parts[0] == "-" && len(parts) == 1 {
		return "", false, true
	}
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty, false
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// importName guesses the package name of an unnamed import from its path.
func importName(p string) string {
	base := path.Base(p)
	if majorVersion.MatchString(base) {
		base = path.Base(path.Dir(p))
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "-", "_")
}

// importsOf returns the imports of f the type expression refers to.
func importsOf(f *ast.File, expr ast.Expr) []Import {
	var out []Import
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		x, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		for _, spec := range f.Imports {
			p, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			if spec.Name != nil {
				if spec.Name.Name == x.Name {
					out = append(out, Import{Name: x.Name, Path: p})
				}
				continue
			}
			if importName(p) == x.Name {
				out = append(out, Import{Path: p})
			}
		}
		return false
	})
	return out
}
