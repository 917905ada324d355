// Package gen renders record accessor tables as Go source.
package gen

import (
	"bytes"
	"cmp"
	"fmt"
	"go/format"
	"slices"
	"strconv"
	"text/template"

	ir "github.com/reoring/bindkit/internal/ir"
)

// File is one generated source file.
type File struct {
	Package string
	// Imports are the packages the field types refer to.
	Imports []Import
	Records []ir.Record
}

// Import is one import spec. Name is set only for renamed imports.
type Import struct {
	Name string
	Path string
}

var fileTmpl = template.Must(template.New("file").Funcs(template.FuncMap{
	"quote": strconv.Quote,
	"strip": func(p ir.UnknownPolicy) bool { return p == ir.UnknownStrip },
}).Parse(`// Code generated by bindkit gen. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}{{quote .Path}}
{{- end}}
{{- if .Imports}}
{{end}}
	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/record"
)
{{range .Records}}{{$t := .Name}}
// {{$t}}Record returns the accessor table of {{$t}}.
func {{$t}}Record() *record.Record[{{$t}}] {
	r := record.Of[{{$t}}]()
{{- range .Fields}}
	r.Field({{quote .Name}}, record.Ref(func(v *{{$t}}) *{{.Type}} { return &v.{{.GoName}} })){{if .Required}}.Required(){{end}}
{{- end}}
{{- if strip .UnknownPolicy}}
	r.UnknownStrip()
{{- end}}
	return r
}
{{end}}
// RegisterRecords installs every generated accessor table on b.
func RegisterRecords(b *bindkit.Builder) {
{{- range .Records}}
	{{.Name}}Record().Register(b)
{{- end}}
}
`))

// RenderFile renders f and formats the result with go/format.
func RenderFile(f File) ([]byte, error) {
	if f.Package == "" {
		return nil, fmt.Errorf("gen: package name is required")
	}
	f.Imports = slices.Clone(f.Imports)
	slices.SortFunc(f.Imports, func(a, b Import) int { return cmp.Compare(a.Path, b.Path) })
	f.Imports = slices.Compact(f.Imports)
	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, f); err != nil {
		return nil, fmt.Errorf("gen: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: formatting generated code: %w\n%s", err, buf.Bytes())
	}
	return out, nil
}
