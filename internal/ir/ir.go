package ir

// Package ir holds the intermediate representation handed from the source
// scanner to the code renderer. This package is internal and not part of
// the public API.

// UnknownPolicy mirrors record.UnknownPolicy; kept as int to decouple layers.
type UnknownPolicy int

const (
	UnknownStrict UnknownPolicy = iota
	UnknownStrip
)

// Record is one struct type that gets an accessor table.
type Record struct {
	Name          string // Go type name
	Fields        []Field
	UnknownPolicy UnknownPolicy
}

// Field maps a wire name to a Go struct field.
type Field struct {
	Name     string // wire name (json tag or Go name)
	GoName   string
	Type     string // Go type expression as written in the source
	Required bool
}

// Required lists the wire names of the required fields.
func (r *Record) Required() []string {
	var out []string
	for _, f := range r.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
