package json5

import "github.com/reoring/bindkit"

// Pos is a position in the input: 1-based line and 0-based byte offset.
type Pos struct {
	Line   int
	Offset int64
}

// Visitor receives the parse events of one JSON5 document in order. Returning
// an error stops the parse; the error is reported with the position of the
// token that triggered the call.
//
// Inside an array, Index precedes every element. After each complete member
// EndObjectPair (objects) or EndArrayValue (arrays) is called with the
// position where that member's value started.
type Visitor interface {
	Null(p Pos) error
	Bool(v bool, p Pos) error
	String(s string, p Pos) error
	Number(n bindkit.Scalar, p Pos) error

	Key(key string, p Pos) error
	Index(i int, p Pos) error

	StartObject(p Pos) error
	EndObjectPair(key string, p Pos) error
	EndObject(p Pos) error
	StartArray(p Pos) error
	EndArrayValue(i int, p Pos) error
	EndArray(p Pos) error

	// Lexical events that carry no data.
	Comment(text string, p Pos) error
	Space(text string, p Pos) error
	Colon(p Pos) error
	Comma(p Pos) error

	EndOfStream(p Pos) error
}

// NopVisitor implements every Visitor method as a no-op. Embed it to handle a
// subset of events.
type NopVisitor struct{}

func (NopVisitor) Null(Pos) error                   { return nil }
func (NopVisitor) Bool(bool, Pos) error             { return nil }
func (NopVisitor) String(string, Pos) error         { return nil }
func (NopVisitor) Number(bindkit.Scalar, Pos) error { return nil }
func (NopVisitor) Key(string, Pos) error            { return nil }
func (NopVisitor) Index(int, Pos) error             { return nil }
func (NopVisitor) StartObject(Pos) error            { return nil }
func (NopVisitor) EndObjectPair(string, Pos) error  { return nil }
func (NopVisitor) EndObject(Pos) error              { return nil }
func (NopVisitor) StartArray(Pos) error             { return nil }
func (NopVisitor) EndArrayValue(int, Pos) error     { return nil }
func (NopVisitor) EndArray(Pos) error               { return nil }
func (NopVisitor) Comment(string, Pos) error        { return nil }
func (NopVisitor) Space(string, Pos) error          { return nil }
func (NopVisitor) Colon(Pos) error                  { return nil }
func (NopVisitor) Comma(Pos) error                  { return nil }
func (NopVisitor) EndOfStream(Pos) error            { return nil }
