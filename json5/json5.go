// Package json5 parses JSON5 documents into Visitor events and binds them to
// Go values through a bindkit.Registry.
//
// Numbers keep their exact value: integers become int64 or *big.Int scalars
// and fractions become float64 only when the literal round-trips exactly,
// otherwise an arbitrary-precision decimal. Errors carry the source name,
// line, logical path and, when the input can be read back, the offending
// source line with a caret under the failing column.
package json5

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/reoring/bindkit"
)

// DefaultBufferSize is the initial read buffer for streamed input. A token
// larger than the buffer doubles it.
const DefaultBufferSize = 8 * 1024

// Options configures a parse.
type Options struct {
	// SourceName prefixes every diagnostic. Defaults to the file path for
	// ParseFile and "input" otherwise.
	SourceName string
	// BufferSize is the initial read buffer for ParseReader.
	BufferSize int
	// MaxDepth bounds bracket nesting: 0 selects bindkit.DefaultMaxDepth and
	// a negative value disables the guard.
	MaxDepth int
	// Duplicates and OnIssue enable duplicate key checks while binding.
	Duplicates bindkit.Severity
	OnIssue    func(bindkit.Issue)
	// ContextReader gives random access to the input so errors can show the
	// offending line. Set automatically except for ParseReader.
	ContextReader io.ReaderAt
	// Logger receives warnings raised while rendering diagnostics.
	Logger *slog.Logger
}

func (o Options) sourceName() string {
	if o.SourceName == "" {
		return "input"
	}
	return o.SourceName
}

// ParseBytes parses data and reports its events to v.
func ParseBytes(data []byte, v Visitor, o Options) error {
	if o.ContextReader == nil {
		o.ContextReader = bytes.NewReader(data)
	}
	return newParser(v, o).run(nil, data, true)
}

// ParseString parses s and reports its events to v.
func ParseString(s string, v Visitor, o Options) error {
	if o.ContextReader == nil {
		o.ContextReader = strings.NewReader(s)
	}
	return newParser(v, o).run(nil, []byte(s), true)
}

// ParseReader parses everything r yields. Without o.ContextReader errors
// carry no source line.
func ParseReader(r io.Reader, v Visitor, o Options) error {
	size := o.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	return newParser(v, o).run(r, make([]byte, size), false)
}

// ParseFile streams the file at path. The context line of an error is read
// back from the file when the error is rendered.
func ParseFile(path string, v Visitor, o Options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if o.SourceName == "" {
		o.SourceName = path
	}
	if o.ContextReader == nil {
		o.ContextReader = fileReaderAt(path)
	}
	return ParseReader(f, v, o)
}

// fileReaderAt reopens the file on each read so a rendered error does not
// depend on the parse still holding it open.
type fileReaderAt string

func (p fileReaderAt) ReadAt(b []byte, off int64) (int, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(b, off)
}
