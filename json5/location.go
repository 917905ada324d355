package json5

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"

	eng "github.com/reoring/bindkit/internal/engine"
)

// maxLineLen bounds how many bytes around an error are read to recover its
// source line.
const maxLineLen = 5 * 1024

// PathElem is one step of the logical path into the document.
type PathElem struct {
	Key     string
	Index   int
	IsIndex bool
}

func (e PathElem) String() string {
	if e.IsIndex {
		return strconv.Itoa(e.Index)
	}
	return e.Key
}

// Location pins a diagnostic to the input. The source line shown under the
// message is recovered lazily through the reader the parse was given, so
// building a Location costs nothing until it is rendered.
type Location struct {
	SourceName string
	Line       int
	Offset     int64
	Path       []PathElem

	src    io.ReaderAt
	logger *slog.Logger

	once    sync.Once
	context string
	caret   string
	ok      bool
}

func newLocation(name string, p Pos, path []PathElem, src io.ReaderAt, logger *slog.Logger) *Location {
	return &Location{SourceName: name, Line: p.Line, Offset: p.Offset, Path: path, src: src, logger: logger}
}

// Pointer renders Path as a JSON Pointer.
func (l *Location) Pointer() string {
	var b strings.Builder
	for _, e := range l.Path {
		b.WriteString("/" + eng.EscapePointerToken(e.String()))
	}
	return eng.NormalizePath(b.String())
}

// ContextLine returns the source line containing Offset and a marker line
// whose last rune sits under Offset. ok is false when no reader was supplied
// or the line could not be read back.
func (l *Location) ContextLine() (line, marker string, ok bool) {
	l.once.Do(l.load)
	return l.context, l.caret, l.ok
}

func (l *Location) load() {
	if l.src == nil {
		return
	}
	start := max(0, l.Offset-maxLineLen/2)
	at := int(l.Offset - start)
	buf := make([]byte, maxLineLen)
	n, err := l.src.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) || n < at {
		if l.logger != nil {
			l.logger.Warn("json5: cannot recover context line",
				"source", l.SourceName, "offset", l.Offset, "read", n, "err", err)
		}
		return
	}
	buf = buf[:n]
	from := lineStart(buf, at)
	to := lineEnd(buf, at)
	l.context = string(buf[from:to])
	l.caret = caret(buf[from:at]) + "^"
	l.ok = true
}

func lineStart(b []byte, at int) int {
	for i := at - 1; i >= 0; i-- {
		switch b[i] {
		case '\n', '\r':
			return i + 1
		case 0xA8, 0xA9:
			if i >= 2 && b[i-2] == 0xE2 && b[i-1] == 0x80 {
				return i + 1
			}
		}
	}
	return 0
}

func lineEnd(b []byte, at int) int {
	for i := at; i < len(b); i++ {
		if _, ok := isLineTerminator(b, i); ok {
			return i
		}
	}
	return len(b)
}

// caret blanks out prefix while keeping its visual width: whitespace is kept
// as is, wide runes become two spaces and non-spacing marks disappear.
func caret(prefix []byte) string {
	var b strings.Builder
	for len(prefix) > 0 {
		r, size := utf8.DecodeRune(prefix)
		prefix = prefix[size:]
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
		default:
			switch width.LookupRune(r).Kind() {
			case width.EastAsianWide, width.EastAsianFullwidth:
				b.WriteString("  ")
			default:
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

// Format renders msg at this location:
//
//	source:line: msg
//	<source line>
//	    ^
//	location: /a/0
func (l *Location) Format(msg string) string {
	var b strings.Builder
	b.WriteString(l.SourceName + ":" + strconv.Itoa(l.Line) + ": " + msg + "\n")
	if line, marker, ok := l.ContextLine(); ok {
		b.WriteString(line + "\n" + marker + "\n")
	}
	parts := make([]string, len(l.Path))
	for i, e := range l.Path {
		parts[i] = e.String()
	}
	b.WriteString("location: /" + strings.Join(parts, "/"))
	return b.String()
}

func (l *Location) String() string { return l.SourceName + ":" + strconv.Itoa(l.Line) }
