package json5

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/reoring/bindkit"
)

type state int

const (
	stInitial     state = iota
	stStringValue       // key read, ':' expected
	stValue             // a complete value was read
	stObject            // after '{'
	stObjectKey         // after ':'
	stArray             // after '['
	stAppend            // after ','
	stEOF
)

// frame is one open object or array.
type frame struct {
	obj     bool
	key     string
	index   int
	begin   Pos
	valueAt Pos // where the current member's value started
}

type parser struct {
	lx     lexer
	v      Visitor
	name   string
	src    io.ReaderAt
	logger *slog.Logger
	limit  int
	st     state
	frames []frame
}

const maxEmptyReads = 100

func newParser(v Visitor, o Options) *parser {
	p := &parser{v: v, name: o.sourceName(), src: o.ContextReader, logger: o.Logger, limit: o.MaxDepth}
	if p.limit == 0 {
		p.limit = bindkit.DefaultMaxDepth
	}
	p.lx.reset()
	return p
}

// run tokenizes buf and then, while r is non-nil, whatever r yields. A token
// that does not fit in the buffer is rescanned once the buffer has been
// compacted or doubled and refilled.
func (p *parser) run(r io.Reader, buf []byte, eof bool) error {
	start, end := 0, len(buf)
	if r != nil {
		end = 0
	}
	empty := 0
	for p.st != stEOF {
		tok, n, err := p.lx.scan(buf[start:end], eof)
		if errors.Is(err, errMore) {
			if start > 0 {
				end = copy(buf, buf[start:end])
				start = 0
			}
			if end == len(buf) {
				grown := make([]byte, 2*len(buf))
				copy(grown, buf[:end])
				buf = grown
			}
			m, rerr := r.Read(buf[end:])
			end += m
			switch {
			case errors.Is(rerr, io.EOF):
				eof = true
			case rerr != nil:
				return fmt.Errorf("%s:%d: read: %w", p.name, p.lx.line, rerr)
			case m == 0:
				if empty++; empty >= maxEmptyReads {
					return fmt.Errorf("%s:%d: read: %w", p.name, p.lx.line, io.ErrNoProgress)
				}
				continue
			}
			empty = 0
			continue
		}
		if err != nil {
			var le *lexError
			if errors.As(err, &le) {
				return p.fail(Pos{le.line, le.off}, "%s", le.msg)
			}
			return err
		}
		p.lx.advance(buf[start : start+n])
		start += n
		if err := p.token(tok); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) fail(pos Pos, format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Loc: newLocation(p.name, pos, p.path(), p.src, p.logger)}
}

// visit wraps a Visitor failure with the position that triggered it.
func (p *parser) visit(pos Pos, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s:%d: %w", p.name, pos.Line, err)
}

func (p *parser) path() []PathElem {
	out := make([]PathElem, len(p.frames))
	for i, f := range p.frames {
		if f.obj {
			out[i] = PathElem{Key: f.key}
		} else {
			out[i] = PathElem{Index: f.index, IsIndex: true}
		}
	}
	return out
}

func (p *parser) top() *frame {
	if len(p.frames) == 0 {
		return nil
	}
	return &p.frames[len(p.frames)-1]
}

// keyPosition reports whether the next token must be an object key.
func (p *parser) keyPosition() bool {
	f := p.top()
	return f != nil && f.obj && (p.st == stObject || p.st == stAppend)
}

func closer(obj bool) (o, c byte) {
	if obj {
		return '{', '}'
	}
	return '[', ']'
}

func (p *parser) token(tok token) error {
	pos := Pos{tok.line, tok.off}
	switch tok.kind {
	case tokSpace:
		return p.visit(pos, p.v.Space(tok.str, pos))
	case tokComment:
		return p.visit(pos, p.v.Comment(tok.str, pos))
	case tokColon:
		if p.st != stStringValue {
			return p.fail(pos, "Unexpected ':'")
		}
		p.st = stObjectKey
		return p.visit(pos, p.v.Colon(pos))
	case tokComma:
		switch {
		case p.st == stStringValue:
			return p.fail(pos, "Expected ':'")
		case p.st != stValue || len(p.frames) == 0:
			return p.fail(pos, "Unexpected ','")
		}
		if f := p.top(); f.obj {
			f.key = ""
		} else {
			f.index++
		}
		p.st = stAppend
		return p.visit(pos, p.v.Comma(pos))
	case tokLBrace, tokLBracket:
		return p.open(tok.kind == tokLBrace, pos)
	case tokRBrace, tokRBracket:
		return p.close(tok.kind == tokRBrace, pos)
	case tokString:
		if p.keyPosition() {
			return p.key(tok.str, pos)
		}
		if err := p.beginValue(pos); err != nil {
			return err
		}
		if err := p.visit(pos, p.v.String(tok.str, pos)); err != nil {
			return err
		}
		return p.endValue()
	case tokNumber:
		if err := p.beginValue(pos); err != nil {
			return err
		}
		if err := p.visit(pos, p.v.Number(tok.num, pos)); err != nil {
			return err
		}
		return p.endValue()
	case tokIdent:
		if p.keyPosition() {
			return p.key(tok.str, pos)
		}
		return p.literal(tok.str, pos)
	case tokEOF:
		return p.eof(pos)
	}
	return fmt.Errorf("%w: token kind %d", bindkit.ErrInternal, tok.kind)
}

func (p *parser) key(k string, pos Pos) error {
	p.top().key = k
	p.st = stStringValue
	return p.visit(pos, p.v.Key(k, pos))
}

func (p *parser) literal(word string, pos Pos) error {
	var emit func() error
	switch word {
	case "true", "false":
		emit = func() error { return p.v.Bool(word == "true", pos) }
	case "null":
		emit = func() error { return p.v.Null(pos) }
	default:
		n, ok := identNumber(word)
		if !ok {
			if err := p.checkValue(pos); err != nil {
				return err
			}
			return p.fail(pos, "Unexpected character 0x%02X", word[0])
		}
		emit = func() error { return p.v.Number(n, pos) }
	}
	if err := p.beginValue(pos); err != nil {
		return err
	}
	if err := p.visit(pos, emit()); err != nil {
		return err
	}
	return p.endValue()
}

// checkValue reports why a value may not start here, if it may not.
func (p *parser) checkValue(pos Pos) error {
	switch p.st {
	case stStringValue:
		return p.fail(pos, "Expected ':'")
	case stValue:
		if len(p.frames) == 0 {
			return p.fail(pos, "Expected end of stream")
		}
		return p.fail(pos, "Expected ','")
	}
	if p.keyPosition() {
		return p.fail(pos, "Object keys must be a string")
	}
	return nil
}

// beginValue checks that a value may start here and announces its index
// when the enclosing container is an array.
func (p *parser) beginValue(pos Pos) error {
	if err := p.checkValue(pos); err != nil {
		return err
	}
	f := p.top()
	if f == nil {
		return nil
	}
	f.valueAt = pos
	if !f.obj {
		return p.visit(pos, p.v.Index(f.index, pos))
	}
	return nil
}

func (p *parser) endValue() error {
	p.st = stValue
	f := p.top()
	switch {
	case f == nil:
		return nil
	case f.obj:
		return p.visit(f.valueAt, p.v.EndObjectPair(f.key, f.valueAt))
	default:
		return p.visit(f.valueAt, p.v.EndArrayValue(f.index, f.valueAt))
	}
}

func (p *parser) open(obj bool, pos Pos) error {
	if err := p.beginValue(pos); err != nil {
		return err
	}
	if p.limit > 0 && len(p.frames) >= p.limit {
		return p.fail(pos, "Maximum nesting depth %d exceeded", p.limit)
	}
	p.frames = append(p.frames, frame{obj: obj, begin: pos})
	if obj {
		p.st = stObject
		return p.visit(pos, p.v.StartObject(pos))
	}
	p.st = stArray
	return p.visit(pos, p.v.StartArray(pos))
}

func (p *parser) close(obj bool, pos Pos) error {
	_, c := closer(obj)
	f := p.top()
	switch {
	case f == nil:
		return p.fail(pos, "Unexpected '%c'", c)
	case p.st == stStringValue:
		return p.fail(pos, "Expected ':'")
	case p.st == stObjectKey:
		return p.fail(pos, "Unexpected '%c'", c)
	case f.obj != obj:
		o, want := closer(f.obj)
		return p.fail(pos, "Expected '%c' to match with '%c' on line %d", want, o, f.begin.Line)
	}
	p.frames = p.frames[:len(p.frames)-1]
	var err error
	if obj {
		err = p.v.EndObject(pos)
	} else {
		err = p.v.EndArray(pos)
	}
	if err := p.visit(pos, err); err != nil {
		return err
	}
	return p.endValue()
}

func (p *parser) eof(pos Pos) error {
	f := p.top()
	switch p.st {
	case stInitial:
		return p.fail(pos, "Empty content")
	case stObject, stObjectKey, stArray, stAppend:
		_, c := closer(f.obj)
		return p.fail(pos, "Missing '%c'", c)
	}
	if f != nil {
		o, c := closer(f.obj)
		return p.fail(pos, "Expected '%c' before end of file to match with '%c' on line %d", c, o, f.begin.Line)
	}
	p.st = stEOF
	return p.visit(pos, p.v.EndOfStream(pos))
}
