package json5

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/reoring/bindkit"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString
	tokNumber
	tokIdent
	tokComment
	tokSpace
)

type token struct {
	kind tokKind
	line int
	off  int64
	str  string // decoded string, identifier, comment or whitespace text
	num  bindkit.Scalar
}

var punct = [256]tokKind{'{': tokLBrace, '}': tokRBrace, '[': tokLBracket, ']': tokRBracket, ':': tokColon, ',': tokComma}

// errMore reports that buf ends inside a token. The caller must supply more
// input (growing the buffer if needed) and scan again from the same offset.
var errMore = errors.New("json5: token exceeds buffer")

// lexError is a lexical failure at a precise position.
type lexError struct {
	msg  string
	line int
	off  int64
}

func (e *lexError) Error() string { return e.msg }

// lexer tokenizes UTF-8 JSON5. scan never retains buf, so a token that does
// not fit is simply scanned again once more input is available.
type lexer struct {
	line   int
	off    int64
	prevCR bool
	str    strbuf
	num    number
}

func (l *lexer) reset() {
	l.line, l.off, l.prevCR = 1, 0, false
	l.str.reset()
	l.num.reset()
}

// advance moves the position past b, counting LF, CR, CRLF (once), LS and PS
// as line breaks.
func (l *lexer) advance(b []byte) {
	l.line, l.prevCR = countLines(b, l.line, l.prevCR)
	l.off += int64(len(b))
}

func countLines(b []byte, line int, prevCR bool) (int, bool) {
	for i := 0; i < len(b); i++ {
		switch c := b[i]; {
		case c == '\n':
			if !prevCR {
				line++
			}
			prevCR = false
		case c == '\r':
			line++
			prevCR = true
		case c == 0xE2 && i+2 < len(b) && b[i+1] == 0x80 && b[i+2]&0xFE == 0xA8:
			line++
			prevCR = false
			i += 2
		default:
			prevCR = false
		}
	}
	return line, prevCR
}

// errAt builds a lexError for buf[i] of the token that starts at tok.
func (l *lexer) errAt(tok token, buf []byte, i int, format string, args ...any) error {
	line, _ := countLines(buf[:i], tok.line, l.prevCR)
	return &lexError{msg: fmt.Sprintf(format, args...), line: line, off: tok.off + int64(i)}
}

func (l *lexer) unexpected(tok token, buf []byte, i int) error {
	return l.errAt(tok, buf, i, "Unexpected character 0x%02X", buf[i])
}

// scan returns the token at the start of buf and its length in bytes.
func (l *lexer) scan(buf []byte, eof bool) (token, int, error) {
	tok := token{line: l.line, off: l.off}
	if len(buf) == 0 {
		if !eof {
			return tok, 0, errMore
		}
		tok.kind = tokEOF
		return tok, 0, nil
	}
	c := buf[0]
	if k := punct[c]; k != tokEOF {
		tok.kind = k
		return tok, 1, nil
	}
	switch {
	case c == '"' || c == '\'':
		return l.scanString(buf, eof, tok)
	case c == '/':
		return l.scanComment(buf, eof, tok)
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return l.scanNumber(buf, eof, tok)
	}
	n, err := l.spaceLen(buf, eof)
	if err != nil {
		return tok, 0, err
	}
	if n > 0 {
		tok.kind, tok.str = tokSpace, string(buf[:n])
		return tok, n, nil
	}
	return l.scanIdent(buf, eof, tok)
}

func isSpaceRune(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0xA0, 0xFEFF, 0x2028, 0x2029:
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// spaceLen returns the length of the whitespace run at the start of buf. A
// run may end at the buffer boundary; the next scan continues it.
func (l *lexer) spaceLen(buf []byte, eof bool) (int, error) {
	i := 0
	for i < len(buf) {
		c := buf[i]
		if c < utf8.RuneSelf {
			if !isSpaceRune(rune(c)) {
				break
			}
			i++
			continue
		}
		if !utf8.FullRune(buf[i:]) && !eof {
			if i == 0 {
				return 0, errMore
			}
			break
		}
		r, size := utf8.DecodeRune(buf[i:])
		if !isSpaceRune(r) {
			break
		}
		i += size
	}
	return i, nil
}

func isLineTerminator(buf []byte, i int) (int, bool) {
	switch buf[i] {
	case '\n', '\r':
		return 1, true
	case 0xE2:
		if i+2 < len(buf) && buf[i+1] == 0x80 && buf[i+2]&0xFE == 0xA8 {
			return 3, true
		}
	}
	return 0, false
}

func (l *lexer) scanComment(buf []byte, eof bool, tok token) (token, int, error) {
	if len(buf) < 2 {
		if !eof {
			return tok, 0, errMore
		}
		return tok, 0, l.unexpected(tok, buf, 0)
	}
	switch buf[1] {
	case '/':
		for i := 2; i < len(buf); i++ {
			if _, ok := isLineTerminator(buf, i); ok {
				tok.kind, tok.str = tokComment, string(buf[:i])
				return tok, i, nil
			}
		}
		// A partial LS/PS may sit at the end of buf.
		if !eof {
			return tok, 0, errMore
		}
		tok.kind, tok.str = tokComment, string(buf)
		return tok, len(buf), nil
	case '*':
		if end := bytes.Index(buf[2:], []byte("*/")); end >= 0 {
			n := end + 4
			tok.kind, tok.str = tokComment, string(buf[:n])
			return tok, n, nil
		}
		if !eof {
			return tok, 0, errMore
		}
		return tok, 0, l.errAt(tok, buf, 0, "Unterminated comment")
	}
	return tok, 0, l.unexpected(tok, buf, 0)
}

func (l *lexer) scanString(buf []byte, eof bool, tok token) (token, int, error) {
	quote := buf[0]
	l.str.reset()
	i := 1
	for {
		if i >= len(buf) {
			if !eof {
				return tok, 0, errMore
			}
			return tok, 0, l.errAt(tok, buf, 0, "Unterminated string")
		}
		c := buf[i]
		switch {
		case c == quote:
			tok.kind, tok.str = tokString, l.str.String()
			return tok, i + 1, nil
		case c == '\\':
			n, err := l.escape(buf, i, eof, tok)
			if err != nil {
				return tok, 0, err
			}
			i += n
		case c == '\n' || c == '\r':
			return tok, 0, l.errAt(tok, buf, i, "Unterminated string")
		case c < utf8.RuneSelf:
			start := i
			for i < len(buf) && buf[i] < utf8.RuneSelf && buf[i] != quote && buf[i] != '\\' && buf[i] != '\n' && buf[i] != '\r' {
				i++
			}
			l.str.write(buf[start:i])
		default:
			if !utf8.FullRune(buf[i:]) && !eof {
				return tok, 0, errMore
			}
			r, size := utf8.DecodeRune(buf[i:])
			if r == utf8.RuneError && size == 1 {
				l.str.writeRune(utf8.RuneError)
			} else {
				l.str.write(buf[i : i+size])
			}
			i += size
		}
	}
}

var simpleEscapes = map[byte]byte{'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v'}

// escape decodes the escape sequence at buf[i] into the string buffer and
// returns its length.
func (l *lexer) escape(buf []byte, i int, eof bool, tok token) (int, error) {
	need := func(n int) error {
		if i+n <= len(buf) {
			return nil
		}
		if !eof {
			return errMore
		}
		return l.errAt(tok, buf, 0, "Unterminated string")
	}
	if err := need(2); err != nil {
		return 0, err
	}
	c := buf[i+1]
	if r, ok := simpleEscapes[c]; ok {
		l.str.writeByte(r)
		return 2, nil
	}
	switch {
	case c == '0':
		if i+2 >= len(buf) && !eof {
			return 0, errMore
		}
		if i+2 < len(buf) && isDigit(buf[i+2]) {
			return 0, l.errAt(tok, buf, i, "Invalid escape")
		}
		l.str.writeByte(0)
		return 2, nil
	case c >= '1' && c <= '9':
		return 0, l.errAt(tok, buf, i, "Invalid escape")
	case c == 'x':
		if err := need(4); err != nil {
			return 0, err
		}
		v, ok := hexValue(buf[i+2 : i+4])
		if !ok {
			return 0, l.errAt(tok, buf, i, "Invalid escape")
		}
		l.str.writeRune(rune(v))
		return 4, nil
	case c == 'u':
		r, n, err := l.unicodeEscape(buf, i, eof, tok)
		if err != nil {
			return 0, err
		}
		l.str.writeRune(r)
		return n, nil
	case c == '\r':
		if i+2 >= len(buf) && !eof {
			return 0, errMore
		}
		if i+2 < len(buf) && buf[i+2] == '\n' {
			return 3, nil
		}
		return 2, nil
	case c == '\n':
		return 2, nil
	}
	if !utf8.FullRune(buf[i+1:]) && !eof {
		return 0, errMore
	}
	r, size := utf8.DecodeRune(buf[i+1:])
	if r == 0x2028 || r == 0x2029 {
		return 1 + size, nil
	}
	l.str.writeRune(r)
	return 1 + size, nil
}

// unicodeEscape decodes \uXXXX at buf[i], joining a following low surrogate
// escape into one code point. Unpaired surrogates become U+FFFD.
func (l *lexer) unicodeEscape(buf []byte, i int, eof bool, tok token) (rune, int, error) {
	if i+6 > len(buf) {
		if !eof {
			return 0, 0, errMore
		}
		return 0, 0, l.errAt(tok, buf, i, "Invalid escape")
	}
	v, ok := hexValue(buf[i+2 : i+6])
	if !ok {
		return 0, 0, l.errAt(tok, buf, i, "Invalid escape")
	}
	r := rune(v)
	if !utf16.IsSurrogate(r) {
		return r, 6, nil
	}
	if r >= 0xDC00 {
		return utf8.RuneError, 6, nil
	}
	if i+12 > len(buf) && !eof {
		return 0, 0, errMore
	}
	if i+12 <= len(buf) && buf[i+6] == '\\' && buf[i+7] == 'u' {
		if lo, ok := hexValue(buf[i+8 : i+12]); ok && lo >= 0xDC00 && lo <= 0xDFFF {
			return utf16.DecodeRune(r, rune(lo)), 12, nil
		}
	}
	return utf8.RuneError, 6, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func hexDigit(c byte) (int64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int64(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int64(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int64(c-'A') + 10, true
	}
	return 0, false
}

func hexValue(b []byte) (int64, bool) {
	var v int64
	for _, c := range b {
		d, ok := hexDigit(c)
		if !ok {
			return 0, false
		}
		v = v*16 + d
	}
	return v, true
}

func (l *lexer) scanNumber(buf []byte, eof bool, tok token) (token, int, error) {
	n := &l.num
	n.reset()
	i := 0
	// more reports whether the literal may continue past the buffer.
	more := func() bool { return i >= len(buf) && !eof }
	if buf[0] == '+' || buf[0] == '-' {
		if buf[0] == '-' {
			n.sign = -1
		}
		i++
	}
	if more() {
		return tok, 0, errMore
	}
	if i >= len(buf) {
		return tok, 0, l.unexpected(tok, buf, 0)
	}
	for _, lit := range []struct {
		word string
		v    float64
	}{{"Infinity", math.Inf(1)}, {"NaN", math.NaN()}} {
		if buf[i] != lit.word[0] {
			continue
		}
		rest := buf[i:]
		if len(rest) < len(lit.word) && bytes.HasPrefix([]byte(lit.word), rest) && !eof {
			return tok, 0, errMore
		}
		if !bytes.HasPrefix(rest, []byte(lit.word)) {
			return tok, 0, l.unexpected(tok, buf, i)
		}
		n.special = lit.v
		i += len(lit.word)
		return l.finishNumber(buf, i, eof, tok)
	}
	if buf[i] == '0' && i+1 < len(buf) && (buf[i+1] == 'x' || buf[i+1] == 'X') {
		i += 2
		start := i
		for i < len(buf) {
			d, ok := hexDigit(buf[i])
			if !ok {
				break
			}
			n.digit(d, 16, false)
			i++
		}
		if more() {
			return tok, 0, errMore
		}
		if i == start {
			return tok, 0, l.unexpected(tok, buf, min(i, len(buf)-1))
		}
		return l.finishNumber(buf, i, eof, tok)
	}
	digits := 0
	if buf[i] == '0' {
		n.digit(0, 10, false)
		i++
		digits++
	} else {
		for i < len(buf) && isDigit(buf[i]) {
			n.digit(int64(buf[i]-'0'), 10, false)
			i++
			digits++
		}
	}
	if more() {
		return tok, 0, errMore
	}
	if i < len(buf) && buf[i] == '.' {
		i++
		for i < len(buf) && isDigit(buf[i]) {
			n.digit(int64(buf[i]-'0'), 10, true)
			i++
			digits++
		}
		if more() {
			return tok, 0, errMore
		}
	}
	if digits == 0 {
		return tok, 0, l.unexpected(tok, buf, min(i, len(buf)-1))
	}
	if i < len(buf) && (buf[i] == 'e' || buf[i] == 'E') {
		i++
		if i < len(buf) && (buf[i] == '+' || buf[i] == '-') {
			if buf[i] == '-' {
				n.expSign = -1
			}
			i++
		}
		start := i
		for i < len(buf) && isDigit(buf[i]) {
			if err := n.expDigit(int64(buf[i] - '0')); err != nil {
				return tok, 0, l.errAt(tok, buf, 0, "%s", err.Error())
			}
			i++
		}
		if more() {
			return tok, 0, errMore
		}
		if i == start {
			return tok, 0, l.unexpected(tok, buf, min(i, len(buf)-1))
		}
	}
	return l.finishNumber(buf, i, eof, tok)
}

func (l *lexer) finishNumber(buf []byte, i int, eof bool, tok token) (token, int, error) {
	if i >= len(buf) && !eof {
		return tok, 0, errMore
	}
	v, err := l.num.resolve()
	if err != nil {
		return tok, 0, l.errAt(tok, buf, 0, "%s", err.Error())
	}
	tok.kind, tok.num = tokNumber, v
	return tok, i, nil
}

func isIdentRune(r rune, first bool) bool {
	switch {
	case r == '$' || r == '_':
		return true
	case unicode.In(r, unicode.L, unicode.Nl):
		return true
	case first:
		return false
	case r == 0x200C || r == 0x200D:
		return true
	}
	return unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc)
}

func (l *lexer) scanIdent(buf []byte, eof bool, tok token) (token, int, error) {
	l.str.reset()
	i := 0
	for i < len(buf) {
		c := buf[i]
		if c == '\\' {
			if i+6 > len(buf) && !eof {
				return tok, 0, errMore
			}
			if i+6 > len(buf) || buf[i+1] != 'u' {
				return tok, 0, l.unexpected(tok, buf, i)
			}
			v, ok := hexValue(buf[i+2 : i+6])
			if !ok || !isIdentRune(rune(v), i == 0) {
				return tok, 0, l.errAt(tok, buf, i, "Invalid escape")
			}
			l.str.writeRune(rune(v))
			i += 6
			continue
		}
		if !utf8.FullRune(buf[i:]) && !eof {
			return tok, 0, errMore
		}
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size <= 1 || !isIdentRune(r, i == 0) {
			break
		}
		l.str.writeRune(r)
		i += size
	}
	if i == 0 {
		return tok, 0, l.unexpected(tok, buf, 0)
	}
	if i >= len(buf) && !eof {
		return tok, 0, errMore
	}
	tok.kind, tok.str = tokIdent, l.str.String()
	return tok, i, nil
}
