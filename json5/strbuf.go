package json5

import "unicode/utf8"

// strbuf accumulates decoded string content. It grows geometrically and is
// reused across tokens.
type strbuf struct {
	b []byte
	n int
}

func (s *strbuf) reset() { s.n = 0 }

func (s *strbuf) grow(need int) {
	if s.n+need <= len(s.b) {
		return
	}
	size := max(64, 2*len(s.b))
	for size < s.n+need {
		size *= 2
	}
	nb := make([]byte, size)
	copy(nb, s.b[:s.n])
	s.b = nb
}

func (s *strbuf) write(p []byte) {
	s.grow(len(p))
	s.n += copy(s.b[s.n:], p)
}

func (s *strbuf) writeByte(c byte) {
	s.grow(1)
	s.b[s.n] = c
	s.n++
}

func (s *strbuf) writeRune(r rune) {
	if r < utf8.RuneSelf {
		s.writeByte(byte(r))
		return
	}
	s.grow(utf8.UTFMax)
	s.n += utf8.EncodeRune(s.b[s.n:], r)
}

func (s *strbuf) String() string { return string(s.b[:s.n]) }
