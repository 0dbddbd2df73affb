package formats

import (
	"errors"
	"math"
	"strconv"
)

// Scanner errors.
var (
	errNoDigits      = errors.New("expected digits")
	errIndexTooLarge = errors.New("index out of range")
)

// objScanner is a forward-only cursor over an OBJ source buffer.
// Every primitive checks the end bound before touching a byte.
type objScanner struct {
	buf  []byte
	pos  int
	line int // 1-based line of the byte at pos
}

func newOBJScanner(buf []byte) *objScanner {
	return &objScanner{buf: buf, line: 1}
}

func (s *objScanner) atEnd() bool {
	return s.pos >= len(s.buf)
}

// peek returns the byte at pos+off, or 0 past the end.
func (s *objScanner) peek(off int) byte {
	if i := s.pos + off; i < len(s.buf) {
		return s.buf[i]
	}
	return 0
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

func isSpace(c byte) bool {
	return isBlank(c) || c == '\n'
}

// endsKeyword reports whether c may follow a directive keyword.
// A bare keyword still counts, so its record parser reports what is missing.
func endsKeyword(c byte) bool {
	return c == 0 || isSpace(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// skipWhitespace advances over blanks and newlines.
func (s *objScanner) skipWhitespace() {
	for s.pos < len(s.buf) && isSpace(s.buf[s.pos]) {
		if s.buf[s.pos] == '\n' {
			s.line++
		}
		s.pos++
	}
}

// skipBlanks advances over blanks without leaving the current line.
func (s *objScanner) skipBlanks() {
	for s.pos < len(s.buf) && isBlank(s.buf[s.pos]) {
		s.pos++
	}
}

// skipToWhitespace advances until a blank, a newline or the end.
func (s *objScanner) skipToWhitespace() {
	for s.pos < len(s.buf) && !isSpace(s.buf[s.pos]) {
		s.pos++
	}
}

// skipLine advances to the newline ending the current record.
// The newline itself is left for skipWhitespace.
func (s *objScanner) skipLine() {
	for s.pos < len(s.buf) && s.buf[s.pos] != '\n' {
		s.pos++
	}
}

// atLineEnd reports whether only blanks remain before the next newline,
// comment or end of buffer.
func (s *objScanner) atLineEnd() bool {
	s.skipBlanks()
	c := s.peek(0)
	return s.atEnd() || c == '\n' || c == '#'
}

// parseUint reads an unsigned decimal integer. Signs are not accepted.
func (s *objScanner) parseUint() (uint32, error) {
	start := s.pos
	var val uint64
	for s.pos < len(s.buf) && isDigit(s.buf[s.pos]) {
		val = val*10 + uint64(s.buf[s.pos]-'0')
		if val > math.MaxUint32 {
			return 0, errIndexTooLarge
		}
		s.pos++
	}
	if s.pos == start {
		return 0, errNoDigits
	}
	return uint32(val), nil
}

// parseFloat reads a decimal floating point token of the form
// [sign] digits [. digits] [(e|E) [sign] digits].
// overflow is set when the value does not fit bitSize and was rounded to ±Inf.
func (s *objScanner) parseFloat(bitSize int) (val float64, overflow bool, err error) {
	s.skipBlanks()
	start := s.pos

	if c := s.peek(0); c == '+' || c == '-' {
		s.pos++
	}
	digits := s.skipDigits()
	if s.peek(0) == '.' {
		s.pos++
		digits += s.skipDigits()
	}
	if digits == 0 {
		s.pos = start
		return 0, false, errNoDigits
	}
	if c := s.peek(0); c == 'e' || c == 'E' {
		mark := s.pos
		s.pos++
		if c := s.peek(0); c == '+' || c == '-' {
			s.pos++
		}
		if s.skipDigits() == 0 {
			// "1e" is a mantissa followed by junk, not an exponent
			s.pos = mark
		}
	}

	val, err = strconv.ParseFloat(string(s.buf[start:s.pos]), bitSize)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && math.IsInf(val, 0) {
			return val, true, nil
		}
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			// underflow rounds toward zero and is not reported
			return val, false, nil
		}
		return 0, false, err
	}
	return val, false, nil
}

func (s *objScanner) skipDigits() int {
	n := 0
	for s.pos < len(s.buf) && isDigit(s.buf[s.pos]) {
		s.pos++
		n++
	}
	return n
}
