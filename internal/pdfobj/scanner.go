package pdfobj

import (
	"bytes"
	"errors"
	"fmt"
)

var errMalformed = errors.New("pdfobj: malformed PDF object")

// scanner reads PDF objects from an in-memory buffer. Unlike the teacher's
// streaming scanner, this one is handed the whole file body up front: the
// xref table already tells us where every object starts, so there is no
// need to buffer incrementally from an io.Reader.
type scanner struct {
	buf []byte
	pos int
}

func newScanner(buf []byte) *scanner {
	return &scanner{buf: buf}
}

func isWhiteSpace(c byte) bool {
	switch c {
	case 0, 9, 10, 12, 13, 32:
		return true
	default:
		return false
	}
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return false
	}
}

func (s *scanner) skipWhiteSpace() {
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		if c == '%' {
			for s.pos < len(s.buf) && s.buf[s.pos] != '\n' && s.buf[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		if !isWhiteSpace(c) {
			return
		}
		s.pos++
	}
}

func (s *scanner) peekByte() (byte, bool) {
	if s.pos >= len(s.buf) {
		return 0, false
	}
	return s.buf[s.pos], true
}

func (s *scanner) hasPrefix(p string) bool {
	return bytes.HasPrefix(s.buf[s.pos:], []byte(p))
}

// readToken reads a bare (non-delimited) token: a number, keyword, or the
// numeric part of a reference.
func (s *scanner) readToken() []byte {
	start := s.pos
	for s.pos < len(s.buf) && !isWhiteSpace(s.buf[s.pos]) && !isDelim(s.buf[s.pos]) {
		s.pos++
	}
	return s.buf[start:s.pos]
}

// ReadObject reads one PDF object, resolving "N G R" reference syntax.
func (s *scanner) ReadObject() (Object, error) {
	s.skipWhiteSpace()
	c, ok := s.peekByte()
	if !ok {
		return nil, fmt.Errorf("pdfobj: unexpected end of input")
	}

	switch {
	case c == '/':
		return s.readName()
	case c == '(':
		return s.readLiteralString()
	case c == '<':
		if s.pos+1 < len(s.buf) && s.buf[s.pos+1] == '<' {
			return s.readDictOrStream()
		}
		return s.readHexString()
	case c == '[':
		return s.readArray()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return s.readNumberOrReference()
	default:
		tok := s.readToken()
		switch string(tok) {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "null":
			return Null{}, nil
		}
		return nil, fmt.Errorf("pdfobj: unexpected token %q", tok)
	}
}

func (s *scanner) readName() (Name, error) {
	s.pos++ // skip '/'
	start := s.pos
	var out []byte
	for s.pos < len(s.buf) && !isWhiteSpace(s.buf[s.pos]) && !isDelim(s.buf[s.pos]) {
		if s.buf[s.pos] == '#' && s.pos+2 < len(s.buf) {
			hi, lo := fromHex(s.buf[s.pos+1]), fromHex(s.buf[s.pos+2])
			if hi >= 0 && lo >= 0 {
				out = append(out, s.buf[start:s.pos]...)
				out = append(out, byte(hi<<4|lo))
				s.pos += 3
				start = s.pos
				continue
			}
		}
		s.pos++
	}
	out = append(out, s.buf[start:s.pos]...)
	return Name(out), nil
}

func fromHex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func (s *scanner) readLiteralString() (String, error) {
	s.pos++ // skip '('
	var out []byte
	depth := 1
	for s.pos < len(s.buf) {
		c := s.buf[s.pos]
		switch c {
		case '(':
			depth++
			out = append(out, c)
			s.pos++
		case ')':
			depth--
			s.pos++
			if depth == 0 {
				return String(out), nil
			}
			out = append(out, c)
		case '\\':
			s.pos++
			if s.pos >= len(s.buf) {
				return nil, errMalformed
			}
			esc := s.buf[s.pos]
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, esc)
			case '\r', '\n':
				// line continuation, emit nothing
			default:
				out = append(out, esc)
			}
			s.pos++
		default:
			out = append(out, c)
			s.pos++
		}
	}
	return nil, errMalformed
}

func (s *scanner) readHexString() (String, error) {
	s.pos++ // skip '<'
	start := s.pos
	for s.pos < len(s.buf) && s.buf[s.pos] != '>' {
		s.pos++
	}
	if s.pos >= len(s.buf) {
		return nil, errMalformed
	}
	hex := s.buf[start:s.pos]
	s.pos++ // skip '>'
	var out []byte
	for i := 0; i+1 < len(hex); i += 2 {
		hi, lo := fromHex(hex[i]), fromHex(hex[i+1])
		if hi < 0 || lo < 0 {
			continue
		}
		out = append(out, byte(hi<<4|lo))
	}
	if len(hex)%2 == 1 {
		hi := fromHex(hex[len(hex)-1])
		if hi >= 0 {
			out = append(out, byte(hi<<4))
		}
	}
	return String(out), nil
}

func (s *scanner) readArray() (Array, error) {
	s.pos++ // skip '['
	var out Array
	for {
		s.skipWhiteSpace()
		c, ok := s.peekByte()
		if !ok {
			return nil, errMalformed
		}
		if c == ']' {
			s.pos++
			return out, nil
		}
		obj, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
}

func (s *scanner) readDictOrStream() (Object, error) {
	d, err := s.readDict()
	if err != nil {
		return nil, err
	}
	s.skipWhiteSpace()
	if !s.hasPrefix("stream") {
		return d, nil
	}
	s.pos += len("stream")
	// Skip the EOL after "stream": CRLF or LF only, per spec.
	if s.pos < len(s.buf) && s.buf[s.pos] == '\r' {
		s.pos++
	}
	if s.pos < len(s.buf) && s.buf[s.pos] == '\n' {
		s.pos++
	}
	length, ok := AsNumber(d["Length"])
	start := s.pos
	var raw []byte
	if ok {
		end := start + int(length)
		if end <= len(s.buf) {
			raw = s.buf[start:end]
			s.pos = end
		}
	}
	if raw == nil {
		// Length was an indirect reference or missing: scan for "endstream".
		idx := bytes.Index(s.buf[s.pos:], []byte("endstream"))
		if idx < 0 {
			return nil, errMalformed
		}
		raw = s.buf[s.pos : s.pos+idx]
		raw = bytes.TrimRight(raw, "\r\n")
		s.pos += idx
	}
	s.skipWhiteSpace()
	if s.hasPrefix("endstream") {
		s.pos += len("endstream")
	}
	return &Stream{Dict: d, Raw: raw}, nil
}

func (s *scanner) readDict() (Dict, error) {
	s.pos += 2 // skip '<<'
	d := Dict{}
	for {
		s.skipWhiteSpace()
		if s.hasPrefix(">>") {
			s.pos += 2
			return d, nil
		}
		c, ok := s.peekByte()
		if !ok || c != '/' {
			return nil, errMalformed
		}
		key, err := s.readName()
		if err != nil {
			return nil, err
		}
		val, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		d[key] = val
	}
}

// readNumberOrReference reads a number, or — if it looks like "N G R" — a
// Reference.
func (s *scanner) readNumberOrReference() (Object, error) {
	startPos := s.pos
	tok := s.readToken()
	if isInteger(tok) {
		save := s.pos
		s.skipWhiteSpace()
		genStart := s.pos
		genTok := s.readToken()
		if isInteger(genTok) {
			s.skipWhiteSpace()
			if s.hasPrefix("R") && (s.pos+1 >= len(s.buf) || isWhiteSpace(s.buf[s.pos+1]) || isDelim(s.buf[s.pos+1])) {
				s.pos++
				num := parseInt(tok)
				gen := parseInt(genTok)
				return Reference{Number: uint32(num), Generation: uint16(gen)}, nil
			}
		}
		s.pos = save
		_ = genStart
	}
	_ = startPos
	return parseNumber(tok)
}

func isInteger(tok []byte) bool {
	if len(tok) == 0 {
		return false
	}
	i := 0
	if tok[0] == '+' {
		i = 1
	}
	if i >= len(tok) {
		return false
	}
	for ; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return true
}

func parseInt(tok []byte) int64 {
	var n int64
	neg := false
	i := 0
	if len(tok) > 0 && (tok[0] == '+' || tok[0] == '-') {
		neg = tok[0] == '-'
		i = 1
	}
	for ; i < len(tok); i++ {
		n = n*10 + int64(tok[i]-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func parseNumber(tok []byte) (Object, error) {
	isReal := bytes.ContainsAny(tok, ".")
	if !isReal {
		return Integer(parseInt(tok)), nil
	}
	var whole, frac int64
	var fracDigits int
	neg := false
	i := 0
	if len(tok) > 0 && (tok[0] == '+' || tok[0] == '-') {
		neg = tok[0] == '-'
		i = 1
	}
	seenDot := false
	for ; i < len(tok); i++ {
		c := tok[i]
		if c == '.' {
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			continue
		}
		if !seenDot {
			whole = whole*10 + int64(c-'0')
		} else {
			frac = frac*10 + int64(c-'0')
			fracDigits++
		}
	}
	val := float64(whole)
	if fracDigits > 0 {
		div := 1.0
		for i := 0; i < fracDigits; i++ {
			div *= 10
		}
		val += float64(frac) / div
	}
	if neg {
		val = -val
	}
	return Real(val), nil
}
