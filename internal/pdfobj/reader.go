package pdfobj

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Reader gives random access to the indirect objects of a classic-xref
// PDF file already loaded into memory.
type Reader struct {
	buf  []byte
	xref map[uint32]int64 // object number -> byte offset
	root Object
}

// Open parses the cross-reference table of buf and returns a Reader.
func Open(buf []byte) (*Reader, error) {
	startxref, err := findStartXref(buf)
	if err != nil {
		return nil, err
	}
	r := &Reader{buf: buf, xref: map[uint32]int64{}}
	seen := map[int64]bool{}
	pos := startxref
	for pos >= 0 {
		if seen[pos] {
			break
		}
		seen[pos] = true
		next, err := r.readXRefSectionAt(pos)
		if err != nil {
			return nil, err
		}
		pos = next
	}
	if len(r.xref) == 0 {
		return nil, fmt.Errorf("pdfobj: no cross-reference entries found")
	}
	return r, nil
}

func findStartXref(buf []byte) (int64, error) {
	idx := bytes.LastIndex(buf, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("pdfobj: missing startxref")
	}
	s := newScanner(buf)
	s.pos = idx + len("startxref")
	s.skipWhiteSpace()
	tok := s.readToken()
	if !isInteger(tok) {
		return 0, fmt.Errorf("pdfobj: malformed startxref")
	}
	return parseInt(tok), nil
}

// readXRefSectionAt reads one "xref ... trailer ... <<dict>>" section and
// returns the offset of the previous section via /Prev, or -1 if none.
func (r *Reader) readXRefSectionAt(pos int64) (int64, error) {
	if pos < 0 || pos >= int64(len(r.buf)) {
		return -1, fmt.Errorf("pdfobj: xref offset out of range")
	}
	s := newScanner(r.buf)
	s.pos = int(pos)
	s.skipWhiteSpace()
	if !s.hasPrefix("xref") {
		return -1, fmt.Errorf("pdfobj: expected 'xref' keyword")
	}
	s.pos += len("xref")

	for {
		s.skipWhiteSpace()
		if s.hasPrefix("trailer") {
			s.pos += len("trailer")
			break
		}
		startTok := s.readToken()
		if !isInteger(startTok) {
			return -1, fmt.Errorf("pdfobj: malformed xref subsection header")
		}
		s.skipWhiteSpace()
		countTok := s.readToken()
		if !isInteger(countTok) {
			return -1, fmt.Errorf("pdfobj: malformed xref subsection header")
		}
		start := parseInt(startTok)
		count := parseInt(countTok)
		for i := int64(0); i < count; i++ {
			s.skipWhiteSpace()
			offTok := s.readToken()
			s.skipWhiteSpace()
			s.readToken() // generation, unused
			s.skipWhiteSpace()
			typTok := s.readToken()
			if len(typTok) == 1 && typTok[0] == 'n' && isInteger(offTok) {
				num := uint32(start + i)
				if _, exists := r.xref[num]; !exists {
					r.xref[num] = parseInt(offTok)
				}
			}
		}
	}

	s.skipWhiteSpace()
	trailer, err := s.ReadObject()
	if err != nil {
		return -1, err
	}
	d, ok := trailer.(Dict)
	if !ok {
		return -1, fmt.Errorf("pdfobj: malformed trailer")
	}
	if root, ok := d["Root"]; ok && r.root == nil {
		r.root = root
	}
	if prev, ok := AsNumber(d["Prev"]); ok {
		return int64(prev), nil
	}
	return -1, nil
}

// Root resolves the catalog reference from the first trailer encountered
// (the newest one, at startxref); older /Prev trailers do not override it.
func (r *Reader) Root() (Object, error) {
	if r.root == nil {
		return nil, fmt.Errorf("pdfobj: no document catalog")
	}
	return r.Resolve(r.root)
}

// Get reads the indirect object with the given number.
func (r *Reader) Get(num uint32) (Object, error) {
	off, ok := r.xref[num]
	if !ok {
		return Null{}, nil
	}
	s := newScanner(r.buf)
	s.pos = int(off)
	s.skipWhiteSpace()
	s.readToken() // object number
	s.skipWhiteSpace()
	s.readToken() // generation
	s.skipWhiteSpace()
	if !s.hasPrefix("obj") {
		return nil, fmt.Errorf("pdfobj: malformed indirect object at offset %d", off)
	}
	s.pos += len("obj")
	return s.ReadObject()
}

// Resolve follows a Reference one level to the object it names (PDF does
// not nest references); any other object is returned as is.
func (r *Reader) Resolve(obj Object) (Object, error) {
	ref, ok := obj.(Reference)
	if !ok {
		return obj, nil
	}
	return r.Get(ref.Number)
}

// GetDict resolves obj and asserts it is a Dict (or the Dict of a Stream).
func (r *Reader) GetDict(obj Object) (Dict, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case Dict:
		return v, nil
	case *Stream:
		return v.Dict, nil
	default:
		return nil, fmt.Errorf("pdfobj: expected dict, got %T", resolved)
	}
}

// GetArray resolves obj and asserts it is an Array.
func (r *Reader) GetArray(obj Object) (Array, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	a, ok := resolved.(Array)
	if !ok {
		return nil, fmt.Errorf("pdfobj: expected array, got %T", resolved)
	}
	return a, nil
}

// GetStream resolves obj and asserts it is a Stream.
func (r *Reader) GetStream(obj Object) (*Stream, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	st, ok := resolved.(*Stream)
	if !ok {
		return nil, fmt.Errorf("pdfobj: expected stream, got %T", resolved)
	}
	return st, nil
}

// Decode returns the stream's data with its filter chain applied. Only
// FlateDecode and DCTDecode (pass-through, left for the image decoder) are
// understood; unrecognised filters are returned undecoded.
func (s *Stream) Decode() ([]byte, error) {
	filters := filterNames(s.Dict["Filter"])
	data := s.Raw
	for _, f := range filters {
		switch f {
		case "FlateDecode":
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("pdfobj: flate decode: %w", err)
			}
			out, err := io.ReadAll(zr)
			if err != nil {
				return nil, fmt.Errorf("pdfobj: flate decode: %w", err)
			}
			data = out
		case "DCTDecode", "JPXDecode", "CCITTFaxDecode":
			// Left encoded: the image decoder recognises these directly.
		default:
			// Unknown filter: return what we have rather than failing the
			// whole page.
		}
	}
	return data, nil
}

func filterNames(obj Object) []Name {
	switch v := obj.(type) {
	case Name:
		return []Name{v}
	case Array:
		out := make([]Name, 0, len(v))
		for _, item := range v {
			if n, ok := item.(Name); ok {
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}
