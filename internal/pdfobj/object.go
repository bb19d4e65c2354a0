// Package pdfobj implements the small slice of the PDF object model that
// the rasterizer needs to read scanned-score PDFs: the nine basic object
// types, a buffered scanner over them, and a reader that resolves indirect
// references against a classic cross-reference table.
//
// This intentionally does not implement cross-reference streams, object
// streams, or encryption: scanned scores produced by the scanning software
// this system targets are written with classic xref tables, and the pack's
// own minimal PDF readers (github.com/AOShei/go-fast-pdf among them) make
// the same simplifying assumption.
package pdfobj

import (
	"fmt"
	"strconv"
)

// Object is any of the nine basic PDF object types.
type Object interface {
	pdfString() string
}

// Bool is a PDF boolean.
type Bool bool

func (b Bool) pdfString() string { return strconv.FormatBool(bool(b)) }

// Integer is a PDF integer.
type Integer int64

func (i Integer) pdfString() string { return strconv.FormatInt(int64(i), 10) }

// Real is a PDF real number.
type Real float64

func (r Real) pdfString() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// Name is a PDF name, without the leading slash.
type Name string

func (n Name) pdfString() string { return "/" + string(n) }

// String is a PDF string object's decoded bytes.
type String []byte

func (s String) pdfString() string { return fmt.Sprintf("(%s)", string(s)) }

// Array is a PDF array.
type Array []Object

func (a Array) pdfString() string { return fmt.Sprintf("%v", []Object(a)) }

// Dict is a PDF dictionary.
type Dict map[Name]Object

func (d Dict) pdfString() string { return fmt.Sprintf("%v", map[Name]Object(d)) }

// Reference is an indirect reference to another object.
type Reference struct {
	Number     uint32
	Generation uint16
}

func (r Reference) pdfString() string { return fmt.Sprintf("%d %d R", r.Number, r.Generation) }

// Stream is a dictionary together with the (still filter-encoded) bytes of
// its data. Use Decode to get the actual image/content bytes.
type Stream struct {
	Dict Dict
	Raw  []byte
}

func (s *Stream) pdfString() string { return fmt.Sprintf("stream<%v>", s.Dict) }

// Null is the PDF null object.
type Null struct{}

func (Null) pdfString() string { return "null" }

// AsNumber converts an Integer or Real to float64.
func AsNumber(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}
