// Package pdfwrite is a minimal PDF writer: enough to emit a multi-page
// document whose pages are laid out purely from pre-rendered raster
// images, the shape of output the LayoutRenderer needs. It mirrors the
// object model and Writer/page-tree split of seehuhn.de/go/pdf's own
// writer.go, pages package, and document.MultiPage, condensed to the
// operations a part-book actually uses — no fonts, no annotations, no
// encryption.
package pdfwrite

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strconv"
)

// Name, Dict, and Reference mirror their pdfobj counterparts; pdfwrite
// does not depend on pdfobj because a writer never needs to resolve
// indirect references, only allocate and emit them.
type Name string
type Dict map[Name]any
type Reference int

type xrefEntry struct {
	offset int64
}

// Writer accumulates indirect objects and emits a complete PDF file on
// Close, writing a classic cross-reference table exactly like
// seehuhn-go-pdf's Writer.Close does for PDFVersion < V1_5.
type Writer struct {
	w        io.Writer
	pos      int64
	xref     []xrefEntry // index 0 unused, matches object numbering
	catalog  Reference
	rootPage Reference
}

// New wraps w for writing. The returned Writer must be closed.
func New(w io.Writer) (*Writer, error) {
	pw := &Writer{w: w, xref: []xrefEntry{{offset: -1}}}
	if err := pw.writeRaw("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"); err != nil {
		return nil, err
	}
	return pw, nil
}

func (pw *Writer) writeRaw(s string) error {
	n, err := io.WriteString(pw.w, s)
	pw.pos += int64(n)
	return err
}

func (pw *Writer) write(b []byte) error {
	n, err := pw.w.Write(b)
	pw.pos += int64(n)
	return err
}

// Alloc reserves the next object number without writing anything.
func (pw *Writer) Alloc() Reference {
	pw.xref = append(pw.xref, xrefEntry{offset: -1})
	return Reference(len(pw.xref) - 1)
}

// WriteDict writes a dictionary as the indirect object ref.
func (pw *Writer) WriteDict(ref Reference, d Dict) error {
	pw.xref[ref].offset = pw.pos
	if err := pw.writeRaw(fmt.Sprintf("%d 0 obj\n", ref)); err != nil {
		return err
	}
	if err := pw.writeDictBody(d); err != nil {
		return err
	}
	return pw.writeRaw("\nendobj\n")
}

// WriteStream writes a dictionary plus a stream body, compressed with
// FlateDecode unless the caller has already set /Filter (e.g. to
// DCTDecode for an embedded JPEG).
func (pw *Writer) WriteStream(ref Reference, d Dict, data []byte) error {
	var encoded []byte
	if _, already := d["Filter"]; !already {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		encoded = buf.Bytes()
		d["Filter"] = Name("FlateDecode")
	} else {
		encoded = data
	}
	d["Length"] = len(encoded)

	pw.xref[ref].offset = pw.pos
	if err := pw.writeRaw(fmt.Sprintf("%d 0 obj\n", ref)); err != nil {
		return err
	}
	if err := pw.writeDictBody(d); err != nil {
		return err
	}
	if err := pw.writeRaw("\nstream\n"); err != nil {
		return err
	}
	if err := pw.write(encoded); err != nil {
		return err
	}
	return pw.writeRaw("\nendstream\nendobj\n")
}

func (pw *Writer) writeDictBody(d Dict) error {
	if err := pw.writeRaw("<<"); err != nil {
		return err
	}
	for k, v := range d {
		if err := pw.writeRaw("/" + string(k) + " "); err != nil {
			return err
		}
		if err := pw.writeValue(v); err != nil {
			return err
		}
		if err := pw.writeRaw("\n"); err != nil {
			return err
		}
	}
	return pw.writeRaw(">>")
}

func (pw *Writer) writeValue(v any) error {
	switch x := v.(type) {
	case Reference:
		return pw.writeRaw(fmt.Sprintf("%d 0 R", x))
	case Name:
		return pw.writeRaw("/" + string(x))
	case string:
		return pw.writeRaw("(" + x + ")")
	case int:
		return pw.writeRaw(strconv.Itoa(x))
	case float64:
		return pw.writeRaw(strconv.FormatFloat(x, 'f', -1, 64))
	case []Reference:
		if err := pw.writeRaw("["); err != nil {
			return err
		}
		for i, r := range x {
			if i > 0 {
				if err := pw.writeRaw(" "); err != nil {
					return err
				}
			}
			if err := pw.writeValue(r); err != nil {
				return err
			}
		}
		return pw.writeRaw("]")
	case []float64:
		if err := pw.writeRaw("["); err != nil {
			return err
		}
		for i, f := range x {
			if i > 0 {
				if err := pw.writeRaw(" "); err != nil {
					return err
				}
			}
			if err := pw.writeValue(f); err != nil {
				return err
			}
		}
		return pw.writeRaw("]")
	case Dict:
		return pw.writeDictBody(x)
	default:
		return fmt.Errorf("pdfwrite: unsupported value type %T", v)
	}
}

// SetCatalog records which object is the document catalog and which is
// the root of the page tree; both are required before Close.
func (pw *Writer) SetCatalog(catalog, rootPage Reference) {
	pw.catalog = catalog
	pw.rootPage = rootPage
}

// Close writes the cross-reference table and trailer, matching the layout
// of seehuhn-go-pdf's Writer.writeXRefTable.
func (pw *Writer) Close() error {
	xrefPos := pw.pos
	if err := pw.writeRaw(fmt.Sprintf("xref\n0 %d\n", len(pw.xref))); err != nil {
		return err
	}
	for i, e := range pw.xref {
		if i == 0 {
			if err := pw.writeRaw("0000000000 65535 f \n"); err != nil {
				return err
			}
			continue
		}
		if err := pw.writeRaw(fmt.Sprintf("%010d %05d n \n", e.offset, 0)); err != nil {
			return err
		}
	}
	if err := pw.writeRaw(fmt.Sprintf(
		"trailer\n<</Size %d/Root %d 0 R>>\nstartxref\n%d\n%%%%EOF\n",
		len(pw.xref), pw.catalog, xrefPos)); err != nil {
		return err
	}
	if c, ok := pw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
