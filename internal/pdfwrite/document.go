package pdfwrite

import (
	"fmt"
	"image"
)

// Document is a multi-page PDF under construction, mirroring the shape of
// seehuhn-go-pdf's document.MultiPage: a Writer plus a running list of
// page references collected as pages are closed.
type Document struct {
	w     *Writer
	pages []Reference
}

// NewDocument wraps w for multi-page output.
func NewDocument(w *Writer) *Document {
	return &Document{w: w}
}

// Page accumulates the image placements for one output page before it is
// written out by Close.
type Page struct {
	doc           *Document
	widthPt       float64
	heightPt      float64
	images        []placedImage
	contentStream []byte
}

type placedImage struct {
	img  *image.Gray
	name Name
	x, y, w, h float64
}

// NewPage starts a page of the given size, in PDF points (1/72 inch).
func (d *Document) NewPage(widthPt, heightPt float64) *Page {
	return &Page{doc: d, widthPt: widthPt, heightPt: heightPt}
}

// DrawImage places a grayscale raster on the page. (x, y) is the lower-left
// corner in PDF points, matching PDF's bottom-up page coordinate system;
// (w, h) is the placed size in points.
func (p *Page) DrawImage(img *image.Gray, x, y, w, h float64) {
	name := Name(fmt.Sprintf("Im%d", len(p.images)))
	p.images = append(p.images, placedImage{img: img, name: name, x: x, y: y, w: w, h: h})
}

// Close writes the page's image XObjects and content stream, and appends
// the page to the document's page tree. Images are written losslessly as
// DeviceGray/FlateDecode samples (spec.md 4.4 requires markings and
// staves to pass through without recompression artifacts, which a
// lossless filter guarantees trivially).
func (p *Page) Close() error {
	resources := Dict{}
	xobjects := Dict{}
	var content []byte
	for _, pi := range p.images {
		ref := p.doc.w.Alloc()
		b := pi.img.Bounds()
		imgDict := Dict{
			"Type":             Name("XObject"),
			"Subtype":          Name("Image"),
			"Width":            b.Dx(),
			"Height":           b.Dy(),
			"ColorSpace":       Name("DeviceGray"),
			"BitsPerComponent": 8,
		}
		samples := graySamples(pi.img)
		if err := p.doc.w.WriteStream(ref, imgDict, samples); err != nil {
			return err
		}
		xobjects[pi.name] = ref
		content = append(content, []byte(fmt.Sprintf(
			"q %f 0 0 %f %f %f cm /%s Do Q\n", pi.w, pi.h, pi.x, pi.y, pi.name))...)
	}
	if len(xobjects) > 0 {
		resources["XObject"] = xobjects
	}

	contentRef := p.doc.w.Alloc()
	if err := p.doc.w.WriteStream(contentRef, Dict{}, content); err != nil {
		return err
	}

	pageRef := p.doc.w.Alloc()
	pageDict := Dict{
		"Type":      Name("Page"),
		"MediaBox":  []float64{0, 0, p.widthPt, p.heightPt},
		"Contents":  contentRef,
		"Resources": resources,
	}
	if err := p.doc.w.WriteDict(pageRef, pageDict); err != nil {
		return err
	}
	p.doc.pages = append(p.doc.pages, pageRef)
	return nil
}

// Close finishes the document: writes the page tree and catalog, and
// flushes the underlying Writer.
func (d *Document) Close() error {
	pagesRef := d.w.Alloc()
	kids := make([]Reference, len(d.pages))
	copy(kids, d.pages)
	pagesDict := Dict{
		"Type":  Name("Pages"),
		"Kids":  kids,
		"Count": len(kids),
	}
	if err := d.w.WriteDict(pagesRef, pagesDict); err != nil {
		return err
	}

	catalogRef := d.w.Alloc()
	catalogDict := Dict{
		"Type":  Name("Catalog"),
		"Pages": pagesRef,
	}
	if err := d.w.WriteDict(catalogRef, catalogDict); err != nil {
		return err
	}

	d.w.SetCatalog(catalogRef, pagesRef)
	return d.w.Close()
}

// graySamples extracts raw 8-bit samples from img in row-major order,
// respecting the image's own Stride so sub-images (crops sharing a parent
// Pix buffer) are copied correctly.
func graySamples(img *image.Gray) []byte {
	b := img.Bounds()
	out := make([]byte, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		srcOff := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*b.Dx():(y+1)*b.Dx()], img.Pix[srcOff:srcOff+b.Dx()])
	}
	return out
}
