// Package raster implements the Rasterizer: it converts PDF pages to
// fixed-DPI grayscale raster images. Scanned scores carry their page
// content as a single image XObject sized to the page's MediaBox (see
// SPEC_FULL.md §4.1); the Rasterizer decodes that image and rescales it to
// exactly 300 DPI with golang.org/x/image/draw, the same scaling primitive
// seehuhn-go-pdf's own converter.ImageRenderer and cmd/pdf2img use to turn
// PDF content into pixels.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"

	"github.com/timotif/divisi-partifi-v2/internal/pdfobj"
	"github.com/timotif/divisi-partifi-v2/score"
)

// CanonicalDPI is the fixed rasterisation resolution spec.md §3 requires.
const CanonicalDPI = 300

// ErrInvalidInput is returned when the input is not a readable PDF.
var ErrInvalidInput = errors.New("raster: invalid or corrupt PDF input")

// ErrPageTooLarge is returned when a page's raster would exceed the
// configured memory budget.
var ErrPageTooLarge = errors.New("raster: page raster exceeds memory budget")

// Options configures the Rasterizer's resource limits.
type Options struct {
	// MaxPageBytes bounds a single page's decoded raster size (width *
	// height bytes, since rasters are 8-bit grayscale). Zero means no
	// limit.
	MaxPageBytes int64
}

// Rasterize decodes pdfBytes and produces one *score.Score with every page
// rasterised lazily-on-demand: only MediaBox dimensions (and the page-size
// budget check) are computed eagerly here; each Page's Decode closure
// performs the actual image decode/rescale on first call to EnsureRaster.
func Rasterize(id string, pdfBytes []byte, opts Options) (*score.Score, error) {
	r, err := pdfobj.Open(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	infos, err := r.Pages()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sc := &score.Score{ID: id, Pages: make([]*score.Page, len(infos))}
	for i, info := range infos {
		widthPt := info.MediaBox[2] - info.MediaBox[0]
		heightPt := info.MediaBox[3] - info.MediaBox[1]
		widthPx := int(widthPt / 72 * CanonicalDPI)
		heightPx := int(heightPt / 72 * CanonicalDPI)
		if widthPx <= 0 || heightPx <= 0 {
			return nil, fmt.Errorf("%w: page %d has empty media box", ErrInvalidInput, i)
		}
		if opts.MaxPageBytes > 0 && int64(widthPx)*int64(heightPx) > opts.MaxPageBytes {
			return nil, fmt.Errorf("%w: page %d would rasterise to %d bytes", ErrPageTooLarge, i, int64(widthPx)*int64(heightPx))
		}
		sc.Pages[i] = &score.Page{
			Index:    i,
			WidthPx:  widthPx,
			HeightPx: heightPx,
			Decode: func() (*image.Gray, error) {
				return rasterizePage(info, widthPx, heightPx), nil
			},
		}
	}
	return sc, nil
}

// rasterizePage decodes the page's embedded image (if any) and rescales it
// to exactly (widthPx, heightPx). A page with no image XObject — a
// born-digital page with no scanned content — renders as blank white, so
// downstream StaffDetector phases simply find zero staves rather than the
// pipeline failing.
func rasterizePage(info pdfobj.PageInfo, widthPx, heightPx int) *image.Gray {
	canvas := image.NewGray(image.Rect(0, 0, widthPx, heightPx))
	fillWhite(canvas)

	if len(info.Images) == 0 {
		return canvas
	}
	decoded, err := decodeImageStream(info.Images[0])
	if err != nil || decoded == nil {
		return canvas
	}
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), decoded, decoded.Bounds(), xdraw.Over, nil)
	return canvas
}

func fillWhite(img *image.Gray) {
	for i := range img.Pix {
		img.Pix[i] = 255
	}
}

// decodeImageStream decodes a PDF image XObject into a grayscale image.
// DCTDecode streams are plain JPEG. FlateDecode streams are raw samples
// whose layout is given by ColorSpace/BitsPerComponent. CCITTFaxDecode
// (common for black-and-white fax-style scans) is not decoded: the
// stream's filter chain is left unrecognised and the page falls back to
// blank, the same "never raise" posture StaffDetector takes on an
// unreadable page.
func decodeImageStream(st *pdfobj.Stream) (image.Image, error) {
	filters := filterChain(st)
	width := intField(st.Dict["Width"])
	height := intField(st.Dict["Height"])

	for _, f := range filters {
		switch f {
		case "DCTDecode":
			img, err := jpeg.Decode(bytes.NewReader(st.Raw))
			if err != nil {
				return nil, err
			}
			return img, nil
		}
	}

	data, err := st.Decode()
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: image stream missing dimensions")
	}
	return decodeRawSamples(data, width, height, colorSpaceOf(st.Dict))
}

func filterChain(st *pdfobj.Stream) []string {
	switch v := st.Dict["Filter"].(type) {
	case pdfobj.Name:
		return []string{string(v)}
	case pdfobj.Array:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if n, ok := item.(pdfobj.Name); ok {
				out = append(out, string(n))
			}
		}
		return out
	}
	return nil
}

func intField(obj pdfobj.Object) int {
	n, ok := pdfobj.AsNumber(obj)
	if !ok {
		return 0
	}
	return int(n)
}

func colorSpaceOf(d pdfobj.Dict) string {
	if n, ok := d["ColorSpace"].(pdfobj.Name); ok {
		return string(n)
	}
	return "DeviceGray"
}

// decodeRawSamples turns raw FlateDecode sample bytes into an
// image.Image, handling the two colour spaces scanned output realistically
// uses: DeviceGray (1 byte/pixel) and DeviceRGB (3 bytes/pixel, returned
// as an RGBA image; it becomes grayscale when rasterizePage draws it onto
// the Gray canvas).
func decodeRawSamples(data []byte, width, height int, colorSpace string) (image.Image, error) {
	switch colorSpace {
	case "DeviceGray", "CalGray":
		if len(data) < width*height {
			return nil, fmt.Errorf("raster: truncated grayscale sample data")
		}
		img := image.NewGray(image.Rect(0, 0, width, height))
		copy(img.Pix, data[:width*height])
		return img, nil
	case "DeviceRGB", "CalRGB":
		if len(data) < width*height*3 {
			return nil, fmt.Errorf("raster: truncated RGB sample data")
		}
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for p := 0; p < width*height; p++ {
			r, g, b := data[p*3], data[p*3+1], data[p*3+2]
			img.Set(p%width, p/width, color.RGBA{R: r, G: g, B: b, A: 255})
		}
		return img, nil
	default:
		return nil, fmt.Errorf("raster: unsupported colour space %q", colorSpace)
	}
}
