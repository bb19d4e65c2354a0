package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/timotif/divisi-partifi-v2/internal/pdfobj"
)

func TestFillWhite(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	fillWhite(img)
	for _, v := range img.Pix {
		if v != 255 {
			t.Errorf("pixel = %v, want 255", v)
		}
	}
}

func TestFilterChainSingleName(t *testing.T) {
	st := &pdfobj.Stream{Dict: pdfobj.Dict{"Filter": pdfobj.Name("DCTDecode")}}
	got := filterChain(st)
	if len(got) != 1 || got[0] != "DCTDecode" {
		t.Errorf("filterChain = %v, want [DCTDecode]", got)
	}
}

func TestFilterChainArray(t *testing.T) {
	st := &pdfobj.Stream{Dict: pdfobj.Dict{"Filter": pdfobj.Array{pdfobj.Name("ASCII85Decode"), pdfobj.Name("FlateDecode")}}}
	got := filterChain(st)
	want := []string{"ASCII85Decode", "FlateDecode"}
	if len(got) != len(want) {
		t.Fatalf("filterChain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("filterChain[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFilterChainMissing(t *testing.T) {
	st := &pdfobj.Stream{Dict: pdfobj.Dict{}}
	if got := filterChain(st); got != nil {
		t.Errorf("filterChain(no Filter) = %v, want nil", got)
	}
}

func TestColorSpaceOfDefaultsToDeviceGray(t *testing.T) {
	if got := colorSpaceOf(pdfobj.Dict{}); got != "DeviceGray" {
		t.Errorf("colorSpaceOf(no ColorSpace) = %q, want DeviceGray", got)
	}
}

func TestColorSpaceOfReadsName(t *testing.T) {
	d := pdfobj.Dict{"ColorSpace": pdfobj.Name("DeviceRGB")}
	if got := colorSpaceOf(d); got != "DeviceRGB" {
		t.Errorf("colorSpaceOf = %q, want DeviceRGB", got)
	}
}

func TestIntField(t *testing.T) {
	if got := intField(pdfobj.Integer(42)); got != 42 {
		t.Errorf("intField(Integer(42)) = %d, want 42", got)
	}
	if got := intField(pdfobj.Name("x")); got != 0 {
		t.Errorf("intField(non-number) = %d, want 0", got)
	}
}

func TestDecodeRawSamplesGray(t *testing.T) {
	data := []byte{10, 20, 30, 40}
	img, err := decodeRawSamples(data, 2, 2, "DeviceGray")
	if err != nil {
		t.Fatalf("decodeRawSamples: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("got %T, want *image.Gray", img)
	}
	if gray.GrayAt(1, 1).Y != 40 {
		t.Errorf("pixel(1,1) = %v, want 40", gray.GrayAt(1, 1).Y)
	}
}

func TestDecodeRawSamplesGrayTruncated(t *testing.T) {
	_, err := decodeRawSamples([]byte{1, 2}, 2, 2, "DeviceGray")
	if err == nil {
		t.Error("expected an error for truncated sample data")
	}
}

func TestDecodeRawSamplesRGB(t *testing.T) {
	data := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 10, 10, 10}
	img, err := decodeRawSamples(data, 2, 2, "DeviceRGB")
	if err != nil {
		t.Fatalf("decodeRawSamples: %v", err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		t.Fatalf("got %T, want *image.RGBA", img)
	}
	if got := rgba.RGBAAt(0, 0); got != (color.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Errorf("pixel(0,0) = %v, want red", got)
	}
}

func TestDecodeRawSamplesUnsupportedColorSpace(t *testing.T) {
	_, err := decodeRawSamples([]byte{1, 2, 3, 4}, 2, 2, "Indexed")
	if err == nil {
		t.Error("expected an error for an unsupported colour space")
	}
}

func TestRasterizePageWithoutImagesIsBlank(t *testing.T) {
	info := pdfobj.PageInfo{}
	img := rasterizePage(info, 4, 4)
	for _, v := range img.Pix {
		if v != 255 {
			t.Errorf("pixel = %v, want 255 (blank white)", v)
		}
	}
}
