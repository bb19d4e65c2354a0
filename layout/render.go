package layout

import (
	"bytes"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/timotif/divisi-partifi-v2/internal/pdfwrite"
	"github.com/timotif/divisi-partifi-v2/score"
)

// Render runs both pagination passes and emits the Part as a PDF: one
// page per assembled page group, each stave cropped from its source page
// raster, scaled to ContentWidthPx, and blitted at its computed Y, with
// any attached markings overlaid at their source-relative offset.
// Grounded on spec.md §4.4's rendering rule and on seehuhn-go-pdf's own
// demo/image pattern of placing a raster via `cm`/`Do` (internal/pdfwrite
// is the condensed adaptation of that writer).
func Render(part *score.Part, sc *score.Score) ([]byte, int, error) {
	pages, err := assignPages(part, part.Header != nil)
	if err != nil {
		return nil, 0, err
	}
	justifyPages(part, pages)

	pageByIndex := make(map[int]*score.Page, len(sc.Pages))
	for _, p := range sc.Pages {
		pageByIndex[p.Index] = p
	}
	for _, region := range part.Regions {
		if src := pageByIndex[region.Page]; src != nil {
			if err := src.EnsureRaster(); err != nil {
				return nil, 0, err
			}
		}
	}
	if part.Header != nil {
		if src := pageByIndex[part.Header.Page]; src != nil {
			if err := src.EnsureRaster(); err != nil {
				return nil, 0, err
			}
		}
	}

	var buf bytes.Buffer
	w, err := pdfwrite.New(&buf)
	if err != nil {
		return nil, 0, err
	}
	doc := pdfwrite.NewDocument(w)

	widthPt := pxToPt(PageWidthPx)
	heightPt := pxToPt(PageHeightPx)

	markingsByStave := make(map[int][]score.AttachedMarking, len(part.Markings))
	for _, m := range part.Markings {
		markingsByStave[m.StaveIndex] = append(markingsByStave[m.StaveIndex], m)
	}

	for pageNum, pa := range pages {
		page := doc.NewPage(widthPt, heightPt)

		if pageNum == 0 && part.Header != nil {
			drawHeader(page, part.Header, pageByIndex)
		}

		for k, regionIdx := range pa.indices {
			region := part.Regions[regionIdx]
			src := pageByIndex[region.Page]
			if src == nil || src.Raster == nil {
				continue
			}
			drawStave(page, src, region, pa.y[k])
			drawMarkings(page, src, region, pa.y[k], markingsByStave[regionIdx])
		}

		if err := page.Close(); err != nil {
			return nil, 0, err
		}
	}

	if err := doc.Close(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(pages), nil
}

func drawStave(page *pdfwrite.Page, src *score.Page, region score.StaffRegion, topY float64) {
	cropRect := image.Rect(0, int(region.TopY), src.WidthPx, int(region.BottomY))
	img := cropAndScale(src.Raster, cropRect, int(ContentWidthPx()), int(region.ScaledHeight))

	topPx := MarginTopPx + topY
	bottomPx := topPx + region.ScaledHeight
	xPt := pxToPt(MarginLeftPx)
	yPt := pxToPt(PageHeightPx - bottomPx)
	page.DrawImage(img, xPt, yPt, pxToPt(ContentWidthPx()), pxToPt(region.ScaledHeight))
}

func drawMarkings(page *pdfwrite.Page, src *score.Page, region score.StaffRegion, staveTopY float64, markings []score.AttachedMarking) {
	if src.WidthPx == 0 {
		return
	}
	scaleFactor := ContentWidthPx() / float64(src.WidthPx)
	for _, m := range markings {
		w := m.Region.W * scaleFactor
		h := m.Region.H * scaleFactor
		if w <= 0 || h <= 0 {
			continue
		}
		cropRect := image.Rect(int(m.Region.X), int(m.Region.Y), int(m.Region.X+m.Region.W), int(m.Region.Y+m.Region.H))
		img := cropAndScale(src.Raster, cropRect, int(w), int(h))

		deltaY := (m.Region.Y - region.TopY) * scaleFactor
		topPx := MarginTopPx + staveTopY + deltaY
		bottomPx := topPx + h
		xPt := pxToPt(MarginLeftPx + m.Region.X*scaleFactor)
		yPt := pxToPt(PageHeightPx - bottomPx)
		page.DrawImage(img, xPt, yPt, pxToPt(w), pxToPt(h))
	}
}

func drawHeader(page *pdfwrite.Page, header *score.Region, pageByIndex map[int]*score.Page) {
	src := pageByIndex[header.Page]
	if src == nil || src.Raster == nil {
		return
	}
	cropRect := image.Rect(int(header.X), int(header.Y), int(header.X+header.W), int(header.Y+header.H))
	img := cropAndScale(src.Raster, cropRect, int(ContentWidthPx()), int(TitleAreaPx))

	xPt := pxToPt(MarginLeftPx)
	yPt := pxToPt(PageHeightPx - MarginTopPx - TitleAreaPx)
	page.DrawImage(img, xPt, yPt, pxToPt(ContentWidthPx()), pxToPt(TitleAreaPx))
}

// cropAndScale crops src to rect (clamped to src's bounds) and rescales
// the crop to exactly outW x outH, the same CatmullRom resampling the
// Rasterizer uses (raster.Rasterize) so crops and full-page rasters share
// one resampling quality.
func cropAndScale(src *image.Gray, rect image.Rectangle, outW, outH int) *image.Gray {
	rect = rect.Intersect(src.Bounds())
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	out := image.NewGray(image.Rect(0, 0, outW, outH))
	if rect.Empty() {
		for i := range out.Pix {
			out.Pix[i] = 255
		}
		return out
	}
	sub := src.SubImage(rect)
	xdraw.CatmullRom.Scale(out, out.Bounds(), sub, rect, xdraw.Over, nil)
	return out
}

func pxToPt(px float64) float64 {
	return px / 300 * 72
}
