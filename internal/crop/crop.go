// Package crop turns rendered voter-grid pages into OCR-ready artifacts:
// a vertical stack of the page's 30 sanitized voter cells and a header
// strip carrying assembly/part/street metadata.
package crop

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/votershield/internal/pipeline"
)

const (
	gridRows = 10
	gridCols = 3

	// Content margins of a voter-grid page, as fractions of the page.
	topHeaderPct    = 0.032
	bottomFooterPct = 0.032
	leftMarginPct   = 0.024
	rightMarginPct  = 0.024

	// The voter photo box, relative to the cell. Derived from the 1555x620
	// cell raster of the source rolls.
	photoWidthRatio = 380.0 / 1555.0
	photoTopRatio   = (620.0 - 480.0) / 620.0

	// EPIC identifier region, relative to the cell.
	epicXRatio       = 0.60
	epicYRatio       = 0.25
	epicBottomRatio  = 0.30
	epicPastePadding = 6

	// Header strip height as a fraction of the page.
	streetStripRatio = 0.05

	// Marker placement inside the cell.
	markerScale       = 2
	markerLeftPadPx   = 500
	markerBottomPadPx = 8

	stackPaddingPx = 10
)

// whiten fills r (clamped to img bounds) with white.
func whiten(img *image.NRGBA, r image.Rectangle) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.White, image.Point{}, draw.Src)
}

// erasePhotoRegion whitens the voter photo box in the cell's lower-right
// corner, with 2% padding on every side.
func erasePhotoRegion(cell *image.NRGBA) {
	cw := cell.Bounds().Dx()
	ch := cell.Bounds().Dy()

	left := int(float64(cw) * (1 - photoWidthRatio))
	top := int(float64(ch) * photoTopRatio)

	padX := int(float64(cw) * 0.02)
	padY := int(float64(ch) * 0.02)

	whiten(cell, image.Rect(left-padX, top-padY, cw+padX, ch+padY))
}

// relocateEPICRegion moves the EPIC identifier from the cell's top-right
// corner into the empty bottom-left area, clipping if vertical space runs
// out. This keeps the identifier inside the OCR reading order of the
// remaining text.
func relocateEPICRegion(cell *image.NRGBA) {
	cw := cell.Bounds().Dx()
	ch := cell.Bounds().Dy()

	src := image.Rect(int(float64(cw)*epicXRatio), 10, cw, int(float64(ch)*epicYRatio))
	region := imaging.Crop(cell, src)

	whiten(cell, image.Rect(int(float64(cw)*epicXRatio), 0, cw, int(float64(ch)*epicYRatio)))

	pasteX := epicPastePadding
	pasteY := int(float64(ch)*(1-epicBottomRatio)) + epicPastePadding
	dst := image.Rect(pasteX, pasteY, pasteX+region.Bounds().Dx(), pasteY+region.Bounds().Dy())
	draw.Draw(cell, dst.Intersect(cell.Bounds()), region, image.Point{}, draw.Src)
}

// appendEndMarker pastes the scaled VOTER_END marker over a whitened
// backing rectangle anchored to the cell's bottom.
func appendEndMarker(cell *image.NRGBA, marker image.Image) error {
	ch := cell.Bounds().Dy()

	mw := marker.Bounds().Dx() * markerScale
	mh := marker.Bounds().Dy() * markerScale
	scaled := imaging.Resize(marker, mw, mh, imaging.CatmullRom)

	if mh+markerBottomPadPx > ch {
		return fmt.Errorf("marker too tall (%dpx) for cell height (%dpx)", mh, ch)
	}

	pasteX := markerLeftPadPx
	pasteY := ch - mh - markerBottomPadPx
	dst := image.Rect(pasteX, pasteY, pasteX+mw, pasteY+mh)

	whiten(cell, dst)
	draw.Draw(cell, dst.Intersect(cell.Bounds()), scaled, image.Point{}, draw.Src)
	return nil
}

// saveStreetStrip writes the top strip of the page as the header image.
func saveStreetStrip(page image.Image, outPath string) error {
	b := page.Bounds()
	strip := imaging.Crop(page, image.Rect(0, 0, b.Dx(), int(float64(b.Dy())*streetStripRatio)))
	return imaging.Save(strip, outPath)
}

// Page crops one voter-grid page image and writes two artifacts into
// cropsDir: `<page>_street.png` and `<page>_stacked_crops.jpg`.
func Page(inputJPG, cropsDir string) error {
	if err := os.MkdirAll(cropsDir, 0o750); err != nil {
		return fmt.Errorf("create crops dir: %w", err)
	}

	page, err := imaging.Open(inputJPG)
	if err != nil {
		return fmt.Errorf("open page image %s: %w", inputJPG, err)
	}

	base := filepath.Base(inputJPG)
	pageStem := strings.TrimSuffix(base, filepath.Ext(base))

	if err := saveStreetStrip(page, filepath.Join(cropsDir, pageStem+"_street.png")); err != nil {
		return fmt.Errorf("save street strip for %s: %w", base, err)
	}

	marker, err := Marker()
	if err != nil {
		return err
	}

	b := page.Bounds()
	w := float64(b.Dx())
	h := float64(b.Dy())

	contentX := w * leftMarginPct
	contentY := h * topHeaderPct
	contentW := w - w*leftMarginPct - w*rightMarginPct
	contentH := h - h*topHeaderPct - h*bottomFooterPct

	boxW := contentW / gridCols
	boxH := contentH / gridRows

	cells := make([]*image.NRGBA, 0, gridRows*gridCols)
	for r := range gridRows {
		for c := range gridCols {
			left := int(contentX + float64(c)*boxW)
			upper := int(contentY + float64(r)*boxH)
			rect := image.Rect(left, upper, left+int(boxW), upper+int(boxH))

			cell := imaging.Crop(page, rect)
			erasePhotoRegion(cell)
			relocateEPICRegion(cell)
			if err := appendEndMarker(cell, marker); err != nil {
				return fmt.Errorf("cell (%d,%d) of %s: %w", r, c, base, err)
			}
			cells = append(cells, cell)
		}
	}

	stacked := StackVertically(cells, stackPaddingPx)
	out := filepath.Join(cropsDir, pageStem+"_stacked_crops.jpg")
	if err := imaging.Save(stacked, out); err != nil {
		return fmt.Errorf("save stacked crops for %s: %w", base, err)
	}
	return nil
}

// Pages crops every voter-grid page of one document with a bounded worker
// pool. Each worker writes only its own page's output names, so completion
// order does not affect the result.
func Pages(ctx context.Context, jpgDir, cropsDir string, workers int, progress pipeline.ProgressCallback) error {
	entries, err := os.ReadDir(jpgDir)
	if err != nil {
		return fmt.Errorf("read jpg dir: %w", err)
	}

	var pages []string
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".jpg") && strings.Contains(name, "_page_") {
			pages = append(pages, filepath.Join(jpgDir, e.Name()))
		}
	}
	sort.Strings(pages)

	slog.Info("cropping voter pages", "pages", len(pages), "workers", workers)

	return pipeline.RunPool(ctx, pages, pipeline.PoolConfig{
		MaxWorkers:       workers,
		ProgressCallback: progress,
	}, func(_ context.Context, page string) error {
		return Page(page, cropsDir)
	})
}
