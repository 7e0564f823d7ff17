package crop

import (
	"image"
	"image/draw"
)

// StackVertically concatenates cell images top to bottom on a white
// background, padding narrower cells to the widest width and inserting
// padding pixels between consecutive cells.
func StackVertically(cells []*image.NRGBA, padding int) *image.NRGBA {
	if len(cells) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}

	maxWidth := 0
	totalHeight := padding * (len(cells) - 1)
	for _, c := range cells {
		if w := c.Bounds().Dx(); w > maxWidth {
			maxWidth = w
		}
		totalHeight += c.Bounds().Dy()
	}

	stacked := image.NewNRGBA(image.Rect(0, 0, maxWidth, totalHeight))
	draw.Draw(stacked, stacked.Bounds(), image.White, image.Point{}, draw.Src)

	y := 0
	for _, c := range cells {
		h := c.Bounds().Dy()
		dst := image.Rect(0, y, c.Bounds().Dx(), y+h)
		draw.Draw(stacked, dst, c, c.Bounds().Min, draw.Src)
		y += h + padding
	}
	return stacked
}
