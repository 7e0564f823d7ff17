package crop

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	_ "image/png"
	"sync"
)

// The end-of-record marker is an opaque, bit-stable asset: Tesseract reads
// it back as the literal token VOTER_END, which the extractor uses as the
// record splitter. Do not regenerate or re-encode it.
//
//go:embed assets/voter_end_marker.png
var markerPNG []byte

var (
	markerOnce sync.Once
	markerImg  image.Image
	markerErr  error
)

// Marker returns the shared, read-only end-of-record marker image.
func Marker() (image.Image, error) {
	markerOnce.Do(func() {
		img, _, err := image.Decode(bytes.NewReader(markerPNG))
		if err != nil {
			markerErr = fmt.Errorf("decode embedded marker: %w", err)
			return
		}
		markerImg = img
	})
	return markerImg, markerErr
}
