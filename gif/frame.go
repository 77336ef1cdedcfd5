package gif

import (
	"image"
	"time"
)

// ImageFrame is one fully composed animation frame: the whole logical
// screen with disposal of all prior frames applied.
type ImageFrame struct {
	// ARGB holds width*height pixels, row-major, alpha in the high byte.
	ARGB []uint32

	Width  int
	Height int

	Duration  time.Duration
	Timestamp time.Duration
	Index     int
}

// Image converts the frame to an NRGBA image for use with the standard
// image ecosystem.
func (frame *ImageFrame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i, px := range frame.ARGB {
		img.Pix[4*i+0] = uint8(px >> 16)
		img.Pix[4*i+1] = uint8(px >> 8)
		img.Pix[4*i+2] = uint8(px)
		img.Pix[4*i+3] = uint8(px >> 24)
	}
	return img
}
