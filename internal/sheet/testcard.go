package sheet

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// TestCard generates an n-frame horizontal strip where each frame is a
// solid hue step around the wheel, with f+1 white marker pixels down the
// left edge of frame f. It stands in when a cartoon has no sheet asset.
func TestCard(n, frameW, frameH int) *Sheet {
	if n <= 0 {
		n = 1
	}
	if frameW <= 0 {
		frameW = 1
	}
	if frameH <= 0 {
		frameH = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, n*frameW, frameH))
	white := color.RGBA{255, 255, 255, 255}
	for f := 0; f < n; f++ {
		c := colorful.Hsv(float64(f)/float64(n)*360.0, 1, 1)
		r, g, b := c.Clamped().RGB255()
		fill := color.RGBA{r, g, b, 255}
		for y := 0; y < frameH; y++ {
			for x := 0; x < frameW; x++ {
				img.SetRGBA(f*frameW+x, y, fill)
			}
		}
		for y := 0; y <= f && y < frameH; y++ {
			img.SetRGBA(f*frameW, y, white)
		}
	}
	return &Sheet{Img: img, FrameW: frameW, FrameH: frameH}
}
