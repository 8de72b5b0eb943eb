package sheet

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Sheet is a decoded sprite sheet plus its frame geometry. Frames are laid
// out in a single strip along one axis.
type Sheet struct {
	Img      image.Image
	FrameW   int
	FrameH   int
	Vertical bool
}

// Load decodes a png or jpeg sprite sheet from disk.
func Load(path string, frameW, frameH int, vertical bool) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &Sheet{Img: img, FrameW: frameW, FrameH: frameH, Vertical: vertical}, nil
}

// Frames is how many whole frames fit along the sheet's frame axis.
func (s *Sheet) Frames() int {
	b := s.Img.Bounds()
	if s.Vertical {
		if s.FrameH <= 0 {
			return 0
		}
		return b.Dy() / s.FrameH
	}
	if s.FrameW <= 0 {
		return 0
	}
	return b.Dx() / s.FrameW
}

// Rect is the sheet rectangle covered by frame i.
func (s *Sheet) Rect(i int) image.Rectangle {
	b := s.Img.Bounds()
	if s.Vertical {
		return image.Rect(b.Min.X, b.Min.Y+i*s.FrameH, b.Min.X+s.FrameW, b.Min.Y+(i+1)*s.FrameH)
	}
	return image.Rect(b.Min.X+i*s.FrameW, b.Min.Y, b.Min.X+(i+1)*s.FrameW, b.Min.Y+s.FrameH)
}

// Frame copies frame i out of the sheet.
func (s *Sheet) Frame(i int) *image.RGBA {
	r := s.Rect(i)
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Copy(dst, image.Point{}, s.Img, r, xdraw.Over, nil)
	return dst
}

// ScaleTo resamples the whole strip so one frame fits w×h, keeping the
// frame grid intact. Used when the output surface is smaller than the art,
// e.g. an LED matrix.
func (s *Sheet) ScaleTo(w, h int) *Sheet {
	n := s.Frames()
	if n <= 0 || w <= 0 || h <= 0 {
		return s
	}
	var dst *image.RGBA
	if s.Vertical {
		dst = image.NewRGBA(image.Rect(0, 0, w, h*n))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w*n, h))
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), s.Img, s.Img.Bounds(), xdraw.Over, nil)
	return &Sheet{Img: dst, FrameW: w, FrameH: h, Vertical: s.Vertical}
}
