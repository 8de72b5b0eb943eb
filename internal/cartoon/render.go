package cartoon

import "github.com/example/flipbook/internal/screen"

// Renderer turns a frame index into the pixel offset that brings that frame
// into view and applies it to the bound screen.
type Renderer struct {
	cfg *Config
	scr screen.Screen
}

func NewRenderer(cfg *Config, scr screen.Screen) *Renderer {
	return &Renderer{cfg: cfg, scr: scr}
}

func (r *Renderer) Screen() screen.Screen { return r.scr }

// Offset computes the background offset for a frame. Frames advance along
// the orientation axis; the configured offsets are a constant pixel bias.
func (r *Renderer) Offset(frame int) (x, y int) {
	if r.cfg.Orientation == Vertical {
		return -r.cfg.OffsetX, -(frame*r.cfg.FrameHeight + r.cfg.OffsetY)
	}
	return -(frame*r.cfg.FrameWidth + r.cfg.OffsetX), -r.cfg.OffsetY
}

// Show applies the offset for frame to the screen.
func (r *Renderer) Show(frame int) error {
	x, y := r.Offset(frame)
	return r.scr.ApplyOffset(x, y)
}
