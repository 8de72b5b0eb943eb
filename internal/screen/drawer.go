package screen

import (
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	ansi "periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// Drawer blits a sprite sheet onto any periph display.Drawer at the applied
// offset. The drawer's bounds act as the visible frame window, so the
// source point of the draw is the negated offset.
type Drawer struct {
	id string

	mu    sync.Mutex
	d     display.Drawer
	sheet image.Image
}

// NewDrawer wraps an already-open drawer.
func NewDrawer(id string, d display.Drawer, sheet image.Image) *Drawer {
	return &Drawer{id: id, d: d, sheet: sheet}
}

// OpenSPI initializes the host, opens the first SPI port and drives an NRZ
// LED chain sized for one frame. When no SPI port is available it falls
// back to an ANSI console drawer so development machines still show output.
func OpenSPI(id string, sheet image.Image, frameW, frameH int, hz physic.Frequency) (*Drawer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	port, err := spireg.Open("")
	if err != nil {
		return NewDrawer(id, ansi.New(frameW), sheet), nil
	}
	opts := nrzled.Opts{
		NumPixels: frameW * frameH,
		Channels:  3,
		Freq:      hz,
	}
	d, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	_ = d.Halt()
	return NewDrawer(id, d, sheet), nil
}

func (s *Drawer) ID() string { return s.id }

// SetSheet swaps the sheet image, e.g. after reconfiguration.
func (s *Drawer) SetSheet(img image.Image) {
	s.mu.Lock()
	s.sheet = img
	s.mu.Unlock()
}

func (s *Drawer) ApplyOffset(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheet == nil {
		return nil
	}
	return s.d.Draw(s.d.Bounds(), s.sheet, image.Point{X: -x, Y: -y})
}

func (s *Drawer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Halt()
}
