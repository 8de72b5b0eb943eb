package screen

import (
	"fmt"
	"image"
	"sync"
)

// Sim records every applied offset; with Trace set it also prints them.
// It is the headless surface for tests and for flipsim.
type Sim struct {
	id    string
	Trace bool

	mu   sync.Mutex
	offs []image.Point
}

func NewSim(id string) *Sim { return &Sim{id: id} }

func (s *Sim) ID() string { return s.id }

func (s *Sim) ApplyOffset(x, y int) error {
	s.mu.Lock()
	s.offs = append(s.offs, image.Point{X: x, Y: y})
	n := len(s.offs)
	s.mu.Unlock()
	if s.Trace {
		fmt.Printf("[%s %04d] offset=(%d,%d)\n", s.id, n, x, y)
	}
	return nil
}

// Offsets returns a copy of everything applied so far.
func (s *Sim) Offsets() []image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]image.Point(nil), s.offs...)
}

// Last returns the most recent offset, ok=false before any render.
func (s *Sim) Last() (image.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.offs) == 0 {
		return image.Point{}, false
	}
	return s.offs[len(s.offs)-1], true
}

func (s *Sim) Close() error { return nil }
