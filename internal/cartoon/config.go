package cartoon

import (
	"fmt"
	"strings"
)

// Mode selects how a sequence position maps to a source frame.
type Mode string

const (
	ModeMovie       Mode = "movie"       // frames play in sheet order
	ModeSequence    Mode = "sequence"    // explicit frame order
	ModeVarSequence Mode = "varsequence" // interleaved (frame,delay) pairs
)

// Orientation is the axis along which frames are laid out in the sheet.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

const (
	// MinDelayMs is the floor for inter-frame delays; lower values clamp up.
	MinDelayMs = 10
	// DefaultDelayMs applies when neither delay nor fps is given.
	DefaultDelayMs = 100
)

// Config describes one cartoon: frame geometry, playback mode and the
// mode-specific parameters. Produce playable instances through Normalize;
// the zero value is not usable directly.
type Config struct {
	Mode        Mode        `yaml:"mode" json:"mode"`
	FrameWidth  int         `yaml:"frame_width" json:"frameWidth"`
	FrameHeight int         `yaml:"frame_height" json:"frameHeight"`
	Orientation Orientation `yaml:"orientation" json:"orientation"`
	OffsetX     int         `yaml:"offset_x" json:"offsetX"`
	OffsetY     int         `yaml:"offset_y" json:"offsetY"`

	// FrameCount is required (>0) in movie mode.
	FrameCount int `yaml:"frame_count" json:"frameCount"`
	// Sequence holds frame indices (sequence mode) or interleaved
	// frame,delay pairs (varsequence mode).
	Sequence []int `yaml:"sequence,flow" json:"sequence,omitempty"`

	// FPS is input-only: Normalize converts a non-zero value to
	// Delay = 1000/fps and consumes it.
	FPS float64 `yaml:"fps" json:"fps,omitempty"`
	// Delay is the inter-frame pause in milliseconds for movie and
	// sequence modes.
	Delay float64 `yaml:"delay" json:"delay"`
	Loop  bool    `yaml:"loop" json:"loop"`
	// LoopDelay, when >0, replaces Delay for the loop-closing transition.
	LoopDelay float64 `yaml:"loop_delay" json:"loopDelay"`
	// SkipFirst makes the very first advancement land on position 1.
	SkipFirst bool `yaml:"skip_first" json:"skipFirst"`

	// OnLastFrame fires once per pass through the terminal position.
	OnLastFrame func(*Player) `yaml:"-" json:"-"`
}

// Normalize merges defaults into c, resolves aliases and derived fields and
// validates the mode-required ones. A validation failure is fatal to setup:
// there is no partial cartoon.
func Normalize(c Config) (Config, error) {
	mode, err := parseMode(string(c.Mode))
	if err != nil {
		return Config{}, err
	}
	c.Mode = mode

	switch strings.ToLower(string(c.Orientation)) {
	case "", string(Horizontal):
		c.Orientation = Horizontal
	case string(Vertical):
		c.Orientation = Vertical
	default:
		return Config{}, fmt.Errorf("unrecognized orientation %q", c.Orientation)
	}

	if c.FPS != 0 {
		c.Delay = 1000 / c.FPS
		c.FPS = 0
	}
	if c.Delay == 0 {
		c.Delay = DefaultDelayMs
	}
	if c.Delay < MinDelayMs {
		c.Delay = MinDelayMs
	}
	if c.LoopDelay < 0 {
		c.LoopDelay = 0
	}
	if c.FrameCount < 0 {
		c.FrameCount = 0
	}

	switch c.Mode {
	case ModeMovie:
		if c.FrameCount == 0 {
			return Config{}, fmt.Errorf("movie mode requires frame_count > 0")
		}
	case ModeSequence, ModeVarSequence:
		if len(c.Sequence) == 0 {
			return Config{}, fmt.Errorf("%s mode requires a non-empty sequence", c.Mode)
		}
	}
	return c, nil
}

// parseMode accepts case-insensitive aliases: exact "movie" (or empty, the
// default), any "seq…" prefix for sequence, any "var…" prefix for
// varsequence.
func parseMode(raw string) (Mode, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "" || s == string(ModeMovie):
		return ModeMovie, nil
	case strings.HasPrefix(s, "seq"):
		return ModeSequence, nil
	case strings.HasPrefix(s, "var"):
		return ModeVarSequence, nil
	}
	return "", fmt.Errorf("unrecognized mode %q", raw)
}

// Patch is a partial configuration; nil fields keep their current value.
type Patch struct {
	Mode        *string  `json:"mode,omitempty"`
	FrameWidth  *int     `json:"frameWidth,omitempty"`
	FrameHeight *int     `json:"frameHeight,omitempty"`
	Orientation *string  `json:"orientation,omitempty"`
	OffsetX     *int     `json:"offsetX,omitempty"`
	OffsetY     *int     `json:"offsetY,omitempty"`
	FrameCount  *int     `json:"frameCount,omitempty"`
	Sequence    []int    `json:"sequence,omitempty"`
	FPS         *float64 `json:"fps,omitempty"`
	Delay       *float64 `json:"delay,omitempty"`
	Loop        *bool    `json:"loop,omitempty"`
	LoopDelay   *float64 `json:"loopDelay,omitempty"`
	SkipFirst   *bool    `json:"skipFirst,omitempty"`
}

// Apply merges p into a copy of c and runs it back through Normalize.
// c itself is unchanged; on error nothing usable is returned.
func (c Config) Apply(p Patch) (Config, error) {
	if p.Mode != nil {
		c.Mode = Mode(*p.Mode)
	}
	if p.FrameWidth != nil {
		c.FrameWidth = *p.FrameWidth
	}
	if p.FrameHeight != nil {
		c.FrameHeight = *p.FrameHeight
	}
	if p.Orientation != nil {
		c.Orientation = Orientation(*p.Orientation)
	}
	if p.OffsetX != nil {
		c.OffsetX = *p.OffsetX
	}
	if p.OffsetY != nil {
		c.OffsetY = *p.OffsetY
	}
	if p.FrameCount != nil {
		c.FrameCount = *p.FrameCount
	}
	if p.Sequence != nil {
		c.Sequence = append([]int(nil), p.Sequence...)
	}
	if p.FPS != nil {
		c.FPS = *p.FPS
	}
	if p.Delay != nil {
		c.Delay = *p.Delay
	}
	if p.Loop != nil {
		c.Loop = *p.Loop
	}
	if p.LoopDelay != nil {
		c.LoopDelay = *p.LoopDelay
	}
	if p.SkipFirst != nil {
		c.SkipFirst = *p.SkipFirst
	}
	return Normalize(c)
}
