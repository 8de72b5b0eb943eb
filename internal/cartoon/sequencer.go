package cartoon

// Progress classifies the outcome of one advancement step. The four-way
// split lets callers stop scheduling, fire the terminal callback and pick
// the loop-closing delay without re-deriving the sequence length.
type Progress int

const (
	// Exhausted means no step was taken: the sequence is over and loop is off.
	Exhausted Progress = iota
	// Advanced is a normal interior step.
	Advanced
	// Last is the step onto the terminal position.
	Last
	// Wrapped is the loop-closing step back to position 0.
	Wrapped
)

func (p Progress) String() string {
	switch p {
	case Exhausted:
		return "exhausted"
	case Advanced:
		return "advanced"
	case Last:
		return "last"
	case Wrapped:
		return "wrapped"
	}
	return "unknown"
}

// Sequencer maps sequence positions to source frames under the configured
// mode and owns the single current position. -1 means playback never
// started.
type Sequencer struct {
	cfg *Config
	pos int
}

func NewSequencer(cfg *Config) *Sequencer {
	return &Sequencer{cfg: cfg, pos: -1}
}

// Len is the number of sequence positions under the current mode. In
// varsequence mode a dangling trailing frame with no delay still counts as
// a position.
func (s *Sequencer) Len() int {
	switch s.cfg.Mode {
	case ModeSequence:
		return len(s.cfg.Sequence)
	case ModeVarSequence:
		return (len(s.cfg.Sequence) + 1) / 2
	default:
		return s.cfg.FrameCount
	}
}

// Pos returns the current position, -1 before the first advance.
func (s *Sequencer) Pos() int { return s.pos }

// Reset returns the sequencer to the never-started state.
func (s *Sequencer) Reset() { s.pos = -1 }

// FrameAt resolves a position to a source frame. Negative positions clamp
// to 0; positions at or past Len report ok=false. Frame 0 is a legitimate
// in-range result, distinct from "no such position".
func (s *Sequencer) FrameAt(pos int) (frame int, ok bool) {
	if pos < 0 {
		pos = 0
	}
	if pos >= s.Len() {
		return 0, false
	}
	switch s.cfg.Mode {
	case ModeSequence:
		return s.cfg.Sequence[pos], true
	case ModeVarSequence:
		return s.cfg.Sequence[2*pos], true
	default:
		return pos, true
	}
}

// DelayAt returns the delay (ms) paired with pos in varsequence mode, or 0
// when the pair is incomplete or the mode carries no per-frame delays.
func (s *Sequencer) DelayAt(pos int) float64 {
	if s.cfg.Mode != ModeVarSequence || pos < 0 {
		return 0
	}
	i := 2*pos + 1
	if i >= len(s.cfg.Sequence) {
		return 0
	}
	return float64(s.cfg.Sequence[i])
}

// Advance computes the next position and commits it unless the sequence is
// exhausted. On Exhausted the position is left unchanged and the returned
// value must not be treated as new state.
func (s *Sequencer) Advance() (int, Progress) {
	n := s.Len()
	if n == 0 {
		return s.pos, Exhausted
	}
	next := s.pos + 1
	if s.pos < 0 && s.cfg.SkipFirst {
		next = 1
	}
	code := Advanced
	switch {
	case next >= n:
		if !s.cfg.Loop {
			return s.pos, Exhausted
		}
		next, code = 0, Wrapped
	case next == n-1:
		code = Last
	}
	s.pos = next
	return next, code
}

// Seek jumps to pos when it resolves, committing the (possibly clamped)
// position. Out-of-range seeks leave state untouched.
func (s *Sequencer) Seek(pos int) (int, bool) {
	if pos < 0 {
		pos = 0
	}
	frame, ok := s.FrameAt(pos)
	if !ok {
		return 0, false
	}
	s.pos = pos
	return frame, true
}
