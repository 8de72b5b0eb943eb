package cartoon

import (
	"errors"
	"sync"
	"time"

	"github.com/example/flipbook/internal/screen"
	"github.com/example/flipbook/internal/timer"
)

// fallbackDelayMs guards the loop-closing transition against an all-zero
// delay chain so a misconfigured cartoon cannot re-fire immediately.
const fallbackDelayMs = 1000

var errDestroyed = errors.New("player destroyed")

// Player orchestrates timed advancement of one cartoon on one screen.
// "Playing" is keyed by a non-nil timer handle. All methods are safe for
// concurrent use; scheduler callbacks that lost a Stop/Play race abandon
// themselves via the generation counter, so a stop followed immediately by
// a play never yields two live timer chains.
type Player struct {
	mu        sync.Mutex
	cfg       *Config
	seq       *Sequencer
	rend      *Renderer
	sched     timer.Scheduler
	handle    timer.Handle // non-nil while playing
	gen       uint64       // bumped on Stop/Destroy to invalidate stale callbacks
	destroyed bool
}

// NewPlayer runs cfg through the normalization front door and binds it to a
// screen. The scheduler is injected so playback is testable against a fake
// clock. A validation failure aborts construction.
func NewPlayer(cfg Config, scr screen.Screen, sched timer.Scheduler) (*Player, error) {
	norm, err := Normalize(cfg)
	if err != nil {
		return nil, err
	}
	p := &Player{cfg: &norm, sched: sched}
	p.seq = NewSequencer(p.cfg)
	p.rend = NewRenderer(p.cfg, scr)
	return p, nil
}

// Play starts or resumes playback. The first frame renders synchronously;
// there is no pre-delay. No-op while already playing.
func (p *Player) Play() *Player {
	p.mu.Lock()
	if p.destroyed || p.handle != nil {
		p.mu.Unlock()
		return p
	}
	cb := p.tick()
	p.mu.Unlock()
	if cb != nil {
		cb(p)
	}
	return p
}

// Stop pauses playback and keeps the current position.
func (p *Player) Stop() *Player {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
	return p
}

func (p *Player) stopLocked() {
	if p.handle != nil {
		p.sched.Cancel(p.handle)
		p.handle = nil
	}
	// A callback that already fired but has not run yet must not resurrect
	// the chain.
	p.gen++
}

// Step advances exactly once, outside the timer loop, and reports how the
// step went. A step that lands on the terminal position fires OnLastFrame
// like a timed tick would.
func (p *Player) Step() Progress {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return Exhausted
	}
	pos, code := p.seq.Advance()
	var cb func(*Player)
	if code != Exhausted {
		if frame, ok := p.seq.FrameAt(pos); ok {
			_ = p.rend.Show(frame)
		}
		if code == Last {
			cb = p.cfg.OnLastFrame
		}
	}
	p.mu.Unlock()
	if cb != nil {
		cb(p)
	}
	return code
}

// SkipTo jumps to a sequence position without starting or stopping the
// timer loop and without firing OnLastFrame. Positions past the end are
// ignored; negative ones clamp to 0.
func (p *Player) SkipTo(pos int) *Player {
	p.mu.Lock()
	if !p.destroyed {
		if frame, ok := p.seq.Seek(pos); ok {
			_ = p.rend.Show(frame)
		}
	}
	p.mu.Unlock()
	return p
}

// Rewind jumps back to position 0.
func (p *Player) Rewind() *Player { return p.SkipTo(0) }

// DisplayFrame renders an arbitrary source frame, bypassing the sequencer
// entirely. The current position is untouched.
func (p *Player) DisplayFrame(frame int) *Player {
	p.mu.Lock()
	if !p.destroyed && frame >= 0 {
		_ = p.rend.Show(frame)
	}
	p.mu.Unlock()
	return p
}

// SequenceNumber reports the current position, -1 before the first advance.
func (p *Player) SequenceNumber() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq.Pos()
}

// Screen identifies the bound host surface.
func (p *Player) Screen() screen.Screen { return p.rend.Screen() }

// Playing reports whether a timer chain is live.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle != nil
}

// Config returns a copy of the live configuration.
func (p *Player) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.cfg
}

// Configure merges a partial configuration through the normalization front
// door; the swap is all-or-nothing. The current position is not
// re-validated against new bounds — stop, configure, rewind, play is the
// safe order mid-flight.
func (p *Player) Configure(patch Patch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return errDestroyed
	}
	next, err := p.cfg.Apply(patch)
	if err != nil {
		return err
	}
	*p.cfg = next
	return nil
}

// Destroy stops playback, rewinds and renders the player unusable. Every
// later call is a no-op.
func (p *Player) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.stopLocked()
	if frame, ok := p.seq.Seek(0); ok {
		_ = p.rend.Show(frame)
	}
	p.seq.Reset()
	p.destroyed = true
	p.mu.Unlock()
}

// tick performs one advancement under p.mu, renders, and arms the next
// callback unless playback ended. It returns the OnLastFrame callback for
// the caller to invoke after releasing the lock, so the callback may call
// back into the player.
func (p *Player) tick() func(*Player) {
	pos, code := p.seq.Advance()
	if code == Exhausted {
		p.handle = nil
		return nil
	}
	frame, ok := p.seq.FrameAt(pos)
	if !ok {
		// Advance guarantees a resolvable position; treat a miss as
		// exhaustion rather than render garbage.
		p.handle = nil
		return nil
	}
	_ = p.rend.Show(frame)
	if code == Last && !p.cfg.Loop {
		// Terminal frame stays visible; nothing left to schedule.
		p.handle = nil
	} else {
		p.arm(p.nextDelay(pos, code))
	}
	if code == Last {
		return p.cfg.OnLastFrame
	}
	return nil
}

// nextDelay picks the pause that follows the frame just shown at pos. A
// varsequence pair carrying delay 0 (or a dangling trailing frame, which has
// no pair) falls back to the base delay so playback never re-fires
// immediately.
func (p *Player) nextDelay(pos int, code Progress) time.Duration {
	var ms float64
	if code == Last {
		// Loop-closing transition: first non-zero in the chain wins.
		ms = firstNonZero(p.seq.DelayAt(pos), p.cfg.LoopDelay, p.cfg.Delay, fallbackDelayMs)
	} else if d := p.seq.DelayAt(pos); d > 0 {
		ms = d
	} else {
		ms = p.cfg.Delay
	}
	return time.Duration(ms * float64(time.Millisecond))
}

func (p *Player) arm(d time.Duration) {
	gen := p.gen
	p.handle = p.sched.Schedule(d, func() { p.onTimer(gen) })
}

func (p *Player) onTimer(gen uint64) {
	p.mu.Lock()
	if p.destroyed || gen != p.gen || p.handle == nil {
		// Cancelled or superseded while we were in flight.
		p.mu.Unlock()
		return
	}
	p.handle = nil
	cb := p.tick()
	p.mu.Unlock()
	if cb != nil {
		cb(p)
	}
}

func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
