package cartoon

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flipbook/internal/screen"
	"github.com/example/flipbook/internal/timer"
)

func newTestPlayer(t *testing.T, cfg Config) (*Player, *screen.Sim, *timer.Fake) {
	t.Helper()
	scr := screen.NewSim("test")
	clock := timer.NewFake()
	p, err := NewPlayer(cfg, scr, clock)
	require.NoError(t, err)
	return p, scr, clock
}

func TestPlayMovieNoLoop(t *testing.T) {
	p, scr, clock := newTestPlayer(t, Config{
		Mode: ModeMovie, FrameWidth: 10, FrameHeight: 10, FrameCount: 3, Delay: 100,
	})

	p.Play()
	// The first frame renders synchronously, no pre-delay.
	assert.Equal(t, []image.Point{{X: 0, Y: 0}}, scr.Offsets())
	assert.True(t, p.Playing())
	d, ok := clock.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 100*time.Millisecond, d)

	clock.Advance(100 * time.Millisecond)
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []image.Point{{0, 0}, {-10, 0}, {-20, 0}}, scr.Offsets())

	// The terminal frame was reached without loop: playback stopped, the
	// last frame stays visible.
	assert.False(t, p.Playing())
	assert.Zero(t, clock.Pending())
	assert.Equal(t, 2, p.SequenceNumber())

	// Playing again finds the sequence exhausted and stays idle.
	p.Play()
	assert.False(t, p.Playing())
	assert.Len(t, scr.Offsets(), 3)
}

func TestPlayWhilePlayingIsNoop(t *testing.T) {
	p, scr, clock := newTestPlayer(t, Config{Mode: ModeMovie, FrameWidth: 8, FrameCount: 4, Delay: 50})
	p.Play()
	p.Play()
	assert.Len(t, scr.Offsets(), 1)
	assert.Equal(t, 1, clock.Pending())
}

func TestSkipFirstOnlyOnFirstAdvance(t *testing.T) {
	p, scr, _ := newTestPlayer(t, Config{
		Mode: ModeMovie, FrameWidth: 10, FrameCount: 4, Delay: 50, SkipFirst: true,
	})
	p.Play()
	assert.Equal(t, 1, p.SequenceNumber())
	assert.Equal(t, []image.Point{{-10, 0}}, scr.Offsets())
}

func TestVarSequencePerFrameDelays(t *testing.T) {
	p, scr, clock := newTestPlayer(t, Config{
		Mode: ModeVarSequence, FrameWidth: 10,
		Sequence: []int{0, 50, 1, 100, 2, 150},
		Loop:     true, Delay: 999,
	})

	p.Play() // frame 0
	d, _ := clock.NextDelay()
	assert.Equal(t, 50*time.Millisecond, d, "delay paired with the frame just shown")

	clock.Fire() // frame 1
	d, _ = clock.NextDelay()
	assert.Equal(t, 100*time.Millisecond, d)

	clock.Fire() // frame 2, Last: its own pair heads the loop-closing chain
	d, _ = clock.NextDelay()
	assert.Equal(t, 150*time.Millisecond, d)

	clock.Fire() // wrapped to frame 0
	assert.Equal(t, 0, p.SequenceNumber())
	d, _ = clock.NextDelay()
	assert.Equal(t, 50*time.Millisecond, d)

	assert.Equal(t, []image.Point{{0, 0}, {-10, 0}, {-20, 0}, {0, 0}}, scr.Offsets())
}

func TestVarSequenceZeroPairFallsBack(t *testing.T) {
	// A 0 ms pair must not schedule an immediate re-fire; it falls back to
	// the base delay, same as a dangling trailing frame.
	p, _, clock := newTestPlayer(t, Config{
		Mode: ModeVarSequence, FrameWidth: 10,
		Sequence: []int{0, 0, 1, 40, 2},
		Delay:    100,
	})

	p.Play() // frame 0, pair delay 0
	d, _ := clock.NextDelay()
	assert.Equal(t, 100*time.Millisecond, d)

	clock.Fire() // frame 1
	d, _ = clock.NextDelay()
	assert.Equal(t, 40*time.Millisecond, d)
}

func TestLoopClosingDelay(t *testing.T) {
	p, _, clock := newTestPlayer(t, Config{
		Mode: ModeSequence, FrameWidth: 10,
		Sequence: []int{2, 0, 1},
		Loop:     true, Delay: 40, LoopDelay: 400,
	})

	p.Play()
	d, _ := clock.NextDelay()
	assert.Equal(t, 40*time.Millisecond, d)

	clock.Fire()
	clock.Fire() // Last
	d, _ = clock.NextDelay()
	assert.Equal(t, 400*time.Millisecond, d, "loopDelay overrides delay on the loop-closing transition")

	clock.Fire() // Wrapped
	d, _ = clock.NextDelay()
	assert.Equal(t, 40*time.Millisecond, d)
}

func TestLoopClosingDelayChain(t *testing.T) {
	// Exercised on a raw config so the delay floor from Normalize does not
	// mask the final fallback.
	cfg := &Config{Mode: ModeSequence, Sequence: []int{1, 2}, Loop: true}
	p := &Player{cfg: cfg, seq: NewSequencer(cfg)}

	assert.Equal(t, time.Duration(fallbackDelayMs)*time.Millisecond, p.nextDelay(1, Last))

	cfg.LoopDelay = 200
	assert.Equal(t, 200*time.Millisecond, p.nextDelay(1, Last))

	cfg.Delay = 60
	assert.Equal(t, 200*time.Millisecond, p.nextDelay(1, Last), "loopDelay still wins")

	cfg.LoopDelay = 0
	assert.Equal(t, 60*time.Millisecond, p.nextDelay(1, Last))

	vcfg := &Config{Mode: ModeVarSequence, Sequence: []int{0, 30, 1, 70}, Loop: true, LoopDelay: 500}
	vp := &Player{cfg: vcfg, seq: NewSequencer(vcfg)}
	assert.Equal(t, 70*time.Millisecond, vp.nextDelay(1, Last), "the frame's own pair heads the chain")
}

func TestOnLastFrameOncePerPass(t *testing.T) {
	var calls int
	p, _, clock := newTestPlayer(t, Config{
		Mode: ModeSequence, FrameWidth: 10,
		Sequence: []int{2, 0, 1},
		Loop:     true, Delay: 50,
		OnLastFrame: func(*Player) { calls++ },
	})

	p.Play()           // pos 0
	clock.Fire()       // pos 1
	assert.Zero(t, calls)
	clock.Fire()       // pos 2, Last
	assert.Equal(t, 1, calls)
	clock.Fire()       // Wrapped: no callback
	assert.Equal(t, 1, calls)
	clock.Fire()       // pos 1
	clock.Fire()       // pos 2, Last again: second pass
	assert.Equal(t, 2, calls)
}

func TestOnLastFrameNeverOnExhausted(t *testing.T) {
	var calls int
	p, _, clock := newTestPlayer(t, Config{
		Mode: ModeMovie, FrameWidth: 10, FrameCount: 2, Delay: 50,
		OnLastFrame: func(*Player) { calls++ },
	})
	p.Play()
	clock.Fire() // Last, no loop: idle
	assert.Equal(t, 1, calls)
	p.Play() // exhausted
	p.Play()
	assert.Equal(t, 1, calls)
}

func TestOnLastFrameMayStopTheLoop(t *testing.T) {
	// The callback runs outside the lock, so it can drive the player.
	p, _, clock := newTestPlayer(t, Config{
		Mode: ModeMovie, FrameWidth: 10, FrameCount: 2, Delay: 50, Loop: true,
		OnLastFrame: func(pl *Player) { pl.Stop() },
	})
	p.Play()
	clock.Fire() // Last; callback stops playback
	assert.False(t, p.Playing())
	assert.Zero(t, clock.Pending())
}

func TestStopKeepsPosition(t *testing.T) {
	p, scr, clock := newTestPlayer(t, Config{Mode: ModeMovie, FrameWidth: 10, FrameCount: 5, Delay: 50})
	p.Play()
	clock.Fire()
	p.Stop()
	assert.False(t, p.Playing())
	assert.Equal(t, 1, p.SequenceNumber())
	assert.Zero(t, clock.Pending())

	// Resume picks up where it left off.
	p.Play()
	assert.Equal(t, 2, p.SequenceNumber())
	assert.Len(t, scr.Offsets(), 3)
}

func TestStopThenPlaySingleChain(t *testing.T) {
	p, _, clock := newTestPlayer(t, Config{Mode: ModeMovie, FrameWidth: 10, FrameCount: 10, Delay: 50, Loop: true})
	p.Play()
	assert.Equal(t, 1, clock.Pending())
	p.Stop()
	assert.Zero(t, clock.Pending())
	p.Play()
	assert.Equal(t, 1, clock.Pending(), "exactly one live timer chain")
	clock.Fire()
	assert.Equal(t, 1, clock.Pending())
}

// leakyScheduler mimics a timer that already fired when Cancel arrives: the
// callback still runs. The player's generation guard must swallow it.
type leakyScheduler struct {
	fns []func()
}

func (l *leakyScheduler) Schedule(d time.Duration, fn func()) timer.Handle {
	l.fns = append(l.fns, fn)
	return len(l.fns) - 1
}

func (l *leakyScheduler) Cancel(h timer.Handle) {}

func TestStaleCallbackAfterStopIsIgnored(t *testing.T) {
	scr := screen.NewSim("test")
	sched := &leakyScheduler{}
	p, err := NewPlayer(Config{Mode: ModeMovie, FrameWidth: 10, FrameCount: 10, Delay: 50}, scr, sched)
	require.NoError(t, err)

	p.Play()
	require.Len(t, sched.fns, 1)
	p.Stop()

	stale := sched.fns[0]
	stale() // fires anyway, as a real timer might
	assert.False(t, p.Playing())
	assert.Len(t, scr.Offsets(), 1, "stale callback must not advance")

	p.Play()
	assert.Len(t, scr.Offsets(), 2)
	stale() // still dead after the restart
	assert.Len(t, scr.Offsets(), 2)
	assert.Len(t, sched.fns, 2, "one fresh chain, no duplicates")
}

func TestStepCodes(t *testing.T) {
	p, scr, clock := newTestPlayer(t, Config{Mode: ModeMovie, FrameWidth: 10, FrameCount: 3, Delay: 50})
	var codes []Progress
	for i := 0; i < 4; i++ {
		codes = append(codes, p.Step())
	}
	assert.Equal(t, []Progress{Advanced, Advanced, Last, Exhausted}, codes)
	assert.Len(t, scr.Offsets(), 3, "exhausted steps render nothing")
	assert.Zero(t, clock.Pending(), "stepping never arms timers")
}

func TestSkipToAndRewind(t *testing.T) {
	p, scr, clock := newTestPlayer(t, Config{Mode: ModeSequence, FrameWidth: 10, Sequence: []int{3, 1, 4}, Delay: 50})

	p.SkipTo(2)
	assert.Equal(t, 2, p.SequenceNumber())
	assert.Equal(t, []image.Point{{-40, 0}}, scr.Offsets())

	// Out of range: strict no-op.
	p.SkipTo(3)
	assert.Equal(t, 2, p.SequenceNumber())
	assert.Len(t, scr.Offsets(), 1)

	// Negative clamps to 0.
	p.SkipTo(-9)
	assert.Equal(t, 0, p.SequenceNumber())

	p.SkipTo(1)
	p.Rewind()
	assert.Equal(t, 0, p.SequenceNumber())
	last, ok := scr.Last()
	require.True(t, ok)
	assert.Equal(t, image.Point{X: -30, Y: 0}, last, "frame 3 sits at position 0")

	assert.Zero(t, clock.Pending(), "skips bypass the timer loop")
}

func TestDisplayFrameBypassesSequencer(t *testing.T) {
	p, scr, _ := newTestPlayer(t, Config{Mode: ModeMovie, FrameWidth: 10, FrameCount: 3, Delay: 50})
	p.DisplayFrame(7)
	assert.Equal(t, []image.Point{{-70, 0}}, scr.Offsets())
	assert.Equal(t, -1, p.SequenceNumber(), "position untouched")

	p.DisplayFrame(-1)
	assert.Len(t, scr.Offsets(), 1)
}

func TestSequenceNumberBeforeStart(t *testing.T) {
	p, _, _ := newTestPlayer(t, Config{Mode: ModeMovie, FrameWidth: 10, FrameCount: 3})
	assert.Equal(t, -1, p.SequenceNumber())
}

func TestVerticalOffsets(t *testing.T) {
	cfg := mustConfig(t, Config{
		Mode: ModeMovie, FrameCount: 5, Orientation: Vertical,
		FrameWidth: 10, FrameHeight: 12, OffsetX: 2, OffsetY: 3,
	})
	scr := screen.NewSim("test")
	r := NewRenderer(cfg, scr)

	x, y := r.Offset(2)
	assert.Equal(t, -2, x)
	assert.Equal(t, -27, y)

	cfg.Orientation = Horizontal
	x, y = r.Offset(2)
	assert.Equal(t, -22, x)
	assert.Equal(t, -3, y)
}

func TestConfigureSwapsDelays(t *testing.T) {
	p, _, clock := newTestPlayer(t, Config{Mode: ModeMovie, FrameWidth: 10, FrameCount: 10, Delay: 50})
	p.Play()

	d := 500.0
	require.NoError(t, p.Configure(Patch{Delay: &d}))
	clock.Fire()
	next, ok := clock.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, next, "new delay takes effect from the next tick")

	// An invalid patch changes nothing.
	bad := "zoetrope"
	err := p.Configure(Patch{Mode: &bad})
	assert.Error(t, err)
	assert.Equal(t, ModeMovie, p.Config().Mode)
}

func TestDestroy(t *testing.T) {
	p, scr, clock := newTestPlayer(t, Config{Mode: ModeMovie, FrameWidth: 10, FrameCount: 5, Delay: 50})
	p.Play()
	p.Destroy()

	assert.False(t, p.Playing())
	assert.Zero(t, clock.Pending())
	last, _ := scr.Last()
	assert.Equal(t, image.Point{}, last, "destroy rewinds to frame 0")

	rendered := len(scr.Offsets())
	p.Play()
	p.SkipTo(1)
	p.DisplayFrame(2)
	assert.Equal(t, Exhausted, p.Step())
	assert.Error(t, p.Configure(Patch{}))
	assert.Len(t, scr.Offsets(), rendered, "destroyed player renders nothing")
}
