package cartoon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeModeAliases(t *testing.T) {
	cases := []struct {
		raw  string
		want Mode
	}{
		{"movie", ModeMovie},
		{"MOVIE", ModeMovie},
		{"  Movie ", ModeMovie},
		{"", ModeMovie},
		{"seq", ModeSequence},
		{"Sequence", ModeSequence},
		{"SEQ-CUSTOM", ModeSequence},
		{"var", ModeVarSequence},
		{"VarSequence", ModeVarSequence},
		{"VARSEQ", ModeVarSequence},
	}
	for _, tc := range cases {
		got, err := parseMode(tc.raw)
		require.NoError(t, err, "mode %q", tc.raw)
		assert.Equal(t, tc.want, got, "mode %q", tc.raw)
	}

	_, err := parseMode("slideshow")
	assert.Error(t, err)
}

func TestNormalizeDelays(t *testing.T) {
	base := Config{Mode: ModeMovie, FrameCount: 3}

	c := base
	c.FPS = 25
	n, err := Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, 40.0, n.Delay, "fps converts to 1000/fps")
	assert.Zero(t, n.FPS, "fps is consumed")

	c = base
	c.Delay = 5
	n, err = Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, 10.0, n.Delay, "sub-minimum delay clamps up")

	c = base
	n, err = Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultDelayMs), n.Delay)

	c = base
	c.FPS = 200 // 5ms/frame, below the floor
	n, err = Normalize(c)
	require.NoError(t, err)
	assert.Equal(t, 10.0, n.Delay)

	c = base
	c.LoopDelay = -7
	n, err = Normalize(c)
	require.NoError(t, err)
	assert.Zero(t, n.LoopDelay)
}

func TestNormalizeFatalValidation(t *testing.T) {
	_, err := Normalize(Config{Mode: ModeMovie})
	assert.Error(t, err, "movie without frame_count")

	_, err = Normalize(Config{Mode: "seq"})
	assert.Error(t, err, "sequence without sequence")

	_, err = Normalize(Config{Mode: "var"})
	assert.Error(t, err, "varsequence without sequence")

	_, err = Normalize(Config{Mode: "zoetrope", FrameCount: 4})
	assert.Error(t, err, "unknown mode")

	_, err = Normalize(Config{Mode: ModeMovie, FrameCount: 4, Orientation: "diagonal"})
	assert.Error(t, err, "unknown orientation")
}

func TestNormalizeOrientationDefault(t *testing.T) {
	n, err := Normalize(Config{Mode: ModeMovie, FrameCount: 1})
	require.NoError(t, err)
	assert.Equal(t, Horizontal, n.Orientation)

	n, err = Normalize(Config{Mode: ModeMovie, FrameCount: 1, Orientation: "VERTICAL"})
	require.NoError(t, err)
	assert.Equal(t, Vertical, n.Orientation)
}

func TestApplyPatch(t *testing.T) {
	n, err := Normalize(Config{Mode: ModeMovie, FrameCount: 4, Delay: 50, Loop: true})
	require.NoError(t, err)

	d := 80.0
	loop := false
	got, err := n.Apply(Patch{Delay: &d, Loop: &loop})
	require.NoError(t, err)
	assert.Equal(t, 80.0, got.Delay)
	assert.False(t, got.Loop)
	assert.Equal(t, 4, got.FrameCount, "untouched fields survive")

	// A patch that breaks validation leaves nothing usable behind.
	mode := "seq"
	_, err = n.Apply(Patch{Mode: &mode})
	assert.Error(t, err, "switching to sequence mode without a sequence")

	mode = "var"
	got, err = n.Apply(Patch{Mode: &mode, Sequence: []int{0, 30, 1, 60}})
	require.NoError(t, err)
	assert.Equal(t, ModeVarSequence, got.Mode)
	assert.Equal(t, []int{0, 30, 1, 60}, got.Sequence)
}
