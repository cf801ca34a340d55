package motor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/origami/pkg/tension"
)

type recorder struct {
	lines []string
}

func (r *recorder) Write(text string) {
	r.lines = append(r.lines, text)
}

func TestParams_Speed(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name     string
		current  float64
		previous float64
		expected int
	}{
		{"no motion", 0.4, 0.4, 93},
		{"jitter inside dead zone", 0.404, 0.4, 93},
		{"jitter inside dead zone unwinding", 0.396, 0.4, 93},
		{"fast winding saturates", 0.30, 0.10, 180},
		{"fast unwinding saturates", 0.10, 0.30, 6},
		{"slow winding gets min power", 0.406, 0.4, 103},
		{"slow unwinding gets min power", 0.394, 0.4, 83},
		{"proportional winding", 0.55, 0.5, 133},
		{"proportional unwinding", 0.5, 0.55, 53},
		{"power is floored", 0.5204, 0.5, 109},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Speed(tt.current, tt.previous))
		})
	}
}

func TestParams_SpeedBounds(t *testing.T) {
	p := DefaultParams()

	for prev := 0.0; prev <= 1.0; prev += 0.05 {
		for cur := 0.0; cur <= 1.0; cur += 0.0125 {
			cmd := p.Speed(cur, prev)
			delta := cur - prev
			if delta < p.DeadZone && -delta < p.DeadZone {
				assert.Equal(t, p.StopValue, cmd, "cur=%g prev=%g", cur, prev)
				continue
			}
			power := cmd - p.StopValue
			if power < 0 {
				power = -power
			}
			assert.GreaterOrEqual(t, power, p.MinPower, "cur=%g prev=%g", cur, prev)
			assert.LessOrEqual(t, power, p.MaxPower, "cur=%g prev=%g", cur, prev)
		}
	}
}

func TestController_SendsProportionalCommand(t *testing.T) {
	out := &recorder{}
	c := NewController(DefaultParams(), out)
	now := time.Unix(1000, 0)

	// first send establishes the previous snapshot
	cmd, ok := c.MaybeSend(tension.Vector{Up: 0.10}, now)
	require.True(t, ok)
	assert.Equal(t, Command{Up: 173, Down: 93, Left: 93, Right: 93}, cmd)

	cmd, ok = c.MaybeSend(tension.Vector{Up: 0.30}, now.Add(51*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, 180, cmd.Up)
	assert.Equal(t, tension.Vector{Up: 0.30}, c.Previous())

	assert.Equal(t, []string{"173,93,93,93", "180,93,93,93"}, out.lines)
}

func TestController_NoMotionSendsStop(t *testing.T) {
	out := &recorder{}
	c := NewController(DefaultParams(), out)
	now := time.Unix(0, 0)

	v := tension.Vector{Up: 0.2, Down: 0.7, Left: 0.5, Right: 1}
	c.MaybeSend(v, now)
	cmd, ok := c.MaybeSend(v, now.Add(time.Second))
	require.True(t, ok)

	assert.Equal(t, c.Stop(), cmd)
	assert.Equal(t, "93,93,93,93", out.lines[1])

	p := DefaultParams()
	p.StopValue = 91
	assert.Equal(t, "91,91,91,91", p.Stop().String())
}

func TestController_RateLimit(t *testing.T) {
	out := &recorder{}
	c := NewController(DefaultParams(), out)
	start := time.Unix(0, 0)

	// poll at 1 kHz for one second
	for ms := 0; ms < 1000; ms++ {
		c.MaybeSend(tension.Vector{Up: float64(ms) / 1000}, start.Add(time.Duration(ms)*time.Millisecond))
	}

	// strictly more than 50ms apart: sends at 0, 51, 102, ...
	assert.Len(t, out.lines, 20)

	_, ok := c.MaybeSend(tension.Vector{}, start.Add(999*time.Millisecond))
	assert.False(t, ok)
}

func TestController_ComputeDoesNotSend(t *testing.T) {
	out := &recorder{}
	c := NewController(DefaultParams(), out)

	cmd := c.Compute(tension.Vector{Left: 1})
	assert.Equal(t, 180, cmd.Left)
	assert.Empty(t, out.lines)
	assert.Equal(t, tension.Vector{}, c.Previous())
	assert.True(t, c.Due(time.Unix(0, 0)))
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "133,53,93,93", Command{Up: 133, Down: 53, Left: 93, Right: 93}.String())
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"inverted band", func(p *Params) { p.MinPower = 90 }},
		{"above servo range", func(p *Params) { p.StopValue = 100 }},
		{"zero gain", func(p *Params) { p.SpeedGain = 0 }},
		{"negative dead zone", func(p *Params) { p.DeadZone = -0.1 }},
		{"no interval", func(p *Params) { p.SendInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}
