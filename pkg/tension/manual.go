package tension

import "time"

// DefaultStep is the tension added per tick while a key is held.
const DefaultStep = 0.015

type binding struct {
	wire Wire
	sign float64
}

// Key bindings: the upper row winds a wire, the row below unwinds it.
var bindings = map[string]binding{
	"q": {Up, +1},
	"a": {Up, -1},
	"w": {Down, +1},
	"s": {Down, -1},
	"e": {Left, +1},
	"d": {Left, -1},
	"r": {Right, +1},
	"f": {Right, -1},
}

type keyState struct {
	last    time.Time
	pending bool
}

// Manual emulates held keys on top of discrete key presses. A key counts as
// held for hold after its last press, which bridges terminal auto-repeat.
// Every press is applied at least once.
type Manual struct {
	step float64
	hold time.Duration
	held map[string]*keyState
}

// NewManual creates a manual override input.
func NewManual(step float64, hold time.Duration) *Manual {
	if step <= 0 {
		step = DefaultStep
	}
	return &Manual{
		step: step,
		hold: hold,
		held: make(map[string]*keyState),
	}
}

// IsBound reports whether key adjusts a wire.
func IsBound(key string) bool {
	_, ok := bindings[key]
	return ok
}

// Press records a key press. It returns false for unbound keys.
func (m *Manual) Press(key string, now time.Time) bool {
	if !IsBound(key) {
		return false
	}
	ks, ok := m.held[key]
	if !ok {
		ks = &keyState{}
		m.held[key] = ks
	}
	ks.last = now
	ks.pending = true
	return true
}

// Release forgets every held key.
func (m *Manual) Release() {
	clear(m.held)
}

// Apply adds one step per held key to v and clamps the result. It returns
// true if any key was active.
func (m *Manual) Apply(v *Vector, now time.Time) bool {
	changed := false
	for key, ks := range m.held {
		if !ks.pending && now.Sub(ks.last) >= m.hold {
			delete(m.held, key)
			continue
		}
		ks.pending = false
		b := bindings[key]
		v.Set(b.wire, v.Get(b.wire)+b.sign*m.step)
		changed = true
	}
	if changed {
		*v = v.Clamp()
	}
	return changed
}
