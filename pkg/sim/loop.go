// Package sim runs the control pipeline: hand or keyboard input sets the
// wire tensions, the actuator model follows them every tick and the motor
// controller streams speed commands to the rig.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"

	"github.com/gwillem/origami/pkg/handtrack"
	"github.com/gwillem/origami/pkg/kinematics"
	"github.com/gwillem/origami/pkg/motor"
	"github.com/gwillem/origami/pkg/tension"
)

// Source tells which input set the tensions during a tick.
type Source string

// Tension sources.
const (
	SourceIdle     Source = "idle"
	SourceHand     Source = "hand"
	SourceRejected Source = "hand (rejected)"
	SourceManual   Source = "keyboard"
)

// State is a snapshot of one tick.
type State struct {
	Tensions      tension.Vector
	Source        Source
	HandDetected  bool
	Joints        []kinematics.Joint
	Wires         []kinematics.WireLine
	Mesh          [][]kinematics.Triangle
	Head          r3.Vector
	HeadRotation  kinematics.Rotation
	SegmentHeight float64
	BendX         float64
	BendZ         float64
	Compression   float64
	Twist         float64
	Connected     bool
	Command       motor.Command
	Sent          bool
	SimTime       time.Duration
	Timestamp     time.Time
}

// Transport delivers command lines to the rig.
type Transport interface {
	IsConnected() bool
	Write(text string)
}

// Config holds configuration for the loop.
type Config struct {
	Hz          int
	MinPalmSize float64
	Fingers     tension.Calibration
	// HandTimeout drops the last detected hands when no frame arrived for
	// this long. Zero keeps them until the next frame.
	HandTimeout time.Duration
	Step        float64
	KeyHold     time.Duration
	Geometry    kinematics.Geometry
	Motor       motor.Params
}

// Deps are the external collaborators. Detector and Transport may be nil.
type Deps struct {
	Detector  handtrack.Detector
	Transport Transport
	Logger    zerolog.Logger
}

// Loop owns the tension vector and advances the pipeline once per tick.
// Only the loop goroutine mutates the tensions; other goroutines talk to it
// through channels.
type Loop struct {
	cfg    Config
	deps   Deps
	logger zerolog.Logger

	estimator *tension.Estimator
	manual    *tension.Manual
	actuator  *kinematics.Actuator
	motor     *motor.Controller
	slot      *handtrack.Slot

	tensions  tension.Vector
	hands     []handtrack.Hand
	handsAt   time.Time
	lastTick  time.Time
	simTime   time.Duration
	lastCmd   motor.Command
	wasOnline bool

	mu      sync.Mutex
	running bool
	keys    chan string
	stateCh chan State
}

// NewLoop creates a loop. It does not start detection or ticking.
func NewLoop(cfg Config, deps Deps) (*Loop, error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	if err := cfg.Motor.Validate(); err != nil {
		return nil, fmt.Errorf("motor: %w", err)
	}

	l := &Loop{
		cfg:       cfg,
		deps:      deps,
		logger:    deps.Logger,
		estimator: tension.NewEstimator(cfg.Fingers, cfg.MinPalmSize),
		manual:    tension.NewManual(cfg.Step, cfg.KeyHold),
		actuator:  kinematics.NewActuator(cfg.Geometry),
		slot:      handtrack.NewSlot(),
		keys:      make(chan string, 64),
		stateCh:   make(chan State, 1),
	}
	if deps.Transport != nil {
		l.motor = motor.NewController(cfg.Motor, deps.Transport)
		l.lastCmd = l.motor.Stop()
	}
	return l, nil
}

// Hz returns the tick frequency.
func (l *Loop) Hz() int {
	return l.cfg.Hz
}

// States returns a channel that receives the latest state.
func (l *Loop) States() <-chan State {
	return l.stateCh
}

// Press forwards a key press to the manual override. Keys arriving while a
// hand is detected are ignored.
func (l *Loop) Press(key string) {
	select {
	case l.keys <- key:
	default:
	}
}

// Start runs detection and the tick loop until ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("simulation already running")
	}
	l.running = true
	l.mu.Unlock()

	var wg sync.WaitGroup
	defer wg.Wait()

	if d := l.deps.Detector; d != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Run(ctx, l.slot); err != nil && !errors.Is(err, context.Canceled) {
				l.logger.Warn().Err(err).Msg("hand detector stopped, keyboard input only")
			}
		}()
	} else {
		l.logger.Warn().Msg("hand detector unavailable, keyboard input only")
	}

	if l.deps.Transport == nil {
		l.logger.Info().Msg("no transport, simulating only")
	}

	l.logger.Info().Int("hz", l.cfg.Hz).Msg("simulation started")

	ticker := time.NewTicker(time.Second / time.Duration(l.cfg.Hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case now := <-ticker.C:
			l.sendState(l.Step(now))
		}
	}
}

// Step advances the pipeline by one tick at now.
func (l *Loop) Step(now time.Time) State {
	handDetected := l.pollHands(now)
	l.drainKeys(now)

	source := SourceIdle
	if handDetected {
		// hand detection always wins over the keyboard
		l.manual.Release()
		if l.estimator.Update(l.hands[0], &l.tensions) {
			source = SourceHand
		} else {
			source = SourceRejected
		}
	} else if l.manual.Apply(&l.tensions, now) {
		source = SourceManual
	}
	l.tensions = l.tensions.Clamp()

	l.actuator.Advance(l.tensions)

	connected := l.deps.Transport != nil && l.deps.Transport.IsConnected()
	if connected != l.wasOnline {
		l.logger.Info().Bool("connected", connected).Msg("rig link state changed")
		l.wasOnline = connected
	}

	var sent bool
	if connected {
		var cmd motor.Command
		if cmd, sent = l.motor.MaybeSend(l.tensions, now); sent {
			l.lastCmd = cmd
		}
	}

	if !l.lastTick.IsZero() {
		l.simTime += now.Sub(l.lastTick)
	}
	l.lastTick = now

	bx, bz := l.actuator.Bend()
	return State{
		Tensions:      l.tensions,
		Source:        source,
		HandDetected:  handDetected,
		Joints:        l.actuator.Joints(),
		Wires:         l.actuator.WireLines(),
		Mesh:          l.actuator.Mesh(),
		Head:          l.actuator.HeadPosition(),
		HeadRotation:  l.actuator.HeadRotation(),
		SegmentHeight: l.actuator.SegmentHeight(),
		BendX:         bx,
		BendZ:         bz,
		Compression:   l.actuator.Compression(),
		Twist:         l.actuator.Twist(),
		Connected:     connected,
		Command:       l.lastCmd,
		Sent:          sent,
		SimTime:       l.simTime,
		Timestamp:     now,
	}
}

// pollHands takes the newest detector frame, if any, and reports whether a
// hand is currently present.
func (l *Loop) pollHands(now time.Time) bool {
	if f, ok := l.slot.Poll(); ok {
		l.hands = f.Hands
		l.handsAt = f.Received
		if l.handsAt.IsZero() {
			l.handsAt = now
		}
	}

	d := l.deps.Detector
	if d == nil || !d.Ready() {
		return false
	}
	if l.cfg.HandTimeout > 0 && len(l.hands) > 0 && now.Sub(l.handsAt) > l.cfg.HandTimeout {
		l.logger.Debug().Dur("age", now.Sub(l.handsAt)).Msg("hand frame stale")
		l.hands = nil
	}
	return len(l.hands) > 0
}

func (l *Loop) drainKeys(now time.Time) {
	for {
		select {
		case key := <-l.keys:
			l.manual.Press(key, now)
		default:
			return
		}
	}
}

func (l *Loop) sendState(s State) {
	select {
	case l.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-l.stateCh:
		default:
		}
		l.stateCh <- s
	}
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()

	if t := l.deps.Transport; t != nil && t.IsConnected() {
		t.Write(l.motor.Stop().String())
		l.logger.Info().Msg("winches stopped")
	}
	l.logger.Info().Msg("simulation stopped")
}
