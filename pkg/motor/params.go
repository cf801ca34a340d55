// Package motor converts tension changes into proportional speed commands
// for the continuous-rotation winch servos of the rig.
package motor

import (
	"fmt"
	"math"
	"time"
)

// Params holds the tuning of the proportional speed controller.
type Params struct {
	// StopValue is the command at which a winch servo holds still (90..94 on most units).
	StopValue int `json:"stop_value" mapstructure:"stop_value"`
	// SpeedGain converts a tension change per interval into servo power.
	SpeedGain float64 `json:"speed_gain" mapstructure:"speed_gain"`
	// MinPower is the smallest offset that actually turns the servo.
	MinPower int `json:"min_power" mapstructure:"min_power"`
	// MaxPower bounds the offset from StopValue.
	MaxPower int `json:"max_power" mapstructure:"max_power"`
	// DeadZone is the tension change below which a wire is left stopped.
	DeadZone float64 `json:"dead_zone" mapstructure:"dead_zone"`
	// SendInterval is the minimum time between two commands.
	SendInterval time.Duration `json:"send_interval" mapstructure:"send_interval"`
}

// DefaultParams returns the tuning used on the prototype rig.
func DefaultParams() Params {
	return Params{
		StopValue:    93,
		SpeedGain:    800,
		MinPower:     10,
		MaxPower:     87,
		DeadZone:     0.005,
		SendInterval: 50 * time.Millisecond,
	}
}

// Validate checks that every command stays inside the servo range [0,180]
// and that the power band is well formed.
func (p Params) Validate() error {
	if p.MinPower < 0 || p.MinPower > p.MaxPower {
		return fmt.Errorf("power band [%d,%d] is invalid", p.MinPower, p.MaxPower)
	}
	if p.StopValue-p.MaxPower < 0 || p.StopValue+p.MaxPower > 180 {
		return fmt.Errorf("stop value %d with max power %d leaves the servo range", p.StopValue, p.MaxPower)
	}
	if p.SpeedGain <= 0 {
		return fmt.Errorf("speed gain must be positive, got %g", p.SpeedGain)
	}
	if p.DeadZone < 0 {
		return fmt.Errorf("dead zone must not be negative, got %g", p.DeadZone)
	}
	if p.SendInterval <= 0 {
		return fmt.Errorf("send interval must be positive, got %s", p.SendInterval)
	}
	return nil
}

// Speed returns the command for one wire whose tension moved from previous
// to current during the last interval. Winding (tension rising) goes above
// StopValue, unwinding below it.
func (p Params) Speed(current, previous float64) int {
	delta := current - previous
	absDelta := math.Abs(delta)

	if absDelta < p.DeadZone {
		return p.StopValue
	}

	power := absDelta * p.SpeedGain
	power = min(max(power, float64(p.MinPower)), float64(p.MaxPower))
	step := int(math.Floor(power))

	if delta > 0 {
		return p.StopValue + step
	}
	return p.StopValue - step
}

// Stop returns the command that holds every winch still.
func (p Params) Stop() Command {
	s := p.StopValue
	return Command{Up: s, Down: s, Left: s, Right: s}
}
