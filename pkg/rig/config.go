// Package rig holds the rig configuration and the serial link to the winch
// controller board.
package rig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gwillem/origami/pkg/kinematics"
	"github.com/gwillem/origami/pkg/motor"
	"github.com/gwillem/origami/pkg/tension"
)

const DefaultConfigFile = "origami.json"

// EnvPrefix prefixes environment overrides, e.g. ORIGAMI_MOTOR_STOP_VALUE.
const EnvPrefix = "ORIGAMI"

// Config holds the rig configuration
type Config struct {
	Port     string `json:"port" mapstructure:"port"`
	BaudRate int    `json:"baud_rate" mapstructure:"baud_rate"`
	Hz       int    `json:"hz" mapstructure:"hz"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`

	Hand     HandConfig          `json:"hand" mapstructure:"hand"`
	Input    InputConfig         `json:"input" mapstructure:"input"`
	Geometry kinematics.Geometry `json:"geometry" mapstructure:"geometry"`
	Motor    motor.Params        `json:"motor" mapstructure:"motor"`
}

// HandConfig configures the landmark source and the tension estimator.
type HandConfig struct {
	Listen      string              `json:"listen" mapstructure:"listen"`
	Timeout     time.Duration       `json:"timeout" mapstructure:"timeout"`
	MinPalmSize float64             `json:"min_palm_size" mapstructure:"min_palm_size"`
	Fingers     tension.Calibration `json:"fingers" mapstructure:"fingers"`
}

// InputConfig configures the keyboard override.
type InputConfig struct {
	Step    float64       `json:"step" mapstructure:"step"`
	KeyHold time.Duration `json:"key_hold" mapstructure:"key_hold"`
}

// DefaultConfig returns the configuration of the prototype rig.
func DefaultConfig() Config {
	return Config{
		BaudRate: 115200,
		Hz:       60,
		LogLevel: "info",
		Hand: HandConfig{
			Listen:      "127.0.0.1:5005",
			Timeout:     time.Second,
			MinPalmSize: tension.DefaultMinPalmSize,
			Fingers:     tension.DefaultCalibration(),
		},
		Input: InputConfig{
			Step:    tension.DefaultStep,
			KeyHold: 150 * time.Millisecond,
		},
		Geometry: kinematics.DefaultGeometry(),
		Motor:    motor.DefaultParams(),
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("port", d.Port)
	v.SetDefault("baud_rate", d.BaudRate)
	v.SetDefault("hz", d.Hz)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("hand.listen", d.Hand.Listen)
	v.SetDefault("hand.timeout", d.Hand.Timeout)
	v.SetDefault("hand.min_palm_size", d.Hand.MinPalmSize)
	for _, w := range tension.AllWires() {
		v.SetDefault("hand.fingers."+string(w)+".extended", d.Hand.Fingers[w].Extended)
		v.SetDefault("hand.fingers."+string(w)+".curled", d.Hand.Fingers[w].Curled)
	}

	v.SetDefault("input.step", d.Input.Step)
	v.SetDefault("input.key_hold", d.Input.KeyHold)

	v.SetDefault("geometry.segments", d.Geometry.Segments)
	v.SetDefault("geometry.segment_height", d.Geometry.SegmentHeight)
	v.SetDefault("geometry.radius", d.Geometry.Radius)
	v.SetDefault("geometry.panels", d.Geometry.Panels)
	v.SetDefault("geometry.bend_sensitivity", d.Geometry.BendSensitivity)
	v.SetDefault("geometry.max_twist_deg", d.Geometry.MaxTwistDeg)
	v.SetDefault("geometry.max_bend_deg", d.Geometry.MaxBendDeg)
	v.SetDefault("geometry.min_height_ratio", d.Geometry.MinHeightRatio)
	v.SetDefault("geometry.min_radius_ratio", d.Geometry.MinRadiusRatio)
	v.SetDefault("geometry.wire_base_scale", d.Geometry.WireBaseScale)
	v.SetDefault("geometry.wire_head_scale", d.Geometry.WireHeadScale)

	v.SetDefault("motor.stop_value", d.Motor.StopValue)
	v.SetDefault("motor.speed_gain", d.Motor.SpeedGain)
	v.SetDefault("motor.min_power", d.Motor.MinPower)
	v.SetDefault("motor.max_power", d.Motor.MaxPower)
	v.SetDefault("motor.dead_zone", d.Motor.DeadZone)
	v.SetDefault("motor.send_interval", d.Motor.SendInterval)
}

// LoadConfigFrom loads configuration from path, layered over the defaults
// and under ORIGAMI_* environment overrides. A missing file is not an error.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", c.BaudRate)
	}
	if c.Hz <= 0 {
		return fmt.Errorf("hz must be positive, got %d", c.Hz)
	}
	if c.Hand.Timeout < 0 {
		return fmt.Errorf("hand timeout must not be negative, got %s", c.Hand.Timeout)
	}
	if c.Input.Step <= 0 || c.Input.Step > 1 {
		return fmt.Errorf("input step must be in (0,1], got %g", c.Input.Step)
	}
	if err := c.Hand.Fingers.Validate(); err != nil {
		return fmt.Errorf("hand: %w", err)
	}
	if err := c.Geometry.Validate(); err != nil {
		return fmt.Errorf("geometry: %w", err)
	}
	if err := c.Motor.Validate(); err != nil {
		return fmt.Errorf("motor: %w", err)
	}
	return nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
