package rig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/origami/pkg/tension"
)

func TestLoadConfigFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), *cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 93, cfg.Motor.StopValue)
	assert.Equal(t, 50*time.Millisecond, cfg.Motor.SendInterval)
	assert.Equal(t, 8, cfg.Geometry.Segments)
	assert.Equal(t, time.Second, cfg.Hand.Timeout)
}

func TestLoadConfigFrom_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "origami.json")
	data := `{
  "port": "/dev/ttyUSB0",
  "motor": {"stop_value": 91, "send_interval": "100ms"},
  "geometry": {"segments": 6},
  "hand": {"timeout": "250ms", "fingers": {"up": {"extended": 2.0, "curled": 0.8}}}
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 91, cfg.Motor.StopValue)
	assert.Equal(t, 100*time.Millisecond, cfg.Motor.SendInterval)
	assert.Equal(t, 87, cfg.Motor.MaxPower)
	assert.Equal(t, 6, cfg.Geometry.Segments)
	assert.Equal(t, 30.0, cfg.Geometry.Radius)
	assert.Equal(t, tension.FingerCalibration{Extended: 2.0, Curled: 0.8}, cfg.Hand.Fingers[tension.Up])
	assert.Equal(t, tension.FingerCalibration{Extended: 1.8, Curled: 0.7}, cfg.Hand.Fingers[tension.Right])
	assert.Equal(t, 250*time.Millisecond, cfg.Hand.Timeout)
	assert.Equal(t, "127.0.0.1:5005", cfg.Hand.Listen)
}

func TestLoadConfigFrom_EnvOverride(t *testing.T) {
	t.Setenv("ORIGAMI_MOTOR_STOP_VALUE", "92")
	t.Setenv("ORIGAMI_PORT", "/dev/ttyACM1")

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, 92, cfg.Motor.StopValue)
	assert.Equal(t, "/dev/ttyACM1", cfg.Port)
}

func TestLoadConfigFrom_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "origami.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port":`), 0644))

	_, err := LoadConfigFrom(path)
	assert.Error(t, err)
}

func TestConfig_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "origami.json")

	cfg := DefaultConfig()
	cfg.Port = "/dev/cu.usbserial-1410"
	cfg.Hand.Fingers[tension.Left] = tension.FingerCalibration{Extended: 1.9, Curled: 0.65}
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero hz", func(c *Config) { c.Hz = 0 }},
		{"zero baud", func(c *Config) { c.BaudRate = 0 }},
		{"big step", func(c *Config) { c.Input.Step = 2 }},
		{"negative hand timeout", func(c *Config) { c.Hand.Timeout = -time.Second }},
		{"flat finger", func(c *Config) { c.Hand.Fingers[tension.Down] = tension.FingerCalibration{Extended: 1, Curled: 1} }},
		{"bad geometry", func(c *Config) { c.Geometry.Segments = 0 }},
		{"bad motor", func(c *Config) { c.Motor.MaxPower = 120 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
