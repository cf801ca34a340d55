package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/gwillem/origami/pkg/rig"
)

type Options struct {
	Config string       `short:"c" long:"config" description:"Configuration file (default origami.json)"`
	Run    RunCommand   `command:"run" alias:"teleop" description:"Drive the actuator from hand tracking or the keyboard"`
	Setup  SetupCommand `command:"setup" description:"Pick the serial port and calibrate finger tracking"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Origami - hand-controlled Kresling actuator rig"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

func configPath() string {
	if opts.Config == "" {
		return rig.DefaultConfigFile
	}
	return opts.Config
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*rig.Config, error) {
	cfg, err := rig.LoadConfigFrom(configPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath(), err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string, color bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: !color}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
