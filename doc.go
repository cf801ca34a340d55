// Package origami drives a hand-controlled Kresling origami actuator.
//
// A hand landmark detector streams finger positions; the curl of four
// fingers sets the tension of four control wires, a kinematic model of the
// folded tower follows those tensions, and a velocity controller streams
// winch speed commands to the rig over a serial port. Without a hand in
// view the wires can be wound from the keyboard.
//
// # Installation
//
//	go install github.com/gwillem/origami/cmd/origami@latest
//
// # Usage
//
// First, pick the serial port of the winch board and calibrate finger
// tracking:
//
//	origami setup
//
// Then start the rig:
//
//	origami run
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/origami: CLI with setup and run commands
//   - pkg/handtrack: Landmark frames from the external detector
//   - pkg/tension: Finger-to-tension mapping, calibration and keyboard input
//   - pkg/kinematics: Kresling actuator model and mesh
//   - pkg/motor: Proportional speed controller and command format
//   - pkg/rig: Configuration, serial link and port discovery
//   - pkg/sim: Fixed-rate control loop tying it all together
package origami
