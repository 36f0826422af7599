// Package videocar drives a camera car from the keyboard.
//
// The car has a serial motor controller for the drive wheels and a Feetech
// servo bus for steering and a pan/tilt camera. Speed and steering ramp
// toward their targets at a fixed rate, and the car coasts to a stop when
// the operator lets go of the movement keys.
//
// # Installation
//
//	go install github.com/gwillem/videocar/cmd/videocar@latest
//
// # Usage
//
// First, run setup to find the serial ports and calibrate the servos:
//
//	videocar setup
//
// Then drive:
//
//	videocar drive
//
// Without hardware, drive against a simulated car:
//
//	videocar drive --sim
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/videocar: CLI with drive, setup and info commands
//   - pkg/car: Chassis, servo calibration and motor link
//   - pkg/teleop: Control loop, key dispatch and watchdog
//   - pkg/media: Music, sounds, speech, photos and the camera stream
//   - pkg/telemetry: State publishing over MQTT
//   - pkg/config: Configuration loading
package videocar
