package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Drive DriveCommand `command:"drive" alias:"teleop" description:"Drive the car from the keyboard"`
	Setup SetupCommand `command:"setup" description:"Find the servo bus and motor controller and calibrate the servos"`
	Info  InfoCommand  `command:"info" description:"List serial ports and servo positions"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "videocar - keyboard teleoperation for a camera car"

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
