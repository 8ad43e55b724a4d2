// Package robot gives host programs one interface to a wheelbot, whether it
// runs in-process, behind a serial link or in simulation.
package robot

import (
	"time"

	"wheelbot/core"
)

// Controller is the driver layer as seen by host code.
type Controller interface {
	SetMotor(side core.Side, speed int) error
	DriveStraight(speed int) error
	DriveStraightTimed(speed int, d time.Duration) error
	Turn(dir core.SteerDirection, speed int) error
	TurnTimed(dir core.SteerDirection, speed int, d time.Duration) error
	Stop() error

	MeasureDistance(unit core.DistanceUnit) (uint32, error)
	ReadLine(side core.Side) (bool, error)
	ReadLight(side core.Side) (uint16, error)
	SetBuzzer(on bool) error

	SetLED(index int, c core.Color) error
	FillLEDs(c core.Color) error
	ClearLEDs() error
	SetLEDBrightness(b uint8) error
	RainbowLEDs() error
	ShiftLEDs(n int) error
	RotateLEDs(n int) error
}

var _ Controller = (*core.Robot)(nil)
