package core

import "errors"

// SpeedMax bounds a logical speed in both directions.
const SpeedMax = 1023

var ErrInvalidSide = errors.New("invalid side")

// Side addresses one wheel (or sensor) or, for motors, both wheels.
type Side uint8

const (
	Left Side = iota
	Right
	All
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case All:
		return "all"
	default:
		return "side(" + itoa(int(s)) + ")"
	}
}

// Direction is the level written to a wheel's direction pin.
type Direction uint8

const (
	Forward Direction = 0
	Reverse Direction = 1
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// WheelCommand is the pin-level form of a logical speed for one wheel.
type WheelCommand struct {
	Side      Side
	Duty      uint16
	Direction Direction
}

// ClampSpeed limits speed to [-SpeedMax, SpeedMax].
func ClampSpeed(speed int) int {
	if speed > SpeedMax {
		return SpeedMax
	}
	if speed < -SpeedMax {
		return -SpeedMax
	}
	return speed
}

// CompensateReverse scales a negative speed so reverse tracks forward: the
// motors respond weakly to low reverse duty, so small magnitudes get the
// largest boost. Non-negative speeds pass through.
func CompensateReverse(speed int) int {
	switch {
	case speed >= 0:
		return speed
	case speed >= -200:
		return speed * 19 / 6
	case speed >= -400:
		return speed * 2
	case speed >= -600:
		return speed * 3 / 2
	case speed >= -800:
		return speed * 5 / 4
	default:
		return speed
	}
}

// WheelCommandFor converts a logical speed into duty and direction.
// Reverse duty counts down from AnalogMax because the driver inverts the PWM
// while the direction pin is high.
func WheelCommandFor(side Side, speed int) WheelCommand {
	speed = ClampSpeed(speed)
	if speed >= 0 {
		return WheelCommand{Side: side, Duty: uint16(speed), Direction: Forward}
	}
	duty := AnalogMax + CompensateReverse(speed)
	if duty < 0 {
		duty = 0
	} else if duty > AnalogMax {
		duty = AnalogMax
	}
	return WheelCommand{Side: side, Duty: uint16(duty), Direction: Reverse}
}

// MotorDriver writes wheel commands to the board. It keeps no state between
// calls.
type MotorDriver struct {
	pins  PinIO
	board *Board
}

func NewMotorDriver(pins PinIO, board *Board) *MotorDriver {
	return &MotorDriver{pins: pins, board: board}
}

// SetMotor drives side at speed. All drives both wheels, left first.
func (m *MotorDriver) SetMotor(side Side, speed int) error {
	switch side {
	case Left, Right:
		return m.apply(WheelCommandFor(side, speed))
	case All:
		if err := m.apply(WheelCommandFor(Left, speed)); err != nil {
			return err
		}
		return m.apply(WheelCommandFor(Right, speed))
	default:
		return ErrInvalidSide
	}
}

func (m *MotorDriver) apply(cmd WheelCommand) error {
	speedPin, dirPin := m.board.wheelPins(cmd.Side)
	if err := m.pins.AnalogWrite(speedPin, cmd.Duty); err != nil {
		return err
	}
	if err := m.pins.DigitalWrite(dirPin, Level(cmd.Direction)); err != nil {
		return err
	}
	RecordTiming(EvtMotor, uint8(cmd.Side), uint32(cmd.Duty), uint32(cmd.Direction))
	return nil
}
