package core

import (
	"errors"
	"time"

	"wheelbot/protocol"
)

// motion_done status codes
const (
	MotionOK       = 0
	MotionShutdown = 1
	MotionFailed   = 2
	MotionInvalid  = 3
)

// InitRobotCommands registers the motion, sensor and LED commands.
func InitRobotCommands() {
	RegisterCommand("set_motor", "side=%c speed=%i", handleSetMotor)
	RegisterCommand("drive", "speed=%i", handleDrive)
	RegisterCommand("drive_timed", "speed=%i ms=%i", handleDriveTimed)
	RegisterCommand("turn", "dir=%c speed=%i", handleTurn)
	RegisterCommand("turn_timed", "dir=%c speed=%i ms=%i", handleTurnTimed)
	RegisterCommand("stop", "", handleStop)

	RegisterCommand("query_distance", "unit=%c", handleQueryDistance)
	RegisterCommand("query_line", "side=%c", handleQueryLine)
	RegisterCommand("query_light", "side=%c", handleQueryLight)
	RegisterCommand("set_buzzer", "on=%c", handleSetBuzzer)

	RegisterCommand("led_set", "index=%c color=%u", handleLEDSet)
	RegisterCommand("led_fill", "color=%u", handleLEDFill)
	RegisterCommand("led_clear", "", handleLEDClear)
	RegisterCommand("led_brightness", "value=%c", handleLEDBrightness)
	RegisterCommand("led_rainbow", "", handleLEDRainbow)
	RegisterCommand("led_shift", "offset=%i", handleLEDShift)
	RegisterCommand("led_rotate", "offset=%i", handleLEDRotate)

	RegisterResponse("motion_done", "status=%c")
	RegisterResponse("distance", "unit=%c value=%u")
	RegisterResponse("line_state", "side=%c value=%c")
	RegisterResponse("light_state", "side=%c value=%hu")
}

// decodeInts reads n VLQ integers from data.
func decodeInts(data *[]byte, n int) ([]int, error) {
	vals := make([]int, n)
	for i := range vals {
		v, err := protocol.DecodeVLQInt(data)
		if err != nil {
			return nil, err
		}
		vals[i] = int(v)
	}
	return vals, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// motion runs fn unless shut down and reports the outcome to the host.
func motion(fn func(r *Robot) error) error {
	status := uint32(MotionOK)
	var err error
	if IsShutdown() {
		status = MotionShutdown
	} else if err = fn(MustRobot()); err != nil {
		status = motionStatus(err)
	}
	SendResponse("motion_done", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, status)
	})
	return err
}

func handleSetMotor(data *[]byte) error {
	args, err := decodeInts(data, 2)
	if err != nil {
		return err
	}
	return motion(func(r *Robot) error {
		return r.SetMotor(Side(args[0]), args[1])
	})
}

func handleDrive(data *[]byte) error {
	args, err := decodeInts(data, 1)
	if err != nil {
		return err
	}
	return motion(func(r *Robot) error {
		return r.DriveStraight(args[0])
	})
}

func handleDriveTimed(data *[]byte) error {
	args, err := decodeInts(data, 2)
	if err != nil {
		return err
	}
	return motion(func(r *Robot) error {
		return r.DriveStraightTimed(args[0], millis(args[1]))
	})
}

func handleTurn(data *[]byte) error {
	args, err := decodeInts(data, 2)
	if err != nil {
		return err
	}
	return motion(func(r *Robot) error {
		return r.Turn(SteerDirection(args[0]), args[1])
	})
}

func handleTurnTimed(data *[]byte) error {
	args, err := decodeInts(data, 3)
	if err != nil {
		return err
	}
	return motion(func(r *Robot) error {
		return r.TurnTimed(SteerDirection(args[0]), args[1], millis(args[2]))
	})
}

// motionStatus separates bad arguments from pin adapter failures.
func motionStatus(err error) uint32 {
	if errors.Is(err, ErrInvalidSide) || errors.Is(err, ErrInvalidDirection) {
		return MotionInvalid
	}
	return MotionFailed
}

// handleStop runs even while shut down.
func handleStop(data *[]byte) error {
	err := MustRobot().Stop()
	status := uint32(MotionOK)
	if err != nil {
		status = MotionFailed
	}
	SendResponse("motion_done", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, status)
	})
	return err
}

func handleQueryDistance(data *[]byte) error {
	unit, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	value, err := MustRobot().MeasureDistance(DistanceUnit(unit))
	if err != nil {
		return err
	}
	SendResponse("distance", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, unit)
		protocol.EncodeVLQUint(output, value)
	})
	return nil
}

func handleQueryLine(data *[]byte) error {
	side, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	seen, err := MustRobot().ReadLine(Side(side))
	if err != nil {
		return err
	}
	SendResponse("line_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, side)
		protocol.EncodeVLQUint(output, boolToUint(seen))
	})
	return nil
}

func handleQueryLight(data *[]byte) error {
	side, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	value, err := MustRobot().ReadLight(Side(side))
	if err != nil {
		return err
	}
	SendResponse("light_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, side)
		protocol.EncodeVLQUint(output, uint32(value))
	})
	return nil
}

func handleSetBuzzer(data *[]byte) error {
	on, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if on != 0 && IsShutdown() {
		return ErrShutdown
	}
	return MustRobot().SetBuzzer(on != 0)
}

func handleLEDSet(data *[]byte) error {
	args, err := decodeInts(data, 2)
	if err != nil {
		return err
	}
	return MustRobot().SetLED(args[0], Color(uint32(args[1])))
}

func handleLEDFill(data *[]byte) error {
	c, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	return MustRobot().FillLEDs(Color(c))
}

func handleLEDClear(data *[]byte) error {
	return MustRobot().ClearLEDs()
}

func handleLEDBrightness(data *[]byte) error {
	b, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	return MustRobot().SetLEDBrightness(uint8(b))
}

func handleLEDRainbow(data *[]byte) error {
	return MustRobot().RainbowLEDs()
}

func handleLEDShift(data *[]byte) error {
	args, err := decodeInts(data, 1)
	if err != nil {
		return err
	}
	return MustRobot().ShiftLEDs(args[0])
}

func handleLEDRotate(data *[]byte) error {
	args, err := decodeInts(data, 1)
	if err != nil {
		return err
	}
	return MustRobot().RotateLEDs(args[0])
}
