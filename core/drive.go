package core

import (
	"errors"
	"time"
)

var ErrInvalidDirection = errors.New("invalid steer direction")

// SteerDirection names the wheel that runs backwards during a turn.
type SteerDirection uint8

const (
	SteerLeft SteerDirection = iota
	SteerRight
)

func (d SteerDirection) String() string {
	if d == SteerRight {
		return "right"
	}
	return "left"
}

// Sequencer composes motor commands into straight drives and pivot turns.
// Timed variants block for the duration and always finish with a stop.
type Sequencer struct {
	motors *MotorDriver
	pins   PinIO
}

func NewSequencer(motors *MotorDriver, pins PinIO) *Sequencer {
	return &Sequencer{motors: motors, pins: pins}
}

// DriveStraight runs both wheels at speed.
func (s *Sequencer) DriveStraight(speed int) error {
	return s.motors.SetMotor(All, speed)
}

// DriveStraightTimed drives for d, then stops. A zero or negative d still
// issues the stop right after the start.
func (s *Sequencer) DriveStraightTimed(speed int, d time.Duration) error {
	err := s.DriveStraight(speed)
	s.hold(d)
	return firstErr(err, s.Stop())
}

// Turn pivots in place. Negative speeds count as zero; dir alone picks the
// wheel that reverses.
func (s *Sequencer) Turn(dir SteerDirection, speed int) error {
	if dir > SteerRight {
		return ErrInvalidDirection
	}
	if speed < 0 {
		speed = 0
	}
	speed = ClampSpeed(speed)

	left, right := -speed, speed
	if dir == SteerRight {
		left, right = speed, -speed
	}
	if err := s.motors.SetMotor(Left, left); err != nil {
		return err
	}
	return s.motors.SetMotor(Right, right)
}

// TurnTimed turns for d, then stops both wheels. An invalid dir touches
// nothing.
func (s *Sequencer) TurnTimed(dir SteerDirection, speed int, d time.Duration) error {
	if dir > SteerRight {
		return ErrInvalidDirection
	}
	err := s.Turn(dir, speed)
	s.hold(d)
	return firstErr(err, s.Stop())
}

// Stop brings both wheels to zero.
func (s *Sequencer) Stop() error {
	RecordTiming(EvtStop, uint8(All), 0, 0)
	return s.motors.SetMotor(All, 0)
}

func (s *Sequencer) hold(d time.Duration) {
	ms := d.Milliseconds()
	if ms <= 0 {
		return
	}
	RecordTiming(EvtDelay, 0, uint32(ms), 0)
	s.pins.DelayMillis(uint32(ms))
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
