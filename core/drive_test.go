package core

import (
	"errors"
	"testing"
	"time"
)

func newTestSequencer() (*Sequencer, *mockPins) {
	pins := newMockPins()
	board := BitBot
	return NewSequencer(NewMotorDriver(pins, &board), pins), pins
}

func assertStopped(t *testing.T, pins *mockPins) {
	t.Helper()
	for _, p := range []Pin{BitBot.LeftSpeed, BitBot.RightSpeed} {
		if v, ok := pins.lastWrite("analog", p); !ok || v != 0 {
			t.Errorf("pin %d duty = %d (written %v), want 0", p, v, ok)
		}
	}
	for _, p := range []Pin{BitBot.LeftDir, BitBot.RightDir} {
		if v, _ := pins.lastWrite("digital", p); v != uint32(Forward) {
			t.Errorf("pin %d direction = %d, want forward", p, v)
		}
	}
}

func TestDriveStraightTimed(t *testing.T) {
	s, pins := newTestSequencer()

	if err := s.DriveStraightTimed(600, 1500*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if pins.sleptMillis != 1500 {
		t.Errorf("held %d ms, want 1500", pins.sleptMillis)
	}
	analog := pins.writes("analog")
	if len(analog) != 4 || analog[0].Value != 600 || analog[1].Value != 600 {
		t.Errorf("analog writes = %v", analog)
	}
	assertStopped(t, pins)
}

func TestDriveStraightTimedZeroDurationStillStops(t *testing.T) {
	s, pins := newTestSequencer()

	if err := s.DriveStraightTimed(300, 0); err != nil {
		t.Fatal(err)
	}
	if pins.sleptMillis != 0 {
		t.Errorf("held %d ms, want 0", pins.sleptMillis)
	}
	if n := len(pins.writes("analog")); n != 4 {
		t.Errorf("%d analog writes, want start and stop", n)
	}
	assertStopped(t, pins)
}

func TestTurnRejectsUnknownDirection(t *testing.T) {
	s, pins := newTestSequencer()

	if err := s.Turn(SteerDirection(5), 300); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Turn error = %v, want ErrInvalidDirection", err)
	}
	if err := s.TurnTimed(SteerDirection(5), 300, time.Second); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("TurnTimed error = %v, want ErrInvalidDirection", err)
	}
	if len(pins.calls) != 0 {
		t.Errorf("pins touched: %v", pins.calls)
	}
}

func TestTurnDirections(t *testing.T) {
	tests := []struct {
		dir         SteerDirection
		left, right WheelCommand
	}{
		{SteerLeft, WheelCommandFor(Left, -400), WheelCommandFor(Right, 400)},
		{SteerRight, WheelCommandFor(Left, 400), WheelCommandFor(Right, -400)},
	}
	for _, tt := range tests {
		s, pins := newTestSequencer()
		if err := s.Turn(tt.dir, 400); err != nil {
			t.Fatal(err)
		}
		if v, _ := pins.lastWrite("analog", BitBot.LeftSpeed); v != uint32(tt.left.Duty) {
			t.Errorf("%v: left duty = %d, want %d", tt.dir, v, tt.left.Duty)
		}
		if v, _ := pins.lastWrite("digital", BitBot.LeftDir); v != uint32(tt.left.Direction) {
			t.Errorf("%v: left dir = %d, want %d", tt.dir, v, tt.left.Direction)
		}
		if v, _ := pins.lastWrite("analog", BitBot.RightSpeed); v != uint32(tt.right.Duty) {
			t.Errorf("%v: right duty = %d, want %d", tt.dir, v, tt.right.Duty)
		}
		if v, _ := pins.lastWrite("digital", BitBot.RightDir); v != uint32(tt.right.Direction) {
			t.Errorf("%v: right dir = %d, want %d", tt.dir, v, tt.right.Direction)
		}
	}
}

func TestTurnNegativeSpeedIsZero(t *testing.T) {
	s, pins := newTestSequencer()

	if err := s.Turn(SteerLeft, -500); err != nil {
		t.Fatal(err)
	}
	// Left gets -0, which is forward at zero duty.
	assertStopped(t, pins)
}

func TestTurnTimedStopsAfterError(t *testing.T) {
	s, pins := newTestSequencer()
	pins.failPin = BitBot.RightDir
	pins.failErr = errPinFault

	err := s.TurnTimed(SteerRight, 300, 200*time.Millisecond)
	if !errors.Is(err, errPinFault) {
		t.Errorf("err = %v, want pin fault", err)
	}
	if pins.sleptMillis != 200 {
		t.Errorf("held %d ms, want 200", pins.sleptMillis)
	}
	if v, _ := pins.lastWrite("analog", BitBot.LeftSpeed); v != 0 {
		t.Errorf("left duty = %d after stop, want 0", v)
	}
}
