package core

import (
	"errors"
	"testing"
)

func TestWheelCommandFor(t *testing.T) {
	tests := []struct {
		speed int
		duty  uint16
		dir   Direction
	}{
		{0, 0, Forward},
		{500, 500, Forward},
		{1023, 1023, Forward},
		{5000, 1023, Forward},
		{-1, 1020, Reverse},
		{-200, 390, Reverse},
		{-300, 423, Reverse},
		{-400, 223, Reverse},
		{-600, 123, Reverse},
		{-800, 23, Reverse},
		{-1000, 23, Reverse},
		{-1023, 0, Reverse},
		{-5000, 0, Reverse},
	}
	for _, tt := range tests {
		got := WheelCommandFor(Left, tt.speed)
		if got.Duty != tt.duty || got.Direction != tt.dir {
			t.Errorf("speed %d: got duty=%d dir=%v, want duty=%d dir=%v",
				tt.speed, got.Duty, got.Direction, tt.duty, tt.dir)
		}
	}
}

func TestCompensateReverseBands(t *testing.T) {
	tests := map[int]int{
		100:   100,
		-6:    -19,
		-200:  -633,
		-201:  -402,
		-401:  -601,
		-601:  -751,
		-801:  -801,
		-1023: -1023,
	}
	for in, want := range tests {
		if got := CompensateReverse(in); got != want {
			t.Errorf("CompensateReverse(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSetMotorWritesDutyThenDirection(t *testing.T) {
	pins := newMockPins()
	board := BitBot
	m := NewMotorDriver(pins, &board)

	if err := m.SetMotor(Right, -200); err != nil {
		t.Fatal(err)
	}
	want := []pinCall{
		{"analog", board.RightSpeed, 390},
		{"digital", board.RightDir, uint32(High)},
	}
	if len(pins.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", pins.calls, want)
	}
	for i := range want {
		if pins.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, pins.calls[i], want[i])
		}
	}
}

func TestSetMotorAllLeftFirst(t *testing.T) {
	pins := newMockPins()
	board := BitBot
	m := NewMotorDriver(pins, &board)

	if err := m.SetMotor(All, 500); err != nil {
		t.Fatal(err)
	}
	analog := pins.writes("analog")
	if len(analog) != 2 {
		t.Fatalf("analog writes = %v", analog)
	}
	if analog[0].Pin != board.LeftSpeed || analog[1].Pin != board.RightSpeed {
		t.Errorf("order = %v, want left then right", analog)
	}
	for _, c := range analog {
		if c.Value != 500 {
			t.Errorf("duty on pin %d = %d, want 500", c.Pin, c.Value)
		}
	}
}

func TestSetMotorInvalidSide(t *testing.T) {
	pins := newMockPins()
	board := BitBot
	m := NewMotorDriver(pins, &board)

	if err := m.SetMotor(Side(7), 100); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("err = %v, want ErrInvalidSide", err)
	}
	if len(pins.calls) != 0 {
		t.Errorf("pins touched: %v", pins.calls)
	}
}

func TestSetMotorPropagatesPinError(t *testing.T) {
	pins := newMockPins()
	pins.failPin = BitBot.LeftSpeed
	pins.failErr = errPinFault
	board := BitBot
	m := NewMotorDriver(pins, &board)

	if err := m.SetMotor(All, 100); !errors.Is(err, errPinFault) {
		t.Errorf("err = %v, want pin fault", err)
	}
	if _, ok := pins.lastWrite("analog", board.RightSpeed); ok {
		t.Error("right wheel written after left failed")
	}
}
