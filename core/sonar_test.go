package core

import (
	"errors"
	"testing"
)

func TestMeasureDistanceUnits(t *testing.T) {
	tests := []struct {
		echo uint32
		unit DistanceUnit
		want uint32
	}{
		{580, Centimeters, 10},
		{580, RawPulseWidth, 580},
		{1480, Inches, 10},
		{57, Centimeters, 0},
		{EchoTimeoutMicros, Centimeters, 500},
		{EchoTimeoutMicros + 1, Centimeters, 0},
		{0, RawPulseWidth, 0},
	}
	for _, tt := range tests {
		pins := newMockPins()
		pins.echo = tt.echo
		r := NewRanger(pins, BitBot.Sonar)

		got, err := r.MeasureDistance(tt.unit)
		if err != nil {
			t.Fatalf("echo %d: %v", tt.echo, err)
		}
		if got != tt.want {
			t.Errorf("echo %d %v: got %d, want %d", tt.echo, tt.unit, got, tt.want)
		}
	}
}

func TestMeasureDistanceTriggerSequence(t *testing.T) {
	pins := newMockPins()
	pins.echo = 1160
	r := NewRanger(pins, BitBot.Sonar)

	if _, err := r.MeasureDistance(Centimeters); err != nil {
		t.Fatal(err)
	}
	sonar := BitBot.Sonar
	want := []pinCall{
		{"pull", sonar, uint32(PullNone)},
		{"digital", sonar, uint32(Low)},
		{"delay_us", 0, 2},
		{"digital", sonar, uint32(High)},
		{"delay_us", 0, 10},
		{"digital", sonar, uint32(Low)},
		{"pulse", sonar, EchoTimeoutMicros},
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

func TestMeasureDistanceInvalidUnit(t *testing.T) {
	pins := newMockPins()
	r := NewRanger(pins, BitBot.Sonar)

	if _, err := r.MeasureDistance(DistanceUnit(9)); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("err = %v, want ErrInvalidUnit", err)
	}
	if len(pins.calls) != 0 {
		t.Errorf("pin touched for invalid unit: %v", pins.calls)
	}
}

func TestParseDistanceUnit(t *testing.T) {
	for s, want := range map[string]DistanceUnit{
		"": Centimeters, "cm": Centimeters, "raw": RawPulseWidth,
		"us": RawPulseWidth, "in": Inches, "inch": Inches,
	} {
		got, err := ParseDistanceUnit(s)
		if err != nil || got != want {
			t.Errorf("ParseDistanceUnit(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseDistanceUnit("feet"); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("feet: err = %v", err)
	}
}
