package core

import "errors"

// Round trip echo time per unit of distance.
const (
	MicrosPerCentimeter = 58
	MicrosPerInch       = 148

	MaxRangeCentimeters = 500
	EchoTimeoutMicros   = MaxRangeCentimeters * MicrosPerCentimeter
)

var ErrInvalidUnit = errors.New("invalid distance unit")

// DistanceUnit selects the scale MeasureDistance reports in.
type DistanceUnit uint8

const (
	RawPulseWidth DistanceUnit = iota
	Centimeters
	Inches
)

func (u DistanceUnit) String() string {
	switch u {
	case RawPulseWidth:
		return "raw"
	case Centimeters:
		return "cm"
	case Inches:
		return "in"
	default:
		return "unit(" + itoa(int(u)) + ")"
	}
}

// ParseDistanceUnit accepts the String forms of a unit.
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch s {
	case "raw", "us":
		return RawPulseWidth, nil
	case "cm", "":
		return Centimeters, nil
	case "in", "inch":
		return Inches, nil
	}
	return 0, ErrInvalidUnit
}

// Ranger runs an ultrasonic module whose trigger and echo share one pin.
type Ranger struct {
	pins PinIO
	pin  Pin
}

func NewRanger(pins PinIO, pin Pin) *Ranger {
	return &Ranger{pins: pins, pin: pin}
}

// MeasureDistance triggers one ping and converts the echo width to unit.
// No echo within range reads as 0, which is not an error.
func (r *Ranger) MeasureDistance(unit DistanceUnit) (uint32, error) {
	if unit > Inches {
		return 0, ErrInvalidUnit
	}
	raw, err := r.ping()
	if err != nil {
		return 0, err
	}
	switch unit {
	case Centimeters:
		return raw / MicrosPerCentimeter, nil
	case Inches:
		return raw / MicrosPerInch, nil
	default:
		return raw, nil
	}
}

func (r *Ranger) ping() (uint32, error) {
	if err := r.pins.SetPull(r.pin, PullNone); err != nil {
		return 0, err
	}
	if err := r.pins.DigitalWrite(r.pin, Low); err != nil {
		return 0, err
	}
	r.pins.DelayMicros(2)
	if err := r.pins.DigitalWrite(r.pin, High); err != nil {
		return 0, err
	}
	r.pins.DelayMicros(10)
	if err := r.pins.DigitalWrite(r.pin, Low); err != nil {
		return 0, err
	}

	raw, err := r.pins.PulseIn(r.pin, High, EchoTimeoutMicros)
	if err != nil {
		return 0, err
	}
	if raw == 0 {
		RecordTiming(EvtEchoTimeout, uint8(r.pin), 0, 0)
	} else {
		RecordTiming(EvtPing, uint8(r.pin), raw, 0)
	}
	return raw, nil
}
